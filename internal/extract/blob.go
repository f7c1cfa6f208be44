package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/jobharvest/internal/jobs"
)

// Script blobs below this size cannot hold a job list worth scanning.
const minBlobLen = 50

// FromEmbeddedBlobs scans inline <script> tags for embedded JSON documents
// (state bootstraps, JSON-LD, window assignments) and runs heuristic JSON
// extraction on each until one yields jobs.
func FromEmbeddedBlobs(html, baseURL string) []jobs.ParsedJob {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var found []jobs.ParsedJob
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if len(text) < minBlobLen {
			return true
		}
		for _, blob := range candidateBlobs(text) {
			if parsed, _ := FromJSONHeuristic([]byte(blob), baseURL); len(parsed) > 0 {
				found = parsed
				return false
			}
		}
		return true
	})
	return found
}

// candidateBlobs pulls plausible JSON documents out of script text: the whole
// script when it is a bare JSON document (JSON-LD, __NEXT_DATA__), plus the
// right-hand side of the first assignment when one is present.
func candidateBlobs(script string) []string {
	var blobs []string

	trimmed := strings.TrimSpace(script)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		blobs = append(blobs, trimmed)
	}

	// window.__STATE__ = {...}; style assignments
	if idx := strings.Index(trimmed, "="); idx > 0 && idx < 200 {
		rhs := strings.TrimSpace(trimmed[idx+1:])
		rhs = strings.TrimSuffix(rhs, ";")
		if strings.HasPrefix(rhs, "{") || strings.HasPrefix(rhs, "[") {
			if blob := balancedJSON(rhs); blob != "" && json.Valid([]byte(blob)) {
				blobs = append(blobs, blob)
			}
		}
	}
	return blobs
}

// balancedJSON returns the prefix of s spanning one balanced JSON value,
// tolerating trailing script code after the document.
func balancedJSON(s string) string {
	if s == "" {
		return ""
	}
	open, close := s[0], byte(0)
	switch open {
	case '{':
		close = '}'
	case '[':
		close = ']'
	default:
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}
