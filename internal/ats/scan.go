package ats

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/jobharvest/internal/jobs"
)

// sep matches a URL slash in both literal and backslash-escaped form, so the
// scanners catch URLs embedded inside JSON string literals.
const sep = `(?:\\?/)`

// embeddedURLPatterns find full ATS URLs inside raw HTML or script text.
var embeddedURLPatterns = map[jobs.Source]*regexp.Regexp{
	jobs.SourceGreenhouse: regexp.MustCompile(`https?:` + sep + sep + `(?:boards|job-boards|boards-api)\.greenhouse\.io` + sep + `(?:v1` + sep + `boards` + sep + `)?[A-Za-z0-9_-]+`),
	jobs.SourceLever:      regexp.MustCompile(`https?:` + sep + sep + `(?:jobs|api)\.lever\.co` + sep + `(?:v0` + sep + `postings` + sep + `)?[A-Za-z0-9_-]+`),
	jobs.SourceAshby:      regexp.MustCompile(`https?:` + sep + sep + `(?:jobs|api)\.ashbyhq\.com` + sep + `(?:posting-api` + sep + `job-board` + sep + `)?[A-Za-z0-9_-]+`),
	jobs.SourceWorkday:    regexp.MustCompile(`https?:` + sep + sep + `[a-z0-9-]+\.wd\d+\.myworkdayjobs\.com(?:` + sep + `[A-Za-z0-9_.-]+)*`),
}

// workdayFragment reconstructs a canonical Workday URL from partial host
// fragments like "acme.wd5.myworkdayjobs.com/External" appearing without a
// scheme, commonly inside config blobs.
var workdayFragment = regexp.MustCompile(`([a-z0-9-]+)\.(wd\d+)\.myworkdayjobs\.com(?:` + sep + `([A-Za-z0-9_-]+))?`)

// metaRefreshPattern captures the redirect target of a meta-refresh tag.
var metaRefreshPattern = regexp.MustCompile(`(?i)<meta[^>]+http-equiv=["']?refresh["']?[^>]*url=([^"'>\s]+)`)

// jsRedirectPattern captures a JavaScript location assignment.
var jsRedirectPattern = regexp.MustCompile(`(?:window\.location(?:\.href)?|location\.href)\s*=\s*["']([^"']+)["']`)

// EmbeddedURL is one ATS URL found by scanning page or script text.
type EmbeddedURL struct {
	Source jobs.Source
	URL    string
}

// ScanForEmbeddedURLs regex-searches text for full ATS URLs, unescaping and
// normalizing each hit. Hits are returned in vendor probe-priority order,
// deduplicated.
func ScanForEmbeddedURLs(text string) []EmbeddedURL {
	var out []EmbeddedURL
	seen := make(map[string]bool)
	for _, source := range jobs.KnownSources() {
		pattern := embeddedURLPatterns[source]
		for _, match := range pattern.FindAllString(text, -1) {
			cleaned := NormalizeURL(source, unescapeURL(match))
			if seen[cleaned] {
				continue
			}
			seen[cleaned] = true
			out = append(out, EmbeddedURL{Source: source, URL: cleaned})
		}
	}

	// Scheme-less Workday fragments still identify the board.
	if len(out) == 0 {
		if m := workdayFragment.FindStringSubmatch(text); m != nil {
			reconstructed := fmt.Sprintf("https://%s.%s.myworkdayjobs.com", m[1], m[2])
			if m[3] != "" {
				reconstructed += "/" + m[3]
			}
			out = append(out, EmbeddedURL{Source: jobs.SourceWorkday, URL: reconstructed})
		}
	}
	return out
}

// RedirectTarget returns the destination of a meta-refresh or JavaScript
// redirect present in the HTML, or empty.
func RedirectTarget(html string) string {
	if m := metaRefreshPattern.FindStringSubmatch(html); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := jsRedirectPattern.FindStringSubmatch(html); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// ScriptSources lists external script URLs referenced by the page, resolved
// against the page URL where relative.
func ScriptSources(html, pageURL string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base := strings.TrimSuffix(pageURL, "/")
	var out []string
	doc.Find("script[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		switch {
		case src == "":
		case strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://"):
			out = append(out, src)
		case strings.HasPrefix(src, "//"):
			out = append(out, "https:"+src)
		case strings.HasPrefix(src, "/"):
			if root := siteRoot(pageURL); root != "" {
				out = append(out, root+src)
			}
		default:
			out = append(out, base+"/"+src)
		}
	})
	return out
}

// InlineScriptText concatenates every inline script body on the page.
func InlineScriptText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	var sb strings.Builder
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		if _, external := sel.Attr("src"); !external {
			sb.WriteString(sel.Text())
			sb.WriteString("\n")
		}
	})
	return sb.String()
}

// tagManagerHosts are third-party script hosts through which vendors commonly
// inject the real ATS URL.
var tagManagerHosts = []string{"googletagmanager.com", "gtm.js", "segment.com", "tealiumiq.com"}

// IsTagManagerScript reports whether a script URL points at a known
// tag-manager host.
func IsTagManagerScript(src string) bool {
	lowered := strings.ToLower(src)
	for _, host := range tagManagerHosts {
		if strings.Contains(lowered, host) {
			return true
		}
	}
	return false
}

func unescapeURL(s string) string {
	return strings.ReplaceAll(s, `\/`, "/")
}

func siteRoot(pageURL string) string {
	idx := strings.Index(pageURL, "://")
	if idx < 0 {
		return ""
	}
	rest := pageURL[idx+3:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		return pageURL[:idx+3+slash]
	}
	return pageURL
}
