package extract

import (
	"encoding/json"
	"strings"

	"github.com/jonathan/jobharvest/internal/jobs"
	"github.com/jonathan/jobharvest/internal/schema"
)

// Field name candidates tried in order when guessing a structure. The first
// name present on a sampled element wins.
var (
	titleFieldCandidates    = []string{"title", "jobTitle", "job_title", "name", "position", "text"}
	locationFieldCandidates = []string{"location", "jobLocation", "job_location", "city", "office", "locationName"}
	urlFieldCandidates      = []string{"absolute_url", "url", "jobUrl", "job_url", "hostedUrl", "applyUrl", "link", "slug", "id"}
)

// Array path keywords that suggest a node holds job records.
var jobArrayKeywords = []string{"job", "posting", "position", "opening", "result", "vacanc", "career", "item", "data"}

// maxScanDepth bounds the document walk; real job APIs nest shallowly.
const maxScanDepth = 6

// DiscoverStructure guesses a JobResponseStructure for an unknown JSON
// document without any model: it walks the document for arrays of objects
// that carry a title-like field, scores them, and returns the best guess.
// Returns nil when nothing job-shaped is found.
func DiscoverStructure(data []byte) *schema.JobResponseStructure {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}

	best := findBestArray(doc, "", 0)
	if best == nil {
		return nil
	}
	return best.structure
}

// FromJSONHeuristic runs structure discovery and extraction in one step.
// Returns the jobs and the structure that produced them, or (nil, nil).
func FromJSONHeuristic(data []byte, baseURL string) ([]jobs.ParsedJob, *schema.JobResponseStructure) {
	structure := DiscoverStructure(data)
	if structure == nil {
		return nil, nil
	}
	found := FromJSON(data, structure, baseURL)
	if len(found) == 0 {
		return nil, nil
	}
	return found, structure
}

type arrayCandidate struct {
	structure *schema.JobResponseStructure
	score     int
}

// findBestArray walks the document collecting scored candidates and keeps the
// highest-scoring one.
func findBestArray(node interface{}, path string, depth int) *arrayCandidate {
	if depth > maxScanDepth {
		return nil
	}

	var best *arrayCandidate
	consider := func(c *arrayCandidate) {
		if c != nil && (best == nil || c.score > best.score) {
			best = c
		}
	}

	switch n := node.(type) {
	case []interface{}:
		consider(scoreArray(n, path))
	case map[string]interface{}:
		for key, child := range n {
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}
			consider(findBestArray(child, childPath, depth+1))
		}
	}
	return best
}

// scoreArray rates an array as a jobs candidate: it must be non-empty objects
// with a recognizable title field; path keywords, element count, and extra
// recognizable fields raise the score.
func scoreArray(arr []interface{}, path string) *arrayCandidate {
	if len(arr) == 0 {
		return nil
	}
	first, ok := arr[0].(map[string]interface{})
	if !ok {
		return nil
	}

	titleField := firstPresentField(first, titleFieldCandidates)
	if titleField == "" {
		return nil
	}

	score := 1
	if len(arr) > 1 {
		score++
	}
	lowered := strings.ToLower(path)
	for _, kw := range jobArrayKeywords {
		if strings.Contains(lowered, kw) {
			score += 2
			break
		}
	}

	structure := &schema.JobResponseStructure{
		JobsArrayPath: path,
		TitleField:    titleField,
	}
	if f := firstPresentField(first, locationFieldCandidates); f != "" {
		structure.LocationField = f
		score++
	}
	if f := firstPresentField(first, urlFieldCandidates); f != "" {
		structure.URLField = f
		score++
	}

	return &arrayCandidate{structure: structure, score: score}
}

func firstPresentField(obj map[string]interface{}, candidates []string) string {
	for _, name := range candidates {
		if v, ok := obj[name]; ok {
			switch v.(type) {
			case string, float64:
				return name
			}
		}
	}
	return ""
}
