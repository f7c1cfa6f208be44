package ats

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jonathan/jobharvest/internal/jobs"
)

// MatchURL identifies a vendor from the URL string alone. A hit here is
// certain confidence and needs no page fetch.
func MatchURL(urlStr string) *jobs.DetectionResult {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil
	}
	host := strings.ToLower(parsed.Host)

	var source jobs.Source
	switch {
	case strings.Contains(host, "greenhouse.io"):
		source = jobs.SourceGreenhouse
	case strings.Contains(host, "lever.co"):
		source = jobs.SourceLever
	case strings.Contains(host, "ashbyhq.com"):
		source = jobs.SourceAshby
	case strings.Contains(host, "myworkdayjobs.com") || strings.Contains(host, "workday.com"):
		source = jobs.SourceWorkday
	default:
		return nil
	}

	normalized := NormalizeURL(source, urlStr)
	return &jobs.DetectionResult{
		Source:       &source,
		Confidence:   jobs.ConfidenceCertain,
		ActualATSURL: normalized,
		APIEndpoint:  apiEndpointFor(source, normalized),
		Message:      fmt.Sprintf("URL matches known %s pattern", source),
	}
}

// apiEndpointFor derives the public listing endpoint from a normalized board
// URL where the vendor exposes one.
func apiEndpointFor(source jobs.Source, boardURL string) string {
	slug := CompanySlug(source, boardURL)
	if slug == "" {
		return ""
	}
	switch source {
	case jobs.SourceGreenhouse:
		return fmt.Sprintf("https://boards-api.greenhouse.io/v1/boards/%s/jobs", slug)
	case jobs.SourceLever:
		return fmt.Sprintf("https://api.lever.co/v0/postings/%s?mode=json", slug)
	case jobs.SourceAshby:
		return fmt.Sprintf("https://api.ashbyhq.com/posting-api/job-board/%s", slug)
	default:
		return ""
	}
}

// indicators are vendor-specific keyword fragments counted in raw HTML: domain
// fragments, attribute prefixes, and class-name conventions.
var indicators = map[jobs.Source][]string{
	jobs.SourceGreenhouse: {"greenhouse.io", "grnhse", "gh_jid", "greenhouse-board", "boards.greenhouse"},
	jobs.SourceLever:      {"lever.co", "jobs.lever", "lever-jobs", "postings-group", "lever_"},
	jobs.SourceAshby:      {"ashbyhq", "ashby_jid", "ashby-job-board", "ashby_embed"},
	jobs.SourceWorkday:    {"myworkdayjobs", "workday", "data-automation-id", "wd-browser", "workdaycdn"},
}

// beameryIndicators co-signal Workday: companies fronting Workday with
// Beamery pages rarely mention Workday in the HTML at all.
var beameryIndicators = []string{"beamery", "bmry"}

// ScoreIndicators counts vendor keyword hits in the raw HTML and returns a
// score per vendor. Beamery hits are added to the Workday score.
func ScoreIndicators(html string) map[jobs.Source]int {
	lowered := strings.ToLower(html)
	scores := make(map[jobs.Source]int, len(indicators))
	for source, keywords := range indicators {
		for _, kw := range keywords {
			scores[source] += strings.Count(lowered, kw)
		}
	}
	for _, kw := range beameryIndicators {
		scores[jobs.SourceWorkday] += strings.Count(lowered, kw)
	}
	return scores
}

// careerURLKeywords flag a careers page by its URL alone.
var careerURLKeywords = []string{"career", "job", "join", "hiring", "work-with-us", "opening", "vacanc", "position"}

// hiringPhrases flag a careers page by its visible text.
var hiringPhrases = []string{
	"join our team", "open positions", "we're hiring", "we are hiring",
	"current openings", "view openings", "job openings", "open roles",
	"search jobs", "browse jobs", "apply now",
}

// LooksLikeCareersPage reports whether the URL or page text reads like a
// hiring page.
func LooksLikeCareersPage(urlStr, html string) bool {
	loweredURL := strings.ToLower(urlStr)
	for _, kw := range careerURLKeywords {
		if strings.Contains(loweredURL, kw) {
			return true
		}
	}
	loweredHTML := strings.ToLower(html)
	for _, phrase := range hiringPhrases {
		if strings.Contains(loweredHTML, phrase) {
			return true
		}
	}
	return false
}

// spaMarkers are framework root elements and global state names that mark a
// client-rendered page.
var spaMarkers = []string{
	`id="root"`, `id="app"`, `id="__next"`, "__next_data__",
	"window.__initial_state__", "window.__nuxt__", "data-reactroot",
	"ng-version", "ng-app", "data-v-app",
}

// CountSPAMarkers counts dynamic-SPA indicators present in the HTML.
func CountSPAMarkers(html string) int {
	lowered := strings.ToLower(html)
	count := 0
	for _, marker := range spaMarkers {
		if strings.Contains(lowered, marker) {
			count++
		}
	}
	return count
}

// sortedByScore returns vendors in descending indicator-score order, dropping
// zero scores.
func sortedByScore(scores map[jobs.Source]int) []jobs.Source {
	var out []jobs.Source
	for _, s := range jobs.KnownSources() {
		if scores[s] > 0 {
			out = append(out, s)
		}
	}
	// Insertion sort over at most four vendors.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && scores[out[j]] > scores[out[j-1]]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
