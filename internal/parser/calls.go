package parser

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/jonathan/jobharvest/internal/extract"
	"github.com/jonathan/jobharvest/internal/fetch"
	"github.com/jonathan/jobharvest/internal/jobs"
)

// jobKeywords mark a captured URL as probably carrying posting data.
var jobKeywords = []string{
	"job", "career", "position", "opening", "posting", "vacanc",
	"recruit", "search", "graphql", "opportunit",
}

// excludedHosts are analytics and tracking endpoints a rendered page fires
// that can never carry postings.
var excludedHosts = []string{
	"google-analytics.com", "googletagmanager.com", "doubleclick.net",
	"facebook.com", "facebook.net", "segment.io", "segment.com",
	"hotjar.com", "clarity.ms", "linkedin.com/px", "ads.", "analytics.",
	"sentry.io", "newrelic.com", "nr-data.net", "cookielaw.org",
	"onetrust.com", "fonts.googleapis.com", "fonts.gstatic.com",
}

// assetExtensions are static resources not worth refetching.
var assetExtensions = []string{
	".js", ".css", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico",
	".woff", ".woff2", ".ttf", ".map", ".webp",
}

// FilterCalls reduces the captured network calls to extraction candidates:
// tracking hosts and static assets are dropped, duplicates collapse, and the
// rest sort by plausibility so extraction tries job-looking URLs first, then
// same-domain calls, then everything else.
func FilterCalls(calls []jobs.DetectedAPICall, pageDomain string) []jobs.DetectedAPICall {
	var preferred, sameSite, rest []jobs.DetectedAPICall
	seen := make(map[string]bool)
	for _, call := range calls {
		key := call.Method + " " + call.URL
		if seen[key] || !worthFetching(call.URL) {
			continue
		}
		seen[key] = true
		switch {
		case hasJobKeyword(call.URL):
			preferred = append(preferred, call)
		case sameDomain(call.URL, pageDomain):
			sameSite = append(sameSite, call)
		default:
			rest = append(rest, call)
		}
	}
	return append(preferred, append(sameSite, rest...)...)
}

func worthFetching(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, host := range excludedHosts {
		if strings.Contains(lower, host) {
			return false
		}
	}
	path := lower
	if u, err := url.Parse(rawURL); err == nil {
		path = strings.ToLower(u.Path)
	}
	for _, ext := range assetExtensions {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}
	return true
}

func hasJobKeyword(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, kw := range jobKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func sameDomain(rawURL, pageDomain string) bool {
	return pageDomain != "" && strings.Contains(fetch.Domain(rawURL), pageDomain)
}

// apiEndpointPattern finds absolute API-looking URLs inside script text.
var apiEndpointPattern = regexp.MustCompile(`https?://[^\s"'<>\\]+(?:/api/|/graphql|/v\d/)[^\s"'<>\\]*`)

// maxEndpointCandidates bounds how many scraped endpoints get probed.
const maxEndpointCandidates = 5

// ScanAPIEndpoints pulls job-looking API URLs out of page and script text.
func ScanAPIEndpoints(html string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, match := range apiEndpointPattern.FindAllString(html, -1) {
		match = strings.TrimRight(match, ".,;)")
		if seen[match] || !hasJobKeyword(match) || !worthFetching(match) {
			continue
		}
		seen[match] = true
		out = append(out, match)
		if len(out) >= maxEndpointCandidates {
			break
		}
	}
	return out
}

// tryEndpoint refetches one endpoint and runs heuristic JSON extraction on
// the response.
func (p *SmartParser) tryEndpoint(ctx context.Context, req *request, endpoint, method, body string, headers map[string]string) []jobs.Job {
	raw, ok := p.fetchCallBody(ctx, jobs.DetectedAPICall{URL: endpoint, Method: method, Body: body, Headers: headers})
	if !ok {
		return nil
	}
	parsed, _ := extract.FromJSONHeuristic([]byte(raw), req.url)
	return p.toJobs(parsed, jobs.SourceUnknown)
}

// fetchCallBody replays a captured call and returns its body when it looks
// like JSON.
func (p *SmartParser) fetchCallBody(ctx context.Context, call jobs.DetectedAPICall) (string, bool) {
	method := call.Method
	if method == "" {
		method = "GET"
	}
	opts := *p.opts.Fetch
	if len(call.Headers) > 0 {
		merged := make(map[string]string, len(opts.Headers)+len(call.Headers))
		for k, v := range opts.Headers {
			merged[k] = v
		}
		for k, v := range call.Headers {
			merged[k] = v
		}
		opts.Headers = merged
	}
	result, err := fetch.Do(ctx, method, call.URL, call.Body, &opts)
	if err != nil {
		p.logf("refetch of %s failed: %v", call.URL, err)
		return "", false
	}
	if !looksLikeJSON(result) {
		return "", false
	}
	return result.Body, true
}

func looksLikeJSON(result *fetch.Result) bool {
	if strings.Contains(result.ContentType, "json") {
		return true
	}
	trimmed := strings.TrimSpace(result.Body)
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}
