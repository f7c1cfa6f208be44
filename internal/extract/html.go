package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/jobharvest/internal/jobs"
)

// jobHrefPattern matches link targets that carry an explicit job id segment.
var jobHrefPattern = regexp.MustCompile(`(?i)/(?:job|jobs|position|positions|posting|postings|opening|openings|career|careers|vacancy|vacancies)/[^"'\s?#]*\d`)

// jobLinkKeywords are looser signals for the generic link family.
var jobLinkKeywords = []string{"/job/", "/jobs/", "/careers/", "/career/", "/positions/", "/position/", "/openings/", "/opening/", "/vacancies/", "/roles/"}

// Titles shorter than this are navigation chrome, not postings.
const minLinkTitleLen = 4

// FromHTML runs the direct HTML pattern extractors over a (possibly rendered)
// page. Two pattern families are tried in order: links whose href carries a
// job id, then generic job/career/position link heuristics. Results are
// deduplicated by URL.
func FromHTML(html, baseURL string) []jobs.ParsedJob {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	found := collectLinks(doc, baseURL, func(href string) bool {
		return jobHrefPattern.MatchString(href)
	})
	if len(found) > 0 {
		return found
	}

	return collectLinks(doc, baseURL, func(href string) bool {
		lowered := strings.ToLower(href)
		for _, kw := range jobLinkKeywords {
			if strings.Contains(lowered, kw) {
				return true
			}
		}
		return false
	})
}

// collectLinks walks every anchor, keeps those whose href passes match and
// whose text looks like a posting title, and resolves hrefs against baseURL.
func collectLinks(doc *goquery.Document, baseURL string, match func(string) bool) []jobs.ParsedJob {
	base, _ := url.Parse(baseURL)
	seen := make(map[string]bool)
	var out []jobs.ParsedJob

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if href == "" || !match(href) {
			return
		}

		title := strings.TrimSpace(sel.Text())
		if len(title) < minLinkTitleLen || looksLikeNavigation(title) {
			return
		}

		resolved := href
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				resolved = base.ResolveReference(ref).String()
			}
		}
		if seen[resolved] {
			return
		}
		seen[resolved] = true

		out = append(out, jobs.ParsedJob{
			Title:    collapseSpaces(title),
			Location: findNearbyLocation(sel),
			URL:      resolved,
		})
	})
	return out
}

// navigationTitles are anchor texts that never name a posting.
var navigationTitles = map[string]bool{
	"apply": true, "apply now": true, "learn more": true, "view all": true,
	"see all jobs": true, "all jobs": true, "careers": true, "jobs": true,
	"view job": true, "read more": true, "search jobs": true, "open positions": true,
}

func looksLikeNavigation(title string) bool {
	return navigationTitles[strings.ToLower(strings.TrimSpace(title))]
}

// findNearbyLocation looks for a location-ish sibling or child element near a
// job link, the way board markup usually lays out title/location pairs.
func findNearbyLocation(sel *goquery.Selection) string {
	for _, probe := range []*goquery.Selection{
		sel.Find("[class*='location']"),
		sel.Parent().Find("[class*='location']"),
		sel.Parent().Parent().Find("[class*='location']").First(),
	} {
		if probe.Length() > 0 {
			if text := strings.TrimSpace(probe.First().Text()); text != "" {
				return collapseSpaces(text)
			}
		}
	}
	return jobs.LocationNotSpecified
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// HasListingMarkup reports whether the raw HTML already carries server-side
// listing structure: a table, or links matching the job href patterns. Pages
// without it need a JS render before extraction is worth trying.
func HasListingMarkup(html string) bool {
	if strings.Contains(strings.ToLower(html), "<table") {
		return true
	}
	if jobHrefPattern.MatchString(html) {
		return true
	}
	lowered := strings.ToLower(html)
	for _, kw := range jobLinkKeywords {
		if strings.Contains(lowered, `href="`+kw) || strings.Contains(lowered, "href='"+kw) {
			return true
		}
	}
	return false
}
