package ats

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/jonathan/jobharvest/internal/fetch"
	"github.com/jonathan/jobharvest/internal/jobs"
)

// Prober live-checks candidate ATS public endpoints for a company. Base URLs
// are fields so tests can point them at local servers.
type Prober struct {
	GreenhouseAPI string
	LeverAPI      string
	AshbyAPI      string
	WorkdayHost   string // host template with %s for slug and wdN
	Options       *fetch.Options
	Verbose       bool
}

// NewProber returns a prober against the real vendor endpoints.
func NewProber(verbose bool) *Prober {
	return &Prober{
		GreenhouseAPI: "https://boards-api.greenhouse.io/v1/boards/%s/jobs",
		LeverAPI:      "https://api.lever.co/v0/postings/%s?mode=json",
		AshbyAPI:      "https://api.ashbyhq.com/posting-api/job-board/%s",
		WorkdayHost:   "https://%s.%s.myworkdayjobs.com",
		Options:       fetch.DefaultOptions(),
		Verbose:       verbose,
	}
}

// ProbeResult is one successful live probe.
type ProbeResult struct {
	Source      jobs.Source
	BoardURL    string
	APIEndpoint string
}

// Probe tries one vendor's public endpoints for every slug guess, returning
// the first candidate whose response holds at least one job-shaped record.
// Probe failures are never propagated; a failed candidate is just skipped.
func (p *Prober) Probe(ctx context.Context, source jobs.Source, slugs []string) *ProbeResult {
	for _, slug := range slugs {
		if slug == "" {
			continue
		}
		var result *ProbeResult
		switch source {
		case jobs.SourceGreenhouse:
			result = p.probeGreenhouse(ctx, slug)
		case jobs.SourceLever:
			result = p.probeLever(ctx, slug)
		case jobs.SourceAshby:
			result = p.probeAshby(ctx, slug)
		case jobs.SourceWorkday:
			result = p.probeWorkday(ctx, slug)
		}
		if result != nil {
			if p.Verbose {
				log.Printf("[PROBE] %s probe succeeded for slug %q: %s", source, slug, result.BoardURL)
			}
			return result
		}
	}
	return nil
}

func (p *Prober) probeGreenhouse(ctx context.Context, slug string) *ProbeResult {
	endpoint := fmt.Sprintf(p.GreenhouseAPI, slug)
	var resp struct {
		Jobs []struct {
			Title       string `json:"title"`
			AbsoluteURL string `json:"absolute_url"`
		} `json:"jobs"`
	}
	if err := fetch.JSON(ctx, "GET", endpoint, "", p.Options, &resp); err != nil {
		return nil
	}
	if len(resp.Jobs) == 0 || resp.Jobs[0].Title == "" {
		return nil
	}

	// The board URL falls out of any posting's absolute_url once the trailing
	// job id is stripped.
	boardURL := fmt.Sprintf("https://boards.greenhouse.io/%s", slug)
	if resp.Jobs[0].AbsoluteURL != "" {
		boardURL = NormalizeURL(jobs.SourceGreenhouse, resp.Jobs[0].AbsoluteURL)
	}
	return &ProbeResult{Source: jobs.SourceGreenhouse, BoardURL: boardURL, APIEndpoint: endpoint}
}

func (p *Prober) probeLever(ctx context.Context, slug string) *ProbeResult {
	endpoint := fmt.Sprintf(p.LeverAPI, slug)
	var postings []struct {
		Text      string `json:"text"`
		HostedURL string `json:"hostedUrl"`
	}
	if err := fetch.JSON(ctx, "GET", endpoint, "", p.Options, &postings); err != nil {
		return nil
	}
	if len(postings) == 0 || postings[0].Text == "" {
		return nil
	}
	boardURL := fmt.Sprintf("https://jobs.lever.co/%s", slug)
	if postings[0].HostedURL != "" {
		boardURL = NormalizeURL(jobs.SourceLever, postings[0].HostedURL)
	}
	return &ProbeResult{Source: jobs.SourceLever, BoardURL: boardURL, APIEndpoint: endpoint}
}

func (p *Prober) probeAshby(ctx context.Context, slug string) *ProbeResult {
	endpoint := fmt.Sprintf(p.AshbyAPI, slug)
	var resp struct {
		Jobs []struct {
			Title  string `json:"title"`
			JobURL string `json:"jobUrl"`
		} `json:"jobs"`
	}
	if err := fetch.JSON(ctx, "GET", endpoint, "", p.Options, &resp); err != nil {
		return nil
	}
	if len(resp.Jobs) == 0 || resp.Jobs[0].Title == "" {
		return nil
	}
	return &ProbeResult{
		Source:      jobs.SourceAshby,
		BoardURL:    fmt.Sprintf("https://jobs.ashbyhq.com/%s", slug),
		APIEndpoint: endpoint,
	}
}

// workdayInstances are the instance subdomains tried when guessing a Workday
// tenant, most common first.
var workdayInstances = []string{"wd1", "wd5", "wd3", "wd2", "wd12"}

// workdaySites are common site names under a tenant.
var workdaySites = []string{"External", "Careers", "Jobs"}

func (p *Prober) probeWorkday(ctx context.Context, slug string) *ProbeResult {
	for _, instance := range workdayInstances {
		host := fmt.Sprintf(p.WorkdayHost, slug, instance)
		for _, site := range workdaySites {
			endpoint := fmt.Sprintf("%s/wday/cxs/%s/%s/jobs", host, slug, site)
			body := `{"limit":20,"offset":0,"searchText":""}`
			var resp struct {
				JobPostings []struct {
					Title string `json:"title"`
				} `json:"jobPostings"`
			}
			if err := fetch.JSON(ctx, "POST", endpoint, body, p.Options, &resp); err != nil {
				continue
			}
			if len(resp.JobPostings) == 0 || resp.JobPostings[0].Title == "" {
				continue
			}
			return &ProbeResult{
				Source:      jobs.SourceWorkday,
				BoardURL:    fmt.Sprintf("%s/%s", host, site),
				APIEndpoint: endpoint,
			}
		}
	}
	return nil
}

// SlugGuesses derives company-slug candidates from a careers URL: the second
// level domain, its hyphen-stripped form, and the first path segment.
func SlugGuesses(urlStr string) []string {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Host == "" {
		return nil
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	parts := strings.Split(host, ".")

	var guesses []string
	appendUnique := func(s string) {
		if s == "" {
			return
		}
		for _, g := range guesses {
			if g == s {
				return
			}
		}
		guesses = append(guesses, s)
	}

	if len(parts) >= 2 {
		appendUnique(parts[len(parts)-2])
		appendUnique(strings.ReplaceAll(parts[len(parts)-2], "-", ""))
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) > 0 && segments[0] != "" && !strings.Contains(segments[0], ".") {
		appendUnique(strings.ToLower(segments[0]))
	}
	return guesses
}
