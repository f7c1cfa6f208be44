package connectors

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/jobharvest/internal/fetch"
	"github.com/jonathan/jobharvest/internal/filter"
	"github.com/jonathan/jobharvest/internal/jobs"
)

// Workday speaks the Workday CXS jobs endpoint of a tenant instance. Unlike
// the other vendors it pages through results, bounded by MaxPages.
type Workday struct {
	Options  *fetch.Options
	PageSize int
	MaxPages int
}

type workdayPosting struct {
	Title         string   `json:"title"`
	ExternalPath  string   `json:"externalPath"`
	LocationsText string   `json:"locationsText"`
	PostedOn      string   `json:"postedOn"`
	BulletFields  []string `json:"bulletFields"`
}

func (w *Workday) Source() jobs.Source { return jobs.SourceWorkday }

// FetchJobs lists a Workday board. boardURL must be the normalized job-list
// root, e.g. https://acme.wd5.myworkdayjobs.com/External.
func (w *Workday) FetchJobs(ctx context.Context, boardURL, titleFilter, locationFilter string) ([]jobs.Job, error) {
	parsed, err := url.Parse(boardURL)
	if err != nil || parsed.Host == "" {
		return nil, &SlugError{BoardURL: boardURL}
	}
	tenant := strings.Split(parsed.Hostname(), ".")[0]
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	site := ""
	if len(segments) > 0 {
		// Skip a locale prefix like en-US.
		site = segments[len(segments)-1]
	}
	if tenant == "" || site == "" {
		return nil, &SlugError{BoardURL: boardURL}
	}

	pageSize := w.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	maxPages := w.MaxPages
	if maxPages <= 0 {
		maxPages = 3
	}
	endpoint := fmt.Sprintf("%s://%s/wday/cxs/%s/%s/jobs", parsed.Scheme, parsed.Host, tenant, site)

	var out []jobs.Job
	for page := 0; page < maxPages; page++ {
		body := fmt.Sprintf(`{"limit":%d,"offset":%d,"searchText":""}`, pageSize, page*pageSize)
		var resp struct {
			Total       int              `json:"total"`
			JobPostings []workdayPosting `json:"jobPostings"`
			Error       string           `json:"error"`
		}
		if err := fetch.JSON(ctx, "POST", endpoint, body, w.Options, &resp); err != nil {
			if page == 0 {
				return nil, err
			}
			break
		}
		if resp.Error != "" {
			return nil, &APIError{Source: "workday", Message: resp.Error}
		}
		if len(resp.JobPostings) == 0 {
			break
		}

		for _, p := range resp.JobPostings {
			if p.Title == "" {
				continue
			}
			location := orLocationSentinel(p.LocationsText)
			job := jobs.Job{
				ID:              jobs.JobID(jobs.SourceWorkday, workdayNativeID(p), p.Title, boardURL+p.ExternalPath),
				Title:           p.Title,
				Location:        location,
				URL:             boardURL + p.ExternalPath,
				Source:          jobs.SourceWorkday,
				WorkFlexibility: workFlexibilityFromLocation(location),
			}
			if t := parsePostedOn(p.PostedOn); t != nil {
				job.PostingDate = t
			}
			if filter.MatchesTitle(job.Title, titleFilter) && filter.MatchesLocation(job, locationFilter) {
				out = append(out, job)
			}
		}
		if len(resp.JobPostings) < pageSize {
			break
		}
	}

	if len(out) == 0 {
		return nil, &NoJobsError{BoardURL: boardURL}
	}
	return out, nil
}

// workdayNativeID pulls the requisition id out of the bullet fields when the
// tenant exposes one.
func workdayNativeID(p workdayPosting) string {
	for _, f := range p.BulletFields {
		if strings.HasPrefix(strings.ToUpper(f), "R") || strings.HasPrefix(strings.ToUpper(f), "JR") {
			return f
		}
	}
	return ""
}

// parsePostedOn handles Workday's relative posting labels ("Posted Today",
// "Posted 3 Days Ago"). Anything unparseable yields nil.
func parsePostedOn(s string) *time.Time {
	s = strings.TrimSpace(strings.TrimPrefix(s, "Posted "))
	now := time.Now().UTC().Truncate(24 * time.Hour)
	switch {
	case strings.EqualFold(s, "Today"):
		return &now
	case strings.EqualFold(s, "Yesterday"):
		t := now.AddDate(0, 0, -1)
		return &t
	}
	var days int
	if _, err := fmt.Sscanf(s, "%d Days Ago", &days); err == nil && days > 0 {
		t := now.AddDate(0, 0, -days)
		return &t
	}
	if _, err := fmt.Sscanf(s, "%d+ Days Ago", &days); err == nil && days > 0 {
		t := now.AddDate(0, 0, -days)
		return &t
	}
	return nil
}
