package connectors

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jonathan/jobharvest/internal/ats"
	"github.com/jonathan/jobharvest/internal/fetch"
	"github.com/jonathan/jobharvest/internal/filter"
	"github.com/jonathan/jobharvest/internal/jobs"
)

// Greenhouse speaks the public Greenhouse board-jobs API.
type Greenhouse struct {
	// API is the endpoint template, overridable for tests.
	API     string
	Options *fetch.Options
}

type greenhouseJob struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	AbsoluteURL string `json:"absolute_url"`
	UpdatedAt   string `json:"updated_at"`
	FirstPub    string `json:"first_published"`
	Location    struct {
		Name string `json:"name"`
	} `json:"location"`
	Departments []struct {
		Name string `json:"name"`
	} `json:"departments"`
	CompanyName string `json:"company_name"`
}

func (g *Greenhouse) Source() jobs.Source { return jobs.SourceGreenhouse }

// FetchJobs lists a Greenhouse board.
func (g *Greenhouse) FetchJobs(ctx context.Context, boardURL, titleFilter, locationFilter string) ([]jobs.Job, error) {
	slug := ats.CompanySlug(jobs.SourceGreenhouse, boardURL)
	if slug == "" {
		return nil, &SlugError{BoardURL: boardURL}
	}
	api := g.API
	if api == "" {
		api = "https://boards-api.greenhouse.io/v1/boards/%s/jobs?content=true"
	}

	var resp struct {
		Jobs []greenhouseJob `json:"jobs"`
	}
	if err := fetch.JSON(ctx, "GET", fmt.Sprintf(api, slug), "", g.Options, &resp); err != nil {
		return nil, err
	}
	if len(resp.Jobs) == 0 {
		return nil, &NoJobsError{BoardURL: boardURL}
	}

	var out []jobs.Job
	for _, gj := range resp.Jobs {
		if gj.Title == "" {
			continue
		}
		location := orLocationSentinel(gj.Location.Name)
		job := jobs.Job{
			ID:              jobs.JobID(jobs.SourceGreenhouse, strconv.FormatInt(gj.ID, 10), gj.Title, gj.AbsoluteURL),
			Title:           gj.Title,
			Location:        location,
			URL:             gj.AbsoluteURL,
			Source:          jobs.SourceGreenhouse,
			CompanyName:     gj.CompanyName,
			WorkFlexibility: workFlexibilityFromLocation(location),
		}
		if len(gj.Departments) > 0 {
			job.Department = gj.Departments[0].Name
		}
		if t := parseISOTime(gj.UpdatedAt); t != nil {
			job.PostingDate = t
		}
		if t := parseISOTime(gj.FirstPub); t != nil {
			job.OriginalPostingDate = t
			if job.PostingDate != nil && job.PostingDate.After(t.Add(24*time.Hour)) {
				job.WasBumped = true
			}
		}
		if filter.MatchesTitle(job.Title, titleFilter) && filter.MatchesLocation(job, locationFilter) {
			out = append(out, job)
		}
	}
	return out, nil
}

// parseISOTime accepts the timestamp shapes vendors actually emit.
func parseISOTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-07:00", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
