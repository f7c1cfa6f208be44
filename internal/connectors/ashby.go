package connectors

import (
	"context"
	"fmt"

	"github.com/jonathan/jobharvest/internal/ats"
	"github.com/jonathan/jobharvest/internal/fetch"
	"github.com/jonathan/jobharvest/internal/filter"
	"github.com/jonathan/jobharvest/internal/jobs"
)

// Ashby speaks the public Ashby posting API.
type Ashby struct {
	API     string
	Options *fetch.Options
}

type ashbyJob struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Location      string `json:"location"`
	Department    string `json:"department"`
	JobURL        string `json:"jobUrl"`
	ApplyURL      string `json:"applyUrl"`
	PublishedAt   string `json:"publishedAt"`
	IsRemote      bool   `json:"isRemote"`
	EmploymentTyp string `json:"employmentType"`
}

func (a *Ashby) Source() jobs.Source { return jobs.SourceAshby }

// FetchJobs lists an Ashby job board.
func (a *Ashby) FetchJobs(ctx context.Context, boardURL, titleFilter, locationFilter string) ([]jobs.Job, error) {
	slug := ats.CompanySlug(jobs.SourceAshby, boardURL)
	if slug == "" {
		return nil, &SlugError{BoardURL: boardURL}
	}
	api := a.API
	if api == "" {
		api = "https://api.ashbyhq.com/posting-api/job-board/%s?includeCompensation=true"
	}

	var resp struct {
		Jobs []ashbyJob `json:"jobs"`
	}
	if err := fetch.JSON(ctx, "GET", fmt.Sprintf(api, slug), "", a.Options, &resp); err != nil {
		return nil, err
	}
	if len(resp.Jobs) == 0 {
		return nil, &NoJobsError{BoardURL: boardURL}
	}

	var out []jobs.Job
	for _, aj := range resp.Jobs {
		if aj.Title == "" {
			continue
		}
		url := aj.JobURL
		if url == "" {
			url = aj.ApplyURL
		}
		location := orLocationSentinel(aj.Location)
		job := jobs.Job{
			ID:              jobs.JobID(jobs.SourceAshby, aj.ID, aj.Title, url),
			Title:           aj.Title,
			Location:        location,
			URL:             url,
			Source:          jobs.SourceAshby,
			Department:      aj.Department,
			WorkFlexibility: workFlexibilityFromLocation(location),
		}
		if aj.IsRemote {
			job.WorkFlexibility = jobs.WorkRemote
		}
		if t := parseISOTime(aj.PublishedAt); t != nil {
			job.PostingDate = t
		}
		if filter.MatchesTitle(job.Title, titleFilter) && filter.MatchesLocation(job, locationFilter) {
			out = append(out, job)
		}
	}
	return out, nil
}
