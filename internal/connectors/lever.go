package connectors

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/jobharvest/internal/ats"
	"github.com/jonathan/jobharvest/internal/fetch"
	"github.com/jonathan/jobharvest/internal/filter"
	"github.com/jonathan/jobharvest/internal/jobs"
)

// Lever speaks the public Lever postings API.
type Lever struct {
	API     string
	Options *fetch.Options
}

type leverPosting struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	HostedURL  string `json:"hostedUrl"`
	CreatedAt  int64  `json:"createdAt"` // epoch milliseconds
	Categories struct {
		Location   string `json:"location"`
		Team       string `json:"team"`
		Commitment string `json:"commitment"`
	} `json:"categories"`
	WorkplaceType string `json:"workplaceType"` // remote / hybrid / on-site
}

func (l *Lever) Source() jobs.Source { return jobs.SourceLever }

// FetchJobs lists a Lever board.
func (l *Lever) FetchJobs(ctx context.Context, boardURL, titleFilter, locationFilter string) ([]jobs.Job, error) {
	slug := ats.CompanySlug(jobs.SourceLever, boardURL)
	if slug == "" {
		return nil, &SlugError{BoardURL: boardURL}
	}
	api := l.API
	if api == "" {
		api = "https://api.lever.co/v0/postings/%s?mode=json"
	}

	var postings []leverPosting
	if err := fetch.JSON(ctx, "GET", fmt.Sprintf(api, slug), "", l.Options, &postings); err != nil {
		return nil, err
	}
	if len(postings) == 0 {
		return nil, &NoJobsError{BoardURL: boardURL}
	}

	var out []jobs.Job
	for _, p := range postings {
		if p.Text == "" {
			continue
		}
		location := orLocationSentinel(p.Categories.Location)
		job := jobs.Job{
			ID:              jobs.JobID(jobs.SourceLever, p.ID, p.Text, p.HostedURL),
			Title:           p.Text,
			Location:        location,
			URL:             p.HostedURL,
			Source:          jobs.SourceLever,
			Department:      p.Categories.Team,
			WorkFlexibility: leverWorkFlexibility(p.WorkplaceType, location),
		}
		if p.CreatedAt > 0 {
			t := time.UnixMilli(p.CreatedAt).UTC()
			job.PostingDate = &t
		}
		if filter.MatchesTitle(job.Title, titleFilter) && filter.MatchesLocation(job, locationFilter) {
			out = append(out, job)
		}
	}
	return out, nil
}

func leverWorkFlexibility(workplaceType, location string) jobs.WorkFlexibility {
	switch workplaceType {
	case "remote":
		return jobs.WorkRemote
	case "hybrid":
		return jobs.WorkHybrid
	case "on-site", "onsite":
		return jobs.WorkOnsite
	}
	return workFlexibilityFromLocation(location)
}
