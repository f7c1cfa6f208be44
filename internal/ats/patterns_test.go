package ats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobharvest/internal/jobs"
)

func TestMatchURL_KnownVendors(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		source   jobs.Source
		boardURL string
	}{
		{
			name:     "greenhouse board",
			url:      "https://boards.greenhouse.io/acme",
			source:   jobs.SourceGreenhouse,
			boardURL: "https://boards.greenhouse.io/acme",
		},
		{
			name:     "greenhouse job detail normalizes to board",
			url:      "https://boards.greenhouse.io/acme/jobs/4012345",
			source:   jobs.SourceGreenhouse,
			boardURL: "https://boards.greenhouse.io/acme",
		},
		{
			name:     "lever",
			url:      "https://jobs.lever.co/acme",
			source:   jobs.SourceLever,
			boardURL: "https://jobs.lever.co/acme",
		},
		{
			name:     "ashby",
			url:      "https://jobs.ashbyhq.com/acme",
			source:   jobs.SourceAshby,
			boardURL: "https://jobs.ashbyhq.com/acme",
		},
		{
			name:     "workday",
			url:      "https://acme.wd1.myworkdayjobs.com/External/job/Boston/Analyst_R7",
			source:   jobs.SourceWorkday,
			boardURL: "https://acme.wd1.myworkdayjobs.com/External",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MatchURL(tt.url)
			require.NotNil(t, result)
			require.NotNil(t, result.Source)
			assert.Equal(t, tt.source, *result.Source)
			assert.Equal(t, jobs.ConfidenceCertain, result.Confidence)
			assert.Equal(t, tt.boardURL, result.ActualATSURL)
		})
	}
}

func TestMatchURL_APIEndpoint(t *testing.T) {
	result := MatchURL("https://boards.greenhouse.io/acme")
	require.NotNil(t, result)
	assert.Equal(t, "https://boards-api.greenhouse.io/v1/boards/acme/jobs", result.APIEndpoint)

	result = MatchURL("https://jobs.lever.co/acme")
	require.NotNil(t, result)
	assert.Equal(t, "https://api.lever.co/v0/postings/acme?mode=json", result.APIEndpoint)
}

func TestMatchURL_UnknownHost(t *testing.T) {
	assert.Nil(t, MatchURL("https://example.com/careers"))
}

func TestScoreIndicators(t *testing.T) {
	html := `<html>
		<script src="https://boards.greenhouse.io/embed/job_board/js?for=acme"></script>
		<div id="grnhse_app"></div>
	</html>`

	scores := ScoreIndicators(html)
	assert.Greater(t, scores[jobs.SourceGreenhouse], 0)
	assert.Zero(t, scores[jobs.SourceLever])
}

func TestScoreIndicators_BeameryBoostsWorkday(t *testing.T) {
	scores := ScoreIndicators(`<script src="https://cdn.beamery.com/app.js"></script>`)
	assert.Greater(t, scores[jobs.SourceWorkday], 0)
}

func TestLooksLikeCareersPage(t *testing.T) {
	assert.True(t, LooksLikeCareersPage("https://example.com/careers", ""))
	assert.True(t, LooksLikeCareersPage("https://example.com/about", "<h1>Join our team</h1>"))
	assert.False(t, LooksLikeCareersPage("https://example.com/about", "<h1>Our products</h1>"))
}

func TestCountSPAMarkers(t *testing.T) {
	html := `<div id="root"></div><script>window.__INITIAL_STATE__ = {}</script>`
	assert.Equal(t, 2, CountSPAMarkers(html))
	assert.Zero(t, CountSPAMarkers("<table></table>"))
}

func TestSortedByScore(t *testing.T) {
	scores := map[jobs.Source]int{
		jobs.SourceGreenhouse: 1,
		jobs.SourceLever:      0,
		jobs.SourceWorkday:    5,
	}
	assert.Equal(t, []jobs.Source{jobs.SourceWorkday, jobs.SourceGreenhouse}, sortedByScore(scores))
}
