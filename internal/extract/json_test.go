package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobharvest/internal/jobs"
	"github.com/jonathan/jobharvest/internal/schema"
)

func TestNavigatePath(t *testing.T) {
	var doc interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"data":{"jobs":[{"title":"SRE"}],"total":1}}`), &doc))

	tests := []struct {
		name string
		path string
		ok   bool
	}{
		{name: "nested array", path: "data.jobs", ok: true},
		{name: "empty path returns root", path: "", ok: true},
		{name: "missing key", path: "data.postings", ok: false},
		{name: "descends through non-object", path: "data.total.x", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := NavigatePath(doc, tt.path)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestFromJSON_NestedStructure(t *testing.T) {
	data := []byte(`{
		"data": {
			"jobs": [
				{"id": 101, "title": "Backend Engineer", "city": "Berlin", "slug": "backend-engineer"},
				{"id": 102, "title": "SRE", "city": ""},
				{"id": 103, "title": "", "city": "Hamburg"}
			]
		}
	}`)
	structure := &schema.JobResponseStructure{
		JobsArrayPath: "data.jobs",
		TitleField:    "title",
		LocationField: "city",
		URLField:      "slug",
		URLTemplate:   "https://example.com/careers/{slug}",
	}

	found := FromJSON(data, structure, "https://example.com/careers")
	require.Len(t, found, 2, "the element without a title is dropped")

	assert.Equal(t, "Backend Engineer", found[0].Title)
	assert.Equal(t, "Berlin", found[0].Location)
	assert.Equal(t, "https://example.com/careers/backend-engineer", found[0].URL)
	assert.Equal(t, "101", found[0].NativeID)

	assert.Equal(t, jobs.LocationNotSpecified, found[1].Location)
}

func TestFromJSON_AbsoluteURLWinsOverTemplate(t *testing.T) {
	data := []byte(`{"jobs":[{"title":"PM","link":"https://other.example.com/pm"}]}`)
	structure := &schema.JobResponseStructure{
		JobsArrayPath: "jobs",
		TitleField:    "title",
		URLField:      "link",
		URLTemplate:   "https://example.com/{link}",
	}

	found := FromJSON(data, structure, "https://example.com")
	require.Len(t, found, 1)
	assert.Equal(t, "https://other.example.com/pm", found[0].URL)
}

func TestFromJSON_RelativeURLJoinsBase(t *testing.T) {
	data := []byte(`{"jobs":[{"title":"PM","link":"/openings/pm"}]}`)
	structure := &schema.JobResponseStructure{
		JobsArrayPath: "jobs",
		TitleField:    "title",
		URLField:      "link",
	}

	found := FromJSON(data, structure, "https://example.com/careers/")
	require.Len(t, found, 1)
	assert.Equal(t, "https://example.com/careers/openings/pm", found[0].URL)
}

func TestFromJSON_StructureMismatchYieldsNothing(t *testing.T) {
	structure := &schema.JobResponseStructure{JobsArrayPath: "data.jobs", TitleField: "title"}

	assert.Empty(t, FromJSON([]byte(`{"data":{}}`), structure, ""))
	assert.Empty(t, FromJSON([]byte(`{"data":{"jobs":"not an array"}}`), structure, ""))
	assert.Empty(t, FromJSON([]byte(`not json`), structure, ""))
	assert.Empty(t, FromJSON([]byte(`{}`), nil, ""))
}

func TestExpandTemplate_GenericPlaceholders(t *testing.T) {
	assert.Equal(t, "https://x/jobs/55", expandTemplate("https://x/jobs/{id}", "jobId", "55"))
	assert.Equal(t, "https://x/jobs/55", expandTemplate("https://x/jobs/{jobId}", "jobId", "55"))
	assert.Equal(t, "https://x/jobs", expandTemplate("https://x/jobs", "jobId", "55"))
}

func TestDiscoverStructure_FindsJobsArray(t *testing.T) {
	data := []byte(`{
		"meta": {"page": 1},
		"results": {
			"postings": [
				{"title": "Data Engineer", "location": "Remote", "url": "https://x/1"},
				{"title": "Analyst", "location": "NYC", "url": "https://x/2"}
			]
		}
	}`)

	structure := DiscoverStructure(data)
	require.NotNil(t, structure)
	assert.Equal(t, "results.postings", structure.JobsArrayPath)
	assert.Equal(t, "title", structure.TitleField)
	assert.Equal(t, "location", structure.LocationField)
	assert.Equal(t, "url", structure.URLField)
}

func TestDiscoverStructure_PrefersJobNamedArray(t *testing.T) {
	// Both arrays have title-like fields; the job-keyword path must win.
	data := []byte(`{
		"navigation": [{"name": "Home"}],
		"openings": [{"title": "Engineer", "location": "Oslo"}, {"title": "PM", "location": "Oslo"}]
	}`)

	structure := DiscoverStructure(data)
	require.NotNil(t, structure)
	assert.Equal(t, "openings", structure.JobsArrayPath)
}

func TestDiscoverStructure_NothingJobShaped(t *testing.T) {
	assert.Nil(t, DiscoverStructure([]byte(`{"counts":[1,2,3]}`)))
	assert.Nil(t, DiscoverStructure([]byte(`{"items":[]}`)))
	assert.Nil(t, DiscoverStructure([]byte(`garbage`)))
}

func TestFromJSONHeuristic(t *testing.T) {
	data := []byte(`{"jobs":[{"title":"Engineer","location":"Lisbon","url":"https://x/1"}]}`)

	found, structure := FromJSONHeuristic(data, "https://x")
	require.Len(t, found, 1)
	require.NotNil(t, structure)
	assert.Equal(t, "Engineer", found[0].Title)
	assert.Equal(t, "jobs", structure.JobsArrayPath)

	found, structure = FromJSONHeuristic([]byte(`{"a":1}`), "https://x")
	assert.Nil(t, found)
	assert.Nil(t, structure)
}
