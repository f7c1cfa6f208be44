package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobharvest/internal/fetch"
	"github.com/jonathan/jobharvest/internal/jobs"
)

func TestFilterCalls(t *testing.T) {
	calls := []jobs.DetectedAPICall{
		{URL: "https://www.google-analytics.com/collect", Method: "POST"},
		{URL: "https://cdn.example.com/bundle.js", Method: "GET"},
		{URL: "https://example.com/api/config", Method: "GET"},
		{URL: "https://api.example.com/v1/jobs?page=1", Method: "GET"},
		{URL: "https://api.example.com/v1/jobs?page=1", Method: "GET"},
		{URL: "https://other.example.org/data", Method: "GET"},
	}

	got := FilterCalls(calls, "example.com")
	require.Len(t, got, 3)
	assert.Equal(t, "https://api.example.com/v1/jobs?page=1", got[0].URL, "job-looking URLs come first")
	assert.Equal(t, "https://example.com/api/config", got[1].URL, "same-domain calls come next")
	assert.Equal(t, "https://other.example.org/data", got[2].URL, "other non-excluded calls still get a turn")
}

func TestFilterCalls_DedupIsPerMethod(t *testing.T) {
	calls := []jobs.DetectedAPICall{
		{URL: "https://example.com/graphql", Method: "GET"},
		{URL: "https://example.com/graphql", Method: "POST"},
	}
	got := FilterCalls(calls, "example.com")
	assert.Len(t, got, 2)
}

func TestScanAPIEndpoints(t *testing.T) {
	html := `<script>
		fetch("https://api.example.com/v2/jobs/search");
		fetch("https://api.example.com/v2/jobs/search");
		fetch("https://api.example.com/api/settings");
		fetch("https://www.googletagmanager.com/api/jobs");
	</script>
	<p>Our listings feed lives at https://example.com/api/openings.</p>`

	got := ScanAPIEndpoints(html)
	require.Len(t, got, 2)
	assert.Equal(t, "https://api.example.com/v2/jobs/search", got[0])
	assert.Equal(t, "https://example.com/api/openings", got[1], "trailing punctuation is trimmed")
}

func TestScanAPIEndpoints_CapsCandidates(t *testing.T) {
	html := ""
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		html += "https://" + name + ".example.com/api/jobs\n"
	}
	assert.Len(t, ScanAPIEndpoints(html), maxEndpointCandidates)
}

func TestLooksLikeJSON(t *testing.T) {
	tests := []struct {
		name   string
		result fetch.Result
		want   bool
	}{
		{name: "json content type", result: fetch.Result{ContentType: "application/json; charset=utf-8", Body: "whatever"}, want: true},
		{name: "object body without header", result: fetch.Result{ContentType: "text/plain", Body: `  {"a":1}`}, want: true},
		{name: "array body without header", result: fetch.Result{Body: `[1,2]`}, want: true},
		{name: "html", result: fetch.Result{ContentType: "text/html", Body: "<html></html>"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, looksLikeJSON(&tt.result))
		})
	}
}
