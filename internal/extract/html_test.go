package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobharvest/internal/jobs"
)

func TestFromHTML_JobIDLinks(t *testing.T) {
	html := `<html><body>
		<div class="opening">
			<a href="/jobs/4012345">Senior Backend Engineer</a>
			<span class="location">Berlin, Germany</span>
		</div>
		<div class="opening">
			<a href="/jobs/4012346">Staff SRE</a>
			<span class="location">Remote</span>
		</div>
		<a href="/jobs/4012345">Senior Backend Engineer</a>
		<a href="/about">About us</a>
	</body></html>`

	found := FromHTML(html, "https://boards.example.com")
	require.Len(t, found, 2, "duplicate URLs collapse, non-job links are ignored")

	assert.Equal(t, "Senior Backend Engineer", found[0].Title)
	assert.Equal(t, "https://boards.example.com/jobs/4012345", found[0].URL)
	assert.Equal(t, "Berlin, Germany", found[0].Location)
	assert.Equal(t, "Remote", found[1].Location)
}

func TestFromHTML_GenericLinkFallback(t *testing.T) {
	// No id-bearing hrefs; the looser keyword family applies.
	html := `<html><body>
		<a href="/careers/senior-designer">Senior Designer</a>
		<a href="/careers/">Careers</a>
		<a href="/careers/x">Go</a>
	</body></html>`

	found := FromHTML(html, "https://example.com")
	require.Len(t, found, 1, "navigation text and too-short titles are dropped")
	assert.Equal(t, "Senior Designer", found[0].Title)
	assert.Equal(t, jobs.LocationNotSpecified, found[0].Location)
}

func TestFromHTML_NavigationTitlesExcluded(t *testing.T) {
	html := `<a href="/jobs/123">Apply Now</a><a href="/jobs/456">View All</a>`
	assert.Empty(t, FromHTML(html, "https://example.com"))
}

func TestHasListingMarkup(t *testing.T) {
	assert.True(t, HasListingMarkup(`<table><tr><td>Engineer</td></tr></table>`))
	assert.True(t, HasListingMarkup(`<a href="/jobs/991">Engineer</a>`))
	assert.True(t, HasListingMarkup(`<a href="/careers/engineer">Engineer</a>`))
	assert.False(t, HasListingMarkup(`<div id="root"></div>`))
}

func TestFromEmbeddedBlobs_JSONAssignment(t *testing.T) {
	html := `<html><head>
		<script>window.__APP_STATE__ = {"jobs":[{"title":"Platform Engineer","location":"Oslo","url":"https://example.com/jobs/1"},{"title":"Data Scientist","location":"Remote","url":"https://example.com/jobs/2"}]};console.log("boot");</script>
	</head><body></body></html>`

	found := FromEmbeddedBlobs(html, "https://example.com")
	require.Len(t, found, 2)
	assert.Equal(t, "Platform Engineer", found[0].Title)
	assert.Equal(t, "Oslo", found[0].Location)
}

func TestFromEmbeddedBlobs_BareJSONDocument(t *testing.T) {
	html := `<script type="application/json">{"openings":[{"title":"Engineering Manager","location":"Madrid","url":"https://example.com/jobs/em"}]}</script>`

	found := FromEmbeddedBlobs(html, "https://example.com")
	require.Len(t, found, 1)
	assert.Equal(t, "Engineering Manager", found[0].Title)
}

func TestFromEmbeddedBlobs_NothingJobShaped(t *testing.T) {
	html := `<script>var x = 1; function f() { return {a: 1}; }</script>`
	assert.Empty(t, FromEmbeddedBlobs(html, "https://example.com"))
}

func TestBalancedJSON(t *testing.T) {
	assert.Equal(t, `{"a":{"b":"}"}}`, balancedJSON(`{"a":{"b":"}"}} trailing`))
	assert.Equal(t, `[1,2,[3]]`, balancedJSON(`[1,2,[3]];var x`))
	assert.Equal(t, "", balancedJSON(`{"never":"closed"`))
	assert.Equal(t, "", balancedJSON(`not json`))
}
