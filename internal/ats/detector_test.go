package ats

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobharvest/internal/jobs"
	"github.com/jonathan/jobharvest/internal/render"
)

// deadProber points every endpoint at a server that answers 404, so no live
// probe can succeed.
func deadProber(t *testing.T) *Prober {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	return testProber(srv.URL)
}

func TestDetect_URLMatchSkipsNetwork(t *testing.T) {
	d := NewDetectorWithProber(deadProber(t), false)

	result, err := d.Detect(context.Background(), "https://boards.greenhouse.io/acme/jobs/4012345")
	require.NoError(t, err)
	require.True(t, result.Detected())
	assert.Equal(t, jobs.SourceGreenhouse, *result.Source)
	assert.Equal(t, jobs.ConfidenceCertain, result.Confidence)
	assert.Equal(t, "https://boards.greenhouse.io/acme", result.ActualATSURL)
}

func TestDetect_PageFetchErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	pageURL := srv.URL + "/careers"
	srv.Close()

	d := NewDetectorWithProber(deadProber(t), false)
	_, err := d.Detect(context.Background(), pageURL)
	require.Error(t, err, "the initial page fetch is the one failure the caller reacts to")
}

func TestDetect_IndicatorsDriveProbe(t *testing.T) {
	prober := deadProber(t)
	probeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/greenhouse/acme/jobs" {
			_, _ = w.Write([]byte(`{"jobs":[{"title":"Engineer","absolute_url":"https://boards.greenhouse.io/acme/jobs/1"}]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer probeSrv.Close()
	prober.GreenhouseAPI = probeSrv.URL + "/greenhouse/%s/jobs"

	pageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><div id="grnhse_app"></div></html>`))
	}))
	defer pageSrv.Close()

	d := NewDetectorWithProber(prober, false)
	result, err := d.Detect(context.Background(), pageSrv.URL+"/acme/careers")
	require.NoError(t, err)
	require.True(t, result.Detected())
	assert.Equal(t, jobs.SourceGreenhouse, *result.Source)
	assert.Equal(t, jobs.ConfidenceCertain, result.Confidence)
	assert.Equal(t, "https://boards.greenhouse.io/acme", result.ActualATSURL)
}

func TestDetect_EmbeddedURLScan(t *testing.T) {
	pageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><iframe src="https://jobs.lever.co/acme"></iframe></html>`))
	}))
	defer pageSrv.Close()

	d := NewDetectorWithProber(deadProber(t), false)
	result, err := d.Detect(context.Background(), pageSrv.URL+"/about-us")
	require.NoError(t, err)
	require.True(t, result.Detected())
	assert.Equal(t, jobs.SourceLever, *result.Source)
	assert.Equal(t, jobs.ConfidenceLikely, result.Confidence)
	assert.Equal(t, "https://jobs.lever.co/acme", result.ActualATSURL)
}

func TestDetect_MetaRefreshRedirect(t *testing.T) {
	pageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<meta http-equiv="refresh" content="0; url=https://jobs.ashbyhq.com/acme">`))
	}))
	defer pageSrv.Close()

	d := NewDetectorWithProber(deadProber(t), false)
	result, err := d.Detect(context.Background(), pageSrv.URL+"/about-us")
	require.NoError(t, err)
	require.True(t, result.Detected())
	assert.Equal(t, jobs.SourceAshby, *result.Source)
}

func TestDetect_SPAFallbackIsUncertain(t *testing.T) {
	pageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><div id="root"></div><script>window.__INITIAL_STATE__={}</script></html>`))
	}))
	defer pageSrv.Close()

	d := NewDetectorWithProber(deadProber(t), false)
	result, err := d.Detect(context.Background(), pageSrv.URL+"/about-us")
	require.NoError(t, err)
	assert.False(t, result.Detected())
	assert.Equal(t, jobs.ConfidenceUncertain, result.Confidence)
}

func TestDetect_NothingDetected(t *testing.T) {
	pageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><p>We sell shoes.</p></html>`))
	}))
	defer pageSrv.Close()

	d := NewDetectorWithProber(deadProber(t), false)
	result, err := d.Detect(context.Background(), pageSrv.URL+"/about-us")
	require.NoError(t, err)
	assert.Equal(t, jobs.ConfidenceNotDetected, result.Confidence)
	assert.Nil(t, result.Source)
}

// fakeRenderer returns canned HTML without a browser.
type fakeRenderer struct {
	html string
}

func (f *fakeRenderer) Render(context.Context, string, time.Duration) (*render.Result, error) {
	return &render.Result{HTML: f.html}, nil
}

func TestDetectWithRender_FindsVendorInRenderedDOM(t *testing.T) {
	// The plain page is an empty SPA shell; the rendered DOM embeds the board.
	pageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><div id="root"></div><div id="app"></div></html>`))
	}))
	defer pageSrv.Close()

	d := NewDetectorWithProber(deadProber(t), false)
	renderer := &fakeRenderer{html: `<iframe src="https://boards.greenhouse.io/acme"></iframe>`}

	result, err := d.DetectWithRender(context.Background(), pageSrv.URL+"/about-us", renderer)
	require.NoError(t, err)
	require.True(t, result.Detected())
	assert.Equal(t, jobs.SourceGreenhouse, *result.Source)
}
