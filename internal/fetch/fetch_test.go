package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	result, err := URL(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, result.StatusCode)
	assert.Equal(t, "<html>ok</html>", result.Body)
	assert.Equal(t, "text/html", result.ContentType)
}

func TestDo_PostBodyAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "abc", r.Header.Get("X-Custom"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	opts := DefaultOptions()
	opts.Headers = map[string]string{"X-Custom": "abc"}
	_, err := Do(context.Background(), http.MethodPost, srv.URL, `{"limit":20}`, opts)
	require.NoError(t, err)
}

func TestDo_StatusErrorKeepsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	}))
	defer srv.Close()

	result, err := Do(context.Background(), http.MethodGet, srv.URL, "", nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	require.NotNil(t, result, "error pages still expose their body")
	assert.Equal(t, "missing", result.Body)
}

func TestDo_InvalidURL(t *testing.T) {
	_, err := Do(context.Background(), http.MethodGet, "not a url", "", nil)
	var invalid *InvalidURLError
	assert.ErrorAs(t, err, &invalid)
}

func TestJSON_DecodesAndRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/good" {
			_, _ = w.Write([]byte(`{"jobs":[{"title":"x"}]}`))
			return
		}
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	var payload struct {
		Jobs []struct{ Title string } `json:"jobs"`
	}
	require.NoError(t, JSON(context.Background(), http.MethodGet, srv.URL+"/good", "", nil, &payload))
	assert.Len(t, payload.Jobs, 1)

	var decoding *DecodingError
	err := JSON(context.Background(), http.MethodGet, srv.URL+"/bad", "", nil, &payload)
	assert.ErrorAs(t, err, &decoding)
}

func TestUpgradeScheme(t *testing.T) {
	assert.Equal(t, "https://example.com", UpgradeScheme("http://example.com"))
	assert.Equal(t, "https://example.com", UpgradeScheme("example.com"))
	assert.Equal(t, "https://example.com", UpgradeScheme("https://example.com"))
	assert.Equal(t, "ftp://example.com", UpgradeScheme("ftp://example.com"))
	assert.Equal(t, "http://127.0.0.1:8080/x", UpgradeScheme("http://127.0.0.1:8080/x"), "loopback keeps plain http")
	assert.Equal(t, "http://localhost:3000", UpgradeScheme("http://localhost:3000"))
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "example.com", Domain("https://www.Example.com/careers?x=1"))
	assert.Equal(t, "jobs.example.com", Domain("https://jobs.example.com/"))
	assert.Equal(t, "", Domain("not a url"))
}
