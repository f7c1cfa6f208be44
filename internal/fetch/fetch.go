// Package fetch provides HTTP fetching for career pages and candidate API
// endpoints. It centralizes the request options, typed errors, and JSON
// decoding used by the detector, the connectors, and the orchestrator.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; JobHarvest/1.0)"

// MaxBodyBytes bounds how much of a response body is read.
const MaxBodyBytes = 10 << 20

// Result holds the response from a URL fetch.
type Result struct {
	URL         string
	Body        string
	ContentType string
	StatusCode  int
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// URL retrieves content from a URL with a GET request.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	return Do(ctx, http.MethodGet, urlStr, "", opts)
}

// Do executes an HTTP request with an optional body and returns the response.
// Non-2xx statuses return both the result and a *StatusError so callers can
// inspect the body of error pages.
func Do(ctx context.Context, method, urlStr, body string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &InvalidURLError{URL: urlStr, Cause: err}
	}

	client := &http.Client{Timeout: opts.Timeout}

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, urlStr, reader)
	if err != nil {
		return nil, &RequestError{URL: urlStr, Message: "failed to create request", Cause: err}
	}

	req.Header.Set("User-Agent", opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")
	if body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &RequestError{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, &RequestError{URL: urlStr, Message: "failed to read response body", Cause: err}
	}

	result := &Result{
		URL:         urlStr,
		Body:        string(bodyBytes),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, &StatusError{URL: urlStr, StatusCode: resp.StatusCode}
	}
	return result, nil
}

// JSON fetches a URL and decodes the response body into v.
func JSON(ctx context.Context, method, urlStr, body string, opts *Options, v interface{}) error {
	result, err := Do(ctx, method, urlStr, body, opts)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(result.Body), v); err != nil {
		return &DecodingError{URL: urlStr, Message: "response is not valid JSON", Cause: err}
	}
	return nil
}

// UpgradeScheme rewrites insecure URLs to https and adds a scheme when none
// is present. Loopback hosts keep plain http; anything other than http is
// left untouched.
func UpgradeScheme(urlStr string) string {
	if strings.HasPrefix(urlStr, "http://") {
		if isLoopback(urlStr) {
			return urlStr
		}
		return "https://" + strings.TrimPrefix(urlStr, "http://")
	}
	if !strings.Contains(urlStr, "://") {
		return "https://" + urlStr
	}
	return urlStr
}

func isLoopback(urlStr string) bool {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	host := parsed.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// Domain extracts the host from a URL, lowercased and without a www prefix,
// for use as a cache key.
func Domain(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Host == "" {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// String renders a result summary for verbose logs.
func (r *Result) String() string {
	return fmt.Sprintf("%s [%d, %d bytes]", r.URL, r.StatusCode, len(r.Body))
}
