// Package render provides the headless-browser render-and-intercept driver.
// The orchestrator consumes it through the Renderer interface; the chromedp
// implementation records every outbound network request made during page load
// and snapshots the final DOM after a bounded wait.
package render

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/jonathan/jobharvest/internal/jobs"
)

// DefaultWait is how long the driver lets page scripts run before the DOM and
// call list are snapshotted. A fixed delay bounds worst-case latency; pages
// may never signal completion on their own.
const DefaultWait = 5 * time.Second

// DefaultTimeout is the hard wall-clock bound on one render, independent of
// page activity.
const DefaultTimeout = 45 * time.Second

// Result is the outcome of one render: the final DOM plus every network call
// observed during load.
type Result struct {
	HTML  string
	Calls []jobs.DetectedAPICall
}

// Renderer loads a page in a headless browser, waits a bounded time, and
// returns the final DOM plus the captured outbound calls.
type Renderer interface {
	Render(ctx context.Context, url string, wait time.Duration) (*Result, error)
}

// ChromeRenderer implements Renderer on a headless Chrome via chromedp.
// Requires Chrome/Chromium to be installed on the system.
type ChromeRenderer struct {
	Timeout time.Duration
	Verbose bool
}

// NewChromeRenderer returns a renderer with the default hard timeout.
func NewChromeRenderer(verbose bool) *ChromeRenderer {
	return &ChromeRenderer{Timeout: DefaultTimeout, Verbose: verbose}
}

// Render navigates to url and captures traffic. The network listener is
// attached before navigation starts, so calls issued by early page scripts
// are recorded too.
func (r *ChromeRenderer) Render(ctx context.Context, url string, wait time.Duration) (*Result, error) {
	if wait <= 0 {
		wait = DefaultWait
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if r.Verbose {
		log.Printf("[BROWSER] rendering %s (wait %s)", url, wait)
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var (
		mu    sync.Mutex
		calls []jobs.DetectedAPICall
	)
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		req, ok := ev.(*network.EventRequestWillBeSent)
		if !ok {
			return
		}
		call := jobs.DetectedAPICall{
			URL:     req.Request.URL,
			Method:  req.Request.Method,
			Body:    requestBody(req.Request),
			Headers: requestHeaders(req.Request),
		}
		mu.Lock()
		calls = append(calls, call)
		mu.Unlock()
	})

	var html string
	err := chromedp.Run(browserCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(wait),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("browser rendering failed: %w", err)
	}

	mu.Lock()
	captured := make([]jobs.DetectedAPICall, len(calls))
	copy(captured, calls)
	mu.Unlock()

	if r.Verbose {
		log.Printf("[BROWSER] rendered %d bytes, captured %d calls", len(html), len(captured))
	}
	return &Result{HTML: html, Calls: captured}, nil
}

// requestBody reassembles a request's post data from CDP entries.
func requestBody(req *network.Request) string {
	if !req.HasPostData || len(req.PostDataEntries) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, entry := range req.PostDataEntries {
		if entry == nil || entry.Bytes == "" {
			continue
		}
		if decoded, err := base64.StdEncoding.DecodeString(entry.Bytes); err == nil {
			sb.Write(decoded)
		} else {
			sb.WriteString(entry.Bytes)
		}
	}
	return sb.String()
}

// requestHeaders flattens CDP headers to strings, dropping non-string values.
func requestHeaders(req *network.Request) map[string]string {
	if len(req.Headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(req.Headers))
	for k, v := range req.Headers {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
