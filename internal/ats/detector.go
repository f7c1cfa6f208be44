package ats

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/jobharvest/internal/fetch"
	"github.com/jonathan/jobharvest/internal/jobs"
	"github.com/jonathan/jobharvest/internal/render"
)

// maxScriptFetches bounds how many external scripts the detector downloads
// while scanning for embedded ATS URLs.
const maxScriptFetches = 5

// Detector identifies which known ATS serves a careers URL.
type Detector struct {
	prober  *Prober
	options *fetch.Options
	verbose bool
}

// NewDetector returns a detector using the real vendor endpoints.
func NewDetector(verbose bool) *Detector {
	return &Detector{
		prober:  NewProber(verbose),
		options: fetch.DefaultOptions(),
		verbose: verbose,
	}
}

// NewDetectorWithProber returns a detector with a custom prober, for tests.
func NewDetectorWithProber(prober *Prober, verbose bool) *Detector {
	return &Detector{prober: prober, options: fetch.DefaultOptions(), verbose: verbose}
}

// Detect runs the detection ladder for url, stopping at the first success:
// URL pattern match, indicator-scored live probes, embedded-URL scan with
// redirect following, script-text scan, then a SPA-marker fallback. Probe and
// scan failures are swallowed; only the very first page fetch may return an
// error, since that is the one failure the caller can react to.
func (d *Detector) Detect(ctx context.Context, url string) (*jobs.DetectionResult, error) {
	url = fetch.UpgradeScheme(url)

	// Step 1: the URL itself may name the vendor.
	if result := MatchURL(url); result != nil {
		return result, nil
	}

	// Step 2: fetch the page and compute signals.
	page, err := fetch.URL(ctx, url, d.options)
	if err != nil {
		return nil, err
	}
	return d.detectFromHTML(ctx, url, page.Body), nil
}

// DetectWithRender runs Detect and, when the plain page yields nothing
// better than uncertain, retries the signal scan against a headless render of
// the page.
func (d *Detector) DetectWithRender(ctx context.Context, url string, renderer render.Renderer) (*jobs.DetectionResult, error) {
	result, err := d.Detect(ctx, url)
	if err != nil {
		return nil, err
	}
	if result.Detected() && result.Confidence != jobs.ConfidenceUncertain {
		return result, nil
	}
	if renderer == nil {
		return result, nil
	}

	rendered, rerr := renderer.Render(ctx, fetch.UpgradeScheme(url), 0)
	if rerr != nil {
		d.logf("render pass failed: %v", rerr)
		return result, nil
	}
	if renderResult := d.detectFromHTML(ctx, url, rendered.HTML); renderResult.Detected() {
		return renderResult, nil
	}
	return result, nil
}

// detectFromHTML runs every post-fetch detection step over one HTML document.
func (d *Detector) detectFromHTML(ctx context.Context, url, html string) *jobs.DetectionResult {
	careersPage := LooksLikeCareersPage(url, html)
	scores := ScoreIndicators(html)
	ranked := sortedByScore(scores)
	d.logf("careers=%v scores=%v", careersPage, scores)

	// Step 3: probe candidate endpoints in descending score order. Zero
	// scores on a careers-looking page still probe every vendor as a last
	// resort.
	slugs := SlugGuesses(url)
	probeOrder := ranked
	if len(probeOrder) == 0 && careersPage {
		probeOrder = jobs.KnownSources()
	}
	for _, source := range probeOrder {
		if result := d.prober.Probe(ctx, source, slugs); result != nil {
			src := result.Source
			return &jobs.DetectionResult{
				Source:       &src,
				Confidence:   jobs.ConfidenceCertain,
				ActualATSURL: result.BoardURL,
				APIEndpoint:  result.APIEndpoint,
				Message:      fmt.Sprintf("live %s probe returned jobs", src),
			}
		}
	}

	// Step 4: scan for embedded ATS URLs and redirects.
	if result := d.scanHTML(ctx, html); result != nil {
		return result
	}
	if target := RedirectTarget(html); target != "" {
		if result := MatchURL(target); result != nil {
			result.Message = "followed page redirect to " + target
			return result
		}
		if followed, err := fetch.URL(ctx, target, d.options); err == nil {
			if result := d.scanHTML(ctx, followed.Body); result != nil {
				return result
			}
		}
	}

	// Step 5: scan inline and linked script text.
	if result := d.scanScripts(ctx, url, html); result != nil {
		return result
	}

	// Step 6: a dynamic SPA careers page is worth rendering even though no
	// vendor was named.
	if CountSPAMarkers(html) >= 2 {
		suggested := url
		if len(ranked) > 0 {
			if slug := firstNonEmpty(slugs); slug != "" {
				suggested = suggestedBoardURL(ranked[0], slug)
			}
		}
		return &jobs.DetectionResult{
			Confidence:   jobs.ConfidenceUncertain,
			ActualATSURL: suggested,
			Message:      "page is a client-rendered SPA; no ATS identified",
		}
	}

	return &jobs.DetectionResult{
		Confidence: jobs.ConfidenceNotDetected,
		Message:    "no known ATS detected",
	}
}

// scanHTML turns the first embedded ATS URL in text into a detection result.
func (d *Detector) scanHTML(_ context.Context, text string) *jobs.DetectionResult {
	hits := ScanForEmbeddedURLs(text)
	if len(hits) == 0 {
		return nil
	}
	hit := hits[0]
	src := hit.Source
	return &jobs.DetectionResult{
		Source:       &src,
		Confidence:   jobs.ConfidenceLikely,
		ActualATSURL: hit.URL,
		APIEndpoint:  apiEndpointFor(src, hit.URL),
		Message:      fmt.Sprintf("found embedded %s URL", src),
	}
}

// scanScripts scans inline script text, then downloads a bounded number of
// external scripts (tag managers first) and scans those too.
func (d *Detector) scanScripts(ctx context.Context, pageURL, html string) *jobs.DetectionResult {
	if result := d.scanHTML(ctx, InlineScriptText(html)); result != nil {
		return result
	}

	srcs := ScriptSources(html, pageURL)
	ordered := make([]string, 0, len(srcs))
	for _, src := range srcs {
		if IsTagManagerScript(src) {
			ordered = append(ordered, src)
		}
	}
	for _, src := range srcs {
		if !IsTagManagerScript(src) {
			ordered = append(ordered, src)
		}
	}

	fetched := 0
	for _, src := range ordered {
		if fetched >= maxScriptFetches {
			break
		}
		fetched++
		scriptCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		body, err := fetch.URL(scriptCtx, src, d.options)
		cancel()
		if err != nil {
			continue
		}
		if result := d.scanHTML(ctx, body.Body); result != nil {
			result.Message += " (in " + src + ")"
			return result
		}
	}
	return nil
}

func suggestedBoardURL(source jobs.Source, slug string) string {
	switch source {
	case jobs.SourceGreenhouse:
		return "https://boards.greenhouse.io/" + slug
	case jobs.SourceLever:
		return "https://jobs.lever.co/" + slug
	case jobs.SourceAshby:
		return "https://jobs.ashbyhq.com/" + slug
	case jobs.SourceWorkday:
		return fmt.Sprintf("https://%s.wd1.myworkdayjobs.com", slug)
	default:
		return ""
	}
}

func firstNonEmpty(values []string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (d *Detector) logf(format string, args ...interface{}) {
	if d.verbose {
		log.Printf("[DETECT] "+format, args...)
	}
}
