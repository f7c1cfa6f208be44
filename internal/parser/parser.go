// Package parser implements the extraction orchestrator: the fallback
// pipeline that sequences ATS detection, connectors, cached recipes, headless
// rendering, and the generic extractors, and owns the decision of which
// result to return.
package parser

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/jobharvest/internal/ats"
	"github.com/jonathan/jobharvest/internal/connectors"
	"github.com/jonathan/jobharvest/internal/fetch"
	"github.com/jonathan/jobharvest/internal/filter"
	"github.com/jonathan/jobharvest/internal/jobs"
	"github.com/jonathan/jobharvest/internal/llm"
	"github.com/jonathan/jobharvest/internal/render"
	"github.com/jonathan/jobharvest/internal/schema"
	"github.com/jonathan/jobharvest/internal/tracker"
)

// ProgressEvent is one human-readable status update from the pipeline. The
// text is observability only, not part of the contract.
type ProgressEvent struct {
	RunID   string `json:"run_id"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// ProgressCallback receives status updates during a parse.
type ProgressCallback func(event ProgressEvent)

// Options configures a SmartParser.
type Options struct {
	// EnableAdaptive turns on the discovery pipeline beyond known-ATS
	// detection. When false, an unidentified site yields an empty result.
	EnableAdaptive bool
	// EnableLLM allows the model-assisted strategies. The regex and heuristic
	// strategies run regardless.
	EnableLLM bool
	// RenderWait is how long the renderer lets page scripts run.
	RenderWait time.Duration
	// Verbose enables stage logging.
	Verbose bool
	// OnProgress, when set, receives status strings at each pipeline stage.
	OnProgress ProgressCallback
	// Fetch overrides the HTTP options.
	Fetch *fetch.Options
}

// Result is the outcome of one parse: the jobs plus a best-effort status
// string describing how (or why not) they were found.
type Result struct {
	Jobs   []jobs.Job
	Status string
}

// SmartParser is the extraction orchestrator. Safe for concurrent use; the
// shared cache and tracker serialize their own state, and concurrent
// discoveries for one domain are collapsed through a singleflight group.
type SmartParser struct {
	detector *ats.Detector
	registry *connectors.Registry
	cache    *schema.Cache
	tracker  *tracker.Tracker
	renderer render.Renderer
	loader   *llm.Loader
	opts     Options

	discoveries singleflight.Group
}

// New assembles a SmartParser. cache and trk must be non-nil; renderer and
// loader may be nil, which disables the strategies that need them.
func New(detector *ats.Detector, registry *connectors.Registry, cache *schema.Cache,
	trk *tracker.Tracker, renderer render.Renderer, loader *llm.Loader, opts Options) *SmartParser {
	if opts.RenderWait <= 0 {
		opts.RenderWait = render.DefaultWait
	}
	if opts.Fetch == nil {
		opts.Fetch = fetch.DefaultOptions()
	}
	return &SmartParser{
		detector: detector,
		registry: registry,
		cache:    cache,
		tracker:  trk,
		renderer: renderer,
		loader:   loader,
		opts:     opts,
	}
}

// ParseJobs extracts postings from an arbitrary careers URL. It never returns
// an error: strategy failures degrade to the next strategy, and total failure
// yields an empty list with a status string.
func (p *SmartParser) ParseJobs(ctx context.Context, url, titleFilter, locationFilter string) *Result {
	req := &request{
		runID:          uuid.New().String(),
		url:            fetch.UpgradeScheme(url),
		titleFilter:    titleFilter,
		locationFilter: locationFilter,
	}
	req.domain = fetch.Domain(req.url)

	// The model runtime is shared and heavy; drop our hold on it after this
	// attempt sequence regardless of outcome.
	defer func() {
		if req.llmAcquired {
			p.loader.Release()
		}
	}()

	for _, s := range p.strategies() {
		p.emit(req, s.name, "trying "+s.name)
		found := p.runStrategy(ctx, s, req)
		if len(found) > 0 {
			p.emit(req, s.name, "found jobs")
			return &Result{
				Jobs:   p.finalize(ctx, found, req),
				Status: "extracted via " + s.name,
			}
		}
		if req.stop {
			break
		}
	}

	p.emit(req, "done", "no extraction strategy produced jobs")
	return &Result{Jobs: []jobs.Job{}, Status: "no jobs found for " + req.url}
}

// request carries per-invocation state through the strategy chain, caching
// the fetched page and render result so later strategies reuse them.
type request struct {
	runID          string
	url            string
	domain         string
	titleFilter    string
	locationFilter string

	page     *fetch.Result
	pageErr  error
	fetched  bool
	rendered *render.Result

	llmClient   llm.Client
	llmAcquired bool

	// stop short-circuits the chain (adaptive pipeline disabled).
	stop bool
}

// strategy is one rung of the fallback ladder. Returning no jobs moves the
// chain to the next rung.
type strategy struct {
	name string
	run  func(ctx context.Context, req *request) []jobs.Job
}

// strategies returns the ordered fallback chain. The order is the contract:
// later rungs only run once earlier ones produced nothing.
func (p *SmartParser) strategies() []strategy {
	return []strategy{
		{name: "known-ats", run: p.knownATS},
		{name: "adaptive-gate", run: p.adaptiveGate},
		{name: "cached-fast-path", run: p.cachedFastPath},
		{name: "adaptive-discovery", run: p.adaptiveDiscovery},
	}
}

// runStrategy executes one strategy, converting a panic or error into "no
// result" so a single broken rung never takes down the chain.
func (p *SmartParser) runStrategy(ctx context.Context, s strategy, req *request) (found []jobs.Job) {
	defer func() {
		if r := recover(); r != nil {
			p.logf("strategy %s panicked: %v", s.name, r)
			found = nil
		}
	}()
	return s.run(ctx, req)
}

// finalize stamps tracker state onto every job, annotates bumped postings,
// and applies the keyword filters non-destructively.
func (p *SmartParser) finalize(ctx context.Context, found []jobs.Job, req *request) []jobs.Job {
	found = p.tracker.Stamp(ctx, found)
	for i := range found {
		j := &found[i]
		if j.PostingDate != nil && !j.FirstSeenDate.IsZero() &&
			j.PostingDate.After(j.FirstSeenDate.Add(24*time.Hour)) {
			// The vendor re-dated a posting we had already seen.
			j.WasBumped = true
			if j.OriginalPostingDate == nil {
				orig := j.FirstSeenDate
				j.OriginalPostingDate = &orig
			}
		}
	}
	return filter.ApplyNonDestructive(found, req.titleFilter, req.locationFilter)
}

// fetchPage fetches the target page once per request.
func (p *SmartParser) fetchPage(ctx context.Context, req *request) (*fetch.Result, error) {
	if !req.fetched {
		req.page, req.pageErr = fetch.URL(ctx, req.url, p.opts.Fetch)
		req.fetched = true
	}
	return req.page, req.pageErr
}

// renderPage renders the target page once per request.
func (p *SmartParser) renderPage(ctx context.Context, req *request) (*render.Result, error) {
	if req.rendered != nil {
		return req.rendered, nil
	}
	if p.renderer == nil {
		return nil, &fetch.RequestError{URL: req.url, Message: "no renderer configured"}
	}
	result, err := p.renderer.Render(ctx, req.url, p.opts.RenderWait)
	if err != nil {
		return nil, err
	}
	req.rendered = result
	return result, nil
}

func (p *SmartParser) emit(req *request, stage, message string) {
	if p.opts.OnProgress != nil {
		p.opts.OnProgress(ProgressEvent{RunID: req.runID, Stage: stage, Message: message})
	}
	p.logf("%s: %s", stage, message)
}

func (p *SmartParser) logf(format string, args ...interface{}) {
	if p.opts.Verbose {
		log.Printf("[PARSER] "+format, args...)
	}
}
