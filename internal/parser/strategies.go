package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/jobharvest/internal/ats"
	"github.com/jonathan/jobharvest/internal/extract"
	"github.com/jonathan/jobharvest/internal/jobs"
	"github.com/jonathan/jobharvest/internal/llm"
	"github.com/jonathan/jobharvest/internal/schema"
)

// tinyPageBytes is the size under which a fetched page is suspicious: real
// careers pages are bigger, so a tiny response usually means bot protection
// served a stub.
const tinyPageBytes = 2048

// smallPageBytes is the size under which a SPA shell is assumed to be empty
// of server-rendered content.
const smallPageBytes = 50 * 1024

// knownATS detects a known vendor and fetches through its connector. Domains
// with a usable cached recipe skip the detection ladder entirely; the cached
// fast path consumes the recipe without any page or probe traffic.
func (p *SmartParser) knownATS(ctx context.Context, req *request) []jobs.Job {
	if p.opts.EnableAdaptive {
		if cached := p.cache.Get(ctx, req.domain); cached != nil &&
			(cached.HTMLExtractionWorks || (cached.SchemaFound && cached.Structure != nil)) {
			p.logf("skipping detection for %s: cached recipe on record", req.domain)
			return nil
		}
	}

	result, err := p.detector.Detect(ctx, req.url)
	if err != nil {
		p.logf("detection failed: %v", err)
		return nil
	}
	if !result.Detected() || result.Source == nil {
		return nil
	}

	boardURL := result.ActualATSURL
	if boardURL == "" {
		boardURL = req.url
	}
	return p.fetchConnector(ctx, *result.Source, boardURL)
}

// fetchConnector runs a vendor connector, swallowing its errors. Filters are
// deliberately left empty: the orchestrator applies them non-destructively in
// finalize.
func (p *SmartParser) fetchConnector(ctx context.Context, source jobs.Source, boardURL string) []jobs.Job {
	conn := p.registry.For(source)
	if conn == nil {
		return nil
	}
	found, err := conn.FetchJobs(ctx, boardURL, "", "")
	if err != nil {
		p.logf("%s connector failed for %s: %v", source, boardURL, err)
		return nil
	}
	return found
}

// adaptiveGate stops the chain when the discovery pipeline is disabled.
func (p *SmartParser) adaptiveGate(_ context.Context, req *request) []jobs.Job {
	if !p.opts.EnableAdaptive {
		req.stop = true
	}
	return nil
}

// cachedFastPath consumes a previously discovered recipe for the domain.
func (p *SmartParser) cachedFastPath(ctx context.Context, req *request) []jobs.Job {
	cached := p.cache.Get(ctx, req.domain)
	if cached == nil {
		return nil
	}

	// Highest priority: the domain is known to work without the model.
	if cached.HTMLExtractionWorks {
		if found := p.fastPathExtract(ctx, req, cached); len(found) > 0 {
			p.cache.UpdateLastFetched(ctx, req.domain)
			return found
		}
		// Fall through to rediscovery for this call only; the cache entry is
		// not downgraded.
		return nil
	}

	if cached.SchemaFound && cached.Structure != nil {
		if found := p.fetchViaRecipe(ctx, req, cached); len(found) > 0 {
			p.cache.UpdateLastFetched(ctx, req.domain)
			return found
		}
	}
	return nil
}

// fastPathExtract runs the model-free extractors: the cached endpoint first
// when one is on record, then one render with heuristic JSON over intercepted
// calls, then raw-HTML patterns on the final DOM.
func (p *SmartParser) fastPathExtract(ctx context.Context, req *request, cached *schema.DiscoveredAPISchema) []jobs.Job {
	if cached.Endpoint != "" {
		if found := p.tryEndpoint(ctx, req, cached.Endpoint, cached.Method, cached.RequestBody, cached.Headers); len(found) > 0 {
			return found
		}
	}

	rendered, err := p.renderPage(ctx, req)
	if err != nil {
		p.logf("fast-path render failed: %v", err)
		return nil
	}
	for _, call := range FilterCalls(rendered.Calls, req.domain) {
		if found := p.tryEndpoint(ctx, req, call.URL, call.Method, call.Body, call.Headers); len(found) > 0 {
			return found
		}
	}
	if parsed := extract.FromHTML(rendered.HTML, req.url); len(parsed) > 0 {
		return p.toJobs(parsed, jobs.SourceUnknown)
	}
	return nil
}

// adaptiveDiscovery is the full discovery pipeline. Concurrent parses of one
// domain collapse into a single discovery run.
func (p *SmartParser) adaptiveDiscovery(ctx context.Context, req *request) []jobs.Job {
	v, _, shared := p.discoveries.Do(req.domain, func() (interface{}, error) {
		return p.discover(ctx, req), nil
	})
	found, _ := v.([]jobs.Job)
	if shared && len(found) > 0 {
		// finalize mutates jobs in place; shared flights each get a copy.
		found = append([]jobs.Job(nil), found...)
	}
	return found
}

// discover fetches the page, decides whether it needs a JS render, and walks
// the render or static branch.
func (p *SmartParser) discover(ctx context.Context, req *request) []jobs.Job {
	page, err := p.fetchPage(ctx, req)

	var html string
	if err == nil {
		html = page.Body
	} else {
		p.logf("plain fetch failed, considering render: %v", err)
	}

	if p.renderer != nil && (err != nil || needsJSRender(html)) {
		p.emit(req, "render", "page needs JavaScript rendering")
		if found := p.renderBranch(ctx, req); len(found) > 0 {
			return found
		}
		// Rendering found nothing; the raw HTML scanners still get a turn
		// when there is raw HTML to scan.
		if html == "" {
			return nil
		}
	}
	if html == "" {
		return nil
	}
	return p.staticBranch(ctx, req, html)
}

// needsJSRender applies the render heuristics: SPA markers on a page that is
// small or lacks static listing markup, or a suspiciously tiny page.
func needsJSRender(html string) bool {
	if len(html) < tinyPageBytes {
		return true
	}
	if ats.CountSPAMarkers(html) >= 1 && (len(html) < smallPageBytes || !extract.HasListingMarkup(html)) {
		return true
	}
	return false
}

// renderBranch renders with interception and works through the captured
// calls, then the rendered DOM.
func (p *SmartParser) renderBranch(ctx context.Context, req *request) []jobs.Job {
	rendered, err := p.renderPage(ctx, req)
	if err != nil {
		p.logf("render failed: %v", err)
		return nil
	}

	calls := FilterCalls(rendered.Calls, req.domain)
	p.emit(req, "render", fmt.Sprintf("captured %d calls, %d candidates", len(rendered.Calls), len(calls)))

	llmClient := p.acquireLLM(ctx, req)
	llmTried := false
	for _, call := range calls {
		body, ok := p.fetchCallBody(ctx, call)
		if !ok {
			continue
		}

		if llmClient != nil {
			llmTried = true
			if structure, derr := llm.DiscoverSchema(ctx, llmClient, body); derr == nil {
				if parsed := extract.FromJSON([]byte(body), structure, req.url); len(parsed) > 0 {
					p.cache.Save(ctx, &schema.DiscoveredAPISchema{
						Domain:       req.domain,
						Endpoint:     call.URL,
						Method:       call.Method,
						RequestBody:  call.Body,
						Headers:      call.Headers,
						Structure:    structure,
						LLMAttempted: true,
						SchemaFound:  true,
					})
					p.emit(req, "discovery", "schema discovered for "+req.domain)
					return p.toJobs(parsed, jobs.SourceUnknown)
				}
			}
		}

		if parsed, structure := extract.FromJSONHeuristic([]byte(body), req.url); len(parsed) > 0 {
			p.cache.Save(ctx, &schema.DiscoveredAPISchema{
				Domain:              req.domain,
				Endpoint:            call.URL,
				Method:              call.Method,
				RequestBody:         call.Body,
				Headers:             call.Headers,
				Structure:           structure,
				HTMLExtractionWorks: true,
			})
			p.emit(req, "discovery", "heuristic extraction works for "+req.domain)
			return p.toJobs(parsed, jobs.SourceUnknown)
		}
	}
	if llmTried {
		p.cache.MarkAttemptFailed(ctx, req.domain)
	}

	// No call yielded jobs; the rendered DOM may embed the real board.
	if found := p.tryEmbeddedBoards(ctx, rendered.HTML); len(found) > 0 {
		return found
	}
	if found := p.tryScriptEndpoints(ctx, req, rendered.HTML); len(found) > 0 {
		return found
	}

	if parsed := extract.FromHTML(rendered.HTML, req.url); len(parsed) > 0 {
		p.cache.MarkFastPathWorks(ctx, req.domain, "")
		return p.toJobs(parsed, jobs.SourceUnknown)
	}
	return nil
}

// staticBranch extracts from a server-rendered page without a browser:
// embedded board URLs, script API endpoints, embedded JSON blobs, and only
// then the model.
func (p *SmartParser) staticBranch(ctx context.Context, req *request, html string) []jobs.Job {
	if found := p.tryEmbeddedBoards(ctx, html); len(found) > 0 {
		return found
	}
	if found := p.tryScriptEndpoints(ctx, req, html); len(found) > 0 {
		return found
	}
	if parsed := extract.FromEmbeddedBlobs(html, req.url); len(parsed) > 0 {
		p.cache.MarkFastPathWorks(ctx, req.domain, "")
		return p.toJobs(parsed, jobs.SourceUnknown)
	}

	llmClient := p.acquireLLM(ctx, req)
	if llmClient == nil {
		return nil
	}

	if pattern, err := llm.DetectPatterns(ctx, llmClient, html, req.url); err == nil {
		if found := p.followPattern(ctx, req, pattern); len(found) > 0 {
			return found
		}
	}
	if parsed, err := llm.ExtractJobs(ctx, llmClient, html, req.url); err == nil && len(parsed) > 0 {
		return p.toJobs(parsed, jobs.SourceUnknown)
	}
	p.cache.MarkAttemptFailed(ctx, req.domain)
	return nil
}

// tryEmbeddedBoards scans text for embedded ATS URLs and fetches through the
// matching connectors.
func (p *SmartParser) tryEmbeddedBoards(ctx context.Context, text string) []jobs.Job {
	scanText := text + "\n" + ats.InlineScriptText(text)
	for _, hit := range ats.ScanForEmbeddedURLs(scanText) {
		if found := p.fetchConnector(ctx, hit.Source, hit.URL); len(found) > 0 {
			return found
		}
	}
	return nil
}

// tryScriptEndpoints scans script text for generic API endpoints and runs
// heuristic JSON extraction against each.
func (p *SmartParser) tryScriptEndpoints(ctx context.Context, req *request, html string) []jobs.Job {
	for _, endpoint := range ScanAPIEndpoints(html) {
		if found := p.tryEndpoint(ctx, req, endpoint, "GET", "", nil); len(found) > 0 {
			p.cache.MarkFastPathWorks(ctx, req.domain, endpoint)
			return found
		}
	}
	return nil
}

// followPattern acts on the model's pattern opinion: a named board URL goes
// through a connector, a named API endpoint through heuristic extraction.
func (p *SmartParser) followPattern(ctx context.Context, req *request, pattern *llm.PatternResult) []jobs.Job {
	if pattern.ATSURL != "" {
		if result := ats.MatchURL(pattern.ATSURL); result != nil && result.Source != nil {
			if found := p.fetchConnector(ctx, *result.Source, result.ActualATSURL); len(found) > 0 {
				return found
			}
		}
	}
	if pattern.APIEndpoint != "" {
		method := pattern.APIType
		if method == "" {
			method = "GET"
		}
		if found := p.tryEndpoint(ctx, req, pattern.APIEndpoint, method, "", nil); len(found) > 0 {
			return found
		}
	}
	return nil
}

// acquireLLM returns a client when the model strategies are allowed for this
// domain: enabled by configuration, a loader exists, and the domain is not in
// the failed-attempt window. The hold is taken once per request and released
// at the end of ParseJobs.
func (p *SmartParser) acquireLLM(ctx context.Context, req *request) llm.Client {
	if !p.opts.EnableLLM || p.loader == nil {
		return nil
	}
	if req.llmAcquired {
		return req.llmClient
	}
	if cached := p.cache.Get(ctx, req.domain); cached != nil && cached.LLMAttempted && !cached.SchemaFound {
		p.logf("skipping model for %s: failed attempt within retry window", req.domain)
		return nil
	}
	client, err := p.loader.Acquire(ctx)
	if err != nil {
		p.logf("model unavailable: %v", err)
		return nil
	}
	req.llmClient = client
	req.llmAcquired = true
	return client
}

// toJobs converts extractor output into jobs with stable ids.
func (p *SmartParser) toJobs(parsed []jobs.ParsedJob, source jobs.Source) []jobs.Job {
	out := make([]jobs.Job, 0, len(parsed))
	for _, pj := range parsed {
		location := pj.Location
		if strings.TrimSpace(location) == "" {
			location = jobs.LocationNotSpecified
		}
		out = append(out, jobs.Job{
			ID:       jobs.JobID(source, pj.NativeID, pj.Title, pj.URL),
			Title:    pj.Title,
			Location: location,
			URL:      pj.URL,
			Source:   source,
		})
	}
	return out
}
