package parser

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds how many boards ParseMany works at once. Renders
// are memory-heavy, so the bound stays low.
const DefaultConcurrency = 3

// ParseMany runs ParseJobs over several URLs concurrently and returns results
// keyed by input URL. Per-URL failures surface as empty results, never as
// errors, so one bad board cannot sink the batch.
func (p *SmartParser) ParseMany(ctx context.Context, urls []string, titleFilter, locationFilter string, concurrency int) map[string]*Result {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make(map[string]*Result, len(urls))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	type keyed struct {
		url    string
		result *Result
	}
	out := make(chan keyed, len(urls))
	for _, u := range urls {
		u := u
		g.Go(func() error {
			out <- keyed{url: u, result: p.ParseJobs(ctx, u, titleFilter, locationFilter)}
			return nil
		})
	}
	g.Wait()
	close(out)
	for kr := range out {
		results[kr.url] = kr.result
	}
	return results
}
