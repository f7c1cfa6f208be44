// Package watch runs the parser on a schedule and surfaces only postings
// that were not seen on any earlier run.
package watch

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/jonathan/jobharvest/internal/jobs"
	"github.com/jonathan/jobharvest/internal/parser"
	"github.com/jonathan/jobharvest/internal/tracker"
)

// DefaultSchedule checks each board once an hour.
const DefaultSchedule = "@hourly"

// NewJobsFunc receives the postings first seen during one sweep, keyed by the
// board URL they came from.
type NewJobsFunc func(url string, fresh []jobs.Job)

// Watcher repeatedly parses a set of boards and reports new arrivals.
type Watcher struct {
	parser  *parser.SmartParser
	tracker *tracker.Tracker
	urls    []string

	titleFilter    string
	locationFilter string
	concurrency    int
	verbose        bool

	onNew NewJobsFunc
	cron  *cron.Cron
}

// Options configures a Watcher.
type Options struct {
	TitleFilter    string
	LocationFilter string
	Concurrency    int
	Verbose        bool
}

// New builds a Watcher over the given board URLs. onNew is invoked once per
// board per sweep, only when the sweep surfaced postings not seen before.
func New(p *parser.SmartParser, trk *tracker.Tracker, urls []string, onNew NewJobsFunc, opts Options) *Watcher {
	return &Watcher{
		parser:         p,
		tracker:        trk,
		urls:           urls,
		titleFilter:    opts.TitleFilter,
		locationFilter: opts.LocationFilter,
		concurrency:    opts.Concurrency,
		verbose:        opts.Verbose,
		onNew:          onNew,
	}
}

// Start begins sweeping on the given cron schedule. The first sweep runs
// immediately to seed the tracker; postings found on that sweep are reported
// too, since they may be genuinely new. Start returns after scheduling.
func (w *Watcher) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	w.cron = cron.New()
	_, err := w.cron.AddFunc(schedule, func() { w.Sweep(ctx) })
	if err != nil {
		return err
	}

	w.Sweep(ctx)
	w.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (w *Watcher) Stop() {
	if w.cron != nil {
		<-w.cron.Stop().Done()
	}
}

// Sweep parses every board once and reports postings whose first sighting is
// this sweep. Each sweep ends by pruning sightings older than the board
// retention window, so a posting that vanishes and returns a month later
// counts as new again.
func (w *Watcher) Sweep(ctx context.Context) {
	known := w.trackedIDs()

	results := w.parser.ParseMany(ctx, w.urls, w.titleFilter, w.locationFilter, w.concurrency)
	for _, u := range w.urls {
		result := results[u]
		if result == nil {
			continue
		}
		var fresh []jobs.Job
		for _, j := range result.Jobs {
			if !known[j.ID] {
				fresh = append(fresh, j)
			}
		}
		w.logf("%s: %d jobs, %d new", u, len(result.Jobs), len(fresh))
		if len(fresh) > 0 && w.onNew != nil {
			w.onNew(u, fresh)
		}
	}

	if removed := w.tracker.CleanupOlderThan(ctx, tracker.BoardRetention); removed > 0 {
		w.logf("pruned %d stale tracked job(s)", removed)
	}
}

// trackedIDs snapshots the tracked ids before a sweep. Parsing stamps every
// sighted job into the tracker, so newness has to be judged against the
// pre-sweep state.
func (w *Watcher) trackedIDs() map[string]bool {
	known := make(map[string]bool)
	for _, source := range append(jobs.KnownSources(), jobs.SourceUnknown) {
		for _, tj := range w.tracker.JobsForSource(source) {
			known[tj.ID] = true
		}
	}
	return known
}

func (w *Watcher) logf(format string, args ...interface{}) {
	if w.verbose {
		log.Printf("[WATCH] "+format, args...)
	}
}
