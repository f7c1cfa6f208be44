// Package tracker records when each job id was first and last observed, so
// repeated fetches of the same board yield stable "new since last seen"
// semantics instead of every snapshot looking brand new.
package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jonathan/jobharvest/internal/jobs"
	"github.com/jonathan/jobharvest/internal/store"
)

// DefaultRetention prunes jobs not seen for this long from the tracker.
// Watch-mode sweeps prune with the shorter BoardRetention instead, since a
// board polled on a schedule goes stale much faster than ad-hoc parses.
const (
	DefaultRetention = 90 * 24 * time.Hour
	BoardRetention   = 30 * 24 * time.Hour
)

// trackerKey names the blob the tracker serializes into.
const trackerKey = "tracked_jobs"

// Tracker is the persisted map from job fingerprint to first/last-seen.
type Tracker struct {
	mu        sync.RWMutex
	tracked   map[string]*jobs.TrackedJob
	store     store.Store
	retention time.Duration
	now       func() time.Time
}

// New loads any persisted tracker state and returns the service. A zero
// retention uses DefaultRetention; a nil store keeps state in memory only.
func New(ctx context.Context, st store.Store, retention time.Duration) (*Tracker, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	t := &Tracker{
		tracked:   make(map[string]*jobs.TrackedJob),
		store:     st,
		retention: retention,
		now:       time.Now,
	}
	if st == nil {
		return t, nil
	}

	data, err := st.Load(ctx, trackerKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load job tracker: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &t.tracked); err != nil {
			log.Printf("[TRACKER] discarding unreadable tracker state: %v", err)
			t.tracked = make(map[string]*jobs.TrackedJob)
		}
	}
	return t, nil
}

// Track upserts a sighting of id. The first sighting records FirstSeen; later
// sightings only advance LastSeen, never FirstSeen.
func (t *Tracker) Track(ctx context.Context, id, title, url string, source jobs.Source) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if existing, ok := t.tracked[id]; ok {
		existing.LastSeen = now
		existing.Title = title
		existing.URL = url
	} else {
		t.tracked[id] = &jobs.TrackedJob{
			ID:        id,
			Title:     title,
			URL:       url,
			Source:    source,
			FirstSeen: now,
			LastSeen:  now,
		}
	}
	t.persistLocked(ctx)
}

// FirstSeenDate returns when id was first observed, or the zero time if it
// has never been tracked.
func (t *Tracker) FirstSeenDate(id string) time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if tj, ok := t.tracked[id]; ok {
		return tj.FirstSeen
	}
	return time.Time{}
}

// HasSeen reports whether id has ever been tracked.
func (t *Tracker) HasSeen(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.tracked[id]
	return ok
}

// JobsForSource returns every tracked job from one source.
func (t *Tracker) JobsForSource(source jobs.Source) []jobs.TrackedJob {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []jobs.TrackedJob
	for _, tj := range t.tracked {
		if tj.Source == source {
			out = append(out, *tj)
		}
	}
	return out
}

// Cleanup prunes entries whose LastSeen is older than the configured
// retention window and returns how many were removed.
func (t *Tracker) Cleanup(ctx context.Context) int {
	return t.CleanupOlderThan(ctx, t.retention)
}

// CleanupOlderThan prunes entries whose LastSeen is older than the given
// window, regardless of the configured retention.
func (t *Tracker) CleanupOlderThan(ctx context.Context, retention time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-retention)
	removed := 0
	for id, tj := range t.tracked {
		if tj.LastSeen.Before(cutoff) {
			delete(t.tracked, id)
			removed++
		}
	}
	if removed > 0 {
		t.persistLocked(ctx)
	}
	return removed
}

// Stamp applies tracker state to a batch of extracted jobs before they are
// returned: each job is tracked and its FirstSeenDate set to the tracker's
// value, which is the original sighting for previously seen ids.
func (t *Tracker) Stamp(ctx context.Context, batch []jobs.Job) []jobs.Job {
	for i := range batch {
		t.Track(ctx, batch[i].ID, batch[i].Title, batch[i].URL, batch[i].Source)
		batch[i].FirstSeenDate = t.FirstSeenDate(batch[i].ID)
	}
	return batch
}

// SetNow overrides the clock, for tests.
func (t *Tracker) SetNow(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// persistLocked serializes the whole map and overwrites the stored blob.
// Callers must hold t.mu.
func (t *Tracker) persistLocked(ctx context.Context) {
	if t.store == nil {
		return
	}
	data, err := json.Marshal(t.tracked)
	if err != nil {
		log.Printf("[TRACKER] failed to serialize tracker: %v", err)
		return
	}
	if err := t.store.Save(ctx, trackerKey, data); err != nil {
		log.Printf("[TRACKER] failed to persist tracker: %v", err)
	}
}
