package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jonathan/jobharvest/internal/store"
)

// RetryWindow is how long a failed discovery attempt suppresses further LLM
// attempts for a domain. Entries older than this are cleared on next consult.
const RetryWindow = 7 * 24 * time.Hour

// cacheKey names the blob the whole cache serializes into.
const cacheKey = "api_schemas"

// Cache is the persisted map from site domain to discovery state. All
// read-modify-write access is serialized under one lock; every mutation
// rewrites the whole collection through the blob store. The cache is advisory,
// so last-writer-wins on concurrent saves is acceptable.
type Cache struct {
	mu      sync.RWMutex
	schemas map[string]*DiscoveredAPISchema
	store   store.Store
	now     func() time.Time
	verbose bool
}

// NewCache loads any persisted cache from the store and returns the service.
// A nil store yields a purely in-memory cache.
func NewCache(ctx context.Context, st store.Store, verbose bool) (*Cache, error) {
	c := &Cache{
		schemas: make(map[string]*DiscoveredAPISchema),
		store:   st,
		now:     time.Now,
		verbose: verbose,
	}
	if st == nil {
		return c, nil
	}

	data, err := st.Load(ctx, cacheKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema cache: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &c.schemas); err != nil {
			// A corrupt cache is advisory state only; start fresh.
			log.Printf("[CACHE] discarding unreadable schema cache: %v", err)
			c.schemas = make(map[string]*DiscoveredAPISchema)
		}
	}
	return c, nil
}

// Get returns the cached schema for domain. A failed-attempt entry whose retry
// window has elapsed is cleared and treated as unknown.
func (c *Cache) Get(ctx context.Context, domain string) *DiscoveredAPISchema {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.schemas[domain]
	if !ok {
		return nil
	}
	if s.LLMAttempted && !s.SchemaFound && !s.HTMLExtractionWorks &&
		c.now().Sub(s.LastAttempt) >= RetryWindow {
		if c.verbose {
			log.Printf("[CACHE] %s: failed attempt older than %s, clearing", domain, RetryWindow)
		}
		delete(c.schemas, domain)
		c.persistLocked(ctx)
		return nil
	}
	cp := *s
	return &cp
}

// Save stores a schema for its domain, stamping DiscoveredAt/LastAttempt.
func (c *Cache) Save(ctx context.Context, s *DiscoveredAPISchema) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	cp := *s
	if cp.DiscoveredAt.IsZero() {
		cp.DiscoveredAt = now
	}
	cp.LastAttempt = now
	c.schemas[cp.Domain] = &cp
	c.persistLocked(ctx)
}

// HasAttempted reports whether a discovery attempt (success or failure) is on
// record for domain within the retry window.
func (c *Cache) HasAttempted(ctx context.Context, domain string) bool {
	s := c.Get(ctx, domain)
	return s != nil && s.LLMAttempted
}

// MarkAttemptFailed records a failed LLM discovery attempt for domain. The
// entry keeps the orchestrator from re-running the model until RetryWindow
// passes; non-LLM strategies stay available.
func (c *Cache) MarkAttemptFailed(ctx context.Context, domain string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	s, ok := c.schemas[domain]
	if !ok {
		s = &DiscoveredAPISchema{Domain: domain, DiscoveredAt: now}
		c.schemas[domain] = s
	}
	s.LLMAttempted = true
	s.SchemaFound = false
	s.LastAttempt = now
	c.persistLocked(ctx)
}

// MarkFastPathWorks records that a model-free fast path (raw HTML pattern
// extraction or heuristic JSON extraction) succeeded for domain. endpoint may
// be empty when the fast path works on the rendered page itself.
func (c *Cache) MarkFastPathWorks(ctx context.Context, domain, endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	s, ok := c.schemas[domain]
	if !ok {
		s = &DiscoveredAPISchema{Domain: domain, DiscoveredAt: now}
		c.schemas[domain] = s
	}
	s.HTMLExtractionWorks = true
	if endpoint != "" {
		s.Endpoint = endpoint
	}
	s.LastAttempt = now
	c.persistLocked(ctx)
}

// UpdateLastFetched stamps a successful fetch through the cached recipe.
func (c *Cache) UpdateLastFetched(ctx context.Context, domain string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.schemas[domain]
	if !ok {
		return
	}
	now := c.now()
	s.LastFetchedAt = &now
	c.persistLocked(ctx)
}

// Clear removes the entry for one domain.
func (c *Cache) Clear(ctx context.Context, domain string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.schemas, domain)
	c.persistLocked(ctx)
}

// ClearAll drops every entry.
func (c *Cache) ClearAll(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.schemas = make(map[string]*DiscoveredAPISchema)
	c.persistLocked(ctx)
}

// ForceRetry clears the failed-attempt markers for a domain so the next parse
// runs full discovery again, keeping any endpoint already on record.
func (c *Cache) ForceRetry(ctx context.Context, domain string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.schemas[domain]
	if !ok {
		return
	}
	s.LLMAttempted = false
	s.SchemaFound = false
	s.HTMLExtractionWorks = false
	c.persistLocked(ctx)
}

// Domains returns every domain with a cache entry, for inspection.
func (c *Cache) Domains() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.schemas))
	for d := range c.schemas {
		out = append(out, d)
	}
	return out
}

// SetNow overrides the clock, for tests.
func (c *Cache) SetNow(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// persistLocked serializes the whole map and overwrites the stored blob.
// Callers must hold c.mu. Persistence failures are logged, not propagated:
// the in-memory state is already correct and the cache is advisory.
func (c *Cache) persistLocked(ctx context.Context) {
	if c.store == nil {
		return
	}
	data, err := json.Marshal(c.schemas)
	if err != nil {
		log.Printf("[CACHE] failed to serialize schema cache: %v", err)
		return
	}
	if err := c.store.Save(ctx, cacheKey, data); err != nil {
		log.Printf("[CACHE] failed to persist schema cache: %v", err)
	}
}
