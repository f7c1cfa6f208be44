package schema

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobharvest/internal/store"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	c, err := NewCache(context.Background(), st, false)
	require.NoError(t, err)
	return c
}

func TestCache_UnknownDomain(t *testing.T) {
	c := newTestCache(t)
	assert.Nil(t, c.Get(context.Background(), "example.com"))
	assert.False(t, c.HasAttempted(context.Background(), "example.com"))
}

func TestCache_SaveAndGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.Save(ctx, &DiscoveredAPISchema{
		Domain:       "example.com",
		Endpoint:     "https://example.com/api/jobs",
		Structure:    &JobResponseStructure{JobsArrayPath: "data.jobs", TitleField: "title"},
		LLMAttempted: true,
		SchemaFound:  true,
	})

	got := c.Get(ctx, "example.com")
	require.NotNil(t, got)
	assert.Equal(t, "https://example.com/api/jobs", got.Endpoint)
	assert.True(t, got.SchemaFound)
	assert.False(t, got.LastAttempt.IsZero())
	assert.False(t, got.DiscoveredAt.IsZero())
}

func TestCache_GetReturnsCopy(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.Save(ctx, &DiscoveredAPISchema{Domain: "example.com", Endpoint: "https://a"})
	got := c.Get(ctx, "example.com")
	got.Endpoint = "https://mutated"

	assert.Equal(t, "https://a", c.Get(ctx, "example.com").Endpoint)
}

func TestCache_FailedAttemptSuppressesWithinWindow(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.SetNow(func() time.Time { return base })
	c.MarkAttemptFailed(ctx, "example.com")

	// Three days later: still suppressed.
	c.SetNow(func() time.Time { return base.Add(3 * 24 * time.Hour) })
	got := c.Get(ctx, "example.com")
	require.NotNil(t, got)
	assert.True(t, got.LLMAttempted)
	assert.False(t, got.SchemaFound)
	assert.True(t, c.HasAttempted(ctx, "example.com"))
}

func TestCache_FailedAttemptExpiresAfterWindow(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.SetNow(func() time.Time { return base })
	c.MarkAttemptFailed(ctx, "example.com")

	c.SetNow(func() time.Time { return base.Add(RetryWindow) })
	assert.Nil(t, c.Get(ctx, "example.com"), "expired failure reads as unknown")
	assert.False(t, c.HasAttempted(ctx, "example.com"))
}

func TestCache_DiscoveredSchemaNeverExpires(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.SetNow(func() time.Time { return base })
	c.Save(ctx, &DiscoveredAPISchema{Domain: "example.com", LLMAttempted: true, SchemaFound: true})

	c.SetNow(func() time.Time { return base.Add(100 * 24 * time.Hour) })
	require.NotNil(t, c.Get(ctx, "example.com"))
}

func TestCache_FastPathSurvivesWindow(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.SetNow(func() time.Time { return base })
	c.MarkAttemptFailed(ctx, "example.com")
	c.MarkFastPathWorks(ctx, "example.com", "https://example.com/api/jobs")

	c.SetNow(func() time.Time { return base.Add(2 * RetryWindow) })
	got := c.Get(ctx, "example.com")
	require.NotNil(t, got, "a working fast path is not a failed attempt")
	assert.True(t, got.HTMLExtractionWorks)
	assert.Equal(t, "https://example.com/api/jobs", got.Endpoint)
}

func TestCache_ForceRetry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.MarkAttemptFailed(ctx, "example.com")
	c.ForceRetry(ctx, "example.com")

	got := c.Get(ctx, "example.com")
	require.NotNil(t, got)
	assert.False(t, got.LLMAttempted)
	assert.False(t, got.HTMLExtractionWorks)
}

func TestCache_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	st, err := store.NewFileStore(dir)
	require.NoError(t, err)
	first, err := NewCache(ctx, st, false)
	require.NoError(t, err)
	first.Save(ctx, &DiscoveredAPISchema{Domain: "example.com", SchemaFound: true})

	st2, err := store.NewFileStore(dir)
	require.NoError(t, err)
	second, err := NewCache(ctx, st2, false)
	require.NoError(t, err)

	got := second.Get(ctx, "example.com")
	require.NotNil(t, got)
	assert.True(t, got.SchemaFound)
}

func TestCache_CorruptBlobStartsFresh(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	st, err := store.NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, st.Save(ctx, "api_schemas", []byte("not json")))

	c, err := NewCache(ctx, st, false)
	require.NoError(t, err)
	assert.Empty(t, c.Domains())
}

func TestCache_ClearAndClearAll(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.Save(ctx, &DiscoveredAPISchema{Domain: "a.com"})
	c.Save(ctx, &DiscoveredAPISchema{Domain: "b.com"})

	c.Clear(ctx, "a.com")
	assert.Nil(t, c.Get(ctx, "a.com"))
	assert.NotNil(t, c.Get(ctx, "b.com"))

	c.ClearAll(ctx)
	assert.Empty(t, c.Domains())
}

func TestCache_UpdateLastFetched(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.Save(ctx, &DiscoveredAPISchema{Domain: "example.com"})
	c.UpdateLastFetched(ctx, "example.com")

	got := c.Get(ctx, "example.com")
	require.NotNil(t, got)
	require.NotNil(t, got.LastFetchedAt)

	// Unknown domains are ignored.
	c.UpdateLastFetched(ctx, "nope.com")
	assert.Nil(t, c.Get(ctx, "nope.com"))
}
