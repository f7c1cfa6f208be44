package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobharvest/internal/jobs"
)

// fakeClient returns canned responses keyed by tier.
type fakeClient struct {
	response string
	err      error
	prompts  []string
	tiers    []ModelTier
	closed   bool
}

func (f *fakeClient) GenerateJSON(_ context.Context, prompt string, tier ModelTier) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.tiers = append(f.tiers, tier)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestDiscoverSchema(t *testing.T) {
	client := &fakeClient{response: `{"jobs_array_path":"data.jobs","title_field":"title","location_field":"city"}`}

	structure, err := DiscoverSchema(context.Background(), client, `{"data":{"jobs":[]}}`)
	require.NoError(t, err)
	assert.Equal(t, "data.jobs", structure.JobsArrayPath)
	assert.Equal(t, "title", structure.TitleField)
	assert.Equal(t, "city", structure.LocationField)
	require.Len(t, client.tiers, 1)
	assert.Equal(t, TierStandard, client.tiers[0])
}

func TestDiscoverSchema_RejectsMissingRequiredFields(t *testing.T) {
	client := &fakeClient{response: `{"jobs_array_path":"data.jobs"}`}

	_, err := DiscoverSchema(context.Background(), client, `{}`)
	var inferErr *InferenceError
	require.ErrorAs(t, err, &inferErr)
	assert.Contains(t, inferErr.Error(), "schema validation")
}

func TestDiscoverSchema_PropagatesClientError(t *testing.T) {
	client := &fakeClient{err: &InferenceError{Message: "quota exceeded"}}
	_, err := DiscoverSchema(context.Background(), client, `{}`)
	assert.Error(t, err)
}

func TestDetectPatterns_UsesLiteTier(t *testing.T) {
	client := &fakeClient{response: `{"ats_url":"https://boards.greenhouse.io/acme","ats_type":"greenhouse","confidence":"high"}`}

	result, err := DetectPatterns(context.Background(), client, "<html></html>", "https://example.com/careers")
	require.NoError(t, err)
	assert.Equal(t, "https://boards.greenhouse.io/acme", result.ATSURL)
	require.Len(t, client.tiers, 1)
	assert.Equal(t, TierLite, client.tiers[0])
}

func TestDetectPatterns_RequiresConfidence(t *testing.T) {
	client := &fakeClient{response: `{"ats_url":"https://boards.greenhouse.io/acme"}`}
	_, err := DetectPatterns(context.Background(), client, "<html></html>", "https://example.com")
	assert.Error(t, err)
}

func TestExtractJobs(t *testing.T) {
	client := &fakeClient{response: `[
		{"title":"Staff Engineer","location":"Tokyo","url":"https://example.com/jobs/1"},
		{"title":"Designer"}
	]`}

	parsed, err := ExtractJobs(context.Background(), client, "<html></html>", "https://example.com")
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assert.Equal(t, "Staff Engineer", parsed[0].Title)
	assert.Equal(t, jobs.LocationNotSpecified, parsed[1].Location, "missing location gets the sentinel")
}

func TestExtractJobs_RejectsNonArray(t *testing.T) {
	client := &fakeClient{response: `{"title":"x"}`}
	_, err := ExtractJobs(context.Background(), client, "<html></html>", "https://example.com")
	assert.Error(t, err)
}

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare json untouched", in: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "plain fence", in: "```\n[1]\n```", want: `[1]`},
		{name: "surrounding whitespace", in: "  {\"a\":1}  ", want: `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSONBlock(tt.in))
		})
	}
}

func TestLoader_SharesAndRefCounts(t *testing.T) {
	client := &fakeClient{response: "{}"}
	loader := NewLoaderWithClient(client)

	a, err := loader.Acquire(context.Background())
	require.NoError(t, err)
	b, err := loader.Acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, a.(*fakeClient), b.(*fakeClient))

	loader.Release()
	assert.False(t, client.closed, "client stays open while a holder remains")
	loader.Release()
	assert.True(t, client.closed, "last release closes the client")
}

func TestLoader_RecreatesAfterFinalRelease(t *testing.T) {
	created := 0
	loader := NewLoader("test-key", nil)
	loader.newClient = func(context.Context, *Config, string) (Client, error) {
		created++
		return &fakeClient{}, nil
	}

	first, err := loader.Acquire(context.Background())
	require.NoError(t, err)
	loader.Release()
	assert.True(t, first.(*fakeClient).closed)

	second, err := loader.Acquire(context.Background())
	require.NoError(t, err)
	loader.Release()
	assert.NotSame(t, first.(*fakeClient), second.(*fakeClient))
	assert.Equal(t, 2, created)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 100))
	out := truncate("0123456789", 4)
	assert.Contains(t, out, "0123")
	assert.Contains(t, out, "truncated 6 bytes")
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("boom")
	assert.ErrorIs(t, &InferenceError{Message: "x", Cause: cause}, cause)
	assert.ErrorIs(t, &NotLoadedError{Reason: "x", Cause: cause}, cause)
}
