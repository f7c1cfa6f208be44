package llm

import (
	"context"
	"sync"
)

// Loader manages the shared inference client as a lazily-created resource.
// The client is large relative to typical process budgets, so callers acquire
// it for a sequence of attempts and release it afterwards whether or not any
// attempt succeeded.
type Loader struct {
	mu     sync.Mutex
	apiKey string
	config *Config
	client Client
	refs   int

	// newClient is swappable for tests.
	newClient func(ctx context.Context, config *Config, apiKey string) (Client, error)
}

// NewLoader returns a loader that will construct Gemini clients on demand.
func NewLoader(apiKey string, config *Config) *Loader {
	if config == nil {
		config = DefaultConfig()
	}
	return &Loader{
		apiKey: apiKey,
		config: config,
		newClient: func(ctx context.Context, config *Config, apiKey string) (Client, error) {
			return NewGeminiClient(ctx, config, apiKey)
		},
	}
}

// NewLoaderWithClient returns a loader bound to a fixed client, for tests.
func NewLoaderWithClient(client Client) *Loader {
	return &Loader{
		client: client,
		newClient: func(context.Context, *Config, string) (Client, error) {
			return client, nil
		},
	}
}

// Acquire returns the shared client, creating it on first use. Each Acquire
// must be paired with one Release; the client stays alive while any holder
// remains.
func (l *Loader) Acquire(ctx context.Context) (Client, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client == nil {
		client, err := l.newClient(ctx, l.config, l.apiKey)
		if err != nil {
			return nil, err
		}
		l.client = client
	}
	l.refs++
	return l.client, nil
}

// Release drops one hold on the shared client, closing it when the last
// holder lets go. The next Acquire recreates it.
func (l *Loader) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.refs > 0 {
		l.refs--
	}
	if l.refs == 0 && l.client != nil {
		_ = l.client.Close()
		l.client = nil
	}
}
