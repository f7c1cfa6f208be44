package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jonathan/jobharvest/internal/config"
	"github.com/jonathan/jobharvest/internal/llm"
	"github.com/jonathan/jobharvest/internal/parser"
	"github.com/jonathan/jobharvest/internal/render"
	"github.com/jonathan/jobharvest/internal/schema"
	"github.com/jonathan/jobharvest/internal/store"
	"github.com/jonathan/jobharvest/internal/tracker"

	"github.com/jonathan/jobharvest/internal/ats"
	"github.com/jonathan/jobharvest/internal/connectors"
)

// app bundles the long-lived pieces a command needs, with a single Close.
type app struct {
	cfg     *config.Config
	store   store.Store
	cache   *schema.Cache
	tracker *tracker.Tracker
	parser  *parser.SmartParser
}

// loadConfig reads the optional config file and applies flag overrides on
// top. Flags always win over the file.
func loadConfig(path string, apply func(cfg *config.Config)) (*config.Config, error) {
	cfg := &config.Config{}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if apply != nil {
		apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore picks the persistence backend the config names.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store {
	case "postgres":
		return store.NewPostgresStore(ctx, cfg.DatabaseURL, "jobharvest_state")
	case "redis":
		return store.NewRedisStore(ctx, cfg.RedisURL, "jobharvest")
	default:
		return store.NewFileStore(cfg.StatePath())
	}
}

// newApp assembles the pipeline from configuration.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	cache, err := schema.NewCache(ctx, st, cfg.Verbose)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to load schema cache: %w", err)
	}
	trk, err := tracker.New(ctx, st, tracker.DefaultRetention)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to load job tracker: %w", err)
	}

	var renderer render.Renderer
	if cfg.Render {
		renderer = render.NewChromeRenderer(cfg.Verbose)
	}

	var loader *llm.Loader
	if cfg.LLM {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			st.Close()
			return nil, fmt.Errorf("API key is required for --llm (set GEMINI_API_KEY or use --api-key)")
		}
		loader = llm.NewLoader(apiKey, nil)
	}

	opts := parser.Options{
		EnableAdaptive: cfg.Adaptive,
		EnableLLM:      cfg.LLM,
		RenderWait:     time.Duration(cfg.RenderWaitSeconds) * time.Second,
		Verbose:        cfg.Verbose,
	}
	if cfg.Verbose {
		opts.OnProgress = func(event parser.ProgressEvent) {
			fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", event.RunID[:8], event.Stage, event.Message)
		}
	}

	p := parser.New(
		ats.NewDetector(cfg.Verbose),
		connectors.NewRegistry(nil),
		cache,
		trk,
		renderer,
		loader,
		opts,
	)

	return &app{cfg: cfg, store: st, cache: cache, tracker: trk, parser: p}, nil
}

func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}
