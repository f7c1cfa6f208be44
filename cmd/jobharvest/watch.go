package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobharvest/internal/config"
	"github.com/jonathan/jobharvest/internal/jobs"
	"github.com/jonathan/jobharvest/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [url...]",
	Short: "Poll careers pages on a schedule and report new postings",
	Long:  "Watch parses the given careers pages on a cron schedule and prints only the postings that have not been seen on any earlier run.",
	RunE:  runWatch,
}

var (
	watchConfigFile     string
	watchSchedule       string
	watchTitleFilter    string
	watchLocationFilter string
	watchAdaptive       bool
	watchLLM            bool
	watchRender         bool
	watchConcurrency    int
	watchAPIKey         string
	watchStore          string
	watchStateDir       string
	watchDatabaseURL    string
	watchRedisURL       string
	watchVerbose        bool
)

func init() {
	watchCmd.Flags().StringVarP(&watchConfigFile, "config", "c", "", "Path to JSON config file")
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "Cron expression for the polling schedule (default @hourly)")
	watchCmd.Flags().StringVar(&watchTitleFilter, "title", "", "Keyword filter on job titles")
	watchCmd.Flags().StringVar(&watchLocationFilter, "location", "", "Keyword filter on job locations")
	watchCmd.Flags().BoolVar(&watchAdaptive, "adaptive", false, "Enable the adaptive discovery pipeline for unrecognized sites")
	watchCmd.Flags().BoolVar(&watchLLM, "llm", false, "Allow model-assisted extraction (requires --adaptive)")
	watchCmd.Flags().BoolVar(&watchRender, "render", false, "Allow headless browser rendering for JavaScript-heavy pages")
	watchCmd.Flags().IntVar(&watchConcurrency, "concurrency", 0, "Boards to parse at once")
	watchCmd.Flags().StringVar(&watchAPIKey, "api-key", "", "Gemini API key (overrides GEMINI_API_KEY env var)")
	watchCmd.Flags().StringVar(&watchStore, "store", "", "State backend: file, postgres, or redis")
	watchCmd.Flags().StringVar(&watchStateDir, "state-dir", "", "Directory for file-backed state")
	watchCmd.Flags().StringVar(&watchDatabaseURL, "db-url", "", "PostgreSQL URL (with --store postgres)")
	watchCmd.Flags().StringVar(&watchRedisURL, "redis-url", "", "Redis URL (with --store redis)")
	watchCmd.Flags().BoolVarP(&watchVerbose, "verbose", "v", false, "Print detailed progress information")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig(watchConfigFile, func(cfg *config.Config) {
		if len(args) > 0 {
			cfg.URL = args[0]
			cfg.URLs = args[1:]
		}
		applyStringFlag(&cfg.TitleFilter, watchTitleFilter)
		applyStringFlag(&cfg.LocationFilter, watchLocationFilter)
		applyStringFlag(&cfg.APIKey, watchAPIKey)
		applyStringFlag(&cfg.Store, watchStore)
		applyStringFlag(&cfg.StateDir, watchStateDir)
		applyStringFlag(&cfg.DatabaseURL, watchDatabaseURL)
		applyStringFlag(&cfg.RedisURL, watchRedisURL)
		applyStringFlag(&cfg.Schedule, watchSchedule)
		cfg.Adaptive = cfg.Adaptive || watchAdaptive
		cfg.LLM = cfg.LLM || watchLLM
		cfg.Render = cfg.Render || watchRender
		cfg.Verbose = cfg.Verbose || watchVerbose
		if watchConcurrency > 0 {
			cfg.Concurrency = watchConcurrency
		}
	})
	if err != nil {
		return err
	}

	targets := cfg.Targets()
	if len(targets) == 0 {
		return fmt.Errorf("no URL given (pass one as an argument or set 'urls' in the config file)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	w := watch.New(a.parser, a.tracker, targets, reportNewJobs, watch.Options{
		TitleFilter:    cfg.TitleFilter,
		LocationFilter: cfg.LocationFilter,
		Concurrency:    cfg.Concurrency,
		Verbose:        cfg.Verbose,
	})
	if err := w.Start(ctx, cfg.Schedule); err != nil {
		return fmt.Errorf("failed to start watch schedule: %w", err)
	}
	defer w.Stop()

	fmt.Fprintf(os.Stderr, "Watching %d board(s); press Ctrl-C to stop.\n", len(targets))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return nil
}

func reportNewJobs(url string, fresh []jobs.Job) {
	fmt.Printf("%s: %d new posting(s)\n", url, len(fresh))
	for _, j := range fresh {
		fmt.Printf("  %s (%s)\n", j.Title, j.Location)
		if j.URL != "" {
			fmt.Printf("    %s\n", j.URL)
		}
	}
}
