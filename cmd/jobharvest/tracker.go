package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobharvest/internal/config"
)

var trackerCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Manage the first-seen job tracker",
}

var trackerCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Drop tracked jobs not sighted within the retention window",
	RunE:  runTrackerCleanup,
}

var (
	trackerConfigFile  string
	trackerStore       string
	trackerStateDir    string
	trackerDatabaseURL string
	trackerRedisURL    string
)

func init() {
	trackerCleanupCmd.Flags().StringVarP(&trackerConfigFile, "config", "c", "", "Path to JSON config file")
	trackerCleanupCmd.Flags().StringVar(&trackerStore, "store", "", "State backend: file, postgres, or redis")
	trackerCleanupCmd.Flags().StringVar(&trackerStateDir, "state-dir", "", "Directory for file-backed state")
	trackerCleanupCmd.Flags().StringVar(&trackerDatabaseURL, "db-url", "", "PostgreSQL URL (with --store postgres)")
	trackerCleanupCmd.Flags().StringVar(&trackerRedisURL, "redis-url", "", "Redis URL (with --store redis)")

	trackerCmd.AddCommand(trackerCleanupCmd)
	rootCmd.AddCommand(trackerCmd)
}

func runTrackerCleanup(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(trackerConfigFile, func(cfg *config.Config) {
		applyStringFlag(&cfg.Store, trackerStore)
		applyStringFlag(&cfg.StateDir, trackerStateDir)
		applyStringFlag(&cfg.DatabaseURL, trackerDatabaseURL)
		applyStringFlag(&cfg.RedisURL, trackerRedisURL)
	})
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	removed := a.tracker.Cleanup(ctx)
	fmt.Printf("removed %d stale tracked job(s)\n", removed)
	return nil
}
