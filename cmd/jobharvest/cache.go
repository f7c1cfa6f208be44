package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobharvest/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the per-domain schema cache",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show [domain]",
	Short: "Print cached extraction recipes",
	RunE:  runCacheShow,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [domain]",
	Short: "Drop the cached recipe for a domain, or all recipes",
	RunE:  runCacheClear,
}

var cacheRetryCmd = &cobra.Command{
	Use:   "retry <domain>",
	Short: "Clear a domain's failed-attempt marker so the next parse retries the model",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheRetry,
}

var (
	cacheConfigFile  string
	cacheStore       string
	cacheStateDir    string
	cacheDatabaseURL string
	cacheRedisURL    string
	cacheClearAll    bool
)

func init() {
	for _, cmd := range []*cobra.Command{cacheShowCmd, cacheClearCmd, cacheRetryCmd} {
		cmd.Flags().StringVarP(&cacheConfigFile, "config", "c", "", "Path to JSON config file")
		cmd.Flags().StringVar(&cacheStore, "store", "", "State backend: file, postgres, or redis")
		cmd.Flags().StringVar(&cacheStateDir, "state-dir", "", "Directory for file-backed state")
		cmd.Flags().StringVar(&cacheDatabaseURL, "db-url", "", "PostgreSQL URL (with --store postgres)")
		cmd.Flags().StringVar(&cacheRedisURL, "redis-url", "", "Redis URL (with --store redis)")
	}
	cacheClearCmd.Flags().BoolVar(&cacheClearAll, "all", false, "Clear every cached recipe")

	cacheCmd.AddCommand(cacheShowCmd, cacheClearCmd, cacheRetryCmd)
	rootCmd.AddCommand(cacheCmd)
}

func cacheApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig(cacheConfigFile, func(cfg *config.Config) {
		applyStringFlag(&cfg.Store, cacheStore)
		applyStringFlag(&cfg.StateDir, cacheStateDir)
		applyStringFlag(&cfg.DatabaseURL, cacheDatabaseURL)
		applyStringFlag(&cfg.RedisURL, cacheRedisURL)
	})
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg)
}

func runCacheShow(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := cacheApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	domains := a.cache.Domains()
	if len(args) == 1 {
		domains = args
	}
	if len(domains) == 0 {
		fmt.Println("cache is empty")
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, domain := range domains {
		entry := a.cache.Get(ctx, domain)
		if entry == nil {
			fmt.Printf("%s: no cache entry\n", domain)
			continue
		}
		if err := enc.Encode(entry); err != nil {
			return err
		}
	}
	return nil
}

func runCacheClear(_ *cobra.Command, args []string) error {
	if len(args) == 0 && !cacheClearAll {
		return fmt.Errorf("pass a domain or use --all")
	}

	ctx := context.Background()
	a, err := cacheApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if cacheClearAll {
		a.cache.ClearAll(ctx)
		fmt.Println("cleared all cached recipes")
		return nil
	}
	a.cache.Clear(ctx, args[0])
	fmt.Printf("cleared cached recipe for %s\n", args[0])
	return nil
}

func runCacheRetry(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := cacheApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	a.cache.ForceRetry(ctx, args[0])
	fmt.Printf("%s will retry discovery on the next parse\n", args[0])
	return nil
}
