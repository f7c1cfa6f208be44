package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobharvest/internal/config"
	"github.com/jonathan/jobharvest/internal/jobs"
)

var parseCmd = &cobra.Command{
	Use:   "parse [url...]",
	Short: "Extract job postings from one or more careers pages",
	Long:  "Parse extracts structured job postings from the given careers page URLs, trying known ATS connectors first and the adaptive discovery pipeline when enabled.",
	RunE:  runParse,
}

var (
	parseConfigFile     string
	parseTitleFilter    string
	parseLocationFilter string
	parseAdaptive       bool
	parseLLM            bool
	parseRender         bool
	parseRenderWait     int
	parseConcurrency    int
	parseJSONOutput     bool
	parseAPIKey         string
	parseStore          string
	parseStateDir       string
	parseDatabaseURL    string
	parseRedisURL       string
	parseVerbose        bool
)

func init() {
	parseCmd.Flags().StringVarP(&parseConfigFile, "config", "c", "", "Path to JSON config file")
	parseCmd.Flags().StringVar(&parseTitleFilter, "title", "", "Keyword filter on job titles")
	parseCmd.Flags().StringVar(&parseLocationFilter, "location", "", "Keyword filter on job locations")
	parseCmd.Flags().BoolVar(&parseAdaptive, "adaptive", false, "Enable the adaptive discovery pipeline for unrecognized sites")
	parseCmd.Flags().BoolVar(&parseLLM, "llm", false, "Allow model-assisted extraction (requires --adaptive)")
	parseCmd.Flags().BoolVar(&parseRender, "render", false, "Allow headless browser rendering for JavaScript-heavy pages")
	parseCmd.Flags().IntVar(&parseRenderWait, "render-wait", 0, "Seconds to let page scripts run before extraction")
	parseCmd.Flags().IntVar(&parseConcurrency, "concurrency", 0, "Boards to parse at once when multiple URLs are given")
	parseCmd.Flags().BoolVar(&parseJSONOutput, "json", false, "Emit results as JSON")
	parseCmd.Flags().StringVar(&parseAPIKey, "api-key", "", "Gemini API key (overrides GEMINI_API_KEY env var)")
	parseCmd.Flags().StringVar(&parseStore, "store", "", "State backend: file, postgres, or redis")
	parseCmd.Flags().StringVar(&parseStateDir, "state-dir", "", "Directory for file-backed state")
	parseCmd.Flags().StringVar(&parseDatabaseURL, "db-url", "", "PostgreSQL URL (with --store postgres)")
	parseCmd.Flags().StringVar(&parseRedisURL, "redis-url", "", "Redis URL (with --store redis)")
	parseCmd.Flags().BoolVarP(&parseVerbose, "verbose", "v", false, "Print detailed progress information")

	rootCmd.AddCommand(parseCmd)
}

func runParse(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig(parseConfigFile, func(cfg *config.Config) {
		if len(args) > 0 {
			cfg.URL = args[0]
			cfg.URLs = args[1:]
		}
		applyStringFlag(&cfg.TitleFilter, parseTitleFilter)
		applyStringFlag(&cfg.LocationFilter, parseLocationFilter)
		applyStringFlag(&cfg.APIKey, parseAPIKey)
		applyStringFlag(&cfg.Store, parseStore)
		applyStringFlag(&cfg.StateDir, parseStateDir)
		applyStringFlag(&cfg.DatabaseURL, parseDatabaseURL)
		applyStringFlag(&cfg.RedisURL, parseRedisURL)
		cfg.Adaptive = cfg.Adaptive || parseAdaptive
		cfg.LLM = cfg.LLM || parseLLM
		cfg.Render = cfg.Render || parseRender
		cfg.Verbose = cfg.Verbose || parseVerbose
		if parseRenderWait > 0 {
			cfg.RenderWaitSeconds = parseRenderWait
		}
		if parseConcurrency > 0 {
			cfg.Concurrency = parseConcurrency
		}
	})
	if err != nil {
		return err
	}

	targets := cfg.Targets()
	if len(targets) == 0 {
		return fmt.Errorf("no URL given (pass one as an argument or set 'url' in the config file)")
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if len(targets) == 1 {
		result := a.parser.ParseJobs(ctx, targets[0], cfg.TitleFilter, cfg.LocationFilter)
		return printResult(targets[0], result.Jobs, result.Status)
	}

	results := a.parser.ParseMany(ctx, targets, cfg.TitleFilter, cfg.LocationFilter, cfg.Concurrency)
	for _, u := range targets {
		if result := results[u]; result != nil {
			if err := printResult(u, result.Jobs, result.Status); err != nil {
				return err
			}
		}
	}
	return nil
}

func applyStringFlag(dst *string, flag string) {
	if flag != "" {
		*dst = flag
	}
}

func printResult(url string, found []jobs.Job, status string) error {
	if parseJSONOutput {
		out := struct {
			URL    string     `json:"url"`
			Status string     `json:"status"`
			Jobs   []jobs.Job `json:"jobs"`
		}{URL: url, Status: status, Jobs: found}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("%s: %d jobs (%s)\n", url, len(found), status)
	for _, j := range found {
		line := fmt.Sprintf("  %-50s %s", j.Title, j.Location)
		if j.WasBumped {
			line += "  [reposted]"
		}
		fmt.Println(line)
		if j.URL != "" {
			fmt.Printf("    %s\n", j.URL)
		}
	}
	return nil
}
