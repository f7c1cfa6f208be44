// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config is the CLI configuration, loadable from a JSON file. All fields are
// optional; missing values use defaults or come from CLI flags, which win
// over the file.
type Config struct {
	// Targets
	URL  string   `json:"url,omitempty" validate:"omitempty,url"`  // Careers page URL to parse
	URLs []string `json:"urls,omitempty" validate:"dive,url"`      // Multiple careers pages (batch / watch mode)

	// Filters
	TitleFilter    string `json:"title_filter,omitempty"`    // Keyword filter on job titles
	LocationFilter string `json:"location_filter,omitempty"` // Keyword filter on job locations

	// Pipeline behavior
	Adaptive          bool `json:"adaptive,omitempty"`            // Enable the discovery pipeline beyond known-ATS detection
	LLM               bool `json:"llm,omitempty"`                 // Allow model-assisted extraction
	Render            bool `json:"render,omitempty"`              // Allow headless rendering
	RenderWaitSeconds int  `json:"render_wait_seconds,omitempty" validate:"gte=0,lte=60"`
	Concurrency       int  `json:"concurrency,omitempty" validate:"gte=0,lte=16"`

	// Credentials and storage
	APIKey      string `json:"api_key,omitempty"`                                        // Gemini API key
	Store       string `json:"store,omitempty" validate:"omitempty,oneof=file postgres redis"` // Persistence backend
	StateDir    string `json:"state_dir,omitempty"`                                      // Directory for the file backend
	DatabaseURL string `json:"database_url,omitempty"`                                   // PostgreSQL connection URL
	RedisURL    string `json:"redis_url,omitempty"`                                      // Redis connection URL

	// Watch mode
	Schedule string `json:"schedule,omitempty"` // Cron expression for watch mode

	Verbose bool `json:"verbose,omitempty"` // Print detailed debug information
}

var validate = validator.New()

// Load reads configuration from a JSON file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for structurally invalid values. It does
// not check required fields; the CLI validates those after merging flags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	switch c.Store {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: 'store' is postgres but 'database_url' is empty")
		}
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("config error: 'store' is redis but 'redis_url' is empty")
		}
	}
	if c.LLM && !c.Adaptive {
		return fmt.Errorf("config error: 'llm' requires 'adaptive'")
	}
	return nil
}

// Targets returns every configured URL, whichever field carried it.
func (c *Config) Targets() []string {
	if c.URL != "" {
		return append([]string{c.URL}, c.URLs...)
	}
	return c.URLs
}

// StatePath returns the directory for file-backed state, defaulting next to
// the user's home directory.
func (c *Config) StatePath() string {
	if c.StateDir != "" {
		return c.StateDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".jobharvest"
	}
	return filepath.Join(home, ".jobharvest")
}
