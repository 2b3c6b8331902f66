// Package config handles configuration loading and validation for crucibot.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/crucibot/internal/core/styles"
	"github.com/colonyops/crucibot/internal/lint/jshint"
)

// Review filters accepted by crucible.filter.
const (
	FilterToReview       = "toReview"
	FilterAllOpenReviews = "allOpenReviews"
)

// FailureMode selects how a failing review affects the rest of a run.
type FailureMode string

const (
	// FailureAbort fails the whole run on the first error; no review is completed.
	FailureAbort FailureMode = "abort"
	// FailureIsolate processes every review on its own; failing reviews stay open.
	FailureIsolate FailureMode = "isolate"
)

// IsValid reports whether m is a known failure mode.
func (m FailureMode) IsValid() bool {
	switch m {
	case FailureAbort, FailureIsolate:
		return true
	default:
		return false
	}
}

// Config holds the application configuration.
type Config struct {
	Crucible   CrucibleConfig   `yaml:"crucible"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Paths      PathsConfig      `yaml:"paths"`
	Validators ValidatorsConfig `yaml:"validators"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Theme      string           `yaml:"theme"`
	DataDir    string           `yaml:"-"` // set by caller, not from config file
	ConfigDir  string           `yaml:"-"` // directory of the loaded config file
}

// CrucibleConfig holds the server connection and bot identity.
type CrucibleConfig struct {
	URL      string        `yaml:"url"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Filter   string        `yaml:"filter"`
	Timeout  time.Duration `yaml:"timeout"`
}

// PipelineConfig tunes a review run.
type PipelineConfig struct {
	Concurrency int         `yaml:"concurrency"`
	FailureMode FailureMode `yaml:"failure_mode"`
	DryRun      bool        `yaml:"dry_run"`
}

// PathsConfig filters review items by path before content is fetched.
type PathsConfig struct {
	// Exclude holds doublestar glob patterns matched against content paths.
	Exclude []string `yaml:"exclude"`
}

// ValidatorsConfig lists the validators available to the pipeline.
type ValidatorsConfig struct {
	JSHint JSHintConfig `yaml:"jshint"`
}

// JSHintConfig configures the JavaScript validator.
type JSHintConfig struct {
	// Enabled uses *bool: nil means enabled, false disables the validator.
	Enabled *bool `yaml:"enabled"`
	// ConfigFile is a .jshintrc path, relative to the config file directory.
	ConfigFile string         `yaml:"config_file"`
	Options    jshint.Options `yaml:"options"`
}

// IsEnabled reports whether the validator should be registered.
func (j JSHintConfig) IsEnabled() bool {
	return j.Enabled == nil || *j.Enabled
}

// LedgerConfig controls the posted-comment ledger used to avoid duplicate
// comments across runs.
type LedgerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // defaults to <data-dir>/crucibot.db
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Crucible: CrucibleConfig{
			Filter:  FilterToReview,
			Timeout: 30 * time.Second,
		},
		Pipeline: PipelineConfig{
			Concurrency: 8,
			FailureMode: FailureAbort,
		},
		Paths: PathsConfig{
			Exclude: []string{},
		},
		Theme: styles.DefaultTheme,
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided
// dataDir. Environment overrides are applied after the file is read.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
		cfg.ConfigDir = filepath.Dir(configPath)
	}
	cfg.DataDir = dataDir

	cfg.ApplyEnv(os.Getenv)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Crucible.Filter == "" {
		c.Crucible.Filter = defaults.Crucible.Filter
	}
	if c.Crucible.Timeout == 0 {
		c.Crucible.Timeout = defaults.Crucible.Timeout
	}
	if c.Pipeline.Concurrency == 0 {
		c.Pipeline.Concurrency = defaults.Pipeline.Concurrency
	}
	if c.Pipeline.FailureMode == "" {
		c.Pipeline.FailureMode = defaults.Pipeline.FailureMode
	}
	if c.Theme == "" {
		c.Theme = defaults.Theme
	}
}

// LedgerPath returns the sqlite ledger location.
func (c *Config) LedgerPath() string {
	if c.Ledger.Path != "" {
		return c.resolve(c.Ledger.Path)
	}
	return filepath.Join(c.DataDir, "crucibot.db")
}

// JSHintConfigPath returns the resolved .jshintrc path, or "" when none is configured.
func (c *Config) JSHintConfigPath() string {
	if c.Validators.JSHint.ConfigFile == "" {
		return ""
	}
	return c.resolve(c.Validators.JSHint.ConfigFile)
}

// resolve makes p absolute relative to the config file directory.
func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) || c.ConfigDir == "" {
		return p
	}
	return filepath.Join(c.ConfigDir, p)
}
