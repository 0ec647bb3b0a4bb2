// Package config loads the pkb configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	BaseURL  string `yaml:"base_url"`
	Locale   string `yaml:"locale"`   // BCP 47, used for title sorting
	PageSize int    `yaml:"page_size"` // tags and bookmarks requested per load

	HTTP      HTTPConfig      `yaml:"http"`
	Logging   LoggingConfig   `yaml:"logging"`
	Session   SessionConfig   `yaml:"session"`
	LinkCheck LinkCheckConfig `yaml:"link_check"`
}

// HTTPConfig tunes calls to the remote service.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 disables limiting
	Burst             int     `yaml:"burst"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// SessionConfig selects where the login session is kept.
type SessionConfig struct {
	Backend string `yaml:"backend"` // auto, json, sqlite
	Dir     string `yaml:"dir"`     // default ~/.config/pkb
}

// LinkCheckConfig configures the dead link check.
type LinkCheckConfig struct {
	Concurrency     int      `yaml:"concurrency"`
	Timeout         string   `yaml:"timeout"`
	RequestsPerSec  float64  `yaml:"requests_per_second"`
	ExcludedDomains []string `yaml:"excluded_domains"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:  "https://api.pickabook.app",
		Locale:   "en",
		PageSize: 1000,
		HTTP: HTTPConfig{
			Timeout:           "30s",
			RequestsPerSecond: 10,
			Burst:             5,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		Session: SessionConfig{
			Backend: "auto",
		},
		LinkCheck: LinkCheckConfig{
			Concurrency:     10,
			Timeout:         "10s",
			RequestsPerSec:  20,
			ExcludedDomains: []string{"github.com", "gitlab.com"},
		},
	}
}

// Load reads config from the YAML file and applies environment overrides.
// Creates the file with defaults if it doesn't exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Non-fatal: defaults still apply when the file cannot be written
		_ = cfg.Save(path)
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes config to the YAML file.
// Creates the directory if it doesn't exist.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PKB_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("PKB_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PKB_LOCALE"); v != "" {
		c.Locale = v
	}
	if v := os.Getenv("PKB_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PageSize = n
		}
	}
}

// applyDefaults fills fields a partial file left empty.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Locale == "" {
		c.Locale = d.Locale
	}
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	if c.HTTP.Burst <= 0 {
		c.HTTP.Burst = d.HTTP.Burst
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
	if c.Session.Backend == "" {
		c.Session.Backend = d.Session.Backend
	}
	if c.LinkCheck.Concurrency <= 0 {
		c.LinkCheck.Concurrency = d.LinkCheck.Concurrency
	}
	if c.LinkCheck.ExcludedDomains == nil {
		c.LinkCheck.ExcludedDomains = d.LinkCheck.ExcludedDomains
	}
}

// RequestTimeout returns the HTTP timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return parseDuration(c.HTTP.Timeout, 30*time.Second)
}

// LinkCheckTimeout returns the per-link timeout as a duration.
func (c *Config) LinkCheckTimeout() time.Duration {
	return parseDuration(c.LinkCheck.Timeout, 10*time.Second)
}

// SessionDir returns the directory of the session store.
func (c *Config) SessionDir() (string, error) {
	if c.Session.Dir != "" {
		return c.Session.Dir, nil
	}
	return DefaultDir()
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// DefaultDir returns ~/.config/pkb
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "pkb"), nil
}

// DefaultFilePath returns the default config path: ~/.config/pkb/config.yaml
func DefaultFilePath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
