// Package config loads marketpulse settings from YAML and the environment.
//
// Precedence, lowest first: Default(), the YAML file, MARKETPULSE_* env vars.
// A missing file is not an error.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/abelbrown/marketpulse/internal/model"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the complete set of tunables.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Cache   CacheConfig   `yaml:"cache"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Ranking RankingConfig `yaml:"ranking"`
	Enrich  EnrichConfig  `yaml:"enrich"`
	Log     LogConfig     `yaml:"log"`

	// Feeds replaces the built-in registry when non-empty.
	Feeds []model.FeedSource `yaml:"feeds,omitempty"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Addr      string  `yaml:"addr"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second per client IP
	RateBurst int     `yaml:"rate_burst"`
}

// CacheConfig controls the result cache.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
	// WarmInterval refreshes the cache in the background when it has gone
	// stale, so readers rarely wait on a pipeline run. 0 disables.
	WarmInterval time.Duration `yaml:"warm_interval"`
}

// FetchConfig controls feed retrieval and parsing.
type FetchConfig struct {
	Timeout         time.Duration `yaml:"timeout"`
	UserAgent       string        `yaml:"user_agent"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	MaxItemsPerFeed int           `yaml:"max_items_per_feed"`
}

// RankingConfig controls classification, dedup and output size.
type RankingConfig struct {
	MaxItems            int           `yaml:"max_items"`
	SimilarityThreshold float64       `yaml:"similarity_threshold"`
	VeryRecent          time.Duration `yaml:"very_recent"`
	Recent              time.Duration `yaml:"recent"`
}

// EnrichConfig controls the background image sweep.
type EnrichConfig struct {
	Timeout  time.Duration `yaml:"timeout"`
	MaxBytes int64         `yaml:"max_bytes"`
	MaxItems int           `yaml:"max_items"`
	Parallel int           `yaml:"parallel"`
}

// LogConfig controls human logs and the JSONL event log.
type LogConfig struct {
	Level  string `yaml:"level"`
	Events string `yaml:"events"` // event log path; "" disables
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:      ":8080",
			RateLimit: 5,
			RateBurst: 20,
		},
		Cache: CacheConfig{TTL: 120 * time.Second},
		Fetch: FetchConfig{
			Timeout:         2500 * time.Millisecond,
			UserAgent:       "Mozilla/5.0 (compatible; marketpulse/1.0; +https://github.com/abelbrown/marketpulse)",
			MaxBodyBytes:    4 << 20,
			MaxItemsPerFeed: 12,
		},
		Ranking: RankingConfig{
			MaxItems:            50,
			SimilarityThreshold: 0.8,
			VeryRecent:          30 * time.Minute,
			Recent:              2 * time.Hour,
		},
		Enrich: EnrichConfig{
			Timeout:  3 * time.Second,
			MaxBytes: 50 * 1024,
			MaxItems: 20,
			Parallel: 4,
		},
		Log: LogConfig{
			Level:  "info",
			Events: filepath.Join(DataDir(), "events.jsonl"),
		},
	}
}

// DataDir is where marketpulse keeps its event log.
func DataDir() string {
	return filepath.Join(xdg.StateHome, "marketpulse")
}

// DefaultPath returns $XDG_CONFIG_HOME/marketpulse/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "marketpulse", "config.yaml")
}

// Load reads path (DefaultPath when empty) over the defaults, then applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("MARKETPULSE_ADDR"); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup("MARKETPULSE_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("MARKETPULSE_EVENTS"); ok {
		c.Log.Events = v
	}
	if v, ok := lookup("MARKETPULSE_CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: MARKETPULSE_CACHE_TTL: %v", ErrInvalid, err)
		}
		c.Cache.TTL = d
	}
	if v, ok := lookup("MARKETPULSE_RATE_LIMIT"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: MARKETPULSE_RATE_LIMIT: %v", ErrInvalid, err)
		}
		c.Server.RateLimit = f
	}
	return nil
}

// Validate checks every tunable and feed entry.
func (c *Config) Validate() error {
	positive := map[string]time.Duration{
		"cache.ttl":           c.Cache.TTL,
		"fetch.timeout":       c.Fetch.Timeout,
		"ranking.very_recent": c.Ranking.VeryRecent,
		"ranking.recent":      c.Ranking.Recent,
		"enrich.timeout":      c.Enrich.Timeout,
	}
	for name, d := range positive {
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalid, name, d)
		}
	}
	if c.Ranking.VeryRecent > c.Ranking.Recent {
		return fmt.Errorf("%w: ranking.very_recent (%s) exceeds ranking.recent (%s)", ErrInvalid, c.Ranking.VeryRecent, c.Ranking.Recent)
	}
	if t := c.Ranking.SimilarityThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("%w: ranking.similarity_threshold must be in (0,1], got %v", ErrInvalid, t)
	}
	if c.Ranking.MaxItems <= 0 || c.Fetch.MaxItemsPerFeed <= 0 {
		return fmt.Errorf("%w: item limits must be positive", ErrInvalid)
	}
	if c.Enrich.MaxItems < 0 || c.Enrich.Parallel <= 0 || c.Enrich.MaxBytes <= 0 {
		return fmt.Errorf("%w: enrich limits must be positive", ErrInvalid)
	}
	if c.Cache.WarmInterval < 0 {
		return fmt.Errorf("%w: cache.warm_interval must not be negative", ErrInvalid)
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		return fmt.Errorf("%w: rate limits must not be negative", ErrInvalid)
	}

	for i, f := range c.Feeds {
		if f.Label == "" {
			return fmt.Errorf("%w: feed %d: label is required", ErrInvalid, i)
		}
		u, err := url.Parse(f.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: feed %q: url must be absolute http(s), got %q", ErrInvalid, f.Label, f.URL)
		}
		if _, err := model.ParseCategory(string(f.Category)); err != nil {
			return fmt.Errorf("%w: feed %q: %v", ErrInvalid, f.Label, err)
		}
	}
	return nil
}
