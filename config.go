package tracker

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the run configuration. Everything has a working default, so a
// missing config file only means "use the defaults".
type Config struct {
	// Quote is the quote currency ticker all values are expressed in.
	Quote string `yaml:"quote"`
	// HistoryDays is the valuation window length.
	HistoryDays int `yaml:"history_days"`
	// CooldownSeconds is the minimum delay between exchange calls.
	CooldownSeconds int `yaml:"cooldown_seconds"`
	// KeyFile is the API key file: key and secret on separate lines.
	KeyFile string `yaml:"key_file"`
	// CachePath is the price snapshot file. Empty disables caching.
	CachePath string `yaml:"cache_path"`
	// Strict makes missing price data abort the valuation.
	Strict bool `yaml:"strict"`
	// Overrides extend the built-in asset id → ticker override table.
	Overrides map[string]string `yaml:"overrides"`
	// Exclusions extend the built-in excluded asset set.
	Exclusions []string `yaml:"exclusions"`
}

// LoadConfig reads the config from a YAML file, then applies environment
// variable overrides and defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("KRAKEN_KEY_FILE"); v != "" {
		cfg.KeyFile = v
	}
	if v := os.Getenv("TRACKER_QUOTE"); v != "" {
		cfg.Quote = v
	}
	if v := os.Getenv("TRACKER_CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv("TRACKER_HISTORY_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			cfg.HistoryDays = days
		}
	}

	// Defaults
	if cfg.Quote == "" {
		cfg.Quote = string(DefaultQuote)
	}
	if cfg.HistoryDays == 0 {
		cfg.HistoryDays = 365
	}
	if cfg.CooldownSeconds == 0 {
		cfg.CooldownSeconds = int(DefaultCooldown / time.Second)
	}
	if cfg.KeyFile == "" {
		cfg.KeyFile = "apikey.txt"
	}

	return cfg, nil
}

// Cooldown returns the configured inter-call delay as a duration.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// CatalogOptions converts the configured tables into catalog options.
// The configured overrides and exclusions extend the built-in defaults.
func (c *Config) CatalogOptions() []CatalogOption {
	opts := []CatalogOption{WithQuote(Ticker(c.Quote))}
	if len(c.Overrides) > 0 {
		merged := make(map[string]Ticker, len(DefaultOverrides)+len(c.Overrides))
		for asset, ticker := range DefaultOverrides {
			merged[asset] = ticker
		}
		for asset, ticker := range c.Overrides {
			merged[asset] = Ticker(ticker)
		}
		opts = append(opts, WithOverrides(merged))
	}
	if len(c.Exclusions) > 0 {
		merged := append([]string{}, DefaultExclusions...)
		merged = append(merged, c.Exclusions...)
		opts = append(opts, WithExclusions(merged))
	}
	return opts
}
