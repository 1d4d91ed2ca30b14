// Package config loads the analytics configuration.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml), with ${VAR} expansion
//  2. Environment variables (fallback)
//
// Zero values are replaced by defaults matching the historical export, so an
// empty file is a valid configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"shop-analytics/pkg/calculator"
	"shop-analytics/pkg/models"
)

// Config represents the entire application configuration.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Cohort   CohortConfig   `yaml:"cohort"`
	Markets  []string       `yaml:"markets"`
	Orders   OrdersConfig   `yaml:"orders"`
	Channels ChannelsConfig `yaml:"channels"`
	Interest InterestConfig `yaml:"interest"`
	Products ProductsConfig `yaml:"products"`
	Source   SourceConfig   `yaml:"source"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WindowConfig bounds the monthly tables (YYYY-MM, inclusive).
type WindowConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// CohortConfig bounds the months in which customers may enter a cohort.
type CohortConfig struct {
	Start       string `yaml:"start"`
	End         string `yaml:"end"`
	FunnelDepth int    `yaml:"funnel_depth"`
}

// OrdersConfig holds the normalization and validity rules.
type OrdersConfig struct {
	ExcludeIDSubstrings  []string `yaml:"exclude_id_substrings"`
	SubscriptionPrefixes []string `yaml:"subscription_prefixes"`
	SubscriptionTag      string   `yaml:"subscription_tag"`
	ExcludedStatuses     []string `yaml:"excluded_statuses"`
}

// ChannelsConfig drives weekly channel attribution.
type ChannelsConfig struct {
	Weeks  int           `yaml:"weeks"`
	Anchor string        `yaml:"anchor"` // YYYY-MM-DD
	Rules  []models.Rule `yaml:"rules"`
}

// InterestConfig drives the product interest table.
type InterestConfig struct {
	MinSessions int `yaml:"min_sessions"`
}

// ProductsConfig maps line item names and landing slugs to product groups.
type ProductsConfig struct {
	Rules []models.Rule `yaml:"rules"`
}

// SourceConfig points at an optional MySQL copy of the order export.
type SourceConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

// StorageConfig holds the snapshot database location. Empty disables it.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file, then applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${ORDERS_DSN})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() *Config {
	cfg := &Config{
		Window: WindowConfig{
			Start: os.Getenv("ANALYTICS_START_MONTH"),
			End:   os.Getenv("ANALYTICS_END_MONTH"),
		},
		Source: SourceConfig{
			DSN:   os.Getenv("ORDERS_DSN"),
			Table: getEnv("ORDERS_TABLE", "order_export"),
		},
		Storage: StorageConfig{
			DatabasePath: os.Getenv("ANALYTICS_DB_PATH"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
	if m := os.Getenv("ANALYTICS_MARKETS"); m != "" {
		cfg.Markets = strings.Split(m, ",")
	}
	cfg.ApplyDefaults()
	return cfg
}

// LoadOrEnv tries the file at path, falls back to environment variables.
func LoadOrEnv(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// ApplyDefaults fills every unset key.
func (c *Config) ApplyDefaults() {
	setString(&c.Window.Start, "2020-03")
	setString(&c.Window.End, "2026-02")
	setString(&c.Cohort.Start, "2023-01")
	setString(&c.Cohort.End, "2025-12")
	setInt(&c.Cohort.FunnelDepth, 8)
	if len(c.Markets) == 0 {
		c.Markets = []string{"US", "GB", "DE", "NL", "CA"}
	}
	for i, m := range c.Markets {
		c.Markets[i] = strings.ToUpper(strings.TrimSpace(m))
	}
	if c.Orders.ExcludeIDSubstrings == nil {
		c.Orders.ExcludeIDSubstrings = []string{"_E"}
	}
	if c.Orders.SubscriptionPrefixes == nil {
		c.Orders.SubscriptionPrefixes = []string{"#U"}
	}
	setString(&c.Orders.SubscriptionTag, "subscription")
	if c.Orders.ExcludedStatuses == nil {
		c.Orders.ExcludedStatuses = []string{"voided", "pending", ""}
	}
	setInt(&c.Channels.Weeks, 26)
	if len(c.Channels.Rules) == 0 {
		c.Channels.Rules = append([]models.Rule(nil), calculator.DefaultMediumRules...)
	}
	setInt(&c.Interest.MinSessions, 200)
	if len(c.Products.Rules) == 0 {
		c.Products.Rules = append([]models.Rule(nil), calculator.DefaultProductRules...)
	}
	setString(&c.Source.Table, "order_export")
	setString(&c.Logging.Level, "info")
	setString(&c.Logging.Format, "text")
}

// Validate checks month and date formats and window ordering.
func (c *Config) Validate() error {
	for name, m := range map[string]string{
		"window.start": c.Window.Start,
		"window.end":   c.Window.End,
		"cohort.start": c.Cohort.Start,
		"cohort.end":   c.Cohort.End,
	} {
		if _, err := time.Parse("2006-01", m); err != nil || len(m) != 7 {
			return fmt.Errorf("%s: expected YYYY-MM, got %q", name, m)
		}
	}
	if c.Window.End < c.Window.Start {
		return fmt.Errorf("window.end %s < window.start %s", c.Window.End, c.Window.Start)
	}
	if c.Cohort.End < c.Cohort.Start {
		return fmt.Errorf("cohort.end %s < cohort.start %s", c.Cohort.End, c.Cohort.Start)
	}
	if c.Channels.Anchor != "" {
		if _, err := time.Parse("2006-01-02", c.Channels.Anchor); err != nil {
			return fmt.Errorf("channels.anchor: expected YYYY-MM-DD, got %q", c.Channels.Anchor)
		}
	}
	for _, r := range c.Products.Rules {
		if strings.TrimSpace(r.Pattern) == "" || r.Label == "" {
			return fmt.Errorf("products.rules: pattern and label are required")
		}
	}
	return nil
}

// Engine converts the file configuration to calculation parameters.
func (c *Config) Engine(verbose bool) models.Config {
	return models.Config{
		StartMonth:           c.Window.Start,
		EndMonth:             c.Window.End,
		CohortStart:          c.Cohort.Start,
		CohortEnd:            c.Cohort.End,
		FunnelDepth:          c.Cohort.FunnelDepth,
		Markets:              c.Markets,
		ExcludeIDSubstrings:  c.Orders.ExcludeIDSubstrings,
		SubscriptionPrefixes: c.Orders.SubscriptionPrefixes,
		SubscriptionTag:      c.Orders.SubscriptionTag,
		ExcludedStatuses:     c.Orders.ExcludedStatuses,
		ChannelWeeks:         c.Channels.Weeks,
		ChannelAnchor:        c.Channels.Anchor,
		MediumRules:          c.Channels.Rules,
		ProductRules:         c.Products.Rules,
		InterestMinSessions:  c.Interest.MinSessions,
		Verbose:              verbose,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func setString(p *string, def string) {
	if *p == "" {
		*p = def
	}
}

func setInt(p *int, def int) {
	if *p == 0 {
		*p = def
	}
}
