// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Billing  BillingConfig  `yaml:"billing"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig configures the database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite"
	DSN    string `yaml:"dsn"`
}

// BillingConfig configures the payment provider.
// Use "stripe" for the real provider or "memory" for local development.
type BillingConfig struct {
	Mode           string `yaml:"mode"` // "stripe" or "memory"
	StripeKey      string `yaml:"stripe_key,omitempty"`
	DefaultPriceID string `yaml:"default_price_id"`

	// Payment-method polling during plan changes.
	PaymentMethodMaxAttempts int           `yaml:"payment_method_max_attempts"`
	PaymentMethodRetryDelay  time.Duration `yaml:"payment_method_retry_delay"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	WORDCOACH_SERVER_HOST            - Server host (default: 0.0.0.0)
//	WORDCOACH_SERVER_PORT            - Server port (default: 8080)
//	WORDCOACH_DATABASE_DSN           - Database path (default: wordcoach.db)
//	WORDCOACH_BILLING_MODE           - Billing mode: stripe or memory (default: memory)
//	WORDCOACH_STRIPE_KEY             - Stripe secret key (required for stripe mode)
//	WORDCOACH_DEFAULT_PRICE_ID       - Free-tier price id (required)
//	WORDCOACH_LOG_LEVEL              - Log level (default: info)
//	WORDCOACH_LOG_FORMAT             - json or console (default: json)
//	WORDCOACH_METRICS_ENABLED        - Enable /metrics (default: true)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment
// variables.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	if os.Getenv("WORDCOACH_DEFAULT_PRICE_ID") != "" {
		return LoadFromEnv()
	}

	return nil, fmt.Errorf("no configuration found: provide config file or set WORDCOACH_DEFAULT_PRICE_ID")
}

// applyEnvOverrides applies WORDCOACH_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WORDCOACH_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("WORDCOACH_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("WORDCOACH_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("WORDCOACH_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	if v := os.Getenv("WORDCOACH_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	if v := os.Getenv("WORDCOACH_BILLING_MODE"); v != "" {
		cfg.Billing.Mode = v
	}
	if v := os.Getenv("WORDCOACH_STRIPE_KEY"); v != "" {
		cfg.Billing.StripeKey = v
	}
	if v := os.Getenv("WORDCOACH_DEFAULT_PRICE_ID"); v != "" {
		cfg.Billing.DefaultPriceID = v
	}
	if v := os.Getenv("WORDCOACH_PM_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Billing.PaymentMethodMaxAttempts = n
		}
	}
	if v := os.Getenv("WORDCOACH_PM_RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Billing.PaymentMethodRetryDelay = d
		}
	}

	if v := os.Getenv("WORDCOACH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("WORDCOACH_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("WORDCOACH_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
}

func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "wordcoach.db"
	}

	if cfg.Billing.Mode == "" {
		cfg.Billing.Mode = "memory"
	}
	if cfg.Billing.PaymentMethodMaxAttempts == 0 {
		cfg.Billing.PaymentMethodMaxAttempts = 3
	}
	if cfg.Billing.PaymentMethodRetryDelay == 0 {
		cfg.Billing.PaymentMethodRetryDelay = 2 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validate(cfg *Config) error {
	validBillingModes := map[string]bool{"stripe": true, "memory": true}
	if !validBillingModes[cfg.Billing.Mode] {
		return fmt.Errorf("billing.mode must be 'stripe' or 'memory', got %q", cfg.Billing.Mode)
	}
	if cfg.Billing.Mode == "stripe" && cfg.Billing.StripeKey == "" {
		return fmt.Errorf("billing.stripe_key is required when billing.mode is 'stripe'")
	}
	if cfg.Billing.DefaultPriceID == "" {
		return fmt.Errorf("billing.default_price_id is required")
	}

	if cfg.Database.Driver != "sqlite" {
		return fmt.Errorf("database.driver must be 'sqlite', got %q", cfg.Database.Driver)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", cfg.Logging.Level)
	}

	return nil
}
