// ABOUTME: Leadbook configuration stored at XDG paths with .env and environment overrides
// ABOUTME: Resolves the datastore driver/DSN and the retry policy handed to the engine
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/harperreed/leadbook/db"
	"github.com/harperreed/leadbook/unify"
	"github.com/joho/godotenv"
)

// AppName names the XDG data directory.
const AppName = "leadbook"

// RetryConfig controls retries of datastore calls.
type RetryConfig struct {
	MaxAttempts     uint          `json:"max_attempts"`
	InitialInterval time.Duration `json:"initial_interval,omitempty"`
	MaxInterval     time.Duration `json:"max_interval,omitempty"`
}

// Policy converts the config into the engine's retry policy.
func (r RetryConfig) Policy() unify.RetryPolicy {
	return unify.RetryPolicy{
		MaxAttempts:     r.MaxAttempts,
		InitialInterval: r.InitialInterval,
		MaxInterval:     r.MaxInterval,
	}
}

// Config holds the datastore location and engine tuning.
type Config struct {
	DBDriver string `json:"db_driver"`
	DSN      string `json:"dsn"`

	// OwnerName labels mutations made from this machine in logs and the activity timeline.
	OwnerName string `json:"owner_name,omitempty"`

	// AutoRefetch refetches after every confirmed mutation instead of marking the stream stale.
	AutoRefetch bool `json:"auto_refetch"`

	Retry       RetryConfig `json:"retry"`
	PresetsPath string      `json:"presets_path,omitempty"`
}

// Dir returns the XDG data directory for leadbook.
func Dir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Path returns the config file location.
func Path() string {
	return filepath.Join(Dir(), "config.json")
}

// Default returns a config pointing at the local sqlite database.
func Default() *Config {
	def := unify.DefaultRetryPolicy()
	return &Config{
		DBDriver: db.DriverSQLite,
		DSN:      filepath.Join(Dir(), "leadbook.db"),
		Retry: RetryConfig{
			MaxAttempts:     def.MaxAttempts,
			InitialInterval: def.InitialInterval,
			MaxInterval:     def.MaxInterval,
		},
		PresetsPath: filepath.Join(Dir(), "presets.yaml"),
	}
}

// Load reads the config file, then .env in the working directory, then the
// environment. Missing files fall back to defaults.
// Environment variables override file values:
// - LEADBOOK_DB_DRIVER
// - LEADBOOK_DSN
// - LEADBOOK_RETRY_ATTEMPTS
// - LEADBOOK_PRESETS
// - LEADBOOK_AUTO_REFETCH.
func Load() (*Config, error) {
	cfg := Default()

	f, err := os.Open(Path())
	switch {
	case err == nil:
		defer func() { _ = f.Close() }()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if driver := os.Getenv("LEADBOOK_DB_DRIVER"); driver != "" {
		cfg.DBDriver = driver
	}
	if dsn := os.Getenv("LEADBOOK_DSN"); dsn != "" {
		cfg.DSN = dsn
	}
	if attempts := os.Getenv("LEADBOOK_RETRY_ATTEMPTS"); attempts != "" {
		n, err := strconv.ParseUint(attempts, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid LEADBOOK_RETRY_ATTEMPTS %q: %w", attempts, err)
		}
		cfg.Retry.MaxAttempts = uint(n)
	}
	if presets := os.Getenv("LEADBOOK_PRESETS"); presets != "" {
		cfg.PresetsPath = presets
	}
	if auto := os.Getenv("LEADBOOK_AUTO_REFETCH"); auto != "" {
		cfg.AutoRefetch = auto == "true" || auto == "1"
	}
	return nil
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.DBDriver == "" {
		c.DBDriver = def.DBDriver
	}
	if c.DSN == "" && c.DBDriver == db.DriverSQLite {
		c.DSN = def.DSN
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 1
	}
}

// Save writes the config with restricted permissions.
func (c *Config) Save() error {
	if err := os.MkdirAll(Dir(), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(Path(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Invalidation maps AutoRefetch to the engine's invalidation policy.
func (c *Config) Invalidation() unify.Invalidation {
	if c.AutoRefetch {
		return unify.InvalidateActive
	}
	return unify.InvalidateSilent
}
