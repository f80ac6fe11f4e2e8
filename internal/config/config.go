// Package config provides configuration loading and validation for the
// merge queue coordinator. Configuration is stored as JSON on disk,
// separate from the queue's own SQLite store.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// DefaultLeaseTTL is the lease duration granted on claim when unset
// (spec.md §5).
const DefaultLeaseTTL = 60 * time.Second

// DefaultStaleLockThreshold is the grace period the reclaim sweeper waits
// before releasing a processing lock with no live claimant (spec.md §4.8).
const DefaultStaleLockThreshold = 90 * time.Second

// DefaultMaxAttempts is the attempt-count bound past which a Retryable
// worker error is escalated to Permanent (spec.md §4.10).
const DefaultMaxAttempts = 3

// MaxAttemptsLimit is the largest MaxAttempts Validate will accept.
const MaxAttemptsLimit = 100

// Config holds the tunables for a merge queue coordinator instance.
type Config struct {
	// DBPath is the filesystem path to the SQLite store file.
	DBPath string `json:"db_path"`

	// LeaseTTL is how long a claimed entry's lease remains valid without
	// a heartbeat.
	LeaseTTL time.Duration `json:"lease_ttl"`

	// StaleLockThreshold is how long the processing lock may sit idle,
	// with no live entry under it, before the sweeper reclaims it.
	StaleLockThreshold time.Duration `json:"stale_lock_threshold"`

	// MaxAttempts bounds how many Retryable failures an entry tolerates
	// before being escalated to FailedTerminal.
	MaxAttempts int `json:"max_attempts"`
}

// Load reads and parses a config file from path. Missing optional fields
// are filled with defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a Config with default tunables and an empty DBPath,
// which the caller must set.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.LeaseTTL == 0 {
		cfg.LeaseTTL = DefaultLeaseTTL
	}
	if cfg.StaleLockThreshold == 0 {
		cfg.StaleLockThreshold = DefaultStaleLockThreshold
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
}

// Validate checks that all config values are within acceptable bounds.
//
// Validation rules:
//   - DBPath must not be empty
//   - LeaseTTL must be between 1s and 1h
//   - StaleLockThreshold must not be negative
//   - MaxAttempts must be between 1 and MaxAttemptsLimit
func Validate(c *Config) error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}

	if c.LeaseTTL < time.Second || c.LeaseTTL > time.Hour {
		return fmt.Errorf("lease_ttl must be between 1s and 1h, got %v", c.LeaseTTL)
	}

	if c.StaleLockThreshold < 0 {
		return fmt.Errorf("stale_lock_threshold must not be negative, got %v", c.StaleLockThreshold)
	}

	if c.MaxAttempts < 1 || c.MaxAttempts > MaxAttemptsLimit {
		return fmt.Errorf("max_attempts must be between 1 and %d, got %d", MaxAttemptsLimit, c.MaxAttempts)
	}

	return nil
}

// Save writes c to path as formatted JSON.
func Save(c *Config, path string) error {
	if path == "" {
		return fmt.Errorf("config path cannot be empty")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}

	return nil
}
