package worker

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds configuration for the execution pool.
type Config struct {
	// MaxConcurrent bounds how many checker processes run at once.
	// Default: 4.
	MaxConcurrent int

	// Timeout bounds one checker invocation end to end. On expiry the
	// tool's whole process group is killed. Default: 10 seconds.
	Timeout time.Duration

	// SpawnsPerSecond rate-limits process creation so a burst of
	// requests cannot fork-storm the machine. Default: 10.
	SpawnsPerSecond float64

	// SpawnBurst is the rate limiter's burst allowance. Default: 5.
	SpawnBurst int
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:   4,
		Timeout:         10 * time.Second,
		SpawnsPerSecond: 10,
		SpawnBurst:      5,
	}
}

// Validate checks if the configuration has valid values.
func (c Config) Validate() error {
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("max_concurrent must be positive (got %d)", c.MaxConcurrent)
	}
	if c.MaxConcurrent > 64 {
		return fmt.Errorf("max_concurrent too large (got %d, max 64)", c.MaxConcurrent)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive (got %v)", c.Timeout)
	}
	if c.Timeout > 10*time.Minute {
		return fmt.Errorf("timeout too large (got %v, max 10 minutes)", c.Timeout)
	}
	if c.SpawnsPerSecond <= 0 {
		return fmt.Errorf("spawns_per_second must be positive (got %v)", c.SpawnsPerSecond)
	}
	if c.SpawnBurst <= 0 {
		return fmt.Errorf("spawn_burst must be positive (got %d)", c.SpawnBurst)
	}
	return nil
}

// ConfigFromEnv creates a Config from environment variables, falling
// back to defaults.
//
// Environment variables:
//   - DIAGD_MAX_CONCURRENT: concurrent checker processes (default: 4)
//   - DIAGD_CHECK_TIMEOUT_SECS: per-invocation timeout in seconds (default: 10)
//   - DIAGD_SPAWNS_PER_SEC: process spawn rate limit (default: 10)
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if value := os.Getenv("DIAGD_MAX_CONCURRENT"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return cfg, fmt.Errorf("invalid value for DIAGD_MAX_CONCURRENT: %w", err)
		}
		cfg.MaxConcurrent = parsed
	}
	if value := os.Getenv("DIAGD_CHECK_TIMEOUT_SECS"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return cfg, fmt.Errorf("invalid value for DIAGD_CHECK_TIMEOUT_SECS: %w", err)
		}
		cfg.Timeout = time.Duration(parsed) * time.Second
	}
	if value := os.Getenv("DIAGD_SPAWNS_PER_SEC"); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid value for DIAGD_SPAWNS_PER_SEC: %w", err)
		}
		cfg.SpawnsPerSecond = parsed
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}
	return cfg, nil
}
