package dedup

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds configuration for the dedup engine.
type Config struct {
	// TTL is how long a cache entry stays valid even when the file's
	// content hash still matches. Guards against external state the
	// hash cannot see (tool upgrades, config edits elsewhere).
	// Default: 5 minutes.
	TTL time.Duration

	// NotifyWindow is how long an identical diagnostics set for a file
	// is suppressed from human-facing display after it was first shown.
	// This governs notification only, never computation.
	// Default: 5 seconds.
	NotifyWindow time.Duration

	// MaxDiagnostics caps the consumer-facing diagnostics list per
	// response; entries beyond the cap are reported as an overflow
	// count. 0 disables the cap. Default: 5.
	MaxDiagnostics int
}

// DefaultConfig returns the default dedup configuration.
func DefaultConfig() Config {
	return Config{
		TTL:            5 * time.Minute,
		NotifyWindow:   5 * time.Second,
		MaxDiagnostics: 5,
	}
}

// Validate checks if the configuration has valid values.
func (c Config) Validate() error {
	if c.TTL <= 0 {
		return fmt.Errorf("ttl must be positive (got %v)", c.TTL)
	}
	if c.NotifyWindow < 0 {
		return fmt.Errorf("notify_window cannot be negative (got %v)", c.NotifyWindow)
	}
	if c.MaxDiagnostics < 0 {
		return fmt.Errorf("max_diagnostics cannot be negative (got %d)", c.MaxDiagnostics)
	}
	return nil
}

// ConfigFromEnv creates a Config from environment variables, falling
// back to defaults.
//
// Environment variables:
//   - DIAGD_CACHE_TTL_SECS: cache entry TTL in seconds (default: 300)
//   - DIAGD_NOTIFY_WINDOW_SECS: notification suppression window in seconds (default: 5)
//   - DIAGD_MAX_DIAGNOSTICS: per-response diagnostics cap, 0 = uncapped (default: 5)
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if err := parseEnvDuration("DIAGD_CACHE_TTL_SECS", &cfg.TTL); err != nil {
		return cfg, err
	}
	if err := parseEnvDuration("DIAGD_NOTIFY_WINDOW_SECS", &cfg.NotifyWindow); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("DIAGD_MAX_DIAGNOSTICS", &cfg.MaxDiagnostics); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}
	return cfg, nil
}

func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

func parseEnvDuration(key string, dest *time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = time.Duration(parsed) * time.Second
	return nil
}
