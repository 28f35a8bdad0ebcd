// Package config loads per-project settings from an optional
// .diagd.yaml at the project root. Project settings layer on top of the
// environment-derived defaults: env configures the daemon, the YAML
// file tunes one project.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the per-project config file looked up at the root.
const FileName = ".diagd.yaml"

// ProjectConfig is the shape of .diagd.yaml.
type ProjectConfig struct {
	// TimeoutSecs overrides the per-checker timeout for this project.
	// 0 keeps the daemon default.
	TimeoutSecs int `yaml:"timeout_secs"`

	// MaxDiagnostics overrides the per-response diagnostics cap.
	// -1 keeps the daemon default; 0 disables the cap.
	MaxDiagnostics int `yaml:"max_diagnostics"`

	// DisabledCheckers lists plugin names to skip for this project
	// (e.g. ["ruff"] to silence Python linting).
	DisabledCheckers []string `yaml:"disabled_checkers"`
}

// Load reads the project config at root. A missing file yields the
// zero-value defaults and no error; a malformed file is an error, since
// silently ignoring a typo'd config is worse than failing the start.
func Load(root string) (*ProjectConfig, error) {
	cfg := &ProjectConfig{MaxDiagnostics: -1}

	data, err := os.ReadFile(filepath.Join(root, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	if cfg.TimeoutSecs < 0 {
		return nil, fmt.Errorf("%s: timeout_secs cannot be negative (got %d)", FileName, cfg.TimeoutSecs)
	}
	return cfg, nil
}

// Disabled reports whether a checker name appears in DisabledCheckers.
func (c *ProjectConfig) Disabled(name string) bool {
	for _, d := range c.DisabledCheckers {
		if d == name {
			return true
		}
	}
	return false
}
