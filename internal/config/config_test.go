package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(content), 0644))
	return root
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, cfg.TimeoutSecs)
	assert.Equal(t, -1, cfg.MaxDiagnostics)
	assert.Empty(t, cfg.DisabledCheckers)
}

func TestLoadFullConfig(t *testing.T) {
	root := writeConfig(t, `
timeout_secs: 30
max_diagnostics: 10
disabled_checkers:
  - ruff
  - tsc
`)

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.TimeoutSecs)
	assert.Equal(t, 10, cfg.MaxDiagnostics)
	assert.Equal(t, []string{"ruff", "tsc"}, cfg.DisabledCheckers)
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	root := writeConfig(t, "timeout_secs: 5\n")

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.TimeoutSecs)
	assert.Equal(t, -1, cfg.MaxDiagnostics, "unset cap keeps the daemon default")
}

func TestLoadZeroCapDisables(t *testing.T) {
	root := writeConfig(t, "max_diagnostics: 0\n")

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Zero(t, cfg.MaxDiagnostics)
}

func TestLoadMalformedFileFails(t *testing.T) {
	root := writeConfig(t, "timeout_secs: [not a number\n")

	_, err := Load(root)
	assert.Error(t, err)
}

func TestLoadNegativeTimeoutFails(t *testing.T) {
	root := writeConfig(t, "timeout_secs: -3\n")

	_, err := Load(root)
	assert.Error(t, err)
}

func TestDisabled(t *testing.T) {
	cfg := &ProjectConfig{DisabledCheckers: []string{"ruff", "javac"}}
	assert.True(t, cfg.Disabled("ruff"))
	assert.True(t, cfg.Disabled("javac"))
	assert.False(t, cfg.Disabled("govet"))

	empty := &ProjectConfig{}
	assert.False(t, empty.Disabled("ruff"))
}
