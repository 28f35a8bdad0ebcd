package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cascadeops/diagd/internal/types"
)

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module demo\n"), 0644))

	nested := filepath.Join(root, "internal", "deep")
	require.NoError(t, os.MkdirAll(nested, 0755))
	file := filepath.Join(nested, "thing.go")
	require.NoError(t, os.WriteFile(file, []byte("package deep\n"), 0644))

	assert.Equal(t, root, findProjectRoot(file))
}

func TestFindProjectRootNearestMarkerWins(t *testing.T) {
	outer := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outer, ".git"), nil, 0644))

	inner := filepath.Join(outer, "service")
	require.NoError(t, os.MkdirAll(inner, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(inner, "go.mod"), []byte("module svc\n"), 0644))

	file := filepath.Join(inner, "main.go")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	assert.Equal(t, inner, findProjectRoot(file))
}

func TestFindProjectRootFallsBackToFileDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "lonely.py")
	require.NoError(t, os.WriteFile(file, []byte("x = 1\n"), 0644))

	// No marker anywhere up the temp hierarchy is guaranteed, so only
	// assert the result contains the file.
	got := findProjectRoot(file)
	rel, err := filepath.Rel(got, file)
	require.NoError(t, err)
	assert.NotContains(t, rel, "..")
}

func TestHookPayloadTarget(t *testing.T) {
	tests := []struct {
		name     string
		payload  hookPayload
		expected string
	}{
		{"file field", hookPayload{File: "a.go"}, "a.go"},
		{"path field", hookPayload{Path: "b.go"}, "b.go"},
		{"file_path field", hookPayload{FilePath: "c.go"}, "c.go"},
		{"file wins over path", hookPayload{File: "a.go", Path: "b.go"}, "a.go"},
		{"empty", hookPayload{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.payload.target())
		})
	}
}

func TestHasIssues(t *testing.T) {
	assert.False(t, hasIssues(types.SeverityCounts{}))
	assert.False(t, hasIssues(types.SeverityCounts{Info: 3, Hints: 2}))
	assert.True(t, hasIssues(types.SeverityCounts{Errors: 1}))
	assert.True(t, hasIssues(types.SeverityCounts{Warnings: 1}))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m"},
		{30 * time.Minute, "30m"},
		{time.Hour, "1h"},
		{2*time.Hour + 30*time.Minute, "2h30m"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatDuration(tt.d))
	}
}
