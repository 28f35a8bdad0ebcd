package checkers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookup(t *testing.T) {
	reg := DefaultRegistry()

	tests := []struct {
		path     string
		expected string // Plugin name, or "" for no plugin
	}{
		{"main.go", "govet"},
		{"sub/dir/util.GO", "govet"},
		{"app.py", "ruff"},
		{"web/index.ts", "tsc"},
		{"web/app.tsx", "tsc"},
		{"src/lib.rs", "cargo-check"},
		{"native/core.c", "gcc-syntax"},
		{"native/core.cpp", "gcc-syntax"},
		{"native/core.h", "gcc-syntax"},
		{"com/example/User.java", "javac"},
		{"README.md", ""},
		{"Makefile", ""},
		{"noextension", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			plugin := reg.Lookup(tt.path)
			if tt.expected == "" {
				assert.Nil(t, plugin)
				return
			}
			require.NotNil(t, plugin)
			assert.Equal(t, tt.expected, plugin.Name())
		})
	}
}

func TestRegistryFirstRegistrationWins(t *testing.T) {
	a := NewTsc()
	b := NewGccSyntax()

	// Fabricate a collision by registering tsc twice.
	reg := NewRegistry(a, a, b)
	assert.Same(t, Plugin(a), reg.Lookup("x.ts"))
	assert.Len(t, reg.Plugins(), 3)
}

func TestRegistryExtensionsSorted(t *testing.T) {
	exts := DefaultRegistry().Extensions()
	require.NotEmpty(t, exts)
	for i := 1; i < len(exts); i++ {
		assert.Less(t, exts[i-1], exts[i])
	}
	assert.Contains(t, exts, ".go")
	assert.Contains(t, exts, ".py")
}

func TestGoVetDetect(t *testing.T) {
	plugin := NewGoVet()

	root := t.TempDir()
	assert.False(t, plugin.Detect(root), "no go.mod, no Go project")

	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/demo\n\ngo 1.22\n"), 0644))
	assert.True(t, plugin.Detect(root))
}

func TestGoVetDetectRejectsMalformedModFile(t *testing.T) {
	plugin := NewGoVet()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("this is not a module file {{{"), 0644))
	assert.False(t, plugin.Detect(root))
}

func TestCargoCheckDetect(t *testing.T) {
	plugin := NewCargoCheck()

	root := t.TempDir()
	assert.False(t, plugin.Detect(root))

	require.NoError(t, os.WriteFile(filepath.Join(root, "Cargo.toml"), []byte("[package]\nname = \"demo\"\n"), 0644))
	assert.True(t, plugin.Detect(root))
}
