package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cascadeops/diagd/internal/types"
)

func TestNotifierSuppressesWithinWindow(t *testing.T) {
	n := NewNotifier(DefaultConfig())
	diags := []types.Diagnostic{{File: "a.go", Line: 3, Severity: types.SeverityError, Message: "boom"}}

	assert.True(t, n.ShouldNotify("a.go", diags), "first sighting notifies")
	assert.False(t, n.ShouldNotify("a.go", diags), "identical repeat is suppressed")
	assert.False(t, n.ShouldNotify("a.go", diags))
}

func TestNotifierChangedDiagnosticsNotify(t *testing.T) {
	n := NewNotifier(DefaultConfig())
	before := []types.Diagnostic{{File: "a.go", Line: 3, Message: "boom"}}
	after := []types.Diagnostic{{File: "a.go", Line: 4, Message: "boom"}}

	assert.True(t, n.ShouldNotify("a.go", before))
	assert.True(t, n.ShouldNotify("a.go", after), "a changed set bypasses the window")
	assert.False(t, n.ShouldNotify("a.go", after))
}

func TestNotifierWindowExpiry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NotifyWindow = 5 * time.Second
	n := NewNotifier(cfg)

	current := time.Now()
	n.now = func() time.Time { return current }

	diags := []types.Diagnostic{{File: "a.go", Message: "boom"}}
	assert.True(t, n.ShouldNotify("a.go", diags))

	current = current.Add(3 * time.Second)
	assert.False(t, n.ShouldNotify("a.go", diags), "still inside the window")

	current = current.Add(3 * time.Second)
	assert.True(t, n.ShouldNotify("a.go", diags), "window expired")
}

func TestNotifierDistinctFilesIndependent(t *testing.T) {
	n := NewNotifier(DefaultConfig())
	diags := []types.Diagnostic{{Message: "same text"}}

	assert.True(t, n.ShouldNotify("a.go", diags))
	assert.True(t, n.ShouldNotify("b.go", diags), "suppression is per file")
}

func TestNotifierClear(t *testing.T) {
	n := NewNotifier(DefaultConfig())
	diags := []types.Diagnostic{{Message: "boom"}}

	assert.True(t, n.ShouldNotify("a.go", diags))
	assert.False(t, n.ShouldNotify("a.go", diags))

	n.Clear()
	assert.True(t, n.ShouldNotify("a.go", diags), "clear resets suppression")
}

func TestNotifierEmptySetIsAResult(t *testing.T) {
	// "No issues" is itself a displayable result and dedups like any
	// other.
	n := NewNotifier(DefaultConfig())
	assert.True(t, n.ShouldNotify("a.go", nil))
	assert.False(t, n.ShouldNotify("a.go", nil))
}
