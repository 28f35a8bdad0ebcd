package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/cascadeops/diagd/internal/types"
)

// Notifier suppresses repeat display of identical diagnostics. Editors
// and agent hooks fire in bursts (several save events within a second);
// the first trigger shows the diagnostics, the rest stay quiet until
// the window expires or the diagnostics change.
type Notifier struct {
	mu     sync.Mutex
	recent map[string]time.Time // fingerprint -> last shown
	window time.Duration

	now func() time.Time // Overridable for tests
}

// NewNotifier creates a notifier with the configured suppression window.
func NewNotifier(cfg Config) *Notifier {
	return &Notifier{
		recent: make(map[string]time.Time),
		window: cfg.NotifyWindow,
	}
}

// ShouldNotify reports whether this diagnostics set for this file
// should be surfaced to a human-facing channel. The first call for a
// given (file, diagnostics) pair returns true and arms the window;
// identical calls within the window return false. A changed diagnostics
// set notifies immediately regardless of the window.
func (n *Notifier) ShouldNotify(file string, diags []types.Diagnostic) bool {
	fp := fingerprint(file, diags)

	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.clock()
	if shown, ok := n.recent[fp]; ok && now.Sub(shown) < n.window {
		return false
	}
	n.recent[fp] = now

	// Drop expired fingerprints while we hold the lock; the map stays
	// bounded by the number of distinct results seen per window.
	for k, shown := range n.recent {
		if now.Sub(shown) >= n.window {
			delete(n.recent, k)
		}
	}
	return true
}

// Clear resets all suppression state, as if every window had expired.
func (n *Notifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.recent = make(map[string]time.Time)
}

func (n *Notifier) clock() time.Time {
	if n.now != nil {
		return n.now()
	}
	return time.Now()
}

// fingerprint digests a file plus its exact diagnostics set. Any change
// in message, position, severity, or count produces a new fingerprint.
func fingerprint(file string, diags []types.Diagnostic) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\n", file)
	for _, d := range diags {
		fmt.Fprintf(h, "%s|%d|%d|%s|%s|%s\n", d.File, d.Line, d.Column, d.Severity, d.Message, d.Source)
	}
	return hex.EncodeToString(h.Sum(nil))
}
