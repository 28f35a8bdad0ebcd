// Package dedup prevents redundant work and redundant noise. It has
// two independent mechanisms:
//
//   - Cache: a content-hash-keyed store of computed diagnostics that
//     avoids re-running external tools for unchanged files.
//   - Notifier: a short suppression window that avoids re-displaying an
//     identical diagnostics set to a human, even when the cache was
//     bypassed or recomputed.
//
// The cache governs computation; the notifier governs display. Neither
// affects the correctness of returned data.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/cascadeops/diagd/internal/types"
)

// ComputeFunc produces fresh diagnostics for a file on a cache miss.
// The worker pool provides this.
type ComputeFunc func(ctx context.Context, file string) ([]types.Diagnostic, error)

// Entry is one cached computation for a file.
type Entry struct {
	File        string
	Hash        string
	Diagnostics []types.Diagnostic
	ComputedAt  time.Time
}

// Cache is a content-hash-keyed diagnostics store. It is private to one
// project server process; there is no cross-project sharing.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Entry
	compute ComputeFunc
	ttl     time.Duration

	now func() time.Time // Overridable for tests
}

// NewCache creates a cache backed by the given compute function.
func NewCache(cfg Config, compute ComputeFunc) *Cache {
	return &Cache{
		entries: make(map[string]*Entry),
		compute: compute,
		ttl:     cfg.TTL,
		now:     time.Now,
	}
}

// Get returns diagnostics for a file, from cache when the file's
// current content hash matches the stored entry and the entry is within
// TTL. Otherwise it recomputes via the compute function and stores the
// result, replacing any prior entry for the file. force bypasses the
// cache read but still stores the fresh result.
//
// A file that cannot be read (deleted between trigger and check,
// permission change) yields empty diagnostics and no error: an
// unreadable file has nothing to report and must not crash the server.
func (c *Cache) Get(ctx context.Context, file string, force bool) ([]types.Diagnostic, error) {
	hash, err := hashFile(file)
	if err != nil {
		return nil, nil
	}

	c.mu.Lock()
	entry, ok := c.entries[file]
	if ok && !force && entry.Hash == hash && c.now().Sub(entry.ComputedAt) < c.ttl {
		diags := entry.Diagnostics
		c.mu.Unlock()
		return diags, nil
	}
	c.mu.Unlock()

	// Compute outside the lock: a slow tool for one file must not block
	// cache hits for other files.
	diags, err := c.compute(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("failed to compute diagnostics for %s: %w", file, err)
	}

	c.mu.Lock()
	c.entries[file] = &Entry{
		File:        file,
		Hash:        hash,
		Diagnostics: diags,
		ComputedAt:  c.now(),
	}
	c.mu.Unlock()

	return diags, nil
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry)
}

// Stats describes the cache contents for observability and tests.
type Stats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

// GetStats returns the current cache statistics.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return Stats{Size: len(c.entries), Keys: keys}
}

// hashFile returns the hex SHA-256 of a file's content.
func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
