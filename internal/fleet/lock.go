package fleet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// rootLock serializes start attempts for one project root across
// concurrent CLI invocations. Whoever holds the lock performs the
// probe-then-spawn sequence atomically: the loser of the race re-probes
// and finds the winner's live socket instead of binding its own.
type rootLock struct {
	path string
}

// lockInfo is the lock file's content, enough to decide staleness.
type lockInfo struct {
	PID       int       `json:"pid"`
	CreatedAt time.Time `json:"created_at"`
}

// acquireRootLock takes the per-root start lock, retrying briefly when
// another invocation holds it. A lock whose holder process is gone is
// stale and taken over.
func acquireRootLock(path string) (*rootLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			info := lockInfo{PID: os.Getpid(), CreatedAt: time.Now()}
			data, _ := json.Marshal(info)
			if _, err := f.Write(data); err != nil {
				f.Close()
				os.Remove(path)
				return nil, fmt.Errorf("failed to write lock file: %w", err)
			}
			f.Close()
			return &rootLock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to create lock file: %w", err)
		}

		// Lock exists: held by a live process, or left behind by a dead
		// one.
		if data, readErr := os.ReadFile(path); readErr == nil {
			var existing lockInfo
			if json.Unmarshal(data, &existing) == nil && existing.PID > 0 && !processExists(existing.PID) {
				os.Remove(path)
				continue
			}
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out waiting for start lock %s", path)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// release removes the lock file.
func (l *rootLock) release() {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "fleet: failed to remove lock file %s: %v\n", l.path, err)
	}
}

// processExists reports whether a process with the given pid is alive.
// Signal 0 performs the existence check without affecting the target.
func processExists(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || err == syscall.EPERM
}
