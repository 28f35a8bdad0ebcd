// Package fleet starts, stops, tracks, and idle-reaps project servers.
// It is the only component with cross-project visibility, and it
// coordinates purely through the filesystem-backed registry and socket
// probes: fleet manager invocations are short-lived processes with no
// shared memory.
package fleet

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cascadeops/diagd/internal/project"
	"github.com/cascadeops/diagd/internal/server"
	"github.com/cascadeops/diagd/internal/types"
)

const (
	// startProbeRetries and startProbeInterval bound how long Start
	// waits for a freshly spawned server to answer its first health
	// probe.
	startProbeRetries  = 20
	startProbeInterval = 250 * time.Millisecond

	// stopGrace is how long Stop waits for a graceful exit before
	// escalating to SIGKILL.
	stopGrace = 5 * time.Second

	// probeTimeout bounds one health probe.
	probeTimeout = 2 * time.Second
)

// SpawnFunc launches a detached project server process for a root and
// returns its pid. Overridable in tests.
type SpawnFunc func(root string) (int, error)

// Manager implements the fleet operations over a shared registry.
type Manager struct {
	registry *Registry
	spawn    SpawnFunc
}

// NewManager creates a fleet manager. A nil spawn uses the default,
// which re-executes the current binary's hidden serve command.
func NewManager(registry *Registry, spawn SpawnFunc) *Manager {
	m := &Manager{registry: registry, spawn: spawn}
	if m.spawn == nil {
		m.spawn = defaultSpawn
	}
	return m
}

// ServerStatus is the probed condition of one tracked server.
type ServerStatus struct {
	Project *types.Project
	State   types.ServerState
	Stale   bool // Registry entry exists but the socket is unreachable
	Health  *server.HealthData
}

// StartResult reports what Start did.
type StartResult struct {
	Project        types.Project
	AlreadyRunning bool
}

// Start ensures a server is running for root. Idempotent: when a
// healthy server already listens on the root's socket, Start reports it
// and spawns nothing. The probe-then-spawn sequence runs under a
// per-root lock so concurrent starts converge on one server.
func (m *Manager) Start(ctx context.Context, root string) (*StartResult, error) {
	canonical, err := project.CanonicalRoot(root)
	if err != nil {
		return nil, err
	}
	projectID := project.ID(canonical)
	socketPath, err := project.SocketPath(canonical)
	if err != nil {
		return nil, err
	}
	lockPath, err := project.LockPath(canonical)
	if err != nil {
		return nil, err
	}

	lock, err := acquireRootLock(lockPath)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire start lock for %s: %w", canonical, err)
	}
	defer lock.release()

	// Probe before spawning. A live socket means another invocation got
	// here first (or the server has been running all along).
	if health, probeErr := m.probe(socketPath); probeErr == nil {
		p := types.Project{
			ID:           projectID,
			Root:         canonical,
			SocketPath:   socketPath,
			PID:          health.PID,
			StartedAt:    health.StartedAt,
			LastActivity: health.LastActivity,
		}
		// Re-register in case the registry lost the row (e.g. manual
		// deletion of the database).
		if putErr := m.registry.Put(p); putErr != nil {
			return nil, putErr
		}
		return &StartResult{Project: p, AlreadyRunning: true}, nil
	}

	// Socket file present but unresponsive: a crashed server left it
	// behind. Existence alone is never trusted; only the failed probe
	// makes it stale.
	if _, statErr := os.Stat(socketPath); statErr == nil {
		if rmErr := os.Remove(socketPath); rmErr != nil {
			return nil, fmt.Errorf("failed to remove stale socket %s: %w", socketPath, rmErr)
		}
	}
	if delErr := m.registry.Delete(projectID); delErr != nil {
		return nil, delErr
	}

	pid, err := m.spawn(canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to spawn server for %s: %w", canonical, err)
	}

	now := time.Now()
	p := types.Project{
		ID:           projectID,
		Root:         canonical,
		SocketPath:   socketPath,
		PID:          pid,
		StartedAt:    now,
		LastActivity: now,
	}
	if err := m.registry.Put(p); err != nil {
		return nil, err
	}

	// Block until the first successful health probe so callers can rely
	// on the server being reachable when Start returns.
	var lastErr error
	for i := 0; i < startProbeRetries; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(startProbeInterval):
		}
		if _, lastErr = m.probe(socketPath); lastErr == nil {
			return &StartResult{Project: p}, nil
		}
	}

	// The server never became healthy. Clean up so the next start gets
	// a fresh slate.
	if pid > 0 {
		_ = syscall.Kill(pid, syscall.SIGKILL)
	}
	_ = m.registry.Delete(projectID)
	return nil, fmt.Errorf("server for %s did not become healthy: %w", canonical, lastErr)
}

// Stop gracefully stops the server for root: socket shutdown first,
// SIGTERM next, SIGKILL after the grace period. The registry entry is
// removed regardless of outcome.
func (m *Manager) Stop(ctx context.Context, root string) error {
	canonical, err := project.CanonicalRoot(root)
	if err != nil {
		return err
	}
	entry, err := m.registry.Get(project.ID(canonical))
	if err != nil {
		return err
	}
	if entry == nil {
		socketPath, pathErr := project.SocketPath(canonical)
		if pathErr != nil {
			return pathErr
		}
		// Untracked but maybe alive (registry wiped by hand): still try
		// a socket shutdown before declaring it not running.
		if _, probeErr := m.probe(socketPath); probeErr == nil {
			entry = &types.Project{
				ID:         project.ID(canonical),
				Root:       canonical,
				SocketPath: socketPath,
			}
		} else {
			return nil
		}
	}
	return m.stopEntry(entry)
}

// stopEntry stops one tracked server and removes its registry row.
func (m *Manager) stopEntry(entry *types.Project) error {
	defer func() {
		if err := m.registry.Delete(entry.ID); err != nil {
			fmt.Fprintf(os.Stderr, "fleet: failed to delete registry entry %s: %v\n", entry.ID, err)
		}
	}()

	// Graceful path: ask over the socket.
	client := server.NewClient(entry.SocketPath)
	client.SetTimeout(probeTimeout)
	if _, err := client.Shutdown(); err == nil {
		if entry.PID <= 0 || waitForExit(entry.PID, stopGrace) {
			os.Remove(entry.SocketPath)
			return nil
		}
	}

	// Socket unreachable or exit too slow: signal the process directly.
	if entry.PID > 0 && processExists(entry.PID) {
		_ = syscall.Kill(entry.PID, syscall.SIGTERM)
		if !waitForExit(entry.PID, stopGrace) {
			if err := syscall.Kill(entry.PID, syscall.SIGKILL); err != nil && err != syscall.ESRCH {
				return fmt.Errorf("failed to kill server pid %d: %w", entry.PID, err)
			}
			if !waitForExit(entry.PID, stopGrace) {
				return fmt.Errorf("server pid %d did not exit after SIGKILL", entry.PID)
			}
		}
	}

	os.Remove(entry.SocketPath)
	return nil
}

// Status probes the server for one root.
func (m *Manager) Status(root string) (*ServerStatus, error) {
	canonical, err := project.CanonicalRoot(root)
	if err != nil {
		return nil, err
	}
	entry, err := m.registry.Get(project.ID(canonical))
	if err != nil {
		return nil, err
	}

	socketPath, err := project.SocketPath(canonical)
	if err != nil {
		return nil, err
	}

	health, probeErr := m.probe(socketPath)
	if probeErr != nil {
		status := &ServerStatus{Project: entry, State: types.StateNotRunning}
		if entry != nil {
			// Tracked but unreachable: stale. Evict so the registry
			// reflects reality.
			status.Stale = true
			if err := m.registry.Delete(entry.ID); err != nil {
				return nil, err
			}
		}
		return status, nil
	}

	if entry == nil {
		entry = &types.Project{
			ID:         project.ID(canonical),
			Root:       canonical,
			SocketPath: socketPath,
			PID:        health.PID,
			StartedAt:  health.StartedAt,
		}
	}
	return &ServerStatus{Project: entry, State: health.Status, Health: health}, nil
}

// StatusAll probes every registry entry. Stale entries are reported and
// evicted.
func (m *Manager) StatusAll() ([]*ServerStatus, error) {
	entries, err := m.registry.List()
	if err != nil {
		return nil, err
	}

	var statuses []*ServerStatus
	for _, entry := range entries {
		health, probeErr := m.probe(entry.SocketPath)
		if probeErr != nil {
			statuses = append(statuses, &ServerStatus{Project: entry, State: types.StateNotRunning, Stale: true})
			if err := m.registry.Delete(entry.ID); err != nil {
				return nil, err
			}
			continue
		}
		statuses = append(statuses, &ServerStatus{Project: entry, State: health.Status, Health: health})
	}
	return statuses, nil
}

// StopAllResult aggregates a fleet-wide stop.
type StopAllResult struct {
	Stopped int
	Failed  int
	Errors  []error
}

// StopAll stops every tracked server. One failure never aborts the
// sweep; failures are aggregated.
func (m *Manager) StopAll(ctx context.Context) (*StopAllResult, error) {
	entries, err := m.registry.List()
	if err != nil {
		return nil, err
	}

	result := &StopAllResult{}
	for _, entry := range entries {
		if stopErr := m.stopEntry(entry); stopErr != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("stop %s: %w", entry.Root, stopErr))
			continue
		}
		result.Stopped++
	}
	return result, nil
}

// CleanIdle stops every tracked server whose last activity predates
// now-threshold. A zero threshold stops all tracked servers regardless
// of activity, forcing a clean slate.
func (m *Manager) CleanIdle(ctx context.Context, threshold time.Duration) (*StopAllResult, error) {
	entries, err := m.registry.List()
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-threshold)
	result := &StopAllResult{}
	for _, entry := range entries {
		if threshold > 0 && entry.LastActivity.After(cutoff) {
			continue
		}
		if stopErr := m.stopEntry(entry); stopErr != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("stop %s: %w", entry.Root, stopErr))
			continue
		}
		result.Stopped++
	}
	return result, nil
}

// probe performs one bounded health check against a socket.
func (m *Manager) probe(socketPath string) (*server.HealthData, error) {
	client := server.NewClient(socketPath)
	client.SetTimeout(probeTimeout)
	return client.Health()
}

// waitForExit polls until the pid is gone or the timeout elapses.
func waitForExit(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !processExists(pid) {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return !processExists(pid)
}

// defaultSpawn launches the current binary's hidden serve command as a
// detached session leader, logging to the state directory.
func defaultSpawn(root string) (int, error) {
	self, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to locate own executable: %w", err)
	}

	stateDir, err := project.StateDir()
	if err != nil {
		return 0, err
	}
	logDir := filepath.Join(stateDir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create log directory: %w", err)
	}
	logPath := filepath.Join(logDir, fmt.Sprintf("diagd-%s.log", project.ID(root)))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to open server log: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(self, "serve", "--root", root)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start server process: %w", err)
	}
	pid := cmd.Process.Pid

	// The server outlives this invocation; release it so no zombie
	// reaping is expected of us.
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("failed to release server process: %w", err)
	}
	return pid, nil
}
