// Package worker runs one checker invocation to completion or timeout,
// in isolation, with guaranteed resource cleanup. The pool owns the
// entire process lifecycle so that plugins never have to: plugins only
// build argv and parse output.
package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/cascadeops/diagd/internal/checkers"
	"github.com/cascadeops/diagd/internal/types"
)

// Status classifies how an execution ended.
type Status string

const (
	// StatusComplete means the tool ran and its output was parsed.
	// A non-zero exit with parseable diagnostics is still Complete:
	// checkers exit non-zero exactly when they find issues.
	StatusComplete Status = "complete"

	// StatusTimeout means the tool exceeded its deadline and its whole
	// process group was killed.
	StatusTimeout Status = "timeout"

	// StatusToolNotFound means the underlying binary is not installed.
	// Non-fatal: reduces to empty diagnostics.
	StatusToolNotFound Status = "tool_not_found"

	// StatusCrashed means the tool could not be started or setup
	// failed. Non-fatal: reduces to empty diagnostics.
	StatusCrashed Status = "crashed"
)

// ExecutionResult is the outcome of one checker invocation.
type ExecutionResult struct {
	Status      Status
	Diagnostics []types.Diagnostic
	Tool        string
	Duration    time.Duration
	Err         error // Set for Timeout/ToolNotFound/Crashed; informational only
}

// Pool runs checker invocations with bounded concurrency. Submissions
// for different files proceed concurrently; each invocation is
// independent and shares no mutable state with another.
type Pool struct {
	sem     *semaphore.Weighted
	spawns  *rate.Limiter
	timeout time.Duration
}

// NewPool creates a pool from the given config.
func NewPool(cfg Config) *Pool {
	return &Pool{
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		spawns:  rate.NewLimiter(rate.Limit(cfg.SpawnsPerSecond), cfg.SpawnBurst),
		timeout: cfg.Timeout,
	}
}

// Submit runs the plugin's tool against one file and returns the
// classified result. It never returns an error to the caller: every
// failure mode is folded into the result status so that one broken
// tool cannot take down the server.
func (p *Pool) Submit(ctx context.Context, file, root string, plugin checkers.Plugin) ExecutionResult {
	start := time.Now()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return ExecutionResult{Status: StatusCrashed, Tool: plugin.Tool(), Err: err}
	}
	defer p.sem.Release(1)

	if err := p.spawns.Wait(ctx); err != nil {
		return ExecutionResult{Status: StatusCrashed, Tool: plugin.Tool(), Err: err}
	}

	toolPath, err := exec.LookPath(plugin.Tool())
	if err != nil {
		return ExecutionResult{
			Status:   StatusToolNotFound,
			Tool:     plugin.Tool(),
			Duration: time.Since(start),
			Err:      fmt.Errorf("checker tool %q not installed: %w", plugin.Tool(), err),
		}
	}

	sctx, cleanup, err := plugin.Setup(file, root)
	// Cleanup runs on every exit path below: success, timeout, crash.
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return ExecutionResult{
			Status:   StatusCrashed,
			Tool:     plugin.Tool(),
			Duration: time.Since(start),
			Err:      fmt.Errorf("plugin %s setup failed: %w", plugin.Name(), err),
		}
	}

	args := plugin.BuildArgs(file, root, toolPath, sctx)
	stdout, stderr, runErr := p.run(ctx, toolPath, args, root)

	result := ExecutionResult{Tool: plugin.Tool(), Duration: time.Since(start)}
	switch {
	case errors.Is(runErr, errTimeout):
		result.Status = StatusTimeout
		result.Err = fmt.Errorf("checker %s timed out after %v", plugin.Name(), p.timeout)
	case runErr != nil:
		result.Status = StatusCrashed
		result.Err = fmt.Errorf("checker %s failed to run: %w", plugin.Name(), runErr)
	default:
		result.Status = StatusComplete
		result.Diagnostics = plugin.ParseOutput(stdout, stderr, file, root)
	}
	return result
}

// errTimeout marks the deadline-exceeded path inside run.
var errTimeout = errors.New("execution deadline exceeded")

// run launches the tool in its own process group, captures stdout and
// stderr fully, and enforces the pool timeout. On timeout the entire
// group is killed so descendants of the tool die with it.
func (p *Pool) run(ctx context.Context, toolPath string, args []string, dir string) (stdout, stderr string, err error) {
	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.Command(toolPath, args...)
	cmd.Dir = dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if startErr := cmd.Start(); startErr != nil {
		return "", "", fmt.Errorf("failed to start %s: %w", toolPath, startErr)
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	select {
	case <-runCtx.Done():
		killProcessGroup(cmd)
		<-waitCh // Reap; the group is dead so this returns promptly
		return outBuf.String(), errBuf.String(), errTimeout
	case waitErr := <-waitCh:
		// Exit status is irrelevant here: checkers exit non-zero when
		// they find issues, and ParseOutput decides what the output
		// means. Only a start failure counts as a crash.
		_ = waitErr
		return outBuf.String(), errBuf.String(), nil
	}
}

// killProcessGroup force-terminates the command's process group,
// falling back to killing the single process if the group signal fails.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err == nil {
		if killErr := syscall.Kill(-pgid, syscall.SIGKILL); killErr == nil {
			return
		}
	}
	if killErr := cmd.Process.Kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
		fmt.Fprintf(os.Stderr, "worker: failed to kill pid %d: %v\n", cmd.Process.Pid, killErr)
	}
}
