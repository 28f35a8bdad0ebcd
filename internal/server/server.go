// Package server implements the per-project diagnostic server: one
// long-lived process per project root, listening on a deterministically
// addressed Unix socket, answering health/diagnostics/shutdown requests
// by consulting the dedup cache. The server holds no cross-project
// state; fleet-wide coordination lives in the fleet package.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cascadeops/diagd/internal/checkers"
	"github.com/cascadeops/diagd/internal/dedup"
	"github.com/cascadeops/diagd/internal/project"
	"github.com/cascadeops/diagd/internal/types"
	"github.com/cascadeops/diagd/internal/worker"
)

// idleThreshold is how long without requests before the server reports
// itself Idle. Informational only: the server never self-terminates,
// the fleet manager's sweep decides what idleness means.
const idleThreshold = 10 * time.Minute

// ActivityFunc is called after every handled request so the fleet
// registry can track last-activity without the server importing the
// fleet package.
type ActivityFunc func(t time.Time)

// Config holds the pieces a project server is assembled from.
type Config struct {
	Root     string // Canonical project root
	Registry *checkers.Registry
	Pool     *worker.Pool
	Dedup    dedup.Config

	// OnActivity is invoked (outside any lock) after each request.
	// Optional.
	OnActivity ActivityFunc
}

// Server is one project's diagnostic server.
type Server struct {
	root       string
	projectID  string
	socketPath string
	registry   *checkers.Registry
	pool       *worker.Pool
	cache      *dedup.Cache
	notifier   *dedup.Notifier
	maxDiags   int
	onActivity ActivityFunc

	mu           sync.RWMutex
	state        types.ServerState
	startedAt    time.Time
	lastActivity time.Time

	listener net.Listener
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// New assembles a server for the given root. The socket address is
// derived from the root, so a second start against the same root lands
// on the same path.
func New(cfg Config) (*Server, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("project root is required")
	}
	if cfg.Registry == nil {
		cfg.Registry = checkers.DefaultRegistry()
	}
	if cfg.Pool == nil {
		cfg.Pool = worker.NewPool(worker.DefaultConfig())
	}
	if err := cfg.Dedup.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dedup config: %w", err)
	}

	socketPath, err := project.SocketPath(cfg.Root)
	if err != nil {
		return nil, err
	}

	s := &Server{
		root:       cfg.Root,
		projectID:  project.ID(cfg.Root),
		socketPath: socketPath,
		registry:   cfg.Registry,
		pool:       cfg.Pool,
		notifier:   dedup.NewNotifier(cfg.Dedup),
		maxDiags:   cfg.Dedup.MaxDiagnostics,
		onActivity: cfg.OnActivity,
		state:      types.StateStarting,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	s.cache = dedup.NewCache(cfg.Dedup, s.compute)
	return s, nil
}

// ProjectID returns the server's deterministic project id.
func (s *Server) ProjectID() string { return s.projectID }

// SocketPath returns the socket the server listens on.
func (s *Server) SocketPath() string { return s.socketPath }

// Notifier exposes the notification suppression window; the check/hook
// path consults it before printing.
func (s *Server) Notifier() *dedup.Notifier { return s.notifier }

// Cache exposes the diagnostics cache for stats and tests.
func (s *Server) Cache() *dedup.Cache { return s.cache }

// Start binds the socket and begins accepting requests.
func (s *Server) Start(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}
	// A leftover socket here is from a crashed predecessor: the fleet
	// manager only spawns after probing it dead.
	if err := os.RemoveAll(s.socketPath); err != nil {
		return fmt.Errorf("failed to remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create socket: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.state = types.StateRunning
	s.startedAt = time.Now()
	s.lastActivity = s.startedAt
	s.mu.Unlock()

	go s.acceptLoop(ctx)
	return nil
}

// Wait blocks until the server has stopped.
func (s *Server) Wait() {
	<-s.doneCh
}

// Stop shuts the server down and removes its socket file. Safe to call
// more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.state = types.StateStopping
		listener := s.listener
		s.mu.Unlock()

		close(s.stopCh)
		if listener != nil {
			if err := listener.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "server: error closing listener: %v\n", err)
			}
		}

		select {
		case <-s.doneCh:
		case <-time.After(5 * time.Second):
			fmt.Fprintf(os.Stderr, "server: timeout waiting for accept loop\n")
		}

		if err := os.RemoveAll(s.socketPath); err != nil {
			fmt.Fprintf(os.Stderr, "server: failed to remove socket file: %v\n", err)
		}
	})
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer close(s.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		default:
		}

		// Bounded accept so the stop channel gets checked.
		if err := s.listener.(*net.UnixListener).SetDeadline(time.Now().Add(1 * time.Second)); err != nil {
			fmt.Fprintf(os.Stderr, "server: failed to set deadline: %v\n", err)
			continue
		}

		conn, err := s.listener.Accept()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			select {
			case <-s.stopCh:
				return
			default:
			}
			fmt.Fprintf(os.Stderr, "server: accept error: %v\n", err)
			continue
		}

		go s.handleConnection(ctx, conn)
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	// The request itself must arrive promptly; the response may take as
	// long as the checker runs.
	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return
	}

	decoder := json.NewDecoder(conn)
	var req Request
	if err := decoder.Decode(&req); err != nil {
		s.send(conn, Response{
			Success: false,
			Message: fmt.Sprintf("failed to decode request: %v", err),
			Error:   err.Error(),
		})
		return
	}

	s.touch()
	resp := s.dispatch(ctx, req)
	resp.RequestID = req.RequestID
	s.send(conn, resp)

	if req.Type == RequestShutdown && resp.Success {
		// Stop after the response is on the wire so the caller sees an
		// acknowledgement.
		go s.Stop()
	}
}

func (s *Server) dispatch(ctx context.Context, req Request) Response {
	switch req.Type {
	case RequestHealth:
		return s.handleHealth()
	case RequestDiagnostics:
		return s.handleDiagnosticsAll(ctx, req.Force)
	case RequestDiagnosticsFile:
		return s.handleDiagnosticsFile(ctx, req)
	case RequestResetDedup:
		s.cache.Clear()
		s.notifier.Clear()
		return Response{Success: true, Message: "dedup state cleared"}
	case RequestShutdown:
		return Response{Success: true, Message: "shutting down"}
	default:
		return Response{
			Success: false,
			Message: fmt.Sprintf("unknown request type %q", req.Type),
			Error:   "unknown request type",
		}
	}
}

func (s *Server) handleHealth() Response {
	s.mu.RLock()
	health := HealthData{
		Status:       s.currentStateLocked(),
		ProjectID:    s.projectID,
		Root:         s.root,
		PID:          os.Getpid(),
		StartedAt:    s.startedAt,
		LastActivity: s.lastActivity,
	}
	s.mu.RUnlock()

	raw, _ := json.Marshal(health)
	var data map[string]interface{}
	_ = json.Unmarshal(raw, &data)

	return Response{Success: true, Message: "ok", Data: data}
}

// handleDiagnosticsFile checks exactly one file through the cache.
// With req.Notify set, the notification suppression window decides
// whether this exact result should be surfaced to a human again; the
// decision rides back in Response.Displayed and never changes the
// returned data.
func (s *Server) handleDiagnosticsFile(ctx context.Context, req Request) Response {
	file := req.File
	if file == "" {
		return Response{Success: false, Message: "file is required", Error: "file is required"}
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(s.root, file)
	}

	diags, err := s.cache.Get(ctx, file, req.Force)
	if err != nil {
		return Response{Success: false, Message: err.Error(), Error: err.Error()}
	}

	resp := s.diagnosticsResponse(diags)
	if req.Notify {
		resp.Displayed = s.notifier.ShouldNotify(file, diags)
	}
	return resp
}

// handleDiagnosticsAll aggregates diagnostics across every known file
// in the project, grouped by source tool. Files are checked
// concurrently; each goes through the per-file cache.
func (s *Server) handleDiagnosticsAll(ctx context.Context, force bool) Response {
	files, err := s.collectFiles()
	if err != nil {
		return Response{Success: false, Message: err.Error(), Error: err.Error()}
	}

	var (
		mu  sync.Mutex
		all []types.Diagnostic
		wg  sync.WaitGroup
	)
	for _, file := range files {
		wg.Add(1)
		go func(file string) {
			defer wg.Done()
			diags, err := s.cache.Get(ctx, file, force)
			if err != nil {
				// One broken file must not fail the aggregate.
				fmt.Fprintf(os.Stderr, "server: check failed for %s: %v\n", file, err)
				return
			}
			mu.Lock()
			all = append(all, diags...)
			mu.Unlock()
		}(file)
	}
	wg.Wait()

	byTool := make(map[string][]types.Diagnostic)
	for _, d := range all {
		byTool[d.Source] = append(byTool[d.Source], d)
	}

	resp := s.diagnosticsResponse(all)
	resp.ByTool = byTool
	resp.Data = map[string]interface{}{"files_checked": len(files)}
	return resp
}

// diagnosticsResponse orders, caps, counts, and summarizes a raw
// diagnostics list. Counts and summary reflect the full list; the cap
// only truncates what is displayed, with the remainder reported as
// Overflow.
func (s *Server) diagnosticsResponse(diags []types.Diagnostic) Response {
	counts := types.CountBySeverity(diags)
	summary := types.Summarize(diags)
	types.SortBySeverity(diags)
	capped, overflow := types.Cap(diags, s.maxDiags)

	return Response{
		Success:     true,
		Message:     summary,
		Diagnostics: capped,
		Overflow:    overflow,
		Summary:     summary,
		Counts:      counts,
	}
}

// compute is the cache's miss path: resolve the plugin for the file and
// run it through the pool. Tool-not-found and crashes reduce to empty
// diagnostics; only infrastructure failures surface as errors.
func (s *Server) compute(ctx context.Context, file string) ([]types.Diagnostic, error) {
	plugin := s.registry.Lookup(file)
	if plugin == nil {
		return nil, nil
	}
	result := s.pool.Submit(ctx, file, s.root, plugin)
	switch result.Status {
	case worker.StatusComplete:
		return result.Diagnostics, nil
	case worker.StatusTimeout, worker.StatusToolNotFound, worker.StatusCrashed:
		if result.Err != nil {
			fmt.Fprintf(os.Stderr, "server: %v\n", result.Err)
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected execution status %q", result.Status)
	}
}

func (s *Server) touch() {
	now := time.Now()
	s.mu.Lock()
	s.lastActivity = now
	s.mu.Unlock()
	if s.onActivity != nil {
		s.onActivity(now)
	}
}

// currentStateLocked derives the advisory Idle state. Caller holds at
// least a read lock.
func (s *Server) currentStateLocked() types.ServerState {
	if s.state == types.StateRunning && time.Since(s.lastActivity) > idleThreshold {
		return types.StateIdle
	}
	return s.state
}

func (s *Server) send(conn net.Conn, resp Response) {
	if err := conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return
	}
	encoder := json.NewEncoder(conn)
	if err := encoder.Encode(resp); err != nil {
		fmt.Fprintf(os.Stderr, "server: failed to send response: %v\n", err)
	}
}
