package server

import (
	"time"

	"github.com/cascadeops/diagd/internal/types"
)

// Request types understood by a project server.
const (
	RequestHealth          = "health"
	RequestDiagnostics     = "diagnostics"      // Whole project, grouped by tool
	RequestDiagnosticsFile = "diagnostics_file" // Exactly one file
	RequestResetDedup      = "reset_dedup"
	RequestShutdown        = "shutdown"
)

// Request is one command sent to a project server over its socket.
type Request struct {
	Type      string    `json:"type"`
	File      string    `json:"file,omitempty"`       // Target for diagnostics_file
	Force     bool      `json:"force,omitempty"`      // Bypass the diagnostics cache
	Notify    bool      `json:"notify,omitempty"`     // Consult the notification suppression window
	RequestID string    `json:"request_id,omitempty"` // Caller-assigned, echoed back
	Timestamp time.Time `json:"timestamp"`
}

// Response is the server's answer to a Request.
type Response struct {
	Success     bool                          `json:"success"`
	Message     string                        `json:"message"`
	RequestID   string                        `json:"request_id,omitempty"`
	Diagnostics []types.Diagnostic            `json:"diagnostics,omitempty"`
	Overflow    int                           `json:"overflow,omitempty"`  // Entries dropped by the display cap
	Displayed   bool                          `json:"displayed,omitempty"` // With Notify: whether to surface this result to a human
	ByTool      map[string][]types.Diagnostic `json:"by_tool,omitempty"`  // Project-wide results grouped by source tool
	Summary     string                        `json:"summary,omitempty"`  // Human-readable, e.g. "2 errors, 1 warning"
	Counts      types.SeverityCounts          `json:"counts"`
	Data        map[string]interface{}        `json:"data,omitempty"`
	Error       string                        `json:"error,omitempty"`
}

// HealthData is the payload of a health response, carried in
// Response.Data for wire compatibility and exposed typed for Go
// callers.
type HealthData struct {
	Status       types.ServerState `json:"status"`
	ProjectID    string            `json:"project_id"`
	Root         string            `json:"root"`
	PID          int               `json:"pid"`
	StartedAt    time.Time         `json:"started_at"`
	LastActivity time.Time         `json:"last_activity"`
}
