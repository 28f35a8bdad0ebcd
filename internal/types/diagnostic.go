package types

import (
	"fmt"
	"sort"
	"time"
)

// Severity classifies how serious a diagnostic is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityHint    Severity = "hint"
)

// rank orders severities for display: errors first, then warnings,
// then everything else.
func (s Severity) rank() int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	default:
		return 3
	}
}

// Diagnostic is a single finding reported by an external checker tool.
type Diagnostic struct {
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Column   int      `json:"column,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Source   string   `json:"source"` // Name of the tool that produced it
}

// String formats a diagnostic in the conventional file:line:col shape.
func (d Diagnostic) String() string {
	if d.Column > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s [%s]", d.File, d.Line, d.Column, d.Severity, d.Message, d.Source)
	}
	return fmt.Sprintf("%s:%d: %s: %s [%s]", d.File, d.Line, d.Severity, d.Message, d.Source)
}

// SeverityCounts holds per-severity totals for a diagnostics list.
type SeverityCounts struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
	Hints    int `json:"hints"`
}

// Total returns the sum across all severities.
func (c SeverityCounts) Total() int {
	return c.Errors + c.Warnings + c.Info + c.Hints
}

// CountBySeverity tallies a diagnostics list.
func CountBySeverity(diags []Diagnostic) SeverityCounts {
	var counts SeverityCounts
	for _, d := range diags {
		switch d.Severity {
		case SeverityError:
			counts.Errors++
		case SeverityWarning:
			counts.Warnings++
		case SeverityInfo:
			counts.Info++
		default:
			counts.Hints++
		}
	}
	return counts
}

// SortBySeverity orders diagnostics errors-before-warnings-before-others.
// The sort is stable: ties keep their original discovery order.
func SortBySeverity(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		return diags[i].Severity.rank() < diags[j].Severity.rank()
	})
}

// Cap truncates a severity-sorted diagnostics list to at most max
// entries and returns the truncated list plus the number of entries
// that were dropped. A max <= 0 means no cap.
func Cap(diags []Diagnostic, max int) ([]Diagnostic, int) {
	if max <= 0 || len(diags) <= max {
		return diags, 0
	}
	return diags[:max], len(diags) - max
}

// Summarize renders a one-line human-readable summary of a diagnostics
// list, e.g. "2 errors, 1 warning". An empty list summarizes as
// "no issues".
func Summarize(diags []Diagnostic) string {
	counts := CountBySeverity(diags)
	if counts.Total() == 0 {
		return "no issues"
	}
	parts := []string{}
	if counts.Errors > 0 {
		parts = append(parts, plural(counts.Errors, "error"))
	}
	if counts.Warnings > 0 {
		parts = append(parts, plural(counts.Warnings, "warning"))
	}
	if counts.Info > 0 {
		parts = append(parts, plural(counts.Info, "info"))
	}
	if counts.Hints > 0 {
		parts = append(parts, plural(counts.Hints, "hint"))
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	if word == "info" {
		return fmt.Sprintf("%d info", n)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Project is one tracked diagnostic server instance. Rows of the fleet
// registry unmarshal into this shape.
type Project struct {
	ID           string    `json:"project_id"`   // Deterministic hash of the canonical root
	Root         string    `json:"root"`         // Canonical project root path
	SocketPath   string    `json:"socket_path"`  // Unix socket the server listens on
	PID          int       `json:"pid"`          // OS process id of the server
	StartedAt    time.Time `json:"started_at"`
	LastActivity time.Time `json:"last_activity"`
}

// ServerState describes where a project server is in its lifecycle.
// Idle is advisory only: the server never terminates itself, the fleet
// manager's sweep does.
type ServerState string

const (
	StateNotRunning ServerState = "not_running"
	StateStarting   ServerState = "starting"
	StateRunning    ServerState = "running"
	StateIdle       ServerState = "idle"
	StateStopping   ServerState = "stopping"
)
