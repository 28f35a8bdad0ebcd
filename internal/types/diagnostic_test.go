package types

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortBySeverityOrdersErrorsFirst(t *testing.T) {
	diags := []Diagnostic{
		{Line: 1, Severity: SeverityWarning, Message: "w1"},
		{Line: 2, Severity: SeverityHint, Message: "h1"},
		{Line: 3, Severity: SeverityError, Message: "e1"},
		{Line: 4, Severity: SeverityInfo, Message: "i1"},
		{Line: 5, Severity: SeverityError, Message: "e2"},
		{Line: 6, Severity: SeverityWarning, Message: "w2"},
	}

	SortBySeverity(diags)

	assert.Equal(t, []string{"e1", "e2", "w1", "w2", "i1", "h1"}, messages(diags))
}

func TestSortBySeverityIsStable(t *testing.T) {
	// Ties must keep original discovery order.
	var diags []Diagnostic
	for i := 1; i <= 10; i++ {
		diags = append(diags, Diagnostic{Line: i, Severity: SeverityError, Message: fmt.Sprintf("e%d", i)})
	}
	SortBySeverity(diags)
	for i, d := range diags {
		assert.Equal(t, i+1, d.Line)
	}
}

func TestCapWithOverflow(t *testing.T) {
	// 8 mixed diagnostics, cap 5: all errors precede all warnings and
	// the overflow count is 3.
	diags := []Diagnostic{
		{Severity: SeverityWarning, Message: "w1"},
		{Severity: SeverityError, Message: "e1"},
		{Severity: SeverityWarning, Message: "w2"},
		{Severity: SeverityError, Message: "e2"},
		{Severity: SeverityError, Message: "e3"},
		{Severity: SeverityWarning, Message: "w3"},
		{Severity: SeverityError, Message: "e4"},
		{Severity: SeverityWarning, Message: "w4"},
	}

	SortBySeverity(diags)
	capped, overflow := Cap(diags, 5)

	require.Len(t, capped, 5)
	assert.Equal(t, 3, overflow)
	assert.Equal(t, []string{"e1", "e2", "e3", "e4", "w1"}, messages(capped))
}

func TestCapDisabled(t *testing.T) {
	diags := []Diagnostic{{Message: "a"}, {Message: "b"}}

	capped, overflow := Cap(diags, 0)
	assert.Len(t, capped, 2)
	assert.Zero(t, overflow)

	capped, overflow = Cap(diags, 10)
	assert.Len(t, capped, 2)
	assert.Zero(t, overflow)
}

func TestCountBySeverity(t *testing.T) {
	diags := []Diagnostic{
		{Severity: SeverityError},
		{Severity: SeverityError},
		{Severity: SeverityWarning},
		{Severity: SeverityInfo},
		{Severity: SeverityHint},
	}

	counts := CountBySeverity(diags)
	assert.Equal(t, 2, counts.Errors)
	assert.Equal(t, 1, counts.Warnings)
	assert.Equal(t, 1, counts.Info)
	assert.Equal(t, 1, counts.Hints)
	assert.Equal(t, 5, counts.Total())
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		diags    []Diagnostic
		expected string
	}{
		{
			name:     "empty",
			diags:    nil,
			expected: "no issues",
		},
		{
			name:     "single error",
			diags:    []Diagnostic{{Severity: SeverityError}},
			expected: "1 error",
		},
		{
			name: "mixed",
			diags: []Diagnostic{
				{Severity: SeverityError},
				{Severity: SeverityError},
				{Severity: SeverityWarning},
			},
			expected: "2 errors, 1 warning",
		},
		{
			name:     "info only",
			diags:    []Diagnostic{{Severity: SeverityInfo}, {Severity: SeverityInfo}},
			expected: "2 info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Summarize(tt.diags))
		})
	}
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{File: "main.go", Line: 3, Column: 7, Severity: SeverityError, Message: "type mismatch", Source: "govet"}
	assert.Equal(t, "main.go:3:7: error: type mismatch [govet]", d.String())

	d.Column = 0
	assert.Equal(t, "main.go:3: error: type mismatch [govet]", d.String())
}

func messages(diags []Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Message
	}
	return out
}
