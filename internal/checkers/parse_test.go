package checkers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cascadeops/diagd/internal/types"
)

func TestParseGNU(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected []types.Diagnostic
	}{
		{
			name:   "line and column with severity",
			output: "main.c:3:7: error: expected ';' before 'return'",
			expected: []types.Diagnostic{
				{File: "main.c", Line: 3, Column: 7, Severity: types.SeverityError, Message: "expected ';' before 'return'", Source: "test"},
			},
		},
		{
			name:   "no column no severity uses default",
			output: "pkg/util.go:12: composite literal uses unkeyed fields",
			expected: []types.Diagnostic{
				{File: "pkg/util.go", Line: 12, Severity: types.SeverityError, Message: "composite literal uses unkeyed fields", Source: "test"},
			},
		},
		{
			name:   "warning severity",
			output: "lib.c:8:1: warning: unused variable 'x'",
			expected: []types.Diagnostic{
				{File: "lib.c", Line: 8, Column: 1, Severity: types.SeverityWarning, Message: "unused variable 'x'", Source: "test"},
			},
		},
		{
			name:     "unmatched lines are skipped",
			output:   "compilation terminated.\nsome random noise\n",
			expected: nil,
		},
		{
			name:   "include trailer is skipped, real diagnostic kept",
			output: "In file included from a.c:1:\nb.h:4:2: error: unknown type name 'foo'",
			expected: []types.Diagnostic{
				{File: "b.h", Line: 4, Column: 2, Severity: types.SeverityError, Message: "unknown type name 'foo'", Source: "test"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseGNU(tt.output, "", "test", types.SeverityError))
		})
	}
}

func TestParseGNUNormalizesAbsolutePaths(t *testing.T) {
	got := parseGNU("/proj/src/main.c:3:1: error: boom", "/proj", "test", types.SeverityError)
	require.Len(t, got, 1)
	assert.Equal(t, "src/main.c", got[0].File)

	// Paths outside the root stay absolute.
	got = parseGNU("/elsewhere/x.c:1:1: error: boom", "/proj", "test", types.SeverityError)
	require.Len(t, got, 1)
	assert.Equal(t, "/elsewhere/x.c", got[0].File)
}

func TestTscParseOutput(t *testing.T) {
	tsc := NewTsc()
	out := "src/app.ts(3,5): error TS2322: Type 'string' is not assignable to type 'number'.\n" +
		"src/app.ts(10,1): warning TS6133: 'x' is declared but its value is never read.\n" +
		"error TS18003: No inputs were found in config file.\n"

	diags := tsc.ParseOutput(out, "", "", "")
	require.Len(t, diags, 2)
	assert.Equal(t, types.Diagnostic{
		File: "src/app.ts", Line: 3, Column: 5,
		Severity: types.SeverityError,
		Message:  "Type 'string' is not assignable to type 'number'.",
		Source:   "tsc",
	}, diags[0])
	assert.Equal(t, types.SeverityWarning, diags[1].Severity)
}

func TestJavacParseOutput(t *testing.T) {
	j := NewJavac()
	stderr := "User.java:3: error: incompatible types: String cannot be converted to int\n" +
		"    int age = \"old\";\n" +
		"              ^\n" +
		"User.java:10: warning: [rawtypes] found raw type: List\n" +
		"1 error\n"

	diags := j.ParseOutput("", stderr, "", "")
	require.Len(t, diags, 2)
	assert.Equal(t, 3, diags[0].Line)
	assert.Equal(t, types.SeverityError, diags[0].Severity)
	assert.Equal(t, "incompatible types: String cannot be converted to int", diags[0].Message)
	assert.Equal(t, types.SeverityWarning, diags[1].Severity)
}

func TestRuffSeverityUpgrade(t *testing.T) {
	r := NewRuff()
	out := "app.py:3:1: F821 Undefined name `foo`\n" +
		"app.py:7:1: E501 Line too long (120 > 88)\n" +
		"app.py:1:1: E902 SyntaxError: invalid syntax\n"

	diags := r.ParseOutput(out, "", "", "")
	require.Len(t, diags, 3)
	assert.Equal(t, types.SeverityError, diags[0].Severity, "F8xx is an error")
	assert.Equal(t, types.SeverityWarning, diags[1].Severity, "style rule stays a warning")
	assert.Equal(t, types.SeverityError, diags[2].Severity, "E9xx is an error")
}

func TestFilterToFile(t *testing.T) {
	diags := []types.Diagnostic{
		{File: "a.go", Line: 1},
		{File: "b.go", Line: 2},
		{File: "a.go", Line: 3},
	}

	kept := filterToFile(diags, "a.go", "")
	require.Len(t, kept, 2)
	assert.Equal(t, 1, kept[0].Line)
	assert.Equal(t, 3, kept[1].Line)

	assert.Len(t, filterToFile(diags, "", ""), 3, "empty file keeps everything")
}
