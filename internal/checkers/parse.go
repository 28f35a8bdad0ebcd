package checkers

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/cascadeops/diagd/internal/types"
)

// gnuLine matches the GNU-style diagnostic format shared by most
// compilers and linters: path:line[:col][: severity]: message.
var gnuLine = regexp.MustCompile(`^(.+?):(\d+)(?::(\d+))?:\s*(?:(error|warning|note|info|hint)[:,]?\s*)?(.+)$`)

// parseGNU extracts diagnostics from GNU-style output lines. Lines that
// do not match are skipped. defaultSeverity is used when a line carries
// no severity word of its own. Paths are normalized relative to root
// when possible.
func parseGNU(output, root, source string, defaultSeverity types.Severity) []types.Diagnostic {
	var diags []types.Diagnostic
	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		m := gnuLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lineNo, err := strconv.Atoi(m[2])
		if err != nil || lineNo <= 0 {
			continue
		}
		col := 0
		if m[3] != "" {
			col, _ = strconv.Atoi(m[3])
		}
		sev := defaultSeverity
		switch m[4] {
		case "error":
			sev = types.SeverityError
		case "warning":
			sev = types.SeverityWarning
		case "note", "info":
			sev = types.SeverityInfo
		case "hint":
			sev = types.SeverityHint
		}
		diags = append(diags, types.Diagnostic{
			File:     normalizePath(m[1], root),
			Line:     lineNo,
			Column:   col,
			Severity: sev,
			Message:  strings.TrimSpace(m[5]),
			Source:   source,
		})
	}
	return diags
}

// normalizePath makes tool-reported paths relative to the project root
// when they fall under it, so diagnostics are stable regardless of how
// the tool was invoked.
func normalizePath(path, root string) string {
	if root == "" || !filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Clean(path)
	}
	return rel
}

// fileExists reports whether a path exists and is a regular file; used
// by plugin Detect implementations.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
