package checkers

import (
	"bufio"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/cascadeops/diagd/internal/types"
)

// Tsc adapts the TypeScript compiler in --noEmit mode.
type Tsc struct{}

// NewTsc returns the tsc plugin.
func NewTsc() *Tsc { return &Tsc{} }

func (t *Tsc) Name() string { return "tsc" }
func (t *Tsc) Tool() string { return "tsc" }
func (t *Tsc) Extensions() []string { return []string{".ts", ".tsx"} }

func (t *Tsc) Detect(root string) bool {
	return fileExists(filepath.Join(root, "tsconfig.json"))
}

func (t *Tsc) Setup(file, root string) (*SetupContext, CleanupFunc, error) {
	return nil, nil, nil
}

func (t *Tsc) BuildArgs(file, root, toolPath string, sctx *SetupContext) []string {
	return []string{"--noEmit", "--pretty", "false", file}
}

// tscLine matches tsc's machine format: path(line,col): severity TSnnnn: message
var tscLine = regexp.MustCompile(`^(.+?)\((\d+),(\d+)\):\s+(error|warning)\s+TS\d+:\s+(.+)$`)

func (t *Tsc) ParseOutput(stdout, stderr, file, root string) []types.Diagnostic {
	var diags []types.Diagnostic
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	for scanner.Scan() {
		m := tscLine.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if m == nil {
			continue
		}
		line, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		sev := types.SeverityError
		if m[4] == "warning" {
			sev = types.SeverityWarning
		}
		diags = append(diags, types.Diagnostic{
			File:     normalizePath(m[1], root),
			Line:     line,
			Column:   col,
			Severity: sev,
			Message:  m[5],
			Source:   t.Name(),
		})
	}
	return filterToFile(diags, file, root)
}
