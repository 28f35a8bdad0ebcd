package checkers

import (
	"path/filepath"
	"strings"

	"github.com/cascadeops/diagd/internal/types"
)

// Ruff adapts the ruff linter for Python sources.
type Ruff struct{}

// NewRuff returns the ruff plugin.
func NewRuff() *Ruff { return &Ruff{} }

func (r *Ruff) Name() string { return "ruff" }
func (r *Ruff) Tool() string { return "ruff" }
func (r *Ruff) Extensions() []string { return []string{".py", ".pyi"} }

// Detect looks for the usual Python project markers. Ruff itself needs
// no config, so any of them is enough.
func (r *Ruff) Detect(root string) bool {
	for _, marker := range []string{"pyproject.toml", "setup.py", "requirements.txt", "ruff.toml"} {
		if fileExists(filepath.Join(root, marker)) {
			return true
		}
	}
	return false
}

func (r *Ruff) Setup(file, root string) (*SetupContext, CleanupFunc, error) {
	return nil, nil, nil
}

func (r *Ruff) BuildArgs(file, root, toolPath string, sctx *SetupContext) []string {
	return []string{"check", "--output-format", "concise", "--no-cache", file}
}

// ParseOutput reads ruff's concise format: path:line:col: CODE message.
// Syntax errors and F-class rules (undefined names, unused imports that
// break execution) surface as errors, everything else as warnings.
func (r *Ruff) ParseOutput(stdout, stderr, file, root string) []types.Diagnostic {
	diags := parseGNU(stdout, root, r.Name(), types.SeverityWarning)
	for i, d := range diags {
		code, _, _ := strings.Cut(d.Message, " ")
		if strings.HasPrefix(code, "E9") || strings.HasPrefix(code, "F8") || strings.Contains(d.Message, "SyntaxError") {
			diags[i].Severity = types.SeverityError
		}
	}
	return filterToFile(diags, file, root)
}
