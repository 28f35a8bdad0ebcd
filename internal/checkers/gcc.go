package checkers

import (
	"path/filepath"

	"github.com/cascadeops/diagd/internal/types"
)

// GccSyntax adapts gcc in -fsyntax-only mode for C and C++ sources.
type GccSyntax struct{}

// NewGccSyntax returns the gcc syntax-check plugin.
func NewGccSyntax() *GccSyntax { return &GccSyntax{} }

func (g *GccSyntax) Name() string { return "gcc-syntax" }
func (g *GccSyntax) Tool() string { return "gcc" }

func (g *GccSyntax) Extensions() []string {
	return []string{".c", ".cc", ".cpp", ".cxx", ".h", ".hpp"}
}

func (g *GccSyntax) Detect(root string) bool {
	for _, marker := range []string{"Makefile", "CMakeLists.txt", "compile_commands.json"} {
		if fileExists(filepath.Join(root, marker)) {
			return true
		}
	}
	return false
}

func (g *GccSyntax) Setup(file, root string) (*SetupContext, CleanupFunc, error) {
	return nil, nil, nil
}

func (g *GccSyntax) BuildArgs(file, root, toolPath string, sctx *SetupContext) []string {
	args := []string{"-fsyntax-only", "-Wall"}
	if isCxx(file) {
		args = append(args, "-x", "c++")
	}
	// Headers commonly live next to sources or in include/.
	args = append(args, "-I", filepath.Dir(file), "-I", filepath.Join(root, "include"), file)
	return args
}

func (g *GccSyntax) ParseOutput(stdout, stderr, file, root string) []types.Diagnostic {
	diags := parseGNU(stderr, root, g.Name(), types.SeverityError)
	return filterToFile(diags, file, root)
}

func isCxx(file string) bool {
	switch filepath.Ext(file) {
	case ".cc", ".cpp", ".cxx", ".hpp":
		return true
	}
	return false
}
