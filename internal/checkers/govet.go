package checkers

import (
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"

	"github.com/cascadeops/diagd/internal/types"
)

// GoVet adapts `go vet` for Go sources.
type GoVet struct{}

// NewGoVet returns the go vet plugin.
func NewGoVet() *GoVet { return &GoVet{} }

func (g *GoVet) Name() string { return "govet" }
func (g *GoVet) Tool() string { return "go" }
func (g *GoVet) Extensions() []string { return []string{".go"} }

// Detect parses go.mod at the root. A file that exists but does not
// parse as a module file means the project is not vettable, so both the
// missing and the malformed case report false.
func (g *GoVet) Detect(root string) bool {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return false
	}
	f, err := modfile.ParseLax("go.mod", data, nil)
	if err != nil {
		return false
	}
	return f.Module != nil && f.Module.Mod.Path != ""
}

func (g *GoVet) Setup(file, root string) (*SetupContext, CleanupFunc, error) {
	return nil, nil, nil
}

// BuildArgs vets the package containing the target file. go vet rejects
// single files from multi-file packages, so the package directory is
// the unit of invocation.
func (g *GoVet) BuildArgs(file, root, toolPath string, sctx *SetupContext) []string {
	dir := filepath.Dir(file)
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return []string{"vet", "./..."}
	}
	return []string{"vet", "./" + filepath.ToSlash(rel)}
}

// ParseOutput reads go vet's stderr. Vet lines carry no severity word;
// everything it reports is an error.
func (g *GoVet) ParseOutput(stdout, stderr, file, root string) []types.Diagnostic {
	diags := parseGNU(stderr, root, g.Name(), types.SeverityError)
	return filterToFile(diags, file, root)
}

// filterToFile keeps only diagnostics for the requested file when the
// underlying tool reports results for a whole package or project.
// An empty file keeps everything.
func filterToFile(diags []types.Diagnostic, file, root string) []types.Diagnostic {
	if file == "" {
		return diags
	}
	want := normalizePath(file, root)
	var kept []types.Diagnostic
	for _, d := range diags {
		if d.File == want || filepath.Base(d.File) == filepath.Base(want) {
			kept = append(kept, d)
		}
	}
	return kept
}
