package checkers

import (
	"path/filepath"

	"github.com/cascadeops/diagd/internal/types"
)

// CargoCheck adapts `cargo check` for Rust sources.
type CargoCheck struct{}

// NewCargoCheck returns the cargo check plugin.
func NewCargoCheck() *CargoCheck { return &CargoCheck{} }

func (c *CargoCheck) Name() string { return "cargo-check" }
func (c *CargoCheck) Tool() string { return "cargo" }
func (c *CargoCheck) Extensions() []string { return []string{".rs"} }

func (c *CargoCheck) Detect(root string) bool {
	return fileExists(filepath.Join(root, "Cargo.toml"))
}

func (c *CargoCheck) Setup(file, root string) (*SetupContext, CleanupFunc, error) {
	return nil, nil, nil
}

// BuildArgs runs a whole-crate check; cargo has no single-file mode.
// ParseOutput filters the crate-wide results down to the target file.
func (c *CargoCheck) BuildArgs(file, root, toolPath string, sctx *SetupContext) []string {
	return []string{"check", "--quiet", "--message-format", "short"}
}

func (c *CargoCheck) ParseOutput(stdout, stderr, file, root string) []types.Diagnostic {
	diags := parseGNU(stderr, root, c.Name(), types.SeverityError)
	return filterToFile(diags, file, root)
}
