// Package checkers defines the plugin contract for external diagnostic
// tools and the registry that maps file extensions to plugins.
//
// A plugin is a thin adapter over one external compiler or linter. It
// never runs the tool itself: the worker pool owns process lifecycle,
// timeouts, and cleanup. The plugin only answers four questions:
// is this project configured for my tool (Detect), what scratch state
// do I need before a run (Setup), what argv do I pass (BuildArgs), and
// what diagnostics does the tool's output contain (ParseOutput).
package checkers

import "github.com/cascadeops/diagd/internal/types"

// SetupContext carries state produced by Setup into BuildArgs, such as
// the path of a generated temp config file.
type SetupContext struct {
	// Extra holds plugin-specific values keyed by name
	// (e.g. "config_path" for a generated tool config).
	Extra map[string]string
}

// CleanupFunc releases whatever Setup created. The worker pool runs it
// on every exit path: success, timeout, and crash.
type CleanupFunc func()

// Plugin adapts one external checking tool to the diagnostic runtime.
//
// Implementations must be stateless after construction: the same plugin
// value is invoked concurrently for different files.
type Plugin interface {
	// Name identifies the plugin (e.g. "govet").
	Name() string

	// Tool is the executable the plugin invokes (e.g. "go"). The worker
	// pool resolves it with exec.LookPath; a missing tool is non-fatal.
	Tool() string

	// Extensions lists the file extensions (with leading dot) this
	// plugin handles.
	Extensions() []string

	// Detect reports whether the project at root is configured for this
	// tool (e.g. a go.mod or tsconfig.json exists). A plugin whose
	// Detect returns false is skipped during project-wide aggregation
	// but still runs for explicit single-file checks.
	Detect(root string) bool

	// Setup prepares any per-run scratch state. The returned cleanup
	// func may be nil. Most plugins need no setup and return
	// (nil, nil, nil).
	Setup(file, root string) (*SetupContext, CleanupFunc, error)

	// BuildArgs returns the argv passed to the tool (excluding the tool
	// path itself).
	BuildArgs(file, root, toolPath string, sctx *SetupContext) []string

	// ParseOutput extracts diagnostics from the tool's captured output.
	// Lines that do not match the tool's diagnostic format are skipped;
	// ParseOutput never fails.
	ParseOutput(stdout, stderr, file, root string) []types.Diagnostic
}
