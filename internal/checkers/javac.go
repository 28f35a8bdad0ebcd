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

// Javac adapts the Java compiler for syntax and type checking.
//
// javac always writes .class files, so Setup allocates a throwaway
// output directory and cleanup removes it. This is the one builtin
// plugin that actually exercises the setup/cleanup half of the
// contract.
type Javac struct{}

// NewJavac returns the javac plugin.
func NewJavac() *Javac { return &Javac{} }

func (j *Javac) Name() string { return "javac" }
func (j *Javac) Tool() string { return "javac" }
func (j *Javac) Extensions() []string { return []string{".java"} }

func (j *Javac) Detect(root string) bool {
	for _, marker := range []string{"pom.xml", "build.gradle", "build.gradle.kts"} {
		if fileExists(filepath.Join(root, marker)) {
			return true
		}
	}
	return false
}

func (j *Javac) Setup(file, root string) (*SetupContext, CleanupFunc, error) {
	outDir, err := os.MkdirTemp("", "diagd-javac-")
	if err != nil {
		return nil, nil, err
	}
	sctx := &SetupContext{Extra: map[string]string{"class_dir": outDir}}
	cleanup := func() { os.RemoveAll(outDir) }
	return sctx, cleanup, nil
}

func (j *Javac) BuildArgs(file, root, toolPath string, sctx *SetupContext) []string {
	args := []string{"-Xlint:all"}
	if sctx != nil && sctx.Extra["class_dir"] != "" {
		args = append(args, "-d", sctx.Extra["class_dir"])
	}
	return append(args, file)
}

// javacLine matches javac's format: path:line: severity: message
// (javac reports no column on the diagnostic line itself).
var javacLine = regexp.MustCompile(`^(.+?\.java):(\d+):\s+(?:(error|warning):\s+)?(.+)$`)

func (j *Javac) ParseOutput(stdout, stderr, file, root string) []types.Diagnostic {
	var diags []types.Diagnostic
	scanner := bufio.NewScanner(strings.NewReader(stderr))
	for scanner.Scan() {
		m := javacLine.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if m == nil {
			continue
		}
		line, err := strconv.Atoi(m[2])
		if err != nil || line <= 0 {
			continue
		}
		sev := types.SeverityError
		if m[3] == "warning" {
			sev = types.SeverityWarning
		}
		diags = append(diags, types.Diagnostic{
			File:     normalizePath(m[1], root),
			Line:     line,
			Severity: sev,
			Message:  m[4],
			Source:   j.Name(),
		})
	}
	return filterToFile(diags, file, root)
}
