package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cascadeops/diagd/internal/server"
	"github.com/cascadeops/diagd/internal/types"
)

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Check one file, starting its project server if needed",
	Long: `Check a single file for syntax and type errors.

The project root is located by walking up from the file to the nearest
project marker (go.mod, Cargo.toml, .git, ...). A server for that root
is started if one is not already running, then the file is checked
through its cache.

Exits 2 when issues are found, 0 when clean.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		resp, err := checkFile(args[0], force, false)
		if err != nil {
			return err
		}
		printDiagnostics(resp, false)
		if hasIssues(resp.Counts) {
			os.Exit(exitIssues)
		}
		return nil
	},
}

// checkFile resolves the file's project, ensures a server is running
// for it, and requests diagnostics. notify selects the suppressed
// (hook) path.
func checkFile(file string, force, notify bool) (*server.Response, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", file, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("cannot check %s: %w", file, err)
	}
	root := findProjectRoot(abs)

	manager, closeFn, err := openManager()
	if err != nil {
		return nil, err
	}
	defer closeFn()

	result, err := manager.Start(context.Background(), root)
	if err != nil {
		return nil, err
	}

	client := server.NewClient(result.Project.SocketPath)
	if notify {
		return client.CheckAndDisplay(abs, force)
	}
	return client.DiagnosticsFile(abs, force)
}

// projectMarkers identify a project root when walking up from a file.
var projectMarkers = []string{
	"go.mod", "Cargo.toml", "pyproject.toml", "package.json",
	"tsconfig.json", "pom.xml", "build.gradle", "CMakeLists.txt",
	"Makefile", ".git",
}

// findProjectRoot walks up from a file toward / looking for a project
// marker. Falls back to the file's own directory so single-file
// projects still work.
func findProjectRoot(file string) string {
	dir := filepath.Dir(file)
	for cur := dir; ; cur = filepath.Dir(cur) {
		for _, marker := range projectMarkers {
			if _, err := os.Stat(filepath.Join(cur, marker)); err == nil {
				return cur
			}
		}
		if cur == filepath.Dir(cur) {
			return dir
		}
	}
}

// hasIssues reports whether a response carries anything worth acting
// on: errors and warnings set exit code 2, info and hints do not.
func hasIssues(counts types.SeverityCounts) bool {
	return counts.Errors > 0 || counts.Warnings > 0
}

func init() {
	checkCmd.Flags().Bool("force", false, "Bypass the diagnostics cache")
	rootCmd.AddCommand(checkCmd)
}
