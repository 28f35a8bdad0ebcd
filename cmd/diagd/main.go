// diagd is an on-demand source diagnostics service: one persistent
// server per project root, orchestrating external compilers and linters
// as subprocesses, with a fleet manager CLI coordinating the servers
// over Unix sockets.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Exit codes: 0 = success / no issues, 2 = issues found (check/hook
// mode), 1 = internal failure.
const (
	exitOK       = 0
	exitInternal = 1
	exitIssues   = 2
)

var rootCmd = &cobra.Command{
	Use:   "diagd",
	Short: "On-demand source diagnostics via per-project servers",
	Long: `diagd runs syntax and type checks for many languages by delegating
to whatever external tool is installed for each file type (go vet,
ruff, tsc, cargo, gcc, javac).

Each project gets its own long-lived server on a Unix socket derived
from the project root, so repeated checks are answered from a
content-hash cache instead of re-running tools. The CLI is the fleet
manager: it starts, stops, lists, and idle-reaps those servers.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitInternal)
	}
}
