package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cascadeops/diagd/internal/project"
	"github.com/cascadeops/diagd/internal/server"
	"github.com/cascadeops/diagd/internal/types"
)

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics <path>",
	Short: "Request diagnostics from a project's server",
	Long: `Request diagnostics from the running server for the project at
<path>. Without --file the whole project is checked and results are
grouped by source tool; with --file exactly that one file is checked.

Results come from the server's content-hash cache when the files are
unchanged; --force bypasses the cache and recomputes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		force, _ := cmd.Flags().GetBool("force")

		client, err := projectClient(args[0])
		if err != nil {
			return err
		}

		var resp *server.Response
		if file != "" {
			resp, err = client.DiagnosticsFile(file, force)
		} else {
			resp, err = client.Diagnostics(force)
		}
		if err != nil {
			return fmt.Errorf("%w\nHint: is the server running? Try 'diagd start %s'", err, args[0])
		}
		if !resp.Success {
			return fmt.Errorf("diagnostics request failed: %s", resp.Message)
		}

		printDiagnostics(resp, file == "")
		return nil
	},
}

// projectClient returns a client for the project at root without
// probing it first; the request itself reports unreachability.
func projectClient(root string) (*server.Client, error) {
	canonical, err := project.CanonicalRoot(root)
	if err != nil {
		return nil, err
	}
	socketPath, err := project.SocketPath(canonical)
	if err != nil {
		return nil, err
	}
	return server.NewClient(socketPath), nil
}

// printDiagnostics renders a diagnostics response. grouped selects the
// per-tool breakdown used for project-wide results.
func printDiagnostics(resp *server.Response, grouped bool) {
	green := color.New(color.FgGreen).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	if resp.Counts.Total() == 0 {
		fmt.Printf("%s %s\n", green("✓"), resp.Summary)
		return
	}

	if grouped && len(resp.ByTool) > 0 {
		tools := make([]string, 0, len(resp.ByTool))
		for tool := range resp.ByTool {
			tools = append(tools, tool)
		}
		sort.Strings(tools)
		for _, tool := range tools {
			fmt.Printf("%s:\n", tool)
			diags := resp.ByTool[tool]
			types.SortBySeverity(diags)
			for _, d := range diags {
				printDiagnostic(d)
			}
		}
	} else {
		for _, d := range resp.Diagnostics {
			printDiagnostic(d)
		}
		if resp.Overflow > 0 {
			fmt.Printf("  %s\n", gray(fmt.Sprintf("... and %d more", resp.Overflow)))
		}
	}
	fmt.Printf("\n%s\n", resp.Summary)
}

func printDiagnostic(d types.Diagnostic) {
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	sev := gray(string(d.Severity))
	switch d.Severity {
	case types.SeverityError:
		sev = red(string(d.Severity))
	case types.SeverityWarning:
		sev = yellow(string(d.Severity))
	}

	if d.Column > 0 {
		fmt.Printf("  %s:%d:%d: %s: %s %s\n", d.File, d.Line, d.Column, sev, d.Message, gray("["+d.Source+"]"))
	} else {
		fmt.Printf("  %s:%d: %s: %s %s\n", d.File, d.Line, sev, d.Message, gray("["+d.Source+"]"))
	}
}

func init() {
	diagnosticsCmd.Flags().String("file", "", "Check exactly one file instead of the whole project")
	diagnosticsCmd.Flags().Bool("force", false, "Bypass the diagnostics cache")
	rootCmd.AddCommand(diagnosticsCmd)
}
