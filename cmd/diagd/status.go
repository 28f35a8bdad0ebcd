package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cascadeops/diagd/internal/fleet"
	"github.com/cascadeops/diagd/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status [path]",
	Short: "Show diagnostic server status",
	Long: `With a path, probe the server for that project and report
Running, NotRunning, or Stale. With no argument, enumerate every
tracked server, probe each, and print a fleet summary. Stale entries
(tracked but unreachable) are evicted as they are found.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, closeFn, err := openManager()
		if err != nil {
			return err
		}
		defer closeFn()

		if len(args) == 1 {
			status, err := manager.Status(args[0])
			if err != nil {
				return err
			}
			printStatus(status)
			return nil
		}

		statuses, err := manager.StatusAll()
		if err != nil {
			return err
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		fmt.Printf("\n%s\n\n", cyan("=== diagd fleet status ==="))

		if len(statuses) == 0 {
			fmt.Printf("  %s\n", gray("No tracked servers"))
			return nil
		}

		running := 0
		for _, status := range statuses {
			printStatus(status)
			if status.State == types.StateRunning || status.State == types.StateIdle {
				running++
			}
		}
		fmt.Printf("\nTotal: %d tracked, %d running\n", len(statuses), running)
		return nil
	},
}

func printStatus(status *fleet.ServerStatus) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	root := "(unknown)"
	if status.Project != nil {
		root = status.Project.Root
	}

	switch {
	case status.Stale:
		fmt.Printf("  %s %s %s\n", yellow("⚠"), root, yellow("stale (evicted)"))
	case status.State == types.StateNotRunning:
		fmt.Printf("  %s %s %s\n", gray("○"), root, gray("not running"))
	case status.State == types.StateIdle:
		fmt.Printf("  %s %s %s\n", yellow("●"), root, yellow("idle"))
	default:
		fmt.Printf("  %s %s %s\n", green("●"), root, green("running"))
	}

	if status.Health != nil {
		fmt.Printf("    Project:  %s (PID %d)\n", status.Health.ProjectID, status.Health.PID)
		fmt.Printf("    Started:  %s ago\n", formatDuration(time.Since(status.Health.StartedAt)))
		fmt.Printf("    Activity: %s ago\n", formatDuration(time.Since(status.Health.LastActivity)))
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
