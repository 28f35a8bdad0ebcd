package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start <path>",
	Short: "Start a diagnostic server for a project",
	Long: `Start a persistent diagnostic server for the project at <path>.

Starting is idempotent: if a healthy server already listens on the
project's socket, the command reports it and spawns nothing. A stale
socket left by a crashed server is detected by a failed health probe
and replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, closeFn, err := openManager()
		if err != nil {
			return err
		}
		defer closeFn()

		result, err := manager.Start(context.Background(), args[0])
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		if result.AlreadyRunning {
			fmt.Printf("%s Server already running for %s\n", green("✓"), result.Project.Root)
		} else {
			fmt.Printf("%s Server started for %s\n", green("✓"), result.Project.Root)
		}
		fmt.Printf("  Project: %s\n", result.Project.ID)
		fmt.Printf("  Socket:  %s\n", gray(result.Project.SocketPath))
		fmt.Printf("  PID:     %d\n", result.Project.PID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
