package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop <path>",
	Short: "Stop the diagnostic server for a project",
	Long: `Stop the diagnostic server for the project at <path>.

The server gets a graceful shutdown request over its socket first; if
the process has not exited within the grace period it is signalled,
then force-killed. The registry entry is removed regardless of
outcome.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, closeFn, err := openManager()
		if err != nil {
			return err
		}
		defer closeFn()

		if err := manager.Stop(context.Background(), args[0]); err != nil {
			return err
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Server stopped for %s\n", green("✓"), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
