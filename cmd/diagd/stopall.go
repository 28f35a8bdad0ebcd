package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var stopAllCmd = &cobra.Command{
	Use:   "stop-all",
	Short: "Stop every tracked diagnostic server",
	Long: `Stop every server in the registry. One server failing to stop
never aborts the sweep; failures are reported at the end.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, closeFn, err := openManager()
		if err != nil {
			return err
		}
		defer closeFn()

		result, err := manager.StopAll(context.Background())
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		fmt.Printf("%s Stopped %d server(s)\n", green("✓"), result.Stopped)
		if result.Failed > 0 {
			fmt.Printf("%s %d server(s) failed to stop:\n", red("✗"), result.Failed)
			for _, stopErr := range result.Errors {
				fmt.Fprintf(os.Stderr, "  %v\n", stopErr)
			}
			return fmt.Errorf("%d of %d servers failed to stop", result.Failed, result.Stopped+result.Failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stopAllCmd)
}
