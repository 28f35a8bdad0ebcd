package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var cleanIdleCmd = &cobra.Command{
	Use:   "clean-idle <minutes>",
	Short: "Stop servers idle for longer than a threshold",
	Long: `Stop every tracked server whose last activity is older than
<minutes>. A threshold of 0 stops all tracked servers regardless of
activity, forcing a clean slate.

Idle reaping is driven entirely by this sweep: servers never terminate
themselves.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, err := strconv.Atoi(args[0])
		if err != nil || minutes < 0 {
			return fmt.Errorf("invalid threshold %q: expected a non-negative number of minutes", args[0])
		}

		manager, closeFn, err := openManager()
		if err != nil {
			return err
		}
		defer closeFn()

		result, err := manager.CleanIdle(context.Background(), time.Duration(minutes)*time.Minute)
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		fmt.Printf("%s Reaped %d idle server(s)\n", green("✓"), result.Stopped)
		if result.Failed > 0 {
			fmt.Printf("%s %d failed:\n", red("✗"), result.Failed)
			for _, stopErr := range result.Errors {
				fmt.Printf("  %v\n", stopErr)
			}
			return fmt.Errorf("%d servers failed to stop", result.Failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanIdleCmd)
}
