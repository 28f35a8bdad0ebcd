package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var resetDedupCmd = &cobra.Command{
	Use:   "reset-dedup <path>",
	Short: "Clear a project's diagnostics cache and suppression window",
	Long: `Clear the diagnostics cache and the notification suppression
window of the running server for <path>. The next check recomputes
everything and reports it as new.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := projectClient(args[0])
		if err != nil {
			return err
		}
		resp, err := client.ResetDedup()
		if err != nil {
			return fmt.Errorf("%w\nHint: is the server running? Try 'diagd start %s'", err, args[0])
		}
		if !resp.Success {
			return fmt.Errorf("reset failed: %s", resp.Message)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Dedup state cleared for %s\n", green("✓"), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetDedupCmd)
}
