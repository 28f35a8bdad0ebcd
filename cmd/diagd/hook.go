package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// hookPayload is the JSON an editor or agent hook pipes on stdin.
// Different tools name the file field differently; all common spellings
// are accepted.
type hookPayload struct {
	File     string `json:"file"`
	Path     string `json:"path"`
	FilePath string `json:"file_path"`
}

func (p hookPayload) target() string {
	switch {
	case p.File != "":
		return p.File
	case p.Path != "":
		return p.Path
	default:
		return p.FilePath
	}
}

var hookCmd = &cobra.Command{
	Use:   "hook <event>",
	Short: "Run as an editor/agent hook (reads JSON payload on stdin)",
	Long: `Check the file named in a JSON payload on stdin, with repeat
suppression: an identical result already shown within the suppression
window stays quiet, so save-event bursts do not spam the terminal.

Exits 2 when issues were found and displayed, 0 otherwise. A payload
without a recognizable file, or a file no checker handles, exits 0
silently so the hook never blocks the host tool.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read hook payload: %w", err)
		}

		var payload hookPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			// Malformed payloads are the host tool's bug, not ours;
			// exit quietly rather than breaking its hook chain.
			return nil
		}
		file := payload.target()
		if file == "" {
			return nil
		}
		if _, err := os.Stat(file); err != nil {
			return nil
		}

		resp, err := checkFile(file, false, true)
		if err != nil {
			// Hook mode never surfaces infrastructure failures as hard
			// errors; log and let the host tool continue.
			fmt.Fprintf(os.Stderr, "diagd hook: %v\n", err)
			return nil
		}

		if resp.Displayed && hasIssues(resp.Counts) {
			printDiagnostics(resp, false)
			os.Exit(exitIssues)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hookCmd)
}
