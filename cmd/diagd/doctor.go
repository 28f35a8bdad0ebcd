package main

import (
	"fmt"
	"os/exec"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cascadeops/diagd/internal/checkers"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check which underlying checker tools are installed",
	Long: `Report, for every registered checker plugin, whether its
underlying tool is on PATH. A missing tool is not an error: checks for
that language simply return no diagnostics until it is installed.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== diagd doctor ==="))

		available := 0
		registry := checkers.DefaultRegistry()
		for _, plugin := range registry.Plugins() {
			toolPath, err := exec.LookPath(plugin.Tool())
			if err != nil {
				fmt.Printf("  %s %-12s tool %q not found\n", yellow("⚠"), plugin.Name(), plugin.Tool())
				continue
			}
			available++
			fmt.Printf("  %s %-12s %s\n", green("✓"), plugin.Name(), gray(toolPath))
		}

		fmt.Printf("\n%d of %d checker tools available\n", available, len(registry.Plugins()))
		fmt.Printf("Recognized extensions: %v\n", registry.Extensions())
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
