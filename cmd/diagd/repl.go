package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive console for the diagnostic fleet",
	Long: `An interactive console over the fleet manager. Commands:

  status           probe every tracked server
  check <file>     check one file (starts its server if needed)
  stop <path>      stop the server for a project
  help             show this list
  quit             leave the console`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rl, err := readline.New("diagd> ")
		if err != nil {
			return fmt.Errorf("failed to initialize readline: %w", err)
		}
		defer rl.Close()

		fmt.Println("diagd console. Type 'help' for commands, 'quit' to exit.")
		for {
			line, err := rl.Readline()
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if done := runReplLine(strings.TrimSpace(line)); done {
				return nil
			}
		}
	},
}

// runReplLine executes one console line; returns true on quit.
func runReplLine(line string) bool {
	red := color.New(color.FgRed).SprintFunc()

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "quit", "exit":
		return true
	case "help":
		fmt.Println("commands: status, check <file>, stop <path>, quit")
	case "status":
		if err := statusCmd.RunE(statusCmd, nil); err != nil {
			fmt.Printf("%s %v\n", red("✗"), err)
		}
	case "check":
		if len(fields) != 2 {
			fmt.Println("usage: check <file>")
			return false
		}
		resp, err := checkFile(fields[1], false, false)
		if err != nil {
			fmt.Printf("%s %v\n", red("✗"), err)
			return false
		}
		printDiagnostics(resp, false)
	case "stop":
		if len(fields) != 2 {
			fmt.Println("usage: stop <path>")
			return false
		}
		if err := stopCmd.RunE(stopCmd, []string{fields[1]}); err != nil {
			fmt.Printf("%s %v\n", red("✗"), err)
		}
	default:
		fmt.Printf("unknown command %q (try 'help')\n", fields[0])
	}
	return false
}

func init() {
	rootCmd.AddCommand(replCmd)
}
