package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/cascadeops/diagd/internal/checkers"
	"github.com/cascadeops/diagd/internal/server"
)

var watchCmd = &cobra.Command{
	Use:   "watch <path>",
	Short: "Re-check files in a project as they change",
	Long: `Watch the project at <path> and re-check every saved file with a
registered checker. The notification suppression window keeps output
quiet across editor save bursts: only changed results are printed.

Runs until interrupted.`,
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
		client := server.NewClient(result.Project.SocketPath)
		registry := checkers.DefaultRegistry()

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		defer watcher.Close()

		if err := watchTree(watcher, result.Project.Root); err != nil {
			return err
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Printf("%s Watching %s (Ctrl+C to stop)\n", cyan("→"), result.Project.Root)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		for {
			select {
			case <-sigCh:
				fmt.Println("\nstopped watching")
				return nil
			case err := <-watcher.Errors:
				fmt.Fprintf(os.Stderr, "watch: %v\n", err)
			case event := <-watcher.Events:
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				// New directories need their own watch.
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if event.Has(fsnotify.Create) {
						_ = watchTree(watcher, event.Name)
					}
					continue
				}
				if registry.Lookup(event.Name) == nil {
					continue
				}
				resp, checkErr := client.CheckAndDisplay(event.Name, false)
				if checkErr != nil {
					fmt.Fprintf(os.Stderr, "watch: check failed for %s: %v\n", event.Name, checkErr)
					continue
				}
				if resp.Displayed {
					rel, _ := filepath.Rel(result.Project.Root, event.Name)
					fmt.Printf("\n%s %s\n", cyan("→"), rel)
					printDiagnostics(resp, false)
				}
			}
		}
	},
}

// watchTree adds a directory and all its subdirectories to the watcher,
// skipping the same trees project walks skip.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor" || name == "target" || name == "build") {
			return filepath.SkipDir
		}
		if addErr := watcher.Add(path); addErr != nil {
			fmt.Fprintf(os.Stderr, "watch: cannot watch %s: %v\n", path, addErr)
		}
		return nil
	})
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
