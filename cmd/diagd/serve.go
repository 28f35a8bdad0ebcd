package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cascadeops/diagd/internal/checkers"
	"github.com/cascadeops/diagd/internal/config"
	"github.com/cascadeops/diagd/internal/dedup"
	"github.com/cascadeops/diagd/internal/fleet"
	"github.com/cascadeops/diagd/internal/project"
	"github.com/cascadeops/diagd/internal/server"
	"github.com/cascadeops/diagd/internal/worker"
)

// serveCmd is the hidden entry point the fleet manager spawns; it runs
// the actual project server in the foreground until signalled.
var serveCmd = &cobra.Command{
	Use:    "serve",
	Short:  "Run a project diagnostic server in the foreground",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, _ := cmd.Flags().GetString("root")
		if root == "" {
			return fmt.Errorf("--root is required")
		}
		return runServe(root)
	},
}

func init() {
	serveCmd.Flags().String("root", "", "Project root to serve diagnostics for")
	rootCmd.AddCommand(serveCmd)
}

func runServe(root string) error {
	canonical, err := project.CanonicalRoot(root)
	if err != nil {
		return err
	}

	dedupCfg, err := dedup.ConfigFromEnv()
	if err != nil {
		return err
	}
	workerCfg, err := worker.ConfigFromEnv()
	if err != nil {
		return err
	}

	// Per-project .diagd.yaml overrides the daemon defaults.
	projCfg, err := config.Load(canonical)
	if err != nil {
		return err
	}
	if projCfg.TimeoutSecs > 0 {
		workerCfg.Timeout = time.Duration(projCfg.TimeoutSecs) * time.Second
	}
	if projCfg.MaxDiagnostics >= 0 {
		dedupCfg.MaxDiagnostics = projCfg.MaxDiagnostics
	}

	registry := checkers.DefaultRegistry()
	if len(projCfg.DisabledCheckers) > 0 {
		var kept []checkers.Plugin
		for _, p := range registry.Plugins() {
			if !projCfg.Disabled(p.Name()) {
				kept = append(kept, p)
			}
		}
		registry = checkers.NewRegistry(kept...)
	}

	// The server touches its own fleet registry row on every request so
	// short-lived CLI invocations can read last-activity for idle
	// sweeps.
	registryPath, err := project.RegistryPath()
	if err != nil {
		return err
	}
	fleetReg, err := fleet.OpenRegistry(registryPath)
	if err != nil {
		return err
	}
	defer fleetReg.Close()

	projectID := project.ID(canonical)
	srv, err := server.New(server.Config{
		Root:     canonical,
		Registry: registry,
		Pool:     worker.NewPool(workerCfg),
		Dedup:    dedupCfg,
		OnActivity: func(t time.Time) {
			if err := fleetReg.TouchActivity(projectID, t); err != nil {
				fmt.Fprintf(os.Stderr, "serve: failed to record activity: %v\n", err)
			}
		},
	})
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := srv.Start(ctx); err != nil {
		return err
	}
	fmt.Printf("diagd server listening on %s (project %s)\n", srv.SocketPath(), srv.ProjectID())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Run until a shutdown request arrives over the socket or a signal
	// lands.
	done := make(chan struct{})
	go func() {
		srv.Wait()
		close(done)
	}()

	select {
	case sig := <-sigCh:
		fmt.Printf("received %v, shutting down\n", sig)
		srv.Stop()
	case <-done:
	}
	srv.Wait()
	fmt.Println("diagd server stopped")
	return nil
}
