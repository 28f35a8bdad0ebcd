package main

import (
	"fmt"
	"time"

	"github.com/cascadeops/diagd/internal/fleet"
	"github.com/cascadeops/diagd/internal/project"
)

// openManager opens the shared registry and wraps it in a fleet
// manager. Callers must invoke the returned close func.
func openManager() (*fleet.Manager, func(), error) {
	registryPath, err := project.RegistryPath()
	if err != nil {
		return nil, nil, err
	}
	registry, err := fleet.OpenRegistry(registryPath)
	if err != nil {
		return nil, nil, err
	}
	manager := fleet.NewManager(registry, nil)
	return manager, func() { registry.Close() }, nil
}

// formatDuration renders an age like "5m" or "2h30m" for status lines.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	h := int(d.Hours())
	m := int(d.Minutes()) - h*60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh%dm", h, m)
}
