package fleet

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/cascadeops/diagd/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS servers (
	project_id    TEXT PRIMARY KEY,
	root          TEXT NOT NULL,
	socket_path   TEXT NOT NULL,
	pid           INTEGER NOT NULL,
	started_at    TIMESTAMP NOT NULL,
	last_activity TIMESTAMP NOT NULL
);
`

// Registry is the filesystem-backed record of tracked project servers.
// Fleet manager invocations are independent short-lived processes, so
// this state must live outside process memory. SQLite in WAL mode
// tolerates the registry being open concurrently from a CLI invocation
// and from each running server (which touches its own last-activity
// row).
type Registry struct {
	db *sql.DB
}

// OpenRegistry opens (creating if needed) the registry database.
func OpenRegistry(path string) (*Registry, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open registry database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping registry database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize registry schema: %w", err)
	}

	return &Registry{db: db}, nil
}

// Close releases the database handle.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Put inserts or replaces the entry for a project.
func (r *Registry) Put(p types.Project) error {
	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO servers (project_id, root, socket_path, pid, started_at, last_activity)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Root, p.SocketPath, p.PID,
		p.StartedAt.UTC().Format(time.RFC3339Nano),
		p.LastActivity.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to store registry entry for %s: %w", p.ID, err)
	}
	return nil
}

// Get returns the entry for a project id, or (nil, nil) when absent.
func (r *Registry) Get(projectID string) (*types.Project, error) {
	row := r.db.QueryRow(`
		SELECT project_id, root, socket_path, pid, started_at, last_activity
		FROM servers WHERE project_id = ?`, projectID)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registry entry for %s: %w", projectID, err)
	}
	return p, nil
}

// List returns every tracked entry, oldest start first.
func (r *Registry) List() ([]*types.Project, error) {
	rows, err := r.db.Query(`
		SELECT project_id, root, socket_path, pid, started_at, last_activity
		FROM servers ORDER BY started_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list registry entries: %w", err)
	}
	defer rows.Close()

	var projects []*types.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registry entry: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate registry entries: %w", err)
	}
	return projects, nil
}

// Delete removes the entry for a project id. Deleting a missing entry
// is not an error.
func (r *Registry) Delete(projectID string) error {
	if _, err := r.db.Exec(`DELETE FROM servers WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("failed to delete registry entry for %s: %w", projectID, err)
	}
	return nil
}

// TouchActivity updates a project's last-activity timestamp. Called by
// the project server on every handled request.
func (r *Registry) TouchActivity(projectID string, t time.Time) error {
	_, err := r.db.Exec(`UPDATE servers SET last_activity = ? WHERE project_id = ?`,
		t.UTC().Format(time.RFC3339Nano), projectID)
	if err != nil {
		return fmt.Errorf("failed to update last activity for %s: %w", projectID, err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(s scanner) (*types.Project, error) {
	var p types.Project
	var startedAt, lastActivity string
	if err := s.Scan(&p.ID, &p.Root, &p.SocketPath, &p.PID, &startedAt, &lastActivity); err != nil {
		return nil, err
	}
	var err error
	if p.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("invalid started_at %q: %w", startedAt, err)
	}
	if p.LastActivity, err = time.Parse(time.RFC3339Nano, lastActivity); err != nil {
		return nil, fmt.Errorf("invalid last_activity %q: %w", lastActivity, err)
	}
	return &p, nil
}
