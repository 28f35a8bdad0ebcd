// Package project derives stable identity for a project root: the
// canonical path, the deterministic project id, and the Unix socket
// address a server for that root listens on. Every component that needs
// to find "the server for this root" goes through these functions so
// that independent CLI invocations converge on the same address.
package project

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// idLength is the number of hex characters kept from the root hash.
// 12 characters keeps socket paths comfortably under the ~104 byte
// sun_path limit while leaving collisions implausible for any realistic
// number of projects on one machine.
const idLength = 12

// CanonicalRoot resolves a project root to its canonical absolute form:
// absolute, symlinks resolved. Two spellings of the same directory
// (relative vs absolute, via symlink or not) canonicalize identically,
// which is what makes project ids and socket addresses stable.
func CanonicalRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s: %w", root, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("failed to resolve symlinks for %s: %w", abs, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("project root %s: %w", resolved, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project root %s is not a directory", resolved)
	}
	return resolved, nil
}

// ID computes the deterministic project id for an already-canonical
// root: the first 12 hex characters of the SHA-256 of the path.
func ID(canonicalRoot string) string {
	sum := sha256.Sum256([]byte(canonicalRoot))
	return hex.EncodeToString(sum[:])[:idLength]
}

// StateDir returns the diagd state directory (registry, sockets, lock
// files). Defaults to ~/.diagd; DIAGD_STATE_DIR overrides it, which
// tests rely on to keep fixtures isolated.
func StateDir() (string, error) {
	if dir := os.Getenv("DIAGD_STATE_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".diagd"), nil
}

// SocketPath returns the Unix socket address for a canonical root.
// The name embeds only the fixed-length project id, so the full path
// stays short regardless of how deep the project root is.
func SocketPath(canonicalRoot string) (string, error) {
	stateDir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(stateDir, "sockets", fmt.Sprintf("diagd-%s.sock", ID(canonicalRoot))), nil
}

// RegistryPath returns the path of the fleet registry database.
func RegistryPath() (string, error) {
	stateDir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(stateDir, "registry.db"), nil
}

// LockPath returns the per-root lock file used to make the fleet
// manager's probe-then-spawn sequence atomic across invocations.
func LockPath(canonicalRoot string) (string, error) {
	stateDir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(stateDir, "locks", fmt.Sprintf("diagd-%s.lock", ID(canonicalRoot))), nil
}
