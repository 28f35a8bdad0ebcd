package server

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// maxProjectFiles bounds how many files one aggregation request will
// check. Beyond this the project is better served by per-file checks.
const maxProjectFiles = 2000

// skipDirs are directory names never descended into during project
// walks: VCS metadata, dependency trees, and build output.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	"target":       true,
	"build":        true,
	"dist":         true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
}

// collectFiles walks the project root and returns every file whose
// extension has a registered plugin, provided that plugin detects the
// project as configured for its tool. Unreadable subtrees are skipped,
// not fatal.
func (s *Server) collectFiles() ([]string, error) {
	// Resolve Detect once per plugin, not once per file.
	detected := make(map[string]bool)
	for _, p := range s.registry.Plugins() {
		detected[p.Name()] = p.Detect(s.root)
	}

	var files []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if path != s.root && (skipDirs[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if len(files) >= maxProjectFiles {
			return filepath.SkipAll
		}
		plugin := s.registry.Lookup(path)
		if plugin == nil || !detected[plugin.Name()] {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
