package checkers

import (
	"path/filepath"
	"sort"
	"strings"
)

// Registry maps file extensions to checker plugins. It is built once at
// process start and read-only afterwards, so lookups need no locking.
type Registry struct {
	byExt   map[string]Plugin
	plugins []Plugin
}

// NewRegistry builds a registry from the given plugins. When two
// plugins claim the same extension the earlier registration wins.
func NewRegistry(plugins ...Plugin) *Registry {
	r := &Registry{byExt: make(map[string]Plugin)}
	for _, p := range plugins {
		r.plugins = append(r.plugins, p)
		for _, ext := range p.Extensions() {
			ext = strings.ToLower(ext)
			if _, taken := r.byExt[ext]; !taken {
				r.byExt[ext] = p
			}
		}
	}
	return r
}

// DefaultRegistry returns the registry with all builtin plugins.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewGoVet(),
		NewRuff(),
		NewTsc(),
		NewCargoCheck(),
		NewGccSyntax(),
		NewJavac(),
	)
}

// Lookup returns the plugin registered for a file's extension, or nil
// when no plugin handles it.
func (r *Registry) Lookup(path string) Plugin {
	return r.byExt[strings.ToLower(filepath.Ext(path))]
}

// Plugins returns all registered plugins in registration order.
func (r *Registry) Plugins() []Plugin {
	return r.plugins
}

// Extensions returns every recognized extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
