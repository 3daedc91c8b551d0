package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/netmimic/netmimic/pkg/util"
)

// Registry resolves handler names. Built-in handlers are always present;
// file-driven handlers are loaded from the project's module directory and
// invalidated wholesale when the module change detector fires.
type Registry struct {
	mu      sync.RWMutex
	builtin map[string]Handler
	loaded  map[string]Handler
}

// NewRegistry creates a registry with the built-in handlers registered.
func NewRegistry() *Registry {
	return &Registry{
		builtin: map[string]Handler{
			"junos": NewJunosHandler(),
		},
		loaded: map[string]Handler{},
	}
}

// Get resolves a handler by name. File-driven handlers shadow built-ins
// of the same name.
func (r *Registry) Get(name string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if handler, ok := r.loaded[name]; ok {
		return handler, nil
	}
	if handler, ok := r.builtin[name]; ok {
		return handler, nil
	}
	return nil, util.NewNotFoundError("handler '%s' does not exist", name)
}

// Load reads every handlers/<name>/handler.yaml under the module
// directory, replacing the previously loaded set. A missing handlers
// directory leaves only the built-ins.
func (r *Registry) Load(moduleDir string) error {
	handlersDir := filepath.Join(moduleDir, "handlers")
	entries, err := os.ReadDir(handlersDir)
	if err != nil {
		if os.IsNotExist(err) {
			r.Reset()
			return nil
		}
		return fmt.Errorf("reading handlers directory: %w", err)
	}

	loaded := map[string]Handler{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		descriptor := filepath.Join(handlersDir, entry.Name(), "handler.yaml")
		data, err := os.ReadFile(descriptor)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("reading handler '%s': %w", entry.Name(), err)
		}
		spec, err := ParseSpec(data)
		if err != nil {
			return fmt.Errorf("handler '%s': %w", entry.Name(), err)
		}
		loaded[entry.Name()] = NewFileHandler(spec)
		util.Debugf("loaded handler '%s' from %s", entry.Name(), descriptor)
	}

	r.mu.Lock()
	r.loaded = loaded
	r.mu.Unlock()
	return nil
}

// Reset drops every loaded file-driven handler.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.loaded = map[string]Handler{}
	r.mu.Unlock()
}
