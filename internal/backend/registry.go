package backend

import (
	"fmt"
	"maps"
	"slices"

	"github.com/stupside/storyfetch/internal/app"
)

// Registry holds all configured backends.
type Registry struct {
	backends map[string]*Backend
	first    string
}

// NewRegistryFromConfig creates a registry from the backend configs.
func NewRegistryFromConfig(cfgs []app.BackendConfig) *Registry {
	r := &Registry{
		backends: make(map[string]*Backend, len(cfgs)),
	}
	for _, cfg := range cfgs {
		r.backends[cfg.Name] = New(cfg)
		if r.first == "" {
			r.first = cfg.Name
		}
	}
	return r
}

// Get returns a backend by name. An empty name selects the first configured backend.
func (r *Registry) Get(name string) (*Backend, error) {
	if name == "" {
		name = r.first
	}
	b, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("backend %q not found", name)
	}
	return b, nil
}

// List returns all backend names.
func (r *Registry) List() []string {
	return slices.Sorted(maps.Keys(r.backends))
}
