package vfs

import (
	"fmt"
	"strings"
	"sync"
)

// Registry maps location schemes to backends.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// DefaultRegistry returns a registry with the OS backend for file locations.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(SchemeFile, NewOSBackend())
	return r
}

// Register sets the backend for scheme, replacing any previous one.
func (r *Registry) Register(scheme string, b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[strings.ToLower(scheme)] = b
}

// For returns the backend for loc's scheme.
func (r *Registry) For(loc Location) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.backends[loc.Scheme()]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, loc.Scheme())
	}
	return b, nil
}

// Schemes returns the registered schemes.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.backends))
	for s := range r.backends {
		out = append(out, s)
	}
	return out
}
