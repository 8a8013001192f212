// Package backend defines the capability interface implemented by every
// inference provider, plus a registry keyed by backend name. Providers are
// selected through catalog tags, never through type identity.
package backend

import (
	"context"
	"sort"
	"sync"
)

// Request is a single completion request to an inference backend.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int64
	Temperature float64
}

// Response is the raw completion returned by a backend.
type Response struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Backend executes completion requests against one inference provider.
type Backend interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Registry maps backend names to live clients. Populated once at startup;
// reads during a run are lock-free in practice but guarded anyway.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Register adds a backend under its name, replacing any previous entry.
func (r *Registry) Register(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[b.Name()] = b
}

// Get returns the backend registered under name, or nil.
func (r *Registry) Get(name string) Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.backends[name]
}

// Names returns all registered backend names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.backends))
	for n := range r.backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
