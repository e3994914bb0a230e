package api

import (
	"sort"
	"sync"

	"github.com/pookielabs/pookieverse/internal/engine"
)

// Registry holds the running worlds by id. Worlds are added at startup and
// looked up per request; there are no globals.
type Registry struct {
	mu     sync.RWMutex
	worlds map[string]*engine.World
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{worlds: make(map[string]*engine.World)}
}

// Add registers a world under its id.
func (r *Registry) Add(w *engine.World) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.worlds[w.ID()] = w
}

// Get returns the world with the given id, or nil.
func (r *Registry) Get(id string) *engine.World {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.worlds[id]
}

// IDs returns the registered world ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.worlds))
	for id := range r.worlds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
