package sequence

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultBackend is the pure Go math/big backend every engine provides.
const DefaultBackend = "big"

// Creator builds a fresh Engine instance.
type Creator func() Engine

// Registry maps (kind, backend) pairs to engine creators. Instances are built
// lazily, wrapped with Instrument, and cached. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	creators map[Kind]map[string]Creator
	engines  map[Kind]map[string]Engine
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		creators: make(map[Kind]map[string]Creator),
		engines:  make(map[Kind]map[string]Engine),
	}
}

// Register adds or replaces the creator for a backend of kind.
func (r *Registry) Register(kind Kind, backend string, creator Creator) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.creators[kind] == nil {
		r.creators[kind] = make(map[string]Creator)
		r.engines[kind] = make(map[string]Engine)
	}
	r.creators[kind][backend] = creator
	delete(r.engines[kind], backend)
}

// Get returns the cached, instrumented engine for kind and backend. An empty
// backend selects DefaultBackend. Kinds that lack the requested backend fall
// back to DefaultBackend, since not every sequence has an alternative
// implementation.
//
// Parameters:
//   - kind: The sequence kind.
//   - backend: The backend name, or "" for the default.
//
// Returns:
//   - Engine: The engine instance.
//   - error: An error if neither the backend nor the default is registered.
func (r *Registry) Get(kind Kind, backend string) (Engine, error) {
	if backend == "" {
		backend = DefaultBackend
	}

	r.mu.RLock()
	e, ok := r.engines[kind][backend]
	r.mu.RUnlock()
	if ok {
		return e, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.engines[kind][backend]; ok {
		return e, nil
	}
	creator, ok := r.creators[kind][backend]
	if !ok {
		creator, ok = r.creators[kind][DefaultBackend]
		if !ok {
			return nil, fmt.Errorf("no %s engine registered for backend %q", kind, backend)
		}
	}
	e = Instrument(creator())
	r.engines[kind][backend] = e
	return e, nil
}

// Backends returns the sorted backend names registered for kind.
func (r *Registry) Backends(kind Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.creators[kind]))
	for name := range r.creators[kind] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasBackend reports whether any kind registers backend.
func (r *Registry) HasBackend(backend string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.creators {
		if _, ok := m[backend]; ok {
			return true
		}
	}
	return false
}
