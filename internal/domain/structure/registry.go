package structure

import (
	"fmt"
	"sync"

	"stepform/internal/core/apperror"
)

// Registry stores the registered Structures, one per record type.
// Registration happens once at process start; lookups are concurrent.
type Registry struct {
	mu         sync.RWMutex
	structures map[string]*Structure
	order      []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		structures: make(map[string]*Structure),
	}
}

// Register adds a Structure. Registering the same name twice is a
// configuration error.
func (r *Registry) Register(st *Structure) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.structures[st.Name()]; exists {
		return apperror.NewConfiguration("structure already registered").
			WithDetail("structure", st.Name())
	}
	r.structures[st.Name()] = st
	r.order = append(r.order, st.Name())
	return nil
}

// Get returns the Structure registered under name.
func (r *Registry) Get(name string) (*Structure, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.structures[name]
	return st, ok
}

// MustGet returns the Structure registered under name, panicking when it is
// missing: asking for an unregistered structure is a programming error.
func (r *Registry) MustGet(name string) *Structure {
	st, ok := r.Get(name)
	if !ok {
		panic(fmt.Sprintf("structure %q is not registered", name))
	}
	return st
}

// List returns all registered Structures in registration order.
func (r *Registry) List() []*Structure {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*Structure, 0, len(r.order))
	for _, name := range r.order {
		list = append(list, r.structures[name])
	}
	return list
}
