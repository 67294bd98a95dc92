// Package imports records how long each heavy dependency takes to become
// usable the first time a process touches it.
//
// A Registry loads every identifier at most once per process. A Recorder
// brackets each acquisition with a timer, so its numbers are only meaningful
// on the first acquisition: record once during initialization, never from a
// request handler.
package imports

import (
	"sync"
)

type (
	Loader func() (interface{}, error)

	Registry struct {
		mu      sync.Mutex
		entries map[string]*entry
	}

	entry struct {
		once   sync.Once
		handle interface{}
		err    error
	}
)

// Default is the process-wide registry used by the workload.
var Default = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{entries: map[string]*entry{}}
}

// Acquire runs load the first time id is requested and returns the cached
// handle (or error) on every later call.
func (r *Registry) Acquire(id string, load Loader) (interface{}, error) {
	r.mu.Lock()
	ent, ok := r.entries[id]
	if !ok {
		ent = &entry{}
		r.entries[id] = ent
	}
	r.mu.Unlock()

	ent.once.Do(func() {
		ent.handle, ent.err = load()
	})
	return ent.handle, ent.err
}

func (r *Registry) Loaded(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.entries[id]
	return ok
}
