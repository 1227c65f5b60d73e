package schema

import "sync/atomic"

// Registry holds the current schema model and the generation counter.
//
// Both live in one immutable snapshot behind an atomic pointer. Readers call
// Get, Generation or Snapshot from any goroutine without locking and see
// either the previous snapshot or the new one, never a partially built value.
type Registry struct {
	state atomic.Pointer[snapshot]
}

type snapshot struct {
	model      *Model
	generation Generation
}

var emptySnapshot = &snapshot{}

// NewRegistry returns an empty registry with no model and generation zero.
func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) load() *snapshot {
	if s := r.state.Load(); s != nil {
		return s
	}
	return emptySnapshot
}

// swap applies next to the current snapshot until no concurrent writer
// interferes, and returns the stored result.
func (r *Registry) swap(next func(cur *snapshot) *snapshot) *snapshot {
	for {
		cur := r.state.Load()
		base := cur
		if base == nil {
			base = emptySnapshot
		}
		updated := next(base)
		if r.state.CompareAndSwap(cur, updated) {
			return updated
		}
	}
}

// Set replaces the current model and keeps the generation.
func (r *Registry) Set(model *Model) {
	r.swap(func(cur *snapshot) *snapshot {
		return &snapshot{model: model, generation: cur.generation}
	})
}

// Get returns the current model, or nil when none has been set.
func (r *Registry) Get() *Model {
	return r.load().model
}

// NextGeneration increments the generation counter and returns the new value.
// Overlapping calls never hand out the same value twice.
func (r *Registry) NextGeneration() Generation {
	return r.swap(func(cur *snapshot) *snapshot {
		return &snapshot{model: cur.model, generation: cur.generation + 1}
	}).generation
}

// Update replaces the model and assigns it the next generation in one step,
// so readers never pair the new model with the previous generation.
func (r *Registry) Update(model *Model) Generation {
	return r.swap(func(cur *snapshot) *snapshot {
		return &snapshot{model: model, generation: cur.generation + 1}
	}).generation
}

// Generation returns the most recently assigned generation, zero if none.
func (r *Registry) Generation() Generation {
	return r.load().generation
}

// Snapshot returns the current model together with the generation it was
// published under.
func (r *Registry) Snapshot() (*Model, Generation) {
	s := r.load()
	return s.model, s.generation
}
