// Package memory provides an in-process store backend. Chains opened on the
// same Backend behave like independent cluster nodes sharing one store.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/stacklok/toolhive-schema-sync/internal/store"
)

// Backend keeps records in a mutex-guarded map.
type Backend struct {
	mu      sync.RWMutex
	records map[store.Location]store.Record
	now     func() time.Time
}

// New returns an empty Backend.
func New() *Backend {
	return &Backend{
		records: make(map[store.Location]store.Record),
		now:     time.Now,
	}
}

// NewStore returns a store.Store backed by a fresh in-memory Backend.
func NewStore(opts ...store.Option) store.Store {
	return store.New(New(), opts...)
}

// Revisions implements store.Backend
func (b *Backend) Revisions(ctx context.Context) (map[store.Location]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[store.Location]uint64, len(b.records))
	for loc, rec := range b.records {
		out[loc] = rec.Revision
	}
	return out, nil
}

// Apply implements store.Backend
func (b *Backend) Apply(ctx context.Context, writer store.Writer, writes []store.Write) (map[store.Location]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		current := b.records[w.Location]
		if current.Revision != w.Expected {
			return nil, &store.ConflictError{
				Location: w.Location,
				Reason:   store.ReasonConcurrentModification,
				Expected: w.Expected,
				Actual:   current.Revision,
				Writer:   current.WriterNode,
			}
		}
	}

	now := b.now().UTC()
	committed := make(map[store.Location]uint64, len(writes))
	for _, w := range writes {
		rev := w.Expected + 1
		b.records[w.Location] = store.Record{
			Location:    w.Location,
			Kind:        w.Kind,
			Payload:     slices.Clone(w.Payload),
			Revision:    rev,
			WriterNode:  writer.Node,
			WriterChain: writer.Chain,
			UpdatedAt:   now,
		}
		committed[w.Location] = rev
	}
	return committed, nil
}

// Get implements store.Backend
func (b *Backend) Get(ctx context.Context, loc store.Location) (*store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.records[loc]
	if !ok {
		return nil, store.ErrNotFound
	}
	rec.Payload = slices.Clone(rec.Payload)
	return &rec, nil
}

// Locations returns the locations that currently hold a record, sorted.
func (b *Backend) Locations() []store.Location {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Sorted(maps.Keys(b.records))
}

// Close implements store.Backend
func (*Backend) Close() error {
	return nil
}
