// Package store defines the shared operational store that derived schema
// metadata is published to, and the transaction chain abstraction used to
// write it.
//
// Writers never hold locks in the store. Every chain remembers the revision
// of each location it last saw, and a write only commits when the location is
// still at that revision. A peer that wrote first makes the write fail with a
// *ConflictError carrying ReasonConcurrentModification.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/stacklok/toolhive-schema-sync/internal/datatree"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go Store,TransactionChain,WriteTransaction

var (
	// ErrNotFound is returned when no record exists at a location
	ErrNotFound = errors.New("record not found")

	// ErrChainClosed is returned when a closed or reset chain is used
	ErrChainClosed = errors.New("transaction chain is closed")

	// ErrChainFailed is returned when a chain that lost against a concurrent
	// modification is used again.
	// The chain must be reset before further writes.
	ErrChainFailed = errors.New("transaction chain has failed")

	// ErrTransactionOpen is returned when a chain already has an open transaction
	ErrTransactionOpen = errors.New("previous transaction on the chain is still open")

	// ErrTransactionDone is returned when a transaction is submitted twice
	ErrTransactionDone = errors.New("transaction was already submitted")
)

// Location is the path of a record in the shared store.
type Location string

// LocationOf returns the location a tree is written to, derived from its kind.
func LocationOf(tree datatree.Tree) Location {
	return LocationOfKind(tree.Kind())
}

// LocationOfKind returns the location trees of the given kind are written to.
func LocationOfKind(kind datatree.Kind) Location {
	return Location("/" + kind.String())
}

// Record is a committed record as read back from the store.
type Record struct {
	Location    Location  `json:"location"`
	Kind        string    `json:"kind"`
	Payload     []byte    `json:"-"`
	Revision    uint64    `json:"revision"`
	WriterNode  string    `json:"writerNode"`
	WriterChain string    `json:"writerChain"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Store is the shared operational store.
type Store interface {
	// NewChain opens a new transaction chain rooted at the store's current state
	NewChain(ctx context.Context) (TransactionChain, error)

	// Get reads the committed record at a location
	Get(ctx context.Context, loc Location) (*Record, error)

	// Close releases the store's resources
	Close() error
}

// TransactionChain is an ordered sequence of write transactions. At most one
// transaction may be open at a time.
type TransactionChain interface {
	// ID identifies the chain in logs and in the writer column of records
	ID() string

	// NewWriteTransaction opens the next transaction on the chain
	NewWriteTransaction() (WriteTransaction, error)

	// Reset closes the chain and returns a fresh one bound to the same store.
	// Committed data is not affected.
	Reset(ctx context.Context) (TransactionChain, error)

	// Close abandons the chain
	Close() error
}

// WriteTransaction stages puts and submits them atomically.
type WriteTransaction interface {
	// Put stages tree to be written at loc, replacing any earlier put at loc
	Put(loc Location, tree datatree.Tree)

	// Submit commits the staged puts and waits for the outcome
	Submit(ctx context.Context) Outcome
}
