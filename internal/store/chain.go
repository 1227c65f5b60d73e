package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/stacklok/toolhive-schema-sync/internal/datatree"
)

// Writer identifies who wrote a record.
type Writer struct {
	Node  string
	Chain string
}

// Write is one staged put handed to a Backend.
type Write struct {
	Location Location
	Kind     string
	Payload  []byte
	// Expected is the revision the location must still be at, 0 when it must not exist
	Expected uint64
}

// Backend is the persistence layer behind a Store. Apply must commit all
// writes or none. When a location is not at its expected revision, Apply
// returns a *ConflictError (possibly wrapped).
type Backend interface {
	Revisions(ctx context.Context) (map[Location]uint64, error)
	Apply(ctx context.Context, writer Writer, writes []Write) (map[Location]uint64, error)
	Get(ctx context.Context, loc Location) (*Record, error)
	Close() error
}

// Option configures a Store
type Option func(*backedStore)

// WithNode sets the node name recorded as the writer of committed records
func WithNode(node string) Option {
	return func(s *backedStore) {
		if node != "" {
			s.node = node
		}
	}
}

// WithLogger sets the logger used by the store and its chains
func WithLogger(logger *slog.Logger) Option {
	return func(s *backedStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type backedStore struct {
	backend Backend
	node    string
	logger  *slog.Logger
}

// New returns a Store that runs transaction chains over backend.
func New(backend Backend, opts ...Option) Store {
	s := &backedStore{
		backend: backend,
		node:    "local",
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *backedStore) NewChain(ctx context.Context) (TransactionChain, error) {
	revisions, err := s.backend.Revisions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read store revisions: %w", err)
	}
	if revisions == nil {
		revisions = make(map[Location]uint64)
	}
	c := &chain{
		id:    uuid.NewString(),
		store: s,
		known: revisions,
	}
	s.logger.Debug("Opened transaction chain", "chain_id", c.id, "locations", len(revisions))
	return c, nil
}

func (s *backedStore) Get(ctx context.Context, loc Location) (*Record, error) {
	return s.backend.Get(ctx, loc)
}

func (s *backedStore) Close() error {
	return s.backend.Close()
}

// chain tracks the revisions it observed or wrote. A conflict poisons it
// until it is reset.
type chain struct {
	id    string
	store *backedStore

	mu     sync.Mutex
	known  map[Location]uint64
	open   bool
	closed bool
	failed error
}

func (c *chain) ID() string {
	return c.id
}

func (c *chain) NewWriteTransaction() (WriteTransaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		return nil, ErrChainClosed
	case c.failed != nil:
		return nil, fmt.Errorf("%w: %w", ErrChainFailed, c.failed)
	case c.open:
		return nil, ErrTransactionOpen
	}
	c.open = true
	return &writeTransaction{chain: c, puts: make(map[Location]datatree.Tree)}, nil
}

func (c *chain) Reset(ctx context.Context) (TransactionChain, error) {
	if err := c.Close(); err != nil {
		return nil, err
	}
	next, err := c.store.NewChain(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reset chain %s: %w", c.id, err)
	}
	c.store.logger.Debug("Reset transaction chain", "previous_chain_id", c.id, "chain_id", next.ID())
	return next, nil
}

func (c *chain) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// expected returns the revisions the given locations are expected to be at
func (c *chain) expected(locs []Location) (map[Location]uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.open = false
		return nil, ErrChainClosed
	}
	out := make(map[Location]uint64, len(locs))
	for _, loc := range locs {
		out[loc] = c.known[loc]
	}
	return out, nil
}

func (c *chain) finish(committed map[Location]uint64, err error) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false

	if err == nil {
		maps.Copy(c.known, committed)
		return Committed()
	}

	var conflict *ConflictError
	if errors.As(err, &conflict) {
		// the chain's view of revisions is stale only after a peer write
		if conflict.Reason == ReasonConcurrentModification {
			c.failed = err
		}
		return Conflicted(err)
	}
	return Failed(err)
}

type writeTransaction struct {
	chain *chain
	puts  map[Location]datatree.Tree
	done  bool
}

func (t *writeTransaction) Put(loc Location, tree datatree.Tree) {
	t.puts[loc] = tree
}

func (t *writeTransaction) Submit(ctx context.Context) Outcome {
	if t.done {
		return Failed(ErrTransactionDone)
	}
	t.done = true

	locs := slices.Sorted(maps.Keys(t.puts))
	expected, err := t.chain.expected(locs)
	if err != nil {
		return Failed(err)
	}

	writes := make([]Write, 0, len(locs))
	for _, loc := range locs {
		tree := t.puts[loc]
		payload, err := datatree.Encode(tree)
		if err != nil {
			return t.chain.finish(nil, fmt.Errorf("failed to encode record for %s: %w", loc, err))
		}
		writes = append(writes, Write{
			Location: loc,
			Kind:     tree.Kind().String(),
			Payload:  payload,
			Expected: expected[loc],
		})
	}
	if len(writes) == 0 {
		return t.chain.finish(nil, nil)
	}

	if err := ctx.Err(); err != nil {
		return t.chain.finish(nil, err)
	}

	committed, err := t.chain.store.backend.Apply(ctx, Writer{Node: t.chain.store.node, Chain: t.chain.id}, writes)
	return t.chain.finish(committed, err)
}
