// Package publish writes derived metadata trees to the shared store through a
// transaction chain and resolves write conflicts with peer nodes.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/toolhive-schema-sync/internal/datatree"
	"github.com/stacklok/toolhive-schema-sync/internal/otel"
	"github.com/stacklok/toolhive-schema-sync/internal/store"
	"github.com/stacklok/toolhive-schema-sync/internal/telemetry"
)

// Result describes one publication that the caller may treat as successful.
type Result struct {
	Location       store.Location
	Classification Classification
	// ChainID is the chain the write was submitted on
	ChainID string
	// Cause is the suppressed conflict for ClassBenignConflict results
	Cause error
}

// Option configures a Publisher
type Option func(*Publisher)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTracer sets the tracer used for publish spans
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Publisher) {
		p.tracer = tracer
	}
}

// WithMetrics sets the publish metrics. nil disables metrics.
func WithMetrics(metrics *telemetry.PublishMetrics) Option {
	return func(p *Publisher) {
		p.metrics = metrics
	}
}

// Publisher owns the active transaction chain. Publish calls are serialized
// so writes keep their order on the chain and a reset is seen by the next call.
type Publisher struct {
	mu         sync.Mutex
	chain      store.TransactionChain
	needsReset bool

	resolver *ConflictResolver
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *telemetry.PublishMetrics
}

// New creates a Publisher that writes on chain.
func New(chain store.TransactionChain, opts ...Option) (*Publisher, error) {
	if chain == nil {
		return nil, fmt.Errorf("transaction chain is required")
	}
	p := &Publisher{
		chain:  chain,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.resolver = NewConflictResolver(p.logger, p.metrics)
	return p, nil
}

// NewFromStore opens a chain on st and creates a Publisher for it.
func NewFromStore(ctx context.Context, st store.Store, opts ...Option) (*Publisher, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	chain, err := st.NewChain(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open transaction chain: %w", err)
	}
	return New(chain, opts...)
}

// ChainID returns the ID of the active chain
func (p *Publisher) ChainID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chain.ID()
}

// Publish writes tree at the location derived from its kind. It returns a
// Result when the write committed or lost against an equivalent peer write,
// and a *WriteFailureError otherwise.
func (p *Publisher) Publish(ctx context.Context, tree datatree.Tree) (*Result, error) {
	if tree == nil {
		return nil, fmt.Errorf("tree is required")
	}
	loc := store.LocationOf(tree)

	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, span := otel.StartSpan(ctx, p.tracer, "publish.Publish",
		trace.WithAttributes(otel.AttrLocation.String(string(loc))),
	)
	defer span.End()
	start := time.Now()

	result, err := p.publishLocked(ctx, loc, tree)

	// a failed write leaves the chain in place
	submittedOn := p.chain.ID()
	classification := ClassFatalFailure
	if result != nil {
		classification = result.Classification
		submittedOn = result.ChainID
	}
	span.SetAttributes(
		otel.AttrClassification.String(classification.String()),
		otel.AttrChainID.String(submittedOn),
	)
	otel.RecordError(span, err)
	p.metrics.RecordPublish(ctx, string(loc), classification.String(), time.Since(start))

	return result, err
}

func (p *Publisher) publishLocked(ctx context.Context, loc store.Location, tree datatree.Tree) (*Result, error) {
	if p.needsReset {
		next, err := p.chain.Reset(ctx)
		p.metrics.RecordChainReset(ctx, err == nil)
		if err != nil {
			return nil, &WriteFailureError{Location: loc, Cause: fmt.Errorf("failed to reset transaction chain: %w", err)}
		}
		p.logger.Info("Replaced unusable transaction chain", "previous_chain_id", p.chain.ID(), "chain_id", next.ID())
		p.chain = next
		p.needsReset = false
	}

	tx, err := p.chain.NewWriteTransaction()
	if err != nil {
		if errors.Is(err, store.ErrChainClosed) || errors.Is(err, store.ErrChainFailed) {
			p.needsReset = true
		}
		return nil, &WriteFailureError{Location: loc, Cause: fmt.Errorf("failed to open write transaction: %w", err)}
	}
	tx.Put(loc, tree)
	outcome := tx.Submit(ctx)

	submittedOn := p.chain.ID()
	decision := p.resolver.Resolve(ctx, loc, outcome, p.chain)
	if decision.Chain != nil {
		p.chain = decision.Chain
	}
	if decision.NeedsReset {
		p.needsReset = true
	}
	if decision.Err != nil {
		return nil, decision.Err
	}

	p.logger.Debug("Published record",
		"location", loc,
		"classification", decision.Classification.String(),
		"chain_id", submittedOn,
	)
	result := &Result{
		Location:       loc,
		Classification: decision.Classification,
		ChainID:        submittedOn,
	}
	if decision.Classification == ClassBenignConflict {
		result.Cause = outcome.Cause
	}
	return result, nil
}

// Close abandons the active chain
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chain.Close()
}
