package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stacklok/toolhive-schema-sync/internal/store"
	"github.com/stacklok/toolhive-schema-sync/internal/telemetry"
)

// Classification is the resolver's verdict on one submit outcome.
type Classification int

const (
	// ClassCommitted means the write landed
	ClassCommitted Classification = iota
	// ClassBenignConflict means a peer already wrote the record and the conflict was suppressed
	ClassBenignConflict
	// ClassFatalFailure means the write failed and the failure is surfaced to the caller
	ClassFatalFailure
)

// String returns the classification name used in logs, metrics and status
func (c Classification) String() string {
	switch c {
	case ClassCommitted:
		return "committed"
	case ClassBenignConflict:
		return "benign_conflict"
	case ClassFatalFailure:
		return "fatal_failure"
	default:
		return fmt.Sprintf("classification(%d)", int(c))
	}
}

// Succeeded reports whether the caller should treat the publication as successful
func (c Classification) Succeeded() bool {
	return c == ClassCommitted || c == ClassBenignConflict
}

// WriteFailureError is a write failure surfaced to the caller. Cause is the
// original store error.
type WriteFailureError struct {
	Location store.Location
	Cause    error
}

// Error implements the error interface
func (e *WriteFailureError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Location, e.Cause)
}

// Unwrap returns the original cause
func (e *WriteFailureError) Unwrap() error {
	return e.Cause
}

// IsBenignConflict reports whether cause is a write conflict caused by another
// writer modifying the same location. Deadlocks and every other failure are
// not benign.
func IsBenignConflict(cause error) bool {
	var conflict *store.ConflictError
	return errors.As(cause, &conflict) && conflict.Reason == store.ReasonConcurrentModification
}

// Decision is the result of resolving one outcome. Chain is the chain the
// publisher must use from now on; it only differs from the input chain after
// a reset.
type Decision struct {
	Classification Classification
	Chain          store.TransactionChain
	Err            error

	// NeedsReset is set when the reset after a benign conflict failed and
	// Chain still refuses further transactions. The publisher retries the
	// reset before its next write.
	NeedsReset bool
}

// ConflictResolver turns submit outcomes into decisions. A write that lost
// against a concurrent write of another node is reported as success and is
// not retried; cooperating nodes derive identical records from the same
// model. The conflicted chain is replaced. Every other failure is surfaced
// unchanged with the chain left as it is.
type ConflictResolver struct {
	logger  *slog.Logger
	metrics *telemetry.PublishMetrics
}

// NewConflictResolver creates a resolver. Both arguments may be nil.
func NewConflictResolver(logger *slog.Logger, metrics *telemetry.PublishMetrics) *ConflictResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConflictResolver{logger: logger, metrics: metrics}
}

// Resolve classifies outcome for the write at loc submitted on chain.
func (r *ConflictResolver) Resolve(
	ctx context.Context,
	loc store.Location,
	outcome store.Outcome,
	chain store.TransactionChain,
) Decision {
	switch {
	case outcome.Status == store.StatusCommitted:
		return Decision{Classification: ClassCommitted, Chain: chain}

	case outcome.Status == store.StatusConflict && IsBenignConflict(outcome.Cause):
		attrs := []any{
			"location", loc,
			"chain_id", chain.ID(),
			"error", outcome.Cause,
		}
		var conflict *store.ConflictError
		if errors.As(outcome.Cause, &conflict) && conflict.Writer != "" {
			attrs = append(attrs, "writer", conflict.Writer)
		}
		r.logger.Warn("Ignoring that another cluster node is already putting the same data to the store", attrs...)
		r.metrics.RecordSuppressedConflict(ctx, string(loc))

		next, err := chain.Reset(ctx)
		r.metrics.RecordChainReset(ctx, err == nil)
		if err != nil {
			return Decision{
				Classification: ClassFatalFailure,
				Chain:          chain,
				NeedsReset:     true,
				Err: &WriteFailureError{
					Location: loc,
					Cause:    fmt.Errorf("failed to reset transaction chain after conflict: %w", errors.Join(err, outcome.Cause)),
				},
			}
		}
		return Decision{Classification: ClassBenignConflict, Chain: next}

	default:
		cause := outcome.Cause
		if cause == nil {
			cause = fmt.Errorf("submit ended with status %s", outcome.Status)
		}
		return Decision{
			Classification: ClassFatalFailure,
			Chain:          chain,
			Err:            &WriteFailureError{Location: loc, Cause: cause},
		}
	}
}
