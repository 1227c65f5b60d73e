// Package postgres implements the shared record store on PostgreSQL. Every
// cluster node connects to the same database; writes run in serializable
// transactions guarded by per-location revisions.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/toolhive-schema-sync/internal/store"
)

// SQLSTATE codes that mean another writer got there first
const (
	codeSerializationFailure = "40001"
	codeUniqueViolation      = "23505"
	codeDeadlockDetected     = "40P01"
)

const defaultConnectTimeout = 30 * time.Second

// Backend is a store.Backend over a pgx pool.
type Backend struct {
	pool *pgxpool.Pool
}

// New wraps an existing pool. The caller keeps ownership of the pool only if
// it never calls Close on the Backend.
func New(pool *pgxpool.Pool) (*Backend, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	return &Backend{pool: pool}, nil
}

// Open connects to connString, retrying the initial ping with exponential
// backoff so the service can start before the database is reachable.
func Open(ctx context.Context, connString string, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, pool.Ping(ctx)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(defaultConnectTimeout),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn("Database not reachable yet, retrying", "error", err, "retry_in", next)
		}),
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Backend{pool: pool}, nil
}

// Revisions implements store.Backend
func (b *Backend) Revisions(ctx context.Context) (map[store.Location]uint64, error) {
	rows, err := b.pool.Query(ctx, `SELECT location, revision FROM published_record`)
	if err != nil {
		return nil, fmt.Errorf("failed to query revisions: %w", err)
	}
	defer rows.Close()

	out := make(map[store.Location]uint64)
	for rows.Next() {
		var loc string
		var rev int64
		if err := rows.Scan(&loc, &rev); err != nil {
			return nil, fmt.Errorf("failed to scan revision: %w", err)
		}
		out[store.Location(loc)] = uint64(rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read revisions: %w", err)
	}
	return out, nil
}

// Apply implements store.Backend. All writes share one serializable transaction.
func (b *Backend) Apply(ctx context.Context, writer store.Writer, writes []store.Write) (map[store.Location]uint64, error) {
	tx, err := b.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			slog.Debug("Failed to roll back transaction", "error", rollbackErr)
		}
	}()

	committed := make(map[store.Location]uint64, len(writes))
	for _, w := range writes {
		if err := applyWrite(ctx, tx, writer, w); err != nil {
			return nil, classifyError(w, err)
		}
		committed[w.Location] = w.Expected + 1
	}

	if err := tx.Commit(ctx); err != nil {
		// serialization failures may only surface at commit time
		var first store.Write
		if len(writes) > 0 {
			first = writes[0]
		}
		return nil, classifyError(first, fmt.Errorf("failed to commit transaction: %w", err))
	}
	return committed, nil
}

func applyWrite(ctx context.Context, tx pgx.Tx, writer store.Writer, w store.Write) error {
	var (
		tag pgconn.CommandTag
		err error
	)
	if w.Expected == 0 {
		tag, err = tx.Exec(ctx, `
			INSERT INTO published_record (location, kind, payload, revision, writer_node, writer_chain, updated_at)
			VALUES ($1, $2, $3, 1, $4, $5, now())
			ON CONFLICT (location) DO NOTHING`,
			string(w.Location), w.Kind, w.Payload, writer.Node, writer.Chain)
	} else {
		tag, err = tx.Exec(ctx, `
			UPDATE published_record
			SET kind = $2, payload = $3, revision = revision + 1,
			    writer_node = $4, writer_chain = $5, updated_at = now()
			WHERE location = $1 AND revision = $6`,
			string(w.Location), w.Kind, w.Payload, writer.Node, writer.Chain, int64(w.Expected))
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	conflict := &store.ConflictError{
		Location: w.Location,
		Reason:   store.ReasonConcurrentModification,
		Expected: w.Expected,
	}
	var rev int64
	err = tx.QueryRow(ctx, `SELECT revision, writer_node FROM published_record WHERE location = $1`,
		string(w.Location)).Scan(&rev, &conflict.Writer)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		conflict.Err = err
	}
	conflict.Actual = uint64(rev)
	return conflict
}

// classifyError maps Postgres errors raised by a competing writer to store conflicts.
func classifyError(w store.Write, err error) error {
	var conflict *store.ConflictError
	if errors.As(err, &conflict) {
		return err
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeUniqueViolation:
		return &store.ConflictError{
			Location: w.Location,
			Reason:   store.ReasonConcurrentModification,
			Expected: w.Expected,
			Err:      err,
		}
	case codeDeadlockDetected:
		return &store.ConflictError{
			Location: w.Location,
			Reason:   store.ReasonDeadlock,
			Expected: w.Expected,
			Err:      err,
		}
	default:
		return err
	}
}

// Get implements store.Backend
func (b *Backend) Get(ctx context.Context, loc store.Location) (*store.Record, error) {
	rec := store.Record{Location: loc}
	var rev int64
	err := b.pool.QueryRow(ctx, `
		SELECT kind, payload, revision, writer_node, writer_chain, updated_at
		FROM published_record WHERE location = $1`, string(loc)).
		Scan(&rec.Kind, &rec.Payload, &rev, &rec.WriterNode, &rec.WriterChain, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record %s: %w", loc, err)
	}
	rec.Revision = uint64(rev)
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return &rec, nil
}

// Close implements store.Backend
func (b *Backend) Close() error {
	b.pool.Close()
	return nil
}
