// Package sqlite implements the shared record store on a SQLite database
// file. Several processes on one host can share the file; writes take the
// database lock up front so competing writers serialize instead of failing
// mid-transaction.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/stacklok/toolhive-schema-sync/database"
	"github.com/stacklok/toolhive-schema-sync/internal/store"
)

// Backend is a store.Backend over a SQLite file.
type Backend struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the SQLite store at path and applies the embedded migrations.
func Open(path string) (*Backend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)

	m, err := database.NewSQLiteMigrator(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	migrateErr := database.MigrateUp(m)
	closeErr := database.CloseMigrator(m)
	if err := errors.Join(migrateErr, closeErr); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &Backend{sqlDB: sqlDB}, nil
}

// Revisions implements store.Backend
func (b *Backend) Revisions(ctx context.Context) (map[store.Location]uint64, error) {
	rows, err := b.sqlDB.QueryContext(ctx, `SELECT location, revision FROM published_record`)
	if err != nil {
		return nil, fmt.Errorf("query revisions: %w", err)
	}
	defer rows.Close()

	out := make(map[store.Location]uint64)
	for rows.Next() {
		var loc string
		var rev int64
		if err := rows.Scan(&loc, &rev); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		out[store.Location(loc)] = uint64(rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read revisions: %w", err)
	}
	return out, nil
}

// Apply implements store.Backend
func (b *Backend) Apply(ctx context.Context, writer store.Writer, writes []store.Write) (map[store.Location]uint64, error) {
	tx, err := b.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := toMillis(time.Now())
	committed := make(map[store.Location]uint64, len(writes))
	for _, w := range writes {
		if err := applyWrite(ctx, tx, writer, w, now); err != nil {
			return nil, classifyError(w, err)
		}
		committed[w.Location] = w.Expected + 1
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return committed, nil
}

func applyWrite(ctx context.Context, tx *sql.Tx, writer store.Writer, w store.Write, now int64) error {
	var (
		res sql.Result
		err error
	)
	if w.Expected == 0 {
		res, err = tx.ExecContext(ctx, `
			INSERT INTO published_record (location, kind, payload, revision, writer_node, writer_chain, updated_at)
			VALUES (?, ?, ?, 1, ?, ?, ?)
			ON CONFLICT (location) DO NOTHING`,
			string(w.Location), w.Kind, string(w.Payload), writer.Node, writer.Chain, now)
	} else {
		res, err = tx.ExecContext(ctx, `
			UPDATE published_record
			SET kind = ?, payload = ?, revision = revision + 1,
			    writer_node = ?, writer_chain = ?, updated_at = ?
			WHERE location = ? AND revision = ?`,
			w.Kind, string(w.Payload), writer.Node, writer.Chain, now, string(w.Location), int64(w.Expected))
	}
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	conflict := &store.ConflictError{
		Location: w.Location,
		Reason:   store.ReasonConcurrentModification,
		Expected: w.Expected,
	}
	var rev int64
	err = tx.QueryRowContext(ctx, `SELECT revision, writer_node FROM published_record WHERE location = ?`,
		string(w.Location)).Scan(&rev, &conflict.Writer)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		conflict.Err = err
	}
	conflict.Actual = uint64(rev)
	return conflict
}

// classifyError maps constraint violations from a competing writer to store
// conflicts. A busy database is not a conflict: the write never started.
func classifyError(w store.Write, err error) error {
	var conflict *store.ConflictError
	if errors.As(err, &conflict) {
		return err
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return &store.ConflictError{
				Location: w.Location,
				Reason:   store.ReasonConcurrentModification,
				Expected: w.Expected,
				Err:      err,
			}
		}
	}
	return err
}

// Get implements store.Backend
func (b *Backend) Get(ctx context.Context, loc store.Location) (*store.Record, error) {
	rec := store.Record{Location: loc}
	var (
		payload   string
		rev       int64
		updatedAt int64
	)
	err := b.sqlDB.QueryRowContext(ctx, `
		SELECT kind, payload, revision, writer_node, writer_chain, updated_at
		FROM published_record WHERE location = ?`, string(loc)).
		Scan(&rec.Kind, &payload, &rev, &rec.WriterNode, &rec.WriterChain, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get record %s: %w", loc, err)
	}
	rec.Payload = []byte(payload)
	rec.Revision = uint64(rev)
	rec.UpdatedAt = fromMillis(updatedAt)
	return &rec, nil
}

// Close implements store.Backend
func (b *Backend) Close() error {
	if b == nil || b.sqlDB == nil {
		return nil
	}
	return b.sqlDB.Close()
}
