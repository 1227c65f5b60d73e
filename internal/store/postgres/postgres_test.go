package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/toolhive-schema-sync/database"
	"github.com/stacklok/toolhive-schema-sync/internal/store"
)

func TestClassifyError(t *testing.T) {
	t.Parallel()

	w := store.Write{Location: "/a:b", Expected: 4}
	plain := errors.New("connection reset")

	tests := []struct {
		name       string
		err        error
		wantReason store.ConflictReason
		conflict   bool
	}{
		{
			name:       "serialization failure",
			err:        fmt.Errorf("commit: %w", &pgconn.PgError{Code: codeSerializationFailure}),
			wantReason: store.ReasonConcurrentModification,
			conflict:   true,
		},
		{
			name:       "unique violation",
			err:        &pgconn.PgError{Code: codeUniqueViolation},
			wantReason: store.ReasonConcurrentModification,
			conflict:   true,
		},
		{
			name:       "deadlock",
			err:        &pgconn.PgError{Code: codeDeadlockDetected},
			wantReason: store.ReasonDeadlock,
			conflict:   true,
		},
		{
			name: "other postgres error",
			err:  &pgconn.PgError{Code: "42P01"},
		},
		{
			name: "non postgres error",
			err:  plain,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := classifyError(w, tt.err)
			var conflict *store.ConflictError
			if !tt.conflict {
				assert.False(t, errors.As(got, &conflict))
				assert.ErrorIs(t, got, tt.err)
				return
			}
			require.ErrorAs(t, got, &conflict)
			assert.Equal(t, tt.wantReason, conflict.Reason)
			assert.Equal(t, w.Location, conflict.Location)
			assert.Equal(t, uint64(4), conflict.Expected)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassifyError_KeepsExistingConflict(t *testing.T) {
	t.Parallel()

	existing := &store.ConflictError{Location: "/x:y", Actual: 9}
	got := classifyError(store.Write{Location: "/other"}, existing)
	assert.Same(t, existing, got)
}

func TestNew_RequiresPool(t *testing.T) {
	t.Parallel()
	_, err := New(nil)
	require.Error(t, err)
}

func TestBackend_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	t.Parallel()

	ctx := context.Background()
	pool, _ := database.SetupTestDB(t)
	backend, err := New(pool)
	require.NoError(t, err)

	loc := store.Location("/ietf-yang-library:modules-state")
	payload := []byte(`{"ietf-yang-library:modules-state":{"module-set-id":"1"}}`)

	t.Run("insert then read", func(t *testing.T) {
		committed, err := backend.Apply(ctx, store.Writer{Node: "node-a", Chain: "c1"},
			[]store.Write{{Location: loc, Kind: "ietf-yang-library:modules-state", Payload: payload}})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), committed[loc])

		rec, err := backend.Get(ctx, loc)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), rec.Revision)
		assert.Equal(t, "node-a", rec.WriterNode)
		assert.JSONEq(t, string(payload), string(rec.Payload))

		revs, err := backend.Revisions(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), revs[loc])
	})

	t.Run("stale insert conflicts", func(t *testing.T) {
		_, err := backend.Apply(ctx, store.Writer{Node: "node-b", Chain: "c2"},
			[]store.Write{{Location: loc, Kind: "k", Payload: payload}})
		var conflict *store.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, store.ReasonConcurrentModification, conflict.Reason)
		assert.Equal(t, uint64(1), conflict.Actual)
		assert.Equal(t, "node-a", conflict.Writer)
	})

	t.Run("update at expected revision", func(t *testing.T) {
		committed, err := backend.Apply(ctx, store.Writer{Node: "node-b", Chain: "c2"},
			[]store.Write{{Location: loc, Kind: "k", Payload: payload, Expected: 1}})
		require.NoError(t, err)
		assert.Equal(t, uint64(2), committed[loc])
	})

	t.Run("racing updates commit once", func(t *testing.T) {
		const writers = 8
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := backend.Apply(ctx, store.Writer{Node: fmt.Sprintf("peer-%d", i)},
					[]store.Write{{Location: loc, Kind: "k", Payload: payload, Expected: 2}})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		var ok int
		for err := range errs {
			if err == nil {
				ok++
				continue
			}
			var conflict *store.ConflictError
			require.ErrorAs(t, err, &conflict)
		}
		assert.Equal(t, 1, ok)

		rec, err := backend.Get(ctx, loc)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), rec.Revision)
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := backend.Get(ctx, "/missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}
