package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/toolhive-schema-sync/internal/store"
)

func TestBackend_ApplyAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b := New()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return fixed }

	committed, err := b.Apply(ctx, store.Writer{Node: "n1", Chain: "c1"}, []store.Write{
		{Location: "/a:x", Kind: "a:x", Payload: []byte(`{"a:x":{}}`)},
	})
	require.NoError(t, err)
	assert.Equal(t, map[store.Location]uint64{"/a:x": 1}, committed)

	rec, err := b.Get(ctx, "/a:x")
	require.NoError(t, err)
	assert.Equal(t, fixed, rec.UpdatedAt)
	assert.Equal(t, "n1", rec.WriterNode)
	assert.Equal(t, "c1", rec.WriterChain)

	// callers cannot mutate stored payloads
	rec.Payload[0] = 'X'
	again, err := b.Get(ctx, "/a:x")
	require.NoError(t, err)
	assert.Equal(t, `{"a:x":{}}`, string(again.Payload))

	revs, err := b.Revisions(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[store.Location]uint64{"/a:x": 1}, revs)

	_, err = b.Get(ctx, "/missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestBackend_StaleRevisionConflicts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b := New()
	_, err := b.Apply(ctx, store.Writer{Node: "n1"}, []store.Write{{Location: "/a:x", Payload: []byte(`{}`)}})
	require.NoError(t, err)

	_, err = b.Apply(ctx, store.Writer{Node: "n2"}, []store.Write{{Location: "/a:x", Payload: []byte(`{}`), Expected: 0}})
	var conflict *store.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, uint64(1), conflict.Actual)
	assert.Equal(t, "n1", conflict.Writer)
}

func TestBackend_RacingChainsCommitOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b := New()
	const writers = 16

	var wg sync.WaitGroup
	results := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.Apply(ctx, store.Writer{Node: "peer"}, []store.Write{{Location: "/a:x", Payload: []byte(`{}`)}})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var committed, conflicts int
	for err := range results {
		if err == nil {
			committed++
			continue
		}
		var conflict *store.ConflictError
		require.ErrorAs(t, err, &conflict)
		conflicts++
	}
	assert.Equal(t, 1, committed)
	assert.Equal(t, writers-1, conflicts)
}

func TestBackend_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := New()
	_, err := b.Revisions(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = b.Apply(ctx, store.Writer{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = b.Get(ctx, "/a:x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, b.Close())
}
