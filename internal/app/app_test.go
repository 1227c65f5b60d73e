package app

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/toolhive-schema-sync/internal/schema"
	"github.com/stacklok/toolhive-schema-sync/internal/status"
	"github.com/stacklok/toolhive-schema-sync/internal/store/memory"
)

const updatedModel = testModel + `  - name: ietf-ip
    revision: "2018-02-22"
    namespace: urn:ietf:params:xml:ns:yang:ietf-ip
`

func TestSyncApp_StartStop(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Source.Watch = true
	cfg.Source.Debounce = "20ms"

	app, err := NewSyncApp(context.Background(),
		WithConfig(cfg),
		WithAddress("127.0.0.1:0"),
		WithStore(memory.NewStore()),
	)
	require.NoError(t, err)
	require.NotNil(t, app.Components().Watcher)

	errCh := make(chan error, 1)
	go func() { errCh <- app.Start(context.Background()) }()

	orchestrator := app.Components().Orchestrator
	require.Eventually(t, func() bool {
		return orchestrator.Tracker().Phase() == status.SyncPhaseComplete
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, schema.Generation(1), orchestrator.Registry().Generation())

	require.NoError(t, os.WriteFile(cfg.Source.Path, []byte(updatedModel), 0600))
	require.Eventually(t, func() bool {
		return orchestrator.Registry().Generation() == 2
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 3, orchestrator.Registry().Get().Len())

	require.NoError(t, app.Stop(5*time.Second))
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
