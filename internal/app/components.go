package app

import (
	"github.com/stacklok/toolhive-schema-sync/internal/publish"
	"github.com/stacklok/toolhive-schema-sync/internal/source"
	"github.com/stacklok/toolhive-schema-sync/internal/store"
	pkgsync "github.com/stacklok/toolhive-schema-sync/internal/sync"
	"github.com/stacklok/toolhive-schema-sync/internal/sync/coordinator"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Store is the shared record store
	Store store.Store

	// Publisher owns this node's transaction chain
	Publisher *publish.Publisher

	// Orchestrator handles model updates
	Orchestrator *pkgsync.Orchestrator

	// Source reads the model file
	Source *source.FileSource

	// Watcher signals model file changes (optional)
	Watcher *source.Watcher

	// SyncCoordinator drives model updates from the source
	SyncCoordinator coordinator.Coordinator
}
