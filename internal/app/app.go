// Package app provides application lifecycle management for the schema sync service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stacklok/toolhive-schema-sync/internal/config"
	pkgsync "github.com/stacklok/toolhive-schema-sync/internal/sync"
)

// SyncApp encapsulates all components needed to run the schema sync service
type SyncApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server
	logger     *slog.Logger
}

// Start runs the sync coordinator and the HTTP server. It blocks until the
// HTTP server stops or one of them fails.
func (app *SyncApp) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := app.components.SyncCoordinator.Start(gctx); err != nil {
			return fmt.Errorf("sync coordinator failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		app.logger.Info("Server listening", "address", app.httpServer.Addr)
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// PublishOnce reads the model source and publishes it a single time, without
// starting the coordinator or the HTTP server
func (app *SyncApp) PublishOnce(ctx context.Context) (*pkgsync.Report, error) {
	result, err := app.components.Source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read model source: %w", err)
	}
	return app.components.Orchestrator.OnModelUpdated(ctx, result.Model)
}

// Stop stops the coordinator and the watcher, shuts the HTTP server down and
// releases the store
func (app *SyncApp) Stop(timeout time.Duration) error {
	app.logger.Info("Shutting down schema sync service")

	var errs []error
	if err := app.components.SyncCoordinator.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop sync coordinator: %w", err))
	}
	if app.components.Watcher != nil {
		if err := app.components.Watcher.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop model watcher: %w", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
	}

	errs = append(errs, app.Close())

	if err := errors.Join(errs...); err != nil {
		return err
	}
	app.logger.Info("Shutdown complete")
	return nil
}

// Close releases the transaction chain and the store. Stop calls it; callers
// that only used PublishOnce call it directly.
func (app *SyncApp) Close() error {
	var errs []error
	if err := app.components.Publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close transaction chain: %w", err))
	}
	if err := app.components.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close store: %w", err))
	}
	return errors.Join(errs...)
}

// GetConfig returns the application configuration
func (app *SyncApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server
func (app *SyncApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// Components returns the wired components
func (app *SyncApp) Components() *AppComponents {
	return app.components
}
