package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	syncapp "github.com/stacklok/toolhive-schema-sync/internal/app"
	"github.com/stacklok/toolhive-schema-sync/internal/config"
	"github.com/stacklok/toolhive-schema-sync/internal/telemetry"
	"github.com/stacklok/toolhive-schema-sync/internal/versions"
)

const (
	defaultGracefulTimeout  = 30 * time.Second
	telemetryShutdownPeriod = 5 * time.Second
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Publish the schema model and keep it in sync",
		Long: `Start the schema sync service. The model file named in the configuration is
published to the shared store on start, and again whenever it changes.

The HTTP server exposes the health probes, the sync status of this node, the
loaded model and the published records.`,
		RunE: runServe,
	}
	cmd.Flags().String("address", "", "Address to listen on (overrides server.address)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(telemetryConfig(cfg)))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownPeriod)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shut down telemetry", "error", err)
		}
	}()

	opts := []syncapp.SyncAppOptions{
		syncapp.WithConfig(cfg),
		syncapp.WithTelemetry(tel),
	}
	if address, _ := cmd.Flags().GetString("address"); address != "" {
		opts = append(opts, syncapp.WithAddress(address))
	}

	app, err := syncapp.NewSyncApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	slog.Info("Starting schema sync service",
		"version", versions.Version,
		"node", cfg.GetNodeName(),
		"store", cfg.GetStoreType(),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- app.Start(ctx) }()

	select {
	case err := <-errCh:
		// failed before any signal, e.g. the address is in use
		if stopErr := app.Stop(defaultGracefulTimeout); stopErr != nil {
			slog.Error("Failed to stop application", "error", stopErr)
		}
		return err
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	}

	if err := app.Stop(defaultGracefulTimeout); err != nil {
		return err
	}
	return <-errCh
}

// telemetryConfig returns the configured telemetry, defaulting the service
// version to the binary version
func telemetryConfig(cfg *config.Config) *telemetry.Config {
	if cfg.Telemetry == nil {
		return nil
	}
	tc := *cfg.Telemetry
	if tc.ServiceVersion == "" {
		tc.ServiceVersion = versions.Version
	}
	return &tc
}
