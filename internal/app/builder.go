package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/toolhive-schema-sync/internal/api"
	"github.com/stacklok/toolhive-schema-sync/internal/app/storage"
	"github.com/stacklok/toolhive-schema-sync/internal/config"
	"github.com/stacklok/toolhive-schema-sync/internal/inventory"
	"github.com/stacklok/toolhive-schema-sync/internal/publish"
	"github.com/stacklok/toolhive-schema-sync/internal/schema"
	"github.com/stacklok/toolhive-schema-sync/internal/source"
	"github.com/stacklok/toolhive-schema-sync/internal/store"
	pkgsync "github.com/stacklok/toolhive-schema-sync/internal/sync"
	"github.com/stacklok/toolhive-schema-sync/internal/sync/coordinator"
	"github.com/stacklok/toolhive-schema-sync/internal/telemetry"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second

	instrumentationName = "github.com/stacklok/toolhive-schema-sync"
)

// SyncAppOptions is a function that configures the schema sync app builder
type SyncAppOptions func(*syncAppConfig) error

type syncAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	store store.Store

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	telemetry *telemetry.Telemetry
	logger    *slog.Logger
}

func baseConfig(opts ...SyncAppOptions) (*syncAppConfig, error) {
	cfg := &syncAppConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.address == "" {
		cfg.address = cfg.config.GetServerAddress()
	}
	return cfg, nil
}

// NewSyncApp wires the store, publisher, orchestrator, model source,
// coordinator and HTTP server described by the configuration
func NewSyncApp(ctx context.Context, opts ...SyncAppOptions) (*SyncApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	if cfg.store == nil {
		cfg.store, err = storage.NewStore(ctx, cfg.config, cfg.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
	}

	components := &AppComponents{Store: cfg.store}
	cleanupNeeded := true
	defer func() {
		if !cleanupNeeded {
			return
		}
		if components.Watcher != nil {
			_ = components.Watcher.Stop()
		}
		if components.Publisher != nil {
			_ = components.Publisher.Close()
		}
		_ = cfg.store.Close()
	}()

	if err := buildPublishComponents(ctx, cfg, components); err != nil {
		return nil, fmt.Errorf("failed to build publish components: %w", err)
	}

	if err := buildSyncComponents(cfg, components); err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	httpServer, err := buildHTTPServer(cfg, components)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	cleanupNeeded = false
	return &SyncApp{
		config:     cfg.config,
		components: components,
		httpServer: httpServer,
		logger:     cfg.logger,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress overrides the configured HTTP server address
func WithAddress(addr string) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		switch host {
		case "localhost":
			host = "127.0.0.1"
		case "":
			host = "0.0.0.0"
		}
		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithStore injects the shared store instead of opening the configured one.
// The app takes ownership and closes it on Stop.
func WithStore(st store.Store) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.store = st
		return nil
	}
}

// WithTelemetry sets the telemetry providers used for metrics and spans
func WithTelemetry(t *telemetry.Telemetry) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.telemetry = t
		return nil
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		if logger != nil {
			cfg.logger = logger
		}
		return nil
	}
}

// buildPublishComponents builds the publisher and the orchestrator
func buildPublishComponents(ctx context.Context, b *syncAppConfig, c *AppComponents) error {
	b.logger.Info("Initializing publish components", "node", b.config.GetNodeName())

	publishOpts := []publish.Option{publish.WithLogger(b.logger)}
	orchestratorOpts := []pkgsync.Option{pkgsync.WithLogger(b.logger)}

	if b.telemetry != nil {
		tracer := b.telemetry.TracerProvider().Tracer(instrumentationName)
		publishOpts = append(publishOpts, publish.WithTracer(tracer))
		orchestratorOpts = append(orchestratorOpts, pkgsync.WithTracer(tracer))

		publishMetrics, err := telemetry.NewPublishMetrics(b.telemetry.MeterProvider())
		if err != nil {
			return fmt.Errorf("failed to create publish metrics: %w", err)
		}
		syncMetrics, err := telemetry.NewSyncMetrics(b.telemetry.MeterProvider())
		if err != nil {
			return fmt.Errorf("failed to create sync metrics: %w", err)
		}
		publishOpts = append(publishOpts, publish.WithMetrics(publishMetrics))
		orchestratorOpts = append(orchestratorOpts, pkgsync.WithMetrics(syncMetrics))
	}

	publisher, err := publish.NewFromStore(ctx, c.Store, publishOpts...)
	if err != nil {
		return err
	}
	c.Publisher = publisher

	orchestrator, err := pkgsync.NewOrchestrator(schema.NewRegistry(), inventory.NewMapper(), publisher, orchestratorOpts...)
	if err != nil {
		return err
	}
	c.Orchestrator = orchestrator

	b.logger.Info("Publish components initialized", "chain_id", publisher.ChainID())
	return nil
}

// buildSyncComponents builds the model source, the optional file watcher and
// the coordinator
func buildSyncComponents(b *syncAppConfig, c *AppComponents) error {
	src := &b.config.Source

	fileSource, err := source.NewFileSource(src.Path)
	if err != nil {
		return err
	}
	c.Source = fileSource

	coordOpts := []coordinator.Option{
		coordinator.WithResyncInterval(src.GetResyncInterval()),
		coordinator.WithRepublishInterval(src.GetRepublishInterval()),
		coordinator.WithLogger(b.logger),
	}

	if src.Watch {
		watcher, err := source.NewWatcher(source.WatcherConfig{
			Path:     src.Path,
			Debounce: src.GetDebounce(),
			Logger:   b.logger,
		})
		if err != nil {
			return err
		}
		c.Watcher = watcher

		changes, err := watcher.Start()
		if err != nil {
			return err
		}
		coordOpts = append(coordOpts, coordinator.WithChangeNotifications(changes))
	}

	c.SyncCoordinator = coordinator.New(fileSource, c.Orchestrator, c.Orchestrator.Tracker(), coordOpts...)
	b.logger.Info("Sync components initialized",
		"source", fileSource.Path(),
		"watch", src.Watch,
		"resync_interval", src.GetResyncInterval(),
	)
	return nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(b *syncAppConfig, c *AppComponents) (*http.Server, error) {
	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	var serverOpts []api.ServerOption
	if b.telemetry != nil {
		httpMetrics, err := telemetry.NewHTTPMetrics(b.telemetry.MeterProvider())
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
		}
		// metrics and tracing wrap everything else so rejected requests are seen too
		b.middlewares = append([]func(http.Handler) http.Handler{
			httpMetrics.Middleware,
			telemetry.TracingMiddleware(b.telemetry.TracerProvider()),
		}, b.middlewares...)
		serverOpts = append(serverOpts, api.WithMetricsHandler(b.telemetry.MetricsHandler()))
	}
	serverOpts = append(serverOpts, api.WithMiddlewares(b.middlewares...))

	router := api.NewServer(api.Dependencies{
		Models:  c.Orchestrator.Registry(),
		Status:  c.Orchestrator.Tracker(),
		Records: c.Store,
		Trigger: c.SyncCoordinator,
	}, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	b.logger.Info("HTTP server configured", "address", b.address)
	return server, nil
}
