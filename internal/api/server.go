// Package api provides the HTTP API of the schema sync service: probes, the
// sync status of this node, the loaded model and the published records.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/toolhive-schema-sync/internal/schema"
	"github.com/stacklok/toolhive-schema-sync/internal/status"
	"github.com/stacklok/toolhive-schema-sync/internal/store"
)

// ModelReader exposes the current schema model
type ModelReader interface {
	// Snapshot returns the model and the generation it was published under
	Snapshot() (*schema.Model, schema.Generation)
}

// StatusReader exposes the sync status of this node
type StatusReader interface {
	Snapshot() status.SyncStatus
}

// RecordReader reads committed records from the shared store
type RecordReader interface {
	Get(ctx context.Context, loc store.Location) (*store.Record, error)
}

// SyncTrigger requests a republication of the current model
type SyncTrigger interface {
	Trigger()
}

// Dependencies are the components the API reads from. Trigger is optional.
type Dependencies struct {
	Models  ModelReader
	Status  StatusReader
	Records RecordReader
	Trigger SyncTrigger
}

// ServerOption configures the API server
type ServerOption func(*serverConfig)

type serverConfig struct {
	middlewares    []func(http.Handler) http.Handler
	metricsHandler http.Handler
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithMetricsHandler serves h on /metrics. A nil handler leaves the route unset.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metricsHandler = h
	}
}

// NewServer creates the router
func NewServer(deps Dependencies, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	h := &handlers{deps: deps}

	r := chi.NewRouter()
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	r.Get("/health", healthHandler)
	r.Get("/readiness", h.readiness)
	r.Get("/version", versionHandler)
	if cfg.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.metricsHandler)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", h.getStatus)
		r.Get("/model", h.getModel)
		r.Get("/records/{kind}", h.getRecord)
		if deps.Trigger != nil {
			r.Post("/sync", h.triggerSync)
		}
	})

	return r
}

// LoggingMiddleware logs every request at debug level
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.DebugContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
