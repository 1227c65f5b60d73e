package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/toolhive-schema-sync/internal/datatree"
	"github.com/stacklok/toolhive-schema-sync/internal/inventory"
	"github.com/stacklok/toolhive-schema-sync/internal/otel"
	"github.com/stacklok/toolhive-schema-sync/internal/publish"
	"github.com/stacklok/toolhive-schema-sync/internal/schema"
	"github.com/stacklok/toolhive-schema-sync/internal/status"
	"github.com/stacklok/toolhive-schema-sync/internal/store"
	"github.com/stacklok/toolhive-schema-sync/internal/telemetry"
)

//go:generate mockgen -destination=mocks/mock_publisher.go -package=mocks -source=orchestrator.go Publisher

// ErrInvalidModel is returned when a model update carries no model.
var ErrInvalidModel = fmt.Errorf("%w: model is required", schema.ErrInvalidModel)

// Publisher writes one tree to the shared store.
type Publisher interface {
	Publish(ctx context.Context, tree datatree.Tree) (*publish.Result, error)
}

// RecordReport is the outcome of publishing one record for a model update.
// Result is nil when Err is set.
type RecordReport struct {
	Location store.Location
	Result   *publish.Result
	Err      error
}

// Report describes what one model update published.
type Report struct {
	Generation   schema.Generation
	Library      RecordReport
	Capabilities RecordReport
	Phase        status.SyncPhase
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTracer sets the tracer used for model update spans
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = tracer
	}
}

// WithMetrics sets the model update metrics. nil disables metrics.
func WithMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(o *Orchestrator) {
		o.metrics = metrics
	}
}

// WithTracker sets the status tracker updates are reported to
func WithTracker(tracker *status.Tracker) Option {
	return func(o *Orchestrator) {
		if tracker != nil {
			o.tracker = tracker
		}
	}
}

// Orchestrator handles model update events: it stores the model, assigns it
// a generation and publishes the derived records. Updates are expected to
// arrive one at a time.
type Orchestrator struct {
	registry  *schema.Registry
	mapper    inventory.Mapper
	publisher Publisher

	tracker *status.Tracker
	metrics *telemetry.SyncMetrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(
	registry *schema.Registry,
	mapper inventory.Mapper,
	publisher Publisher,
	opts ...Option,
) (*Orchestrator, error) {
	if registry == nil {
		return nil, fmt.Errorf("schema registry is required")
	}
	if mapper == nil {
		return nil, fmt.Errorf("inventory mapper is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}

	o := &Orchestrator{
		registry:  registry,
		mapper:    mapper,
		publisher: publisher,
		tracker:   status.NewTracker(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Tracker returns the status tracker updates are reported to
func (o *Orchestrator) Tracker() *status.Tracker {
	return o.tracker
}

// Registry returns the schema registry the orchestrator updates
func (o *Orchestrator) Registry() *schema.Registry {
	return o.registry
}

// OnModelUpdated accepts model as the current model and publishes the module
// library and the capabilities records. The two records are published
// independently: a failure of the first does not prevent the second. The
// returned error is the failure of a single record unchanged, or both joined.
// The report is returned whenever the model was accepted.
func (o *Orchestrator) OnModelUpdated(ctx context.Context, model *schema.Model) (*Report, error) {
	if model == nil {
		return nil, ErrInvalidModel
	}

	ctx, span := otel.StartSpan(ctx, o.tracer, "sync.OnModelUpdated",
		trace.WithAttributes(otel.AttrModuleCount.Int(model.Len())),
	)
	defer span.End()
	start := time.Now()

	gen := o.registry.Update(model)
	span.SetAttributes(otel.AttrGeneration.Int64(int64(gen)))
	o.tracker.RecordModel(uint64(gen), model.Digest(), model.Len())

	report := &Report{Generation: gen}

	libraryTree, err := o.mapper.LibraryTree(model, gen)
	report.Library = o.publish(ctx, store.LocationOfKind(inventory.LibraryKind), libraryTree, err)

	monitoring := model.FindModule(schema.MonitoringModuleName)
	capabilitiesTree, err := o.mapper.CapabilitiesTree(monitoring)
	report.Capabilities = o.publish(ctx, store.LocationOfKind(inventory.CapabilitiesKind), capabilitiesTree, err)

	var errs []error
	for _, rec := range []RecordReport{report.Library, report.Capabilities} {
		if rec.Err != nil {
			errs = append(errs, rec.Err)
		}
	}

	var updateErr error
	switch len(errs) {
	case 0:
		report.Phase = status.SyncPhaseComplete
	case 1:
		report.Phase = status.SyncPhasePartial
		updateErr = errs[0]
	default:
		report.Phase = status.SyncPhaseFailed
		updateErr = errors.Join(errs...)
	}

	message := ""
	if updateErr != nil {
		message = updateErr.Error()
	}
	o.tracker.Complete(report.Phase, message)
	o.metrics.RecordUpdate(ctx, uint64(gen), model.Len(), string(report.Phase), time.Since(start))
	otel.RecordError(span, updateErr)

	if updateErr != nil {
		o.logger.Error("Model update was not fully published",
			"generation", uint64(gen),
			"phase", report.Phase,
			"error", updateErr,
		)
	} else {
		o.logger.Info("Model update published",
			"generation", uint64(gen),
			"modules", model.Len(),
			"library", report.Library.Result.Classification.String(),
			"capabilities", report.Capabilities.Result.Classification.String(),
			"duration", time.Since(start),
		)
	}

	return report, updateErr
}

// publish writes one mapped tree. mapErr is the mapper's error for the tree,
// reported unchanged.
func (o *Orchestrator) publish(ctx context.Context, loc store.Location, tree datatree.Tree, mapErr error) RecordReport {
	rec := RecordReport{Location: loc}
	pub := status.Publication{Location: string(loc)}

	switch {
	case mapErr != nil:
		rec.Err = mapErr
	case tree == nil:
		rec.Err = fmt.Errorf("mapper returned no tree for %s", loc)
	default:
		rec.Location = store.LocationOf(tree)
		pub.Location = string(rec.Location)
		rec.Result, rec.Err = o.publisher.Publish(ctx, tree)
		if rec.Result == nil && rec.Err == nil {
			rec.Err = fmt.Errorf("publisher returned no result for %s", rec.Location)
		}
	}

	if rec.Result != nil {
		pub.Classification = rec.Result.Classification.String()
		pub.ChainID = rec.Result.ChainID
		pub.Succeeded = true
		pub.Suppressed = rec.Result.Classification == publish.ClassBenignConflict
	} else {
		pub.Classification = publish.ClassFatalFailure.String()
		pub.Err = rec.Err
	}
	o.tracker.RecordPublication(pub)
	return rec
}
