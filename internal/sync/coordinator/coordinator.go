package coordinator

import (
	"context"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/stacklok/toolhive-schema-sync/internal/schema"
	"github.com/stacklok/toolhive-schema-sync/internal/source"
	"github.com/stacklok/toolhive-schema-sync/internal/status"
	pkgsync "github.com/stacklok/toolhive-schema-sync/internal/sync"
)

//go:generate mockgen -destination=mocks/mock_coordinator.go -package=mocks -source=coordinator.go ModelSource,ModelUpdater

// ModelSource reads the schema model
type ModelSource interface {
	Fetch(ctx context.Context) (*source.FetchResult, error)
	CurrentHash(ctx context.Context) (string, error)
}

// ModelUpdater accepts a new model and publishes it
type ModelUpdater interface {
	OnModelUpdated(ctx context.Context, model *schema.Model) (*pkgsync.Report, error)
}

// Coordinator drives model updates from the model source
type Coordinator interface {
	// Start reads and publishes the model, then keeps checking the source
	// until the context is cancelled or Stop is called. It blocks.
	Start(ctx context.Context) error

	// Stop gracefully stops the coordinator
	Stop() error

	// Trigger requests a sync that republishes the model even if the source
	// has not changed. It does not block.
	Trigger()
}

type defaultCoordinator struct {
	source  ModelSource
	updater ModelUpdater
	tracker *status.Tracker
	decider *pkgsync.Decider

	resyncInterval    time.Duration
	republishInterval time.Duration
	changes           <-chan struct{}
	trigger           chan struct{}
	logger            *slog.Logger

	// Lifecycle management
	mu         gosync.Mutex
	cancelFunc context.CancelFunc
	done       chan struct{}
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithResyncInterval sets how often the source is checked without file events
func WithResyncInterval(interval time.Duration) Option {
	return func(c *defaultCoordinator) {
		if interval > 0 {
			c.resyncInterval = interval
		}
	}
}

// WithRepublishInterval republishes an unchanged model once the interval has
// passed since the last publication
func WithRepublishInterval(interval time.Duration) Option {
	return func(c *defaultCoordinator) {
		c.republishInterval = interval
	}
}

// WithChangeNotifications makes every signal on changes trigger a source check
func WithChangeNotifications(changes <-chan struct{}) Option {
	return func(c *defaultCoordinator) {
		c.changes = changes
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *defaultCoordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a new coordinator. tracker must be the tracker the updater
// reports to, since sync decisions are taken from it.
func New(src ModelSource, updater ModelUpdater, tracker *status.Tracker, opts ...Option) Coordinator {
	c := &defaultCoordinator{
		source:         src,
		updater:        updater,
		tracker:        tracker,
		resyncInterval: defaultResyncInterval,
		trigger:        make(chan struct{}, 1),
		logger:         slog.Default(),
		done:           make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.decider = pkgsync.NewDecider(
		pkgsync.NewDataChangeDetector(src),
		pkgsync.NewAutomaticSyncChecker(c.republishInterval),
		c.logger,
	)

	return c
}

// Start begins background sync coordination
func (c *defaultCoordinator) Start(ctx context.Context) error {
	c.logger.Info("Starting model sync coordinator", "resync_interval", c.resyncInterval)

	coordCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelFunc = cancel
	c.mu.Unlock()
	defer func() {
		cancel()
		close(c.done)
		c.logger.Info("Model sync coordinator shutting down")
	}()

	c.checkSync(coordCtx, "initial", false)

	ticker := time.NewTicker(calculatePollingInterval(c.resyncInterval))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.checkSync(coordCtx, "periodic", false)
			ticker.Reset(calculatePollingInterval(c.resyncInterval))
		case <-c.changes:
			c.checkSync(coordCtx, "file-change", false)
		case <-c.trigger:
			c.checkSync(coordCtx, "manual", true)
		case <-coordCtx.Done():
			c.logger.Info("Model sync coordinator stopping")
			return nil
		}
	}
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	cancel := c.cancelFunc
	c.mu.Unlock()

	if cancel != nil {
		c.logger.Info("Stopping model sync coordinator")
		cancel()
		<-c.done
	}
	return nil
}

// Trigger requests a manual sync
func (c *defaultCoordinator) Trigger() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}
