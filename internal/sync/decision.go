package sync

import (
	"context"
	"log/slog"

	"github.com/stacklok/toolhive-schema-sync/internal/status"
)

// Reason encodes whether a sync is needed and why
type Reason int

// Reasons that indicate a sync is not needed
const (
	ReasonAlreadyInProgress Reason = iota
	ReasonUpToDate
	ReasonErrorCheckingSyncNeed
)

// Reasons that indicate a sync is needed
const (
	ReasonNotReady Reason = iota + 100
	ReasonPreviousSyncIncomplete
	ReasonSourceDataChanged
	ReasonErrorCheckingChanges
	ReasonRepublishIntervalElapsed
	ReasonManual
)

var reasonNames = map[Reason]string{
	ReasonAlreadyInProgress:        "sync-already-in-progress",
	ReasonUpToDate:                 "up-to-date",
	ReasonErrorCheckingSyncNeed:    "error-checking-sync-need",
	ReasonNotReady:                 "no-model-published",
	ReasonPreviousSyncIncomplete:   "previous-sync-incomplete",
	ReasonSourceDataChanged:        "source-data-changed",
	ReasonErrorCheckingChanges:     "error-checking-data-changes",
	ReasonRepublishIntervalElapsed: "republish-interval-elapsed",
	ReasonManual:                   "manual-sync",
}

// String returns the reason as it appears in logs
func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return "unknown"
}

// ShouldSync reports whether the reason calls for a sync
func (r Reason) ShouldSync() bool {
	return r >= ReasonNotReady
}

// Decider decides whether the model source should be read and published again
type Decider struct {
	detector DataChangeDetector
	checker  AutomaticSyncChecker
	logger   *slog.Logger
}

// NewDecider creates a Decider
func NewDecider(detector DataChangeDetector, checker AutomaticSyncChecker, logger *slog.Logger) *Decider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decider{detector: detector, checker: checker, logger: logger}
}

// ShouldSync evaluates the node's sync status. An unchanged source is only
// republished when the last publication was incomplete, when the republish
// interval has elapsed, or when a manual sync was requested.
func (d *Decider) ShouldSync(ctx context.Context, syncStatus *status.SyncStatus, manual bool) Reason {
	if syncStatus != nil && syncStatus.Phase == status.SyncPhaseSyncing {
		return ReasonAlreadyInProgress
	}
	if manual {
		return ReasonManual
	}
	if syncStatus == nil || syncStatus.Phase == status.SyncPhasePending {
		return ReasonNotReady
	}

	changed, err := d.detector.IsDataChanged(ctx, syncStatus)
	if err != nil {
		d.logger.Warn("Failed to check model source for changes", "error", err)
		return ReasonErrorCheckingChanges
	}
	if changed {
		return ReasonSourceDataChanged
	}

	if syncStatus.Phase != status.SyncPhaseComplete {
		return ReasonPreviousSyncIncomplete
	}

	needed, _, err := d.checker.IsIntervalSyncNeeded(syncStatus)
	if err != nil {
		d.logger.Warn("Failed to check republish interval", "error", err)
		return ReasonErrorCheckingSyncNeed
	}
	if needed {
		return ReasonRepublishIntervalElapsed
	}
	return ReasonUpToDate
}
