package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/stacklok/toolhive-schema-sync/internal/status"
)

// checkSync decides whether the model must be read and published again, and
// does so when needed
func (c *defaultCoordinator) checkSync(ctx context.Context, checkType string, manual bool) {
	snapshot := c.tracker.Snapshot()
	reason := c.decider.ShouldSync(ctx, &snapshot, manual)

	if !reason.ShouldSync() {
		c.logger.Debug("Model sync not needed", "check", checkType, "reason", reason.String())
		return
	}

	c.logger.Info("Starting model sync", "check", checkType, "reason", reason.String())
	c.performSync(ctx)
}

// performSync reads the source and hands the model to the updater
func (c *defaultCoordinator) performSync(ctx context.Context) {
	startTime := time.Now()

	result, err := c.source.Fetch(ctx)
	if err != nil {
		c.tracker.Complete(status.SyncPhaseFailed, fmt.Sprintf("Failed to read model source: %v", err))
		c.logger.Error("Failed to read model source", "error", err)
		return
	}

	report, err := c.updater.OnModelUpdated(ctx, result.Model)
	if report == nil {
		// the model was rejected before being accepted
		c.tracker.Complete(status.SyncPhaseFailed, fmt.Sprintf("Model update rejected: %v", err))
		c.logger.Error("Model update rejected", "error", err)
		return
	}

	// The model was accepted even when publication failed, so an unchanged
	// source must not be treated as a new model on the next check.
	c.tracker.SetSourceHash(result.Hash)

	hashPreview := result.Hash
	if len(hashPreview) > 8 {
		hashPreview = hashPreview[:8]
	}
	if err != nil {
		c.logger.Warn("Model sync incomplete",
			"generation", uint64(report.Generation),
			"phase", report.Phase,
			"hash", hashPreview,
			"error", err)
		return
	}

	c.logger.Info("Model sync completed",
		"generation", uint64(report.Generation),
		"modules", result.Model.Len(),
		"hash", hashPreview,
		"duration", time.Since(startTime))
}
