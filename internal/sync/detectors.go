package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/stacklok/toolhive-schema-sync/internal/status"
)

// HashSource reports the content hash of the model source
type HashSource interface {
	CurrentHash(ctx context.Context) (string, error)
}

// DataChangeDetector detects changes in the model source
type DataChangeDetector interface {
	// IsDataChanged reports whether the source differs from the one the
	// current model was read from
	IsDataChanged(ctx context.Context, syncStatus *status.SyncStatus) (bool, error)
}

// AutomaticSyncChecker handles periodic republish timing
type AutomaticSyncChecker interface {
	// IsIntervalSyncNeeded reports whether the republish interval has elapsed since
	// the last attempt, and when the next republish is due
	IsIntervalSyncNeeded(syncStatus *status.SyncStatus) (bool, time.Time, error)
}

// DefaultDataChangeDetector compares the source hash with the hash recorded
// for the last accepted model
type DefaultDataChangeDetector struct {
	source HashSource
}

// NewDataChangeDetector creates a detector over source
func NewDataChangeDetector(source HashSource) *DefaultDataChangeDetector {
	return &DefaultDataChangeDetector{source: source}
}

// IsDataChanged checks if source data has changed by comparing hashes.
// It reports true alongside any error so callers lean towards syncing.
func (d *DefaultDataChangeDetector) IsDataChanged(ctx context.Context, syncStatus *status.SyncStatus) (bool, error) {
	var lastHash string
	if syncStatus != nil {
		lastHash = syncStatus.SourceHash
	}
	if lastHash == "" {
		return true, nil
	}

	currentHash, err := d.source.CurrentHash(ctx)
	if err != nil {
		return true, err
	}

	return currentHash != lastHash, nil
}

// DefaultAutomaticSyncChecker requests a republish once the interval has passed
// since the last attempt
type DefaultAutomaticSyncChecker struct {
	interval time.Duration
	now      func() time.Time
}

// NewAutomaticSyncChecker creates a checker with the given republish interval.
// A zero interval disables periodic republishing.
func NewAutomaticSyncChecker(interval time.Duration) *DefaultAutomaticSyncChecker {
	return &DefaultAutomaticSyncChecker{interval: interval, now: time.Now}
}

// IsIntervalSyncNeeded returns (syncNeeded, nextSyncTime, error). nextSyncTime
// is zero when periodic republishing is disabled.
func (c *DefaultAutomaticSyncChecker) IsIntervalSyncNeeded(syncStatus *status.SyncStatus) (bool, time.Time, error) {
	if c.interval == 0 {
		return false, time.Time{}, nil
	}
	if c.interval < 0 {
		return false, time.Time{}, fmt.Errorf("republish interval must be positive, got %s", c.interval)
	}

	now := c.now()

	var lastAttempt *time.Time
	if syncStatus != nil {
		lastAttempt = syncStatus.LastAttempt
	}
	if lastAttempt == nil {
		return true, now.Add(c.interval), nil
	}

	next := lastAttempt.Add(c.interval)
	if !now.Before(next) {
		return true, now.Add(c.interval), nil
	}
	return false, next, nil
}
