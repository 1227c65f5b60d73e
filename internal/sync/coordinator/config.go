package coordinator

import (
	"math/rand/v2"
	"time"
)

const (
	// defaultResyncInterval is used when no resync interval is configured
	defaultResyncInterval = 5 * time.Minute

	// jitterDivisor bounds the polling jitter to ±10% of the interval
	jitterDivisor = 10
)

// calculatePollingInterval returns base with a random jitter applied, so that
// nodes started together do not all read the source and write to the store
// at the same moment.
func calculatePollingInterval(base time.Duration) time.Duration {
	if base <= 0 {
		base = defaultResyncInterval
	}
	jitter := base / jitterDivisor
	if jitter <= 0 {
		return base
	}
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for polling jitter
	offset := time.Duration(rand.Int64N(int64(2*jitter))) - jitter
	return base + offset
}
