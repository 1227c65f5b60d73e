package status

import (
	"sync"
	"time"
)

// Publication is one publication attempt reported to the Tracker
type Publication struct {
	Location       string
	Classification string
	ChainID        string
	Succeeded      bool
	Suppressed     bool
	Err            error
}

// Tracker keeps the node's SyncStatus in memory. It is safe for concurrent use.
type Tracker struct {
	mu     sync.RWMutex
	status SyncStatus
	now    func() time.Time
}

// NewTracker returns a Tracker in the Pending phase
func NewTracker() *Tracker {
	return &Tracker{
		status: SyncStatus{
			Phase:   SyncPhasePending,
			Records: make(map[string]*RecordStatus),
		},
		now: time.Now,
	}
}

// RecordModel marks the start of publishing a newly accepted model
func (t *Tracker) RecordModel(generation uint64, digest string, moduleCount int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.status.Phase = SyncPhaseSyncing
	t.status.Message = ""
	t.status.Generation = generation
	t.status.ModelDigest = digest
	t.status.ModuleCount = moduleCount
	t.status.LastAttempt = &now
	t.status.AttemptCount++
}

// RecordPublication records one publication attempt
func (t *Tracker) RecordPublication(p Publication) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.status.Records[p.Location]
	if !ok {
		rec = &RecordStatus{Location: p.Location}
		t.status.Records[p.Location] = rec
	}

	now := t.now()
	rec.Classification = p.Classification
	rec.ChainID = p.ChainID
	rec.LastAttempt = &now
	if p.Succeeded {
		rec.Message = ""
		rec.LastSuccess = &now
		rec.FailureCount = 0
	} else {
		rec.FailureCount++
		if p.Err != nil {
			rec.Message = p.Err.Error()
		}
	}
	if p.Suppressed {
		rec.SuppressedConflicts++
	}
}

// Complete ends the current model update with the given phase
func (t *Tracker) Complete(phase SyncPhase, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status.Phase = phase
	t.status.Message = message
	if phase == SyncPhaseComplete {
		now := t.now()
		t.status.LastSyncTime = &now
		t.status.AttemptCount = 0
	}
}

// SetSourceHash records the hash of the source the current model was read from
func (t *Tracker) SetSourceHash(hash string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.SourceHash = hash
}

// SourceHash returns the hash recorded by SetSourceHash
func (t *Tracker) SourceHash() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status.SourceHash
}

// Phase returns the current phase
func (t *Tracker) Phase() SyncPhase {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status.Phase
}

// Snapshot returns a deep copy of the current status
func (t *Tracker) Snapshot() SyncStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := t.status
	out.LastAttempt = copyTime(t.status.LastAttempt)
	out.LastSyncTime = copyTime(t.status.LastSyncTime)
	out.Records = make(map[string]*RecordStatus, len(t.status.Records))
	for loc, rec := range t.status.Records {
		c := *rec
		c.LastAttempt = copyTime(rec.LastAttempt)
		c.LastSuccess = copyTime(rec.LastSuccess)
		out.Records[loc] = &c
	}
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
