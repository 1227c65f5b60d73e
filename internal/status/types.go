// Package status tracks the progress of schema model publication on this node.
package status

import "time"

// SyncPhase represents the outcome of the latest model update
type SyncPhase string

const (
	// SyncPhasePending means no model update has been handled yet
	SyncPhasePending SyncPhase = "Pending"

	// SyncPhaseSyncing means a model update is being published
	SyncPhaseSyncing SyncPhase = "Syncing"

	// SyncPhaseComplete means every record of the latest update was published
	SyncPhaseComplete SyncPhase = "Complete"

	// SyncPhasePartial means some records of the latest update failed to publish
	SyncPhasePartial SyncPhase = "Partial"

	// SyncPhaseFailed means no record of the latest update was published
	SyncPhaseFailed SyncPhase = "Failed"
)

// RecordStatus is the publication state of one store location
type RecordStatus struct {
	// Location is the store location of the record
	Location string `json:"location"`

	// Classification is the result of the last publication attempt
	Classification string `json:"classification,omitempty"`

	// ChainID is the transaction chain the last attempt was submitted on
	ChainID string `json:"chainId,omitempty"`

	// Message holds the error of the last failed attempt
	Message string `json:"message,omitempty"`

	// LastAttempt is the timestamp of the last publication attempt
	LastAttempt *time.Time `json:"lastAttempt,omitempty"`

	// LastSuccess is the timestamp of the last committed or suppressed publication
	LastSuccess *time.Time `json:"lastSuccess,omitempty"`

	// FailureCount is the number of failed attempts since the last success
	FailureCount int `json:"failureCount,omitempty"`

	// SuppressedConflicts counts peer write conflicts that were treated as success
	SuppressedConflicts int `json:"suppressedConflicts,omitempty"`
}

// SyncStatus is the publication state of this node
type SyncStatus struct {
	// Phase represents the outcome of the latest model update
	Phase SyncPhase `json:"phase"`

	// Message provides additional information about the phase
	Message string `json:"message,omitempty"`

	// Generation is the generation of the latest accepted model
	Generation uint64 `json:"generation"`

	// ModelDigest is the content digest of the latest accepted model
	ModelDigest string `json:"modelDigest,omitempty"`

	// ModuleCount is the number of modules in the latest accepted model
	ModuleCount int `json:"moduleCount"`

	// SourceHash is the hash of the model source the latest model was read from
	SourceHash string `json:"sourceHash,omitempty"`

	// LastAttempt is the timestamp of the latest model update
	LastAttempt *time.Time `json:"lastAttempt,omitempty"`

	// AttemptCount is the number of updates since the last complete one
	AttemptCount int `json:"attemptCount,omitempty"`

	// LastSyncTime is the timestamp of the last complete update
	LastSyncTime *time.Time `json:"lastSyncTime,omitempty"`

	// Records holds the per-location publication state, keyed by location
	Records map[string]*RecordStatus `json:"records,omitempty"`
}
