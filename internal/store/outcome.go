package store

import (
	"fmt"
)

// Status is the closed set of submit results.
type Status int

const (
	// StatusCommitted means every staged put was written
	StatusCommitted Status = iota
	// StatusConflict means the store rejected the writes because of a conflicting writer
	StatusConflict
	// StatusOtherFailure covers every other failure, including cancellation and timeouts
	StatusOtherFailure
)

// String returns the status name
func (s Status) String() string {
	switch s {
	case StatusCommitted:
		return "committed"
	case StatusConflict:
		return "conflict"
	case StatusOtherFailure:
		return "other_failure"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the typed result of WriteTransaction.Submit. Cause is nil only
// when Status is StatusCommitted.
type Outcome struct {
	Status Status
	Cause  error
}

// Committed returns a successful outcome
func Committed() Outcome {
	return Outcome{Status: StatusCommitted}
}

// Conflicted returns a conflict outcome
func Conflicted(cause error) Outcome {
	return Outcome{Status: StatusConflict, Cause: cause}
}

// Failed returns a non-conflict failure outcome
func Failed(cause error) Outcome {
	return Outcome{Status: StatusOtherFailure, Cause: cause}
}

// IsCommitted reports whether the submit succeeded
func (o Outcome) IsCommitted() bool {
	return o.Status == StatusCommitted
}

// ConflictReason tells why the store rejected a write as conflicting.
type ConflictReason int

const (
	// ReasonConcurrentModification means another writer changed the location
	// after this chain last observed it
	ReasonConcurrentModification ConflictReason = iota
	// ReasonDeadlock means the store aborted the write to break a lock cycle
	ReasonDeadlock
)

// String returns the reason name
func (r ConflictReason) String() string {
	switch r {
	case ReasonConcurrentModification:
		return "concurrent_modification"
	case ReasonDeadlock:
		return "deadlock"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// ConflictError describes a rejected write.
type ConflictError struct {
	Location Location
	Reason   ConflictReason
	// Expected is the revision the writer based its write on, 0 for "absent"
	Expected uint64
	// Actual is the revision found in the store, when known
	Actual uint64
	// Writer is the node that wrote the current revision, when known
	Writer string
	Err    error
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	msg := fmt.Sprintf("%s conflict at %s (expected revision %d, found %d)", e.Reason, e.Location, e.Expected, e.Actual)
	if e.Writer != "" {
		msg += " written by " + e.Writer
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying store error
func (e *ConflictError) Unwrap() error {
	return e.Err
}
