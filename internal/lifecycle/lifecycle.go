// Package lifecycle implements the evaluation state machine shared by
// panelist and student evaluation records: pending -> submitted ->
// locked, plus an administrative set-pending override that re-opens a
// record from any state.
package lifecycle

import (
	"errors"
	"fmt"
	"time"
)

// Evaluation status values. These literals are persisted and must not
// change.
const (
	StatusPending   = "pending"
	StatusSubmitted = "submitted"
	StatusLocked    = "locked"
)

// Machine-readable codes carried by StateError.
const (
	CodeLocked    = "LOCKED"
	CodeSubmitted = "SUBMITTED"
)

// StateError reports an illegal transition. Callers must not retry:
// the precondition is real, not transient.
type StateError struct {
	Code    string
	Message string
}

func (e *StateError) Error() string {
	return e.Message
}

// ErrLocked guards every mutation of a locked record.
var ErrLocked = &StateError{Code: CodeLocked, Message: "evaluation is locked"}

// ErrSubmitted guards answer edits after submission.
var ErrSubmitted = &StateError{Code: CodeSubmitted, Message: "evaluation has been submitted"}

// ErrAlreadySubmitted distinguishes a repeated submit from a state
// change; it is never silently coerced into success.
var ErrAlreadySubmitted = &StateError{Code: CodeSubmitted, Message: "evaluation already submitted"}

// IsStateError reports whether err is a lifecycle guard violation.
func IsStateError(err error) bool {
	var stateErr *StateError
	return errors.As(err, &stateErr)
}

// Record is the lifecycle-relevant slice of an evaluation. Services
// copy model fields in, apply a transition, and write the result back.
type Record struct {
	Status      string
	SubmittedAt *time.Time
	LockedAt    *time.Time
}

// IsValidStatus reports whether s is one of the persisted status literals.
func IsValidStatus(s string) bool {
	return s == StatusPending || s == StatusSubmitted || s == StatusLocked
}

// Submit transitions a pending record to submitted, stamping
// SubmittedAt. Submitting a locked record fails with ErrLocked; a
// repeated submit fails with ErrAlreadySubmitted.
func Submit(rec Record, now time.Time) (Record, error) {
	switch rec.Status {
	case StatusLocked:
		return rec, ErrLocked
	case StatusSubmitted:
		return rec, ErrAlreadySubmitted
	case StatusPending:
		submittedAt := now
		rec.Status = StatusSubmitted
		rec.SubmittedAt = &submittedAt
		return rec, nil
	default:
		return rec, &StateError{Code: CodeSubmitted, Message: fmt.Sprintf("unknown evaluation status %q", rec.Status)}
	}
}

// Lock transitions a record to locked from pending or submitted,
// stamping LockedAt. Locking an already-locked record is an idempotent
// no-op; the second return reports whether the record changed.
func Lock(rec Record, now time.Time) (Record, bool) {
	if rec.Status == StatusLocked {
		return rec, false
	}
	lockedAt := now
	rec.Status = StatusLocked
	rec.LockedAt = &lockedAt
	return rec, true
}

// SetPending is the administrative override: it returns the record to
// pending from any state and clears both timestamps. Callers are
// expected to audit who performed it.
func SetPending(rec Record) Record {
	rec.Status = StatusPending
	rec.SubmittedAt = nil
	rec.LockedAt = nil
	return rec
}

// EnsureEditable guards answer edits: only pending records accept
// changes. Returns ErrLocked or ErrSubmitted for the two closed states.
func EnsureEditable(status string) error {
	switch status {
	case StatusLocked:
		return ErrLocked
	case StatusSubmitted:
		return ErrSubmitted
	default:
		return nil
	}
}
