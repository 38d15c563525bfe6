package core

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// PreconditionError indicates that an operation was requested on an entity
// that is not in a state to accept it (e.g. grading a defense that has not
// been completed, or grading by a non-voting member).
type PreconditionError struct {
	Reason string
}

func NewPreconditionError(reason string) error {
	return &PreconditionError{Reason: reason}
}

func (err PreconditionError) Error() string { return err.Reason }

// Conflict identifies an existing defense occupying the slot a candidate
// booking asked for.
type Conflict struct {
	Resource  string    `json:"resource"` // "tribunal" or "room"
	DefenseID string    `json:"defense_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
}

// ConflictError reports all double-bookings found for a candidate slot, so the
// caller can pick a new slot without retrying once per resource.
type ConflictError struct {
	Conflicts []Conflict
}

func NewConflictError(conflicts ...Conflict) error {
	return &ConflictError{Conflicts: conflicts}
}

func (err ConflictError) Error() string {
	if len(err.Conflicts) == 0 {
		return "scheduling conflict"
	}
	c := err.Conflicts[0]
	return fmt.Sprintf("%s already booked by defense %s from %s to %s",
		c.Resource, c.DefenseID, c.StartsAt.Format(time.RFC3339), c.EndsAt.Format(time.RFC3339))
}

// TransientError wraps a storage failure that survived the transparent retry;
// the caller may resubmit the request as-is.
type TransientError struct {
	Err error
}

func NewTransientError(err error) error {
	return &TransientError{Err: err}
}

func (err TransientError) Error() string {
	return fmt.Sprintf("temporary storage failure: %v", err.Err)
}

func (err TransientError) Unwrap() error { return err.Err }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
