package models

import (
	"errors"
	"fmt"
)

// ValidationError carries a field -> reason map for malformed input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Fields)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

// ConflictError signals that a table is unavailable for the requested window.
// Retryable by the caller with a different slot.
type ConflictError struct {
	TableID  string
	Conflict *ConflictDetail
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("table %s is already booked for the selected time slot", e.TableID)
}

// ConflictDetail summarises the existing reservation that blocked a slot.
type ConflictDetail struct {
	ExistingTime          string  `json:"existing_time"`
	ExistingDuration      float64 `json:"existing_duration"`
	ExistingEndWithBuffer string  `json:"existing_end_with_buffer"`
}

// InvalidTransitionError signals a state machine precondition violation.
type InvalidTransitionError struct {
	From   ReservationStatus
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a reservation in status %q", e.Action, e.From)
}

// AuthorizationError signals that the caller's verified identity lacks the
// role an admin operation requires.
type AuthorizationError struct {
	UserID string
	Role   string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %s (role %q) is not allowed to perform this action", e.UserID, e.Role)
}

// NotFoundError signals a missing reservation, table or menu.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// PersistenceError wraps an unexpected storage failure. Not retried.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// AsValidation reports whether err is (or wraps) a ValidationError.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	ok := errors.As(err, &ce)
	return ce, ok
}

func AsInvalidTransition(err error) (*InvalidTransitionError, bool) {
	var te *InvalidTransitionError
	ok := errors.As(err, &te)
	return te, ok
}

func AsNotFound(err error) (*NotFoundError, bool) {
	var ne *NotFoundError
	ok := errors.As(err, &ne)
	return ne, ok
}

func AsAuthorization(err error) (*AuthorizationError, bool) {
	var ae *AuthorizationError
	ok := errors.As(err, &ae)
	return ae, ok
}
