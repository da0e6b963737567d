package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is checks. The typed errors below match them.
var (
	ErrGraphFrozen       = errors.New("expedition graph is frozen")
	ErrEmptyGraph        = errors.New("expedition has no pins")
	ErrPinLocked         = errors.New("pin is locked")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrValidation        = errors.New("validation failed")
)

// GraphFrozenError is returned for structural edits on an expedition that is no longer a draft.
type GraphFrozenError struct {
	ExpeditionID string
	Status       ExpeditionStatus
}

func (e *GraphFrozenError) Error() string {
	return fmt.Sprintf("expedition %s is %s: pins and connections can only be edited while DRAFT", e.ExpeditionID, e.Status)
}

func (e *GraphFrozenError) Is(target error) bool { return target == ErrGraphFrozen }

// EmptyGraphError is returned when publishing an expedition with no pins.
type EmptyGraphError struct {
	ExpeditionID string
}

func (e *EmptyGraphError) Error() string {
	return fmt.Sprintf("expedition %s has no pins to publish", e.ExpeditionID)
}

func (e *EmptyGraphError) Is(target error) bool { return target == ErrEmptyGraph }

// PinLockedError is returned for any attempt on a pin the student has not unlocked.
type PinLockedError struct {
	PinID            string
	StudentProfileID string
}

func (e *PinLockedError) Error() string {
	return fmt.Sprintf("pin %s is locked for student %s", e.PinID, e.StudentProfileID)
}

func (e *PinLockedError) Is(target error) bool { return target == ErrPinLocked }

// InvalidTransitionError describes a rejected state change.
// AlreadyResolved marks duplicate resolutions (double decision, double completion).
type InvalidTransitionError struct {
	Entity          string
	ID              string
	From            string
	To              string
	Reason          string
	AlreadyResolved bool
}

func (e *InvalidTransitionError) Error() string {
	if e.AlreadyResolved {
		return fmt.Sprintf("%s %s already resolved (%s)", e.Entity, e.ID, e.From)
	}
	msg := fmt.Sprintf("invalid %s transition", e.Entity)
	if e.From != "" || e.To != "" {
		msg += fmt.Sprintf(" %s -> %s", Or(e.From, "?"), Or(e.To, "?"))
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// NotFoundError is returned when a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s not found: %q", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// UnauthorizedError is returned when the acting profile may not perform an operation.
type UnauthorizedError struct {
	ProfileID string
	Reason    string
}

func (e *UnauthorizedError) Error() string {
	if e.ProfileID == "" {
		return "unauthorized: " + e.Reason
	}
	return fmt.Sprintf("profile %s unauthorized: %s", e.ProfileID, e.Reason)
}

func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

// FieldError is used to indicate an error with a specific input field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries one or more field errors for rejected input.
type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(flds ...FieldError) *ValidationError {
	return &ValidationError{Fields: flds}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Error)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
