/*
errors.go - Centralized error taxonomy for the engine

PURPOSE:
  All error kinds in one place. Every public operation either succeeds or
  fails with exactly one of these kinds, and nothing is mutated on failure.

ERROR CATEGORIES:
  1. Validation - malformed input (min > max hours, start > end, negatives)
  2. NotFound - unknown policy, employee or leave id
  3. InvalidTransition - leave state machine violation
  4. Duplicate - an attendance day recorded twice, a policy name reused

USAGE:
  Sentinels work with errors.Is, structured errors with errors.As:

    if errors.Is(err, generic.ErrInvalidTransition) {
        var te *generic.InvalidTransitionError
        errors.As(err, &te)
        log.Printf("request %s is already %s", te.Key, te.From)
    }

SEE ALSO:
  - api/handlers.go: maps kinds to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed input or configuration.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced policy, employee or request
	// doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when a leave request is asked to move
	// out of a terminal state.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrDuplicate is returned when a record with the same key already exists.
	ErrDuplicate = errors.New("duplicate record")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError with a formatted reason.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError identifies what was looked up.
type NotFoundError struct {
	Kind string // "policy", "employee", "leave request", ...
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func NotFound(kind, key string) error {
	return &NotFoundError{Kind: kind, Key: key}
}

// InvalidTransitionError describes a rejected state change.
type InvalidTransitionError struct {
	Kind string
	Key  string
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s %s cannot move from %s to %s", e.Kind, e.Key, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// DuplicateError identifies the existing record.
type DuplicateError struct {
	Kind string
	Key  string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Kind, e.Key)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

func Duplicate(kind, key string) error {
	return &DuplicateError{Kind: kind, Key: key}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrDuplicate)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Kind returns a stable machine-readable name for err's category,
// or "internal" when err is outside the taxonomy.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	default:
		return "internal"
	}
}
