// Package domain defines core types, interfaces, and errors for the
// budget tracker's authorization and business layers.
package domain

import "fmt"

// NotFoundError indicates a referenced resource does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// AccessDeniedError indicates the acting user lacks the required access level.
type AccessDeniedError struct {
	Message string
}

func (e *AccessDeniedError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflicting resource, e.g. a duplicate grant.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// InvariantViolationError indicates a mutation that would break a structural
// guarantee: removing the last owner of a centre, touching the designated
// owner's fixed grant, or mutating permissions on the demo centre.
type InvariantViolationError struct {
	Message string
}

func (e *InvariantViolationError) Error() string { return e.Message }

// ConcurrentModificationError indicates an optimistic-version mismatch on a
// write. The caller should re-fetch the record and retry; it is not a
// user-input problem.
type ConcurrentModificationError struct {
	Message string
}

func (e *ConcurrentModificationError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrAccessDenied creates an AccessDeniedError with a formatted message.
func ErrAccessDenied(format string, args ...interface{}) *AccessDeniedError {
	return &AccessDeniedError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrInvariant creates an InvariantViolationError with a formatted message.
func ErrInvariant(format string, args ...interface{}) *InvariantViolationError {
	return &InvariantViolationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConcurrentModification creates a ConcurrentModificationError with a
// formatted message.
func ErrConcurrentModification(format string, args ...interface{}) *ConcurrentModificationError {
	return &ConcurrentModificationError{Message: fmt.Sprintf(format, args...)}
}
