// Package apperr defines the error taxonomy shared by every service in the
// API. Each error carries a stable machine-readable kind that the HTTP
// boundary maps to a status code and a JSON body; wrapped causes stay
// available to logging and tests via errors.Is/As.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for boundary dispatch.
type Kind string

const (
	// KindValidation marks malformed caller input. Recoverable by the
	// caller correcting the request; never retried automatically.
	KindValidation Kind = "validation"

	// KindNotFound marks a referenced resource that does not exist.
	KindNotFound Kind = "not_found"

	// KindAuthorization marks an operation the caller's role or ownership
	// does not permit.
	KindAuthorization Kind = "authorization"

	// KindConflict marks a scheduling overlap or a storage uniqueness
	// collision.
	KindConflict Kind = "conflict"

	// KindInternal marks a storage-layer or infrastructure fault. Surfaced
	// as a 5xx and logged for operator attention.
	KindInternal Kind = "internal"
)

// Error is the concrete error type carried across service boundaries.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an error of the given kind around a cause. The cause remains
// reachable through errors.Is/As and KindOf's chain walk.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Validation creates a validation error.
func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

// NotFound creates a not-found error.
func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

// Authorization creates an authorization error.
func Authorization(format string, args ...interface{}) *Error {
	return New(KindAuthorization, format, args...)
}

// Conflict creates a conflict error.
func Conflict(format string, args ...interface{}) *Error {
	return New(KindConflict, format, args...)
}

// Internal creates an internal error wrapping the underlying fault.
func Internal(err error, format string, args ...interface{}) *Error {
	return Wrap(KindInternal, err, format, args...)
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// KindInternal when the chain carries no *Error. A nil err has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether the outermost classified error in err's chain has
// the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HasKind reports whether any error in err's chain carries the given kind.
// Unlike IsKind it looks past the outermost classification, which is how
// tests distinguish a not-found collapsed into an authorization denial.
func HasKind(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}
