// Package awperr defines the closed set of failure kinds every engine
// operation can return, per the protocol's error handling design.
package awperr

import (
	"errors"
	"fmt"
)

// Kind is a closed enumeration of engine failure categories.
type Kind string

const (
	NotFound             Kind = "not_found"
	AlreadyExists        Kind = "already_exists"
	SchemaViolation      Kind = "schema_violation"
	InvalidTransition    Kind = "invalid_transition"
	MissingCriterion     Kind = "missing_criterion"
	IoError              Kind = "io_error"
	Locked               Kind = "locked"
	CorruptState         Kind = "corrupt_state"
	TransportError       Kind = "transport_error"
	ConflictUnresolvable Kind = "conflict_unresolvable"
)

// Violation names a single schema-validation failure at a JSON pointer.
type Violation struct {
	Pointer string
	Message string
}

// Error is the concrete error type returned by every engine operation that
// fails. It wraps an optional underlying cause and, for SchemaViolation,
// carries the list of pointer+message violations.
type Error struct {
	Kind       Kind
	Op         string
	Message    string
	Violations []Violation
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Kind, so
// errors.Is(err, awperr.New(awperr.NotFound, "", "")) matches any NotFound
// error in err's chain. Kind itself is not an error value; to test against
// a bare Kind use the package-level Is(err, kind).
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// New constructs an *Error of the given kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap constructs an *Error of the given kind around a causing error.
func Wrap(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause}
}

// WithViolations attaches schema-validation violations, each a
// (json_pointer, message) pair, to a SchemaViolation error.
func WithViolations(op, message string, violations []Violation) *Error {
	return &Error{Kind: SchemaViolation, Op: op, Message: message, Violations: violations}
}

// Of reports the Kind of err, or "" if err is nil or not an *Error.
func Of(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return Of(err) == kind
}
