// Package errors provides structured error types for the merge queue
// coordinator. Every error surfaced across a package boundary carries an
// ErrorCode that maps to a CLI exit code:
//   - Exit 1: generic failure (invalid transition, terminal state, store error)
//   - Exit 2: not found
//   - Exit 3: conflict (duplicate non-terminal workspace)
//   - Exit 4: lease/ownership violation
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a specific error condition raised by the
// coordinator.
type ErrorCode int

// The error codes from spec.md §7.
const (
	_ ErrorCode = iota
	NotFound
	Conflict
	InvalidTransition
	NotOwner
	LeaseExpired
	LockHeld
	TerminalState
	StoreErrorCode
)

var names = map[ErrorCode]string{
	NotFound:          "NOT_FOUND",
	Conflict:          "CONFLICT",
	InvalidTransition: "INVALID_TRANSITION",
	NotOwner:          "NOT_OWNER",
	LeaseExpired:      "LEASE_EXPIRED",
	LockHeld:          "LOCK_HELD",
	TerminalState:     "TERMINAL_STATE",
	StoreErrorCode:    "STORE_ERROR",
}

// String returns the machine-readable name of the code.
func (c ErrorCode) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return "UNKNOWN"
}

// ExitCode returns the CLI exit code associated with c, per spec.md §6:
// 0 success, 1 generic failure, 2 not found, 3 conflict, 4 lease/ownership
// violation.
func (c ErrorCode) ExitCode() int {
	switch c {
	case NotFound:
		return 2
	case Conflict:
		return 3
	case NotOwner, LeaseExpired, LockHeld:
		return 4
	default:
		return 1
	}
}

// QueueError is the primary error type returned by the coordinator's
// public API. It carries a machine-readable ErrorCode, a human string,
// and an optional wrapped cause.
type QueueError struct {
	code    ErrorCode
	message string
	wrapped error
}

// New creates a QueueError with the given code and message.
func New(code ErrorCode, msg string) *QueueError {
	return &QueueError{code: code, message: msg}
}

// Newf creates a QueueError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *QueueError {
	return &QueueError{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err with the given code and additional context. Returns nil
// if err is nil.
func Wrap(code ErrorCode, err error, context string) *QueueError {
	if err == nil {
		return nil
	}
	return &QueueError{code: code, message: context, wrapped: err}
}

// WrapStore wraps a durability fault as a StoreErrorCode QueueError,
// propagating the underlying error unchanged per spec.md §7's recovery
// policy (StoreError is surfaced; callers may retry with backoff).
func WrapStore(err error, context string) *QueueError {
	return Wrap(StoreErrorCode, err, context)
}

// Error implements the error interface.
func (e *QueueError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

// Is implements errors.Is comparison by error code.
func (e *QueueError) Is(target error) bool {
	var t *QueueError
	if errors.As(target, &t) {
		return e.code == t.code
	}
	return false
}

// Unwrap returns the wrapped cause, if any.
func (e *QueueError) Unwrap() error {
	return e.wrapped
}

// Code extracts the ErrorCode from err, or the zero value if err is not a
// *QueueError (and does not wrap one).
func Code(err error) ErrorCode {
	var qe *QueueError
	if errors.As(err, &qe) {
		return qe.code
	}
	return ErrorCode(0)
}

// ExitCode returns the process exit code for err: 0 for nil, 1 for a
// non-QueueError error, or the QueueError's own exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	code := Code(err)
	if code == ErrorCode(0) {
		return 1
	}
	return code.ExitCode()
}
