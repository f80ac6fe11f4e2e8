// Package executor defines the merge executor collaborator contract
// (spec.md §6) and the worker error classification (§4.10) that decides
// how a reported failure moves an entry through the state machine.
package executor

import (
	"context"
	"errors"

	"github.com/lprior-repo/mergequeue/internal/queueid"
)

// Fingerprint is an opaque content fingerprint, e.g. a commit SHA. The
// coordinator never interprets it, only compares it for equality.
type Fingerprint string

// MergeExecutor performs the actual version-control operations the
// coordinator delegates to. The coordinator treats all of it as opaque;
// this package only defines the contract and the error taxonomy workers
// report back through.
type MergeExecutor interface {
	// CurrentTrunkHead returns trunk's current fingerprint.
	CurrentTrunkHead(ctx context.Context) (Fingerprint, error)

	// Rebase rebases workspace onto the given fingerprint.
	Rebase(ctx context.Context, ws queueid.Workspace, onto Fingerprint) (Fingerprint, error)

	// RunTests runs the workspace's test suite.
	RunTests(ctx context.Context, ws queueid.Workspace) error

	// Merge merges workspace into trunk, returning the new trunk
	// fingerprint.
	Merge(ctx context.Context, ws queueid.Workspace) (Fingerprint, error)
}

// WorkspaceProvider supplies read-only accessors over workspace contents.
// The coordinator never reads workspace contents itself; this exists so a
// MergeExecutor implementation has a documented, narrow way to fetch them.
type WorkspaceProvider interface {
	// Exists reports whether ws currently has a live working copy.
	Exists(ctx context.Context, ws queueid.Workspace) (bool, error)
}

// Class identifies how a reported worker error should move an entry.
type Class int

const (
	// Retryable is a transient failure (I/O blip, fetch failure): the
	// entry returns to Pending.
	Retryable Class = iota
	// Permanent is a deterministic failure (tests fail, merge conflict):
	// the entry moves to FailedTerminal.
	Permanent
	// Cancelled is an explicit operator action.
	Cancelled
)

func (c Class) String() string {
	switch c {
	case Retryable:
		return "retryable"
	case Permanent:
		return "permanent"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ExecutorError is the error shape ExecutorError-returning MergeExecutor
// methods are expected to produce: it already carries the worker's
// judgment of whether the underlying failure is transient or
// deterministic, since only the executor implementation (which actually
// ran the rebase/test/merge) knows which kind occurred.
type ExecutorError struct {
	Class Class
	Cause error
}

func (e *ExecutorError) Error() string {
	if e.Cause == nil {
		return e.Class.String()
	}
	return e.Class.String() + ": " + e.Cause.Error()
}

func (e *ExecutorError) Unwrap() error { return e.Cause }

// ErrCancelled is the sentinel cause reported for an explicit operator
// cancellation.
var ErrCancelled = errors.New("cancelled by operator")

// NewRetryable wraps cause as a transient ExecutorError.
func NewRetryable(cause error) *ExecutorError { return &ExecutorError{Class: Retryable, Cause: cause} }

// NewPermanent wraps cause as a deterministic ExecutorError.
func NewPermanent(cause error) *ExecutorError { return &ExecutorError{Class: Permanent, Cause: cause} }

// ClassOf extracts the reported Class from err. An err that does not wrap
// an *ExecutorError and does not wrap ErrCancelled is treated as
// Permanent: an unclassified failure must not be retried forever.
func ClassOf(err error) Class {
	if errors.Is(err, ErrCancelled) {
		return Cancelled
	}
	var ee *ExecutorError
	if errors.As(err, &ee) {
		return ee.Class
	}
	return Permanent
}

// Escalate applies spec.md §4.10's attempt-count escalation: a Retryable
// classification is upgraded to Permanent once attemptCount has reached
// maxAttempts. Permanent and Cancelled pass through unchanged.
func Escalate(class Class, attemptCount, maxAttempts int) Class {
	if class == Retryable && attemptCount >= maxAttempts {
		return Permanent
	}
	return class
}

// Classify is the one-shot convenience combining ClassOf and Escalate.
func Classify(err error, attemptCount, maxAttempts int) Class {
	return Escalate(ClassOf(err), attemptCount, maxAttempts)
}
