// Package queueid provides validated identifier and value-object types for
// the merge queue: agent identifiers, workspace names, bead references, and
// priorities. Values are parsed once at the store/CLI boundary and trusted
// thereafter.
package queueid

import (
	"errors"
	"fmt"
	"strings"
)

// MaxLength is the maximum length, in bytes, allowed for an AgentID,
// Workspace, or BeadID.
const MaxLength = 256

// DefaultPriority is the priority assigned when none is specified.
// Lower numeric values mean higher priority; negative values are legal and
// mean "ahead of default".
const DefaultPriority = 5

// EntryID is the store-assigned, monotonically increasing identifier of a
// queue entry. It is immutable once assigned.
type EntryID int64

// String returns the decimal representation of the id.
func (id EntryID) String() string { return fmt.Sprintf("%d", int64(id)) }

// AgentID identifies a worker (human or AI agent) that may claim entries.
type AgentID string

// Workspace identifies the content to integrate. Opaque to the coordinator.
type Workspace string

// BeadID is an optional opaque issue-tracker reference.
type BeadID string

// ParseAgentID validates and trims s, returning an AgentID.
func ParseAgentID(s string) (AgentID, error) {
	v, err := validate("agent id", s)
	if err != nil {
		return "", err
	}
	return AgentID(v), nil
}

// ParseWorkspace validates and trims s, returning a Workspace.
func ParseWorkspace(s string) (Workspace, error) {
	v, err := validate("workspace", s)
	if err != nil {
		return "", err
	}
	return Workspace(v), nil
}

// ParseBeadID validates and trims s, returning a BeadID. An empty string is
// rejected by ParseBeadID itself; use ParseOptionalBeadID for the optional
// field on Entry.
func ParseBeadID(s string) (BeadID, error) {
	v, err := validate("bead id", s)
	if err != nil {
		return "", err
	}
	return BeadID(v), nil
}

// ParseOptionalBeadID validates s if non-empty, otherwise returns the zero
// BeadID with no error.
func ParseOptionalBeadID(s string) (BeadID, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return ParseBeadID(s)
}

func validate(kind, s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", fmt.Errorf("invalid %s: empty or whitespace", kind)
	}
	if len(trimmed) > MaxLength {
		return "", fmt.Errorf("invalid %s: exceeds %d bytes", kind, MaxLength)
	}
	return trimmed, nil
}

// String returns the underlying string value.
func (a AgentID) String() string { return string(a) }

// String returns the underlying string value.
func (w Workspace) String() string { return string(w) }

// String returns the underlying string value.
func (b BeadID) String() string { return string(b) }

// Priority is a signed integer; lower values mean higher priority.
// Negative values are permitted and mean "ahead of default".
type Priority int

// ErrInvalidPriority is returned when a priority value is out of the
// supported range.
var ErrInvalidPriority = errors.New("priority out of supported range")

// minPriority/maxPriority bound priority to a sane range to keep ordering
// well-defined and to reject obviously-malformed CLI input.
const (
	minPriority = -1_000_000
	maxPriority = 1_000_000
)

// ParsePriority validates an integer priority value.
func ParsePriority(n int) (Priority, error) {
	if n < minPriority || n > maxPriority {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPriority, n)
	}
	return Priority(n), nil
}
