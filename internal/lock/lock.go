// Package lock provides the fleet-wide processing lock (C4): a single-row
// resource protecting "who may currently run the scheduler". It is a
// coarse serializer, distinct from the per-entry lease in internal/lease —
// the two must never be confused (spec design note, see ProcessingLock).
package lock

import (
	"context"
	"time"

	"github.com/lprior-repo/mergequeue/internal/queueid"
	"github.com/lprior-repo/mergequeue/internal/store"
)

// Store is the subset of store.Store the processing lock needs. Defined
// here, not in package store, so this package depends on a narrow
// interface rather than the whole persistence surface.
type Store interface {
	AcquireLock(ctx context.Context, agent queueid.AgentID) (bool, error)
	ReleaseLock(ctx context.Context, agent queueid.AgentID) (bool, error)
	PeekLock(ctx context.Context) (store.Lock, error)
	ReclaimLockIfStale(ctx context.Context, threshold time.Duration) (bool, error)
}

// Manager wraps a Store to expose the processing lock's domain operations
// under their spec names.
type Manager struct {
	store Store
}

// NewManager returns a Manager backed by store.
func NewManager(s Store) *Manager {
	return &Manager{store: s}
}

// Acquire attempts to acquire the lock for agent. Returns true iff no
// holder existed, or the holder was already agent (re-entrant refresh).
func (m *Manager) Acquire(ctx context.Context, agent queueid.AgentID) (bool, error) {
	return m.store.AcquireLock(ctx, agent)
}

// Release releases the lock iff agent is the current holder. Never
// errors: releasing an unheld or differently-held lock simply returns
// false.
func (m *Manager) Release(ctx context.Context, agent queueid.AgentID) (bool, error) {
	return m.store.ReleaseLock(ctx, agent)
}

// Peek returns the lock's current state without mutating it.
func (m *Manager) Peek(ctx context.Context) (store.Lock, error) {
	return m.store.PeekLock(ctx)
}

// ReclaimIfStale releases the lock iff it is held, no live entry
// (Claimed/Rebasing/Testing with a non-expired lease) is owned by the
// current holder, and the lock has been held longer than threshold. Never
// releases a lock that corresponds to live work.
func (m *Manager) ReclaimIfStale(ctx context.Context, threshold time.Duration) (bool, error) {
	return m.store.ReclaimLockIfStale(ctx, threshold)
}
