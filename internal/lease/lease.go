// Package lease implements the per-entry lease (C5): an owner-bound,
// TTL-bounded claim with heartbeat and manual release. Distinct from the
// fleet-wide processing lock in internal/lock.
package lease

import (
	"context"
	"time"

	"github.com/lprior-repo/mergequeue/internal/clock"
	"github.com/lprior-repo/mergequeue/internal/queueid"
	"github.com/lprior-repo/mergequeue/internal/store"
)

// Store is the subset of store.Store the lease manager needs.
type Store interface {
	Heartbeat(ctx context.Context, ws queueid.Workspace, agent queueid.AgentID, newExpiresAt clock.Timestamp) (store.Entry, error)
	ReleaseLease(ctx context.Context, ws queueid.Workspace, agent queueid.AgentID) (store.Entry, error)
}

// Manager grants leases their TTL-relative semantics on top of a Store,
// which persists only absolute expiry instants.
type Manager struct {
	store Store
	clock clock.Source
	ttl   time.Duration
}

// NewManager returns a Manager backed by s, using clk for the current time
// and ttl as the lease duration granted on each heartbeat.
func NewManager(s Store, clk clock.Source, ttl time.Duration) *Manager {
	return &Manager{store: s, clock: clk, ttl: ttl}
}

// Heartbeat extends workspace's lease by m's TTL iff agent is the current
// owner. Does not increment attempt_count.
func (m *Manager) Heartbeat(ctx context.Context, ws queueid.Workspace, agent queueid.AgentID) (store.Entry, error) {
	newExpiry := m.clock.Now().Add(m.ttl)
	return m.store.Heartbeat(ctx, ws, agent, newExpiry)
}

// Release gives up workspace's lease, returning the entry to Pending, iff
// agent is the current owner.
func (m *Manager) Release(ctx context.Context, ws queueid.Workspace, agent queueid.AgentID) (store.Entry, error) {
	return m.store.ReleaseLease(ctx, ws, agent)
}

// Expired reports whether e's lease has expired as of now.
func Expired(e store.Entry, now clock.Timestamp) bool {
	return e.LeaseExpired(now)
}
