// Package scheduler implements next_with_lock (C6): the single entry point
// a worker calls to obtain exclusive ownership of the next claimable entry.
package scheduler

import (
	"context"
	"time"

	"github.com/lprior-repo/mergequeue/internal/clock"
	"github.com/lprior-repo/mergequeue/internal/lock"
	"github.com/lprior-repo/mergequeue/internal/queueid"
	"github.com/lprior-repo/mergequeue/internal/store"
)

// Store is the subset of store.Store the scheduler needs.
type Store interface {
	lock.Store
	ClaimNext(ctx context.Context, agent queueid.AgentID, leaseExpiresAt clock.Timestamp) (store.Entry, bool, error)
}

// Scheduler composes the processing lock and the durable store to hand out
// at most one claimed entry per call, per spec.md §4.6.
type Scheduler struct {
	store    Store
	lockMgr  *lock.Manager
	clock    clock.Source
	leaseTTL time.Duration
}

// New returns a Scheduler backed by s, using clk for timestamps and
// leaseTTL as the duration granted to a freshly claimed entry.
func New(s Store, clk clock.Source, leaseTTL time.Duration) *Scheduler {
	return &Scheduler{
		store:    s,
		lockMgr:  lock.NewManager(s),
		clock:    clk,
		leaseTTL: leaseTTL,
	}
}

// NextWithLock returns an entry exclusively owned by agent in state
// Claimed, or (Entry{}, false, nil) if there is nothing to do. Never
// returns the same entry to two agents.
//
// Algorithm (spec.md §4.6):
//  1. Try to acquire the processing lock for agent. If another agent holds
//     it, return nothing.
//  2. Ask the store for the first claimable entry under the canonical
//     order, claiming it atomically if one exists.
//  3. If nothing was claimable, release the lock (including one agent
//     already held before this call) and return nothing.
//  4. Otherwise return the claimed entry; the lock stays held until the
//     worker finishes, releases explicitly, or the stale-reclaim sweeper
//     reclaims it.
func (s *Scheduler) NextWithLock(ctx context.Context, agent queueid.AgentID) (store.Entry, bool, error) {
	acquired, err := s.lockMgr.Acquire(ctx, agent)
	if err != nil {
		return store.Entry{}, false, err
	}
	if !acquired {
		return store.Entry{}, false, nil
	}

	leaseExpiresAt := s.clock.Now().Add(s.leaseTTL)
	entry, ok, err := s.store.ClaimNext(ctx, agent, leaseExpiresAt)
	if err != nil {
		return store.Entry{}, false, err
	}
	if !ok {
		if _, relErr := s.lockMgr.Release(ctx, agent); relErr != nil {
			return store.Entry{}, false, relErr
		}
		return store.Entry{}, false, nil
	}

	return entry, true, nil
}
