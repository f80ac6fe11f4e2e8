// Package freshness implements the freshness guard (C7): it keeps a
// ReadyToMerge entry honest about the trunk state it was tested against,
// demoting it back to Rebasing without losing FIFO position when trunk
// moves on underneath it.
package freshness

import (
	"context"

	"github.com/lprior-repo/mergequeue/internal/queueid"
	"github.com/lprior-repo/mergequeue/internal/store"
)

// Store is the subset of store.Store the freshness guard needs.
type Store interface {
	Get(ctx context.Context, ws queueid.Workspace) (store.Entry, error)
	CommitMerge(ctx context.Context, ws queueid.Workspace, mergedSHA string) (store.Entry, error)
	ReturnToRebasing(ctx context.Context, ws queueid.Workspace, newMainSHA string) (store.Entry, error)
}

// Guard applies the freshness check before an entry is allowed to merge.
type Guard struct {
	store Store
}

// New returns a Guard backed by s.
func New(s Store) *Guard {
	return &Guard{store: s}
}

// TryMerge compares ws's tested_against_sha against trunkHead. If they
// match, the entry is committed Merged. If trunk has advanced, the entry
// is returned to Rebasing instead, preserving its FIFO position.
func (g *Guard) TryMerge(ctx context.Context, ws queueid.Workspace, trunkHead string) (store.Entry, error) {
	entry, err := g.store.Get(ctx, ws)
	if err != nil {
		return store.Entry{}, err
	}

	if entry.TestedAgainstSHA == trunkHead {
		return g.store.CommitMerge(ctx, ws, trunkHead)
	}
	return g.ReturnToRebasingIfMainChanged(ctx, ws, trunkHead)
}

// ReturnToRebasingIfMainChanged demotes ws's entry to Rebasing because
// trunk has moved to newMainSHA since the entry was last tested. Applies
// symmetrically whether the entry is currently Testing or ReadyToMerge.
func (g *Guard) ReturnToRebasingIfMainChanged(ctx context.Context, ws queueid.Workspace, newMainSHA string) (store.Entry, error) {
	return g.store.ReturnToRebasing(ctx, ws, newMainSHA)
}
