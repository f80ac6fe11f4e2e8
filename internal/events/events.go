// Package events defines the domain events emitted by the merge queue
// coordinator. Every state-changing mutation appends exactly one event to
// the store's append-only event log, in the same transaction as the
// mutation itself.
package events

import (
	"github.com/lprior-repo/mergequeue/internal/clock"
	"github.com/lprior-repo/mergequeue/internal/queueid"
	"github.com/lprior-repo/mergequeue/internal/queuestate"
)

// Kind identifies the type of a domain event.
type Kind string

// The full set of domain event kinds.
const (
	KindEntryAdded              Kind = "entry_added"
	KindEntryClaimed            Kind = "entry_claimed"
	KindEntryLeaseRefreshed     Kind = "entry_lease_refreshed"
	KindEntryTransitioned       Kind = "entry_transitioned"
	KindEntryReturnedToRebasing Kind = "entry_returned_to_rebasing"
	KindEntryMerged             Kind = "entry_merged"
	KindEntryCancelled          Kind = "entry_cancelled"
	KindEntryReclaimed          Kind = "entry_reclaimed"
	KindLockAcquired            Kind = "lock_acquired"
	KindLockReleased            Kind = "lock_released"
	KindLockReclaimed           Kind = "lock_reclaimed"
)

// Event is the base interface implemented by all domain events.
type Event interface {
	// Kind returns the event type identifier.
	Kind() Kind

	// Timestamp returns when the event occurred.
	Timestamp() clock.Timestamp

	// EntryID returns the queue entry the event concerns, or 0 for
	// lock-level events.
	EntryID() queueid.EntryID
}

// Base carries the fields common to every event.
type Base struct {
	EventKind Kind            `json:"kind"`
	EventTime clock.Timestamp `json:"timestamp"`
	Entry     queueid.EntryID `json:"entry_id,omitempty"`
}

// Kind returns the event type identifier.
func (b Base) Kind() Kind { return b.EventKind }

// Timestamp returns when the event occurred.
func (b Base) Timestamp() clock.Timestamp { return b.EventTime }

// EntryID returns the concerned entry's id, if any.
func (b Base) EntryID() queueid.EntryID { return b.Entry }

// EntryAdded is emitted when a new entry is enqueued.
type EntryAdded struct {
	Base
	Workspace queueid.Workspace `json:"workspace"`
	Priority  queueid.Priority  `json:"priority"`
	BeadID    queueid.BeadID    `json:"bead_id,omitempty"`
}

// NewEntryAdded constructs an EntryAdded event.
func NewEntryAdded(id queueid.EntryID, ws queueid.Workspace, priority queueid.Priority, bead queueid.BeadID, at clock.Timestamp) EntryAdded {
	return EntryAdded{
		Base:      Base{EventKind: KindEntryAdded, EventTime: at, Entry: id},
		Workspace: ws,
		Priority:  priority,
		BeadID:    bead,
	}
}

// EntryClaimed is emitted when an entry is claimed by an agent under the
// processing lock.
type EntryClaimed struct {
	Base
	Owner          queueid.AgentID `json:"owner"`
	Attempt        int             `json:"attempt"`
	LeaseExpiresAt clock.Timestamp `json:"lease_expires_at"`
}

// NewEntryClaimed constructs an EntryClaimed event.
func NewEntryClaimed(id queueid.EntryID, owner queueid.AgentID, attempt int, leaseExpiresAt, at clock.Timestamp) EntryClaimed {
	return EntryClaimed{
		Base:           Base{EventKind: KindEntryClaimed, EventTime: at, Entry: id},
		Owner:          owner,
		Attempt:        attempt,
		LeaseExpiresAt: leaseExpiresAt,
	}
}

// EntryLeaseRefreshed is emitted when an owner heartbeats a live lease.
type EntryLeaseRefreshed struct {
	Base
	Owner          queueid.AgentID `json:"owner"`
	LeaseExpiresAt clock.Timestamp `json:"lease_expires_at"`
}

// NewEntryLeaseRefreshed constructs an EntryLeaseRefreshed event.
func NewEntryLeaseRefreshed(id queueid.EntryID, owner queueid.AgentID, leaseExpiresAt, at clock.Timestamp) EntryLeaseRefreshed {
	return EntryLeaseRefreshed{
		Base:           Base{EventKind: KindEntryLeaseRefreshed, EventTime: at, Entry: id},
		Owner:          owner,
		LeaseExpiresAt: leaseExpiresAt,
	}
}

// EntryTransitioned is emitted for a legal state-machine transition that
// is driven by TransitionTo or lease release: the rebasing/testing/
// ready-to-merge moves, and the executor-failure moves to pending,
// failed_terminal or cancelled. Claims, merges, Store.Cancel cancellations,
// returns-to-rebasing and reclaims carry their own event kind instead, with
// payload fields this one doesn't have.
type EntryTransitioned struct {
	Base
	From   queuestate.Status `json:"from"`
	To     queuestate.Status `json:"to"`
	Actor  queueid.AgentID   `json:"actor,omitempty"`
	Reason string            `json:"reason,omitempty"`
}

// NewEntryTransitioned constructs an EntryTransitioned event.
func NewEntryTransitioned(id queueid.EntryID, from, to queuestate.Status, actor queueid.AgentID, reason string, at clock.Timestamp) EntryTransitioned {
	return EntryTransitioned{
		Base:   Base{EventKind: KindEntryTransitioned, EventTime: at, Entry: id},
		From:   from,
		To:     to,
		Actor:  actor,
		Reason: reason,
	}
}

// EntryReturnedToRebasing is emitted when the freshness guard demotes a
// ReadyToMerge or Testing entry because trunk head moved past
// tested_against_sha.
type EntryReturnedToRebasing struct {
	Base
	PreviousTestedSHA string `json:"previous_tested_sha"`
	NewMainSHA        string `json:"new_main_sha"`
}

// NewEntryReturnedToRebasing constructs an EntryReturnedToRebasing event.
func NewEntryReturnedToRebasing(id queueid.EntryID, previousTestedSHA, newMainSHA string, at clock.Timestamp) EntryReturnedToRebasing {
	return EntryReturnedToRebasing{
		Base:              Base{EventKind: KindEntryReturnedToRebasing, EventTime: at, Entry: id},
		PreviousTestedSHA: previousTestedSHA,
		NewMainSHA:        newMainSHA,
	}
}

// EntryMerged is emitted when an entry reaches the terminal Merged state.
type EntryMerged struct {
	Base
	MergedSHA string `json:"merged_sha"`
}

// NewEntryMerged constructs an EntryMerged event.
func NewEntryMerged(id queueid.EntryID, mergedSHA string, at clock.Timestamp) EntryMerged {
	return EntryMerged{
		Base:      Base{EventKind: KindEntryMerged, EventTime: at, Entry: id},
		MergedSHA: mergedSHA,
	}
}

// EntryCancelled is emitted when an entry is cancelled.
type EntryCancelled struct {
	Base
	Reason string `json:"reason,omitempty"`
}

// NewEntryCancelled constructs an EntryCancelled event.
func NewEntryCancelled(id queueid.EntryID, reason string, at clock.Timestamp) EntryCancelled {
	return EntryCancelled{
		Base:   Base{EventKind: KindEntryCancelled, EventTime: at, Entry: id},
		Reason: reason,
	}
}

// EntryReclaimed is emitted by the stale reclaim sweeper when it returns an
// entry with an expired lease to Pending.
type EntryReclaimed struct {
	Base
	PreviousOwner queueid.AgentID `json:"previous_owner"`
	Attempts      int             `json:"attempts"`
}

// NewEntryReclaimed constructs an EntryReclaimed event.
func NewEntryReclaimed(id queueid.EntryID, previousOwner queueid.AgentID, attempts int, at clock.Timestamp) EntryReclaimed {
	return EntryReclaimed{
		Base:          Base{EventKind: KindEntryReclaimed, EventTime: at, Entry: id},
		PreviousOwner: previousOwner,
		Attempts:      attempts,
	}
}

// LockAcquired is emitted when the fleet-wide processing lock is acquired.
type LockAcquired struct {
	Base
	Holder queueid.AgentID `json:"holder"`
}

// NewLockAcquired constructs a LockAcquired event.
func NewLockAcquired(holder queueid.AgentID, at clock.Timestamp) LockAcquired {
	return LockAcquired{
		Base:   Base{EventKind: KindLockAcquired, EventTime: at},
		Holder: holder,
	}
}

// LockReleased is emitted when the processing lock is explicitly released.
type LockReleased struct {
	Base
	Holder queueid.AgentID `json:"holder"`
}

// NewLockReleased constructs a LockReleased event.
func NewLockReleased(holder queueid.AgentID, at clock.Timestamp) LockReleased {
	return LockReleased{
		Base:   Base{EventKind: KindLockReleased, EventTime: at},
		Holder: holder,
	}
}

// LockReclaimed is emitted when the stale reclaim sweeper forcibly releases
// a processing lock with no live work under it.
type LockReclaimed struct {
	Base
	PreviousHolder queueid.AgentID `json:"previous_holder"`
}

// NewLockReclaimed constructs a LockReclaimed event.
func NewLockReclaimed(previousHolder queueid.AgentID, at clock.Timestamp) LockReclaimed {
	return LockReclaimed{
		Base:           Base{EventKind: KindLockReclaimed, EventTime: at},
		PreviousHolder: previousHolder,
	}
}
