// Package coordinator is the merge-queue facade: it composes the durable
// store with the scheduler, lease manager, freshness guard, and reclaim
// sweeper into the small set of operations the CLI and worker processes
// call. The cmd/mergequeued sweeper daemon does not go through it: it
// drives internal/reclaim directly over the store.
package coordinator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lprior-repo/mergequeue/internal/clock"
	"github.com/lprior-repo/mergequeue/internal/config"
	qerrors "github.com/lprior-repo/mergequeue/internal/errors"
	"github.com/lprior-repo/mergequeue/internal/events"
	"github.com/lprior-repo/mergequeue/internal/executor"
	"github.com/lprior-repo/mergequeue/internal/freshness"
	"github.com/lprior-repo/mergequeue/internal/lease"
	"github.com/lprior-repo/mergequeue/internal/lock"
	"github.com/lprior-repo/mergequeue/internal/queueid"
	"github.com/lprior-repo/mergequeue/internal/queuestate"
	"github.com/lprior-repo/mergequeue/internal/reclaim"
	"github.com/lprior-repo/mergequeue/internal/scheduler"
	"github.com/lprior-repo/mergequeue/internal/store"
)

// Operations is the coordinator's public contract. Defined separately from
// Coordinator so callers (and tests) can depend on the interface rather
// than the concrete type.
type Operations interface {
	// Enqueue adds ws to the queue. Returns Conflict if a non-terminal
	// entry for ws already exists, unless idempotencyKey matches a prior
	// call, in which case the existing entry is returned.
	Enqueue(ctx context.Context, ws queueid.Workspace, bead queueid.BeadID, priority queueid.Priority, idempotencyKey string) (store.Entry, error)

	// Get returns ws's current entry.
	Get(ctx context.Context, ws queueid.Workspace) (store.Entry, error)

	// List returns entries matching status, or all non-terminal entries
	// when status is the zero value.
	List(ctx context.Context, status queuestate.Status) ([]store.Entry, error)

	// Cancel moves ws to Cancelled. Idempotent if already cancelled.
	Cancel(ctx context.Context, ws queueid.Workspace, reason string) (store.Entry, error)

	// Claim runs next_with_lock for agent: acquires the processing lock,
	// selects and claims the next eligible entry, and returns it. The
	// second return value is false when there was nothing to claim.
	Claim(ctx context.Context, agent queueid.AgentID) (store.Entry, bool, error)

	// ReleaseProcessingLock releases the fleet-wide processing lock held
	// by agent, e.g. once a worker has finished acting on its claimed
	// entry.
	ReleaseProcessingLock(ctx context.Context, agent queueid.AgentID) (bool, error)

	// Heartbeat extends ws's lease on behalf of agent.
	Heartbeat(ctx context.Context, ws queueid.Workspace, agent queueid.AgentID) (store.Entry, error)

	// ReleaseLease returns ws to Pending, releasing agent's claim.
	ReleaseLease(ctx context.Context, ws queueid.Workspace, agent queueid.AgentID) (store.Entry, error)

	// Advance drives ws through one step of its execution pipeline
	// (rebase, test, ready, merge) using the injected MergeExecutor,
	// classifying and recording any reported failure.
	Advance(ctx context.Context, ws queueid.Workspace, agent queueid.AgentID) (store.Entry, error)

	// Sweep reclaims expired leases and, if now stale, the processing
	// lock.
	Sweep(ctx context.Context) (reclaim.Result, error)

	// Status summarizes the current queue.
	Status(ctx context.Context) (Status, error)

	// Events returns ws's audit log, oldest first.
	Events(ctx context.Context, ws queueid.Workspace) ([]events.Record, error)
}

// Coordinator implements Operations by composing the durable store with
// the scheduler, lease, freshness, and reclaim facades.
type Coordinator struct {
	store     *store.Store
	exec      executor.MergeExecutor
	cfg       *config.Config
	clock     clock.Source
	lockMgr   *lock.Manager
	leaseMgr  *lease.Manager
	scheduler *scheduler.Scheduler
	guard     *freshness.Guard
	sweeper   *reclaim.Sweeper
}

var _ Operations = (*Coordinator)(nil)

// New builds a Coordinator over s, delegating merge execution to exec.
func New(s *store.Store, exec executor.MergeExecutor, cfg *config.Config, clk clock.Source) *Coordinator {
	if clk == nil {
		clk = clock.RealSource{}
	}
	return &Coordinator{
		store:     s,
		exec:      exec,
		cfg:       cfg,
		clock:     clk,
		lockMgr:   lock.NewManager(s),
		leaseMgr:  lease.NewManager(s, clk, cfg.LeaseTTL),
		scheduler: scheduler.New(s, clk, cfg.LeaseTTL),
		guard:     freshness.New(s),
		sweeper:   reclaim.New(s, lock.NewManager(s), cfg.StaleLockThreshold),
	}
}

func (c *Coordinator) Enqueue(ctx context.Context, ws queueid.Workspace, bead queueid.BeadID, priority queueid.Priority, idempotencyKey string) (store.Entry, error) {
	return c.store.Add(ctx, ws, bead, priority, idempotencyKey)
}

func (c *Coordinator) Get(ctx context.Context, ws queueid.Workspace) (store.Entry, error) {
	return c.store.Get(ctx, ws)
}

func (c *Coordinator) List(ctx context.Context, status queuestate.Status) ([]store.Entry, error) {
	return c.store.List(ctx, status)
}

func (c *Coordinator) Cancel(ctx context.Context, ws queueid.Workspace, reason string) (store.Entry, error) {
	return c.store.Cancel(ctx, ws, reason)
}

func (c *Coordinator) Events(ctx context.Context, ws queueid.Workspace) ([]events.Record, error) {
	return c.store.ListEvents(ctx, ws)
}

func (c *Coordinator) Claim(ctx context.Context, agent queueid.AgentID) (store.Entry, bool, error) {
	return c.scheduler.NextWithLock(ctx, agent)
}

func (c *Coordinator) ReleaseProcessingLock(ctx context.Context, agent queueid.AgentID) (bool, error) {
	return c.lockMgr.Release(ctx, agent)
}

func (c *Coordinator) Heartbeat(ctx context.Context, ws queueid.Workspace, agent queueid.AgentID) (store.Entry, error) {
	return c.leaseMgr.Heartbeat(ctx, ws, agent)
}

func (c *Coordinator) ReleaseLease(ctx context.Context, ws queueid.Workspace, agent queueid.AgentID) (store.Entry, error) {
	return c.leaseMgr.Release(ctx, ws, agent)
}

func (c *Coordinator) Sweep(ctx context.Context) (reclaim.Result, error) {
	return c.sweeper.Sweep(ctx)
}

// Advance dispatches on ws's current status and runs the one executor
// step appropriate to it. Callers drive an entry to completion by calling
// Advance repeatedly (typically once per heartbeat interval) until it
// reaches a terminal state or ReadyToMerge awaiting the next trunk
// observation.
func (c *Coordinator) Advance(ctx context.Context, ws queueid.Workspace, agent queueid.AgentID) (store.Entry, error) {
	entry, err := c.store.Get(ctx, ws)
	if err != nil {
		return store.Entry{}, err
	}
	// A ReadyToMerge entry carries no owner (its lease ends when it becomes
	// ready), so the ownership check covers the leased states only.
	if entry.Status != queuestate.ReadyToMerge && entry.Owner != agent {
		return store.Entry{}, qerrors.Newf(qerrors.NotOwner, "entry %s is owned by %q, not %q", ws, entry.Owner, agent)
	}

	switch entry.Status {
	case queuestate.Claimed:
		return c.beginRebase(ctx, entry, agent)
	case queuestate.Rebasing:
		return c.runTests(ctx, entry, agent)
	case queuestate.Testing:
		return c.markReady(ctx, entry, agent)
	case queuestate.ReadyToMerge:
		return c.attemptMerge(ctx, entry, agent)
	default:
		return store.Entry{}, qerrors.Newf(qerrors.InvalidTransition, "entry %s in status %s is not advanceable", ws, entry.Status)
	}
}

func (c *Coordinator) beginRebase(ctx context.Context, entry store.Entry, agent queueid.AgentID) (store.Entry, error) {
	trunkHead, err := c.exec.CurrentTrunkHead(ctx)
	if err != nil {
		return c.handleExecutorError(ctx, entry, agent, err)
	}
	newHead, err := c.exec.Rebase(ctx, entry.Workspace, trunkHead)
	if err != nil {
		return c.handleExecutorError(ctx, entry, agent, err)
	}
	return c.store.TransitionTo(ctx, entry.Workspace, queuestate.Rebasing, store.TransitionOpts{
		Actor:   agent,
		HeadSHA: string(newHead),
	})
}

func (c *Coordinator) runTests(ctx context.Context, entry store.Entry, agent queueid.AgentID) (store.Entry, error) {
	if err := c.exec.RunTests(ctx, entry.Workspace); err != nil {
		return c.handleExecutorError(ctx, entry, agent, err)
	}
	return c.store.TransitionTo(ctx, entry.Workspace, queuestate.Testing, store.TransitionOpts{
		Actor:            agent,
		TestedAgainstSHA: entry.HeadSHA,
	})
}

func (c *Coordinator) markReady(ctx context.Context, entry store.Entry, agent queueid.AgentID) (store.Entry, error) {
	return c.store.TransitionTo(ctx, entry.Workspace, queuestate.ReadyToMerge, store.TransitionOpts{
		Actor: agent,
	})
}

func (c *Coordinator) attemptMerge(ctx context.Context, entry store.Entry, agent queueid.AgentID) (store.Entry, error) {
	trunkHead, err := c.exec.CurrentTrunkHead(ctx)
	if err != nil {
		return c.handleExecutorError(ctx, entry, agent, err)
	}
	if string(trunkHead) != entry.TestedAgainstSHA {
		return c.guard.ReturnToRebasingIfMainChanged(ctx, entry.Workspace, string(trunkHead))
	}
	mergedHead, err := c.exec.Merge(ctx, entry.Workspace)
	if err != nil {
		return c.handleExecutorError(ctx, entry, agent, err)
	}
	return c.store.CommitMerge(ctx, entry.Workspace, string(mergedHead))
}

// handleExecutorError classifies a failure reported by the merge executor
// and routes the entry accordingly: Retryable returns it to Pending,
// Permanent (including escalation past the attempt bound) moves it to
// FailedTerminal, Cancelled moves it to Cancelled.
func (c *Coordinator) handleExecutorError(ctx context.Context, entry store.Entry, agent queueid.AgentID, cause error) (store.Entry, error) {
	class := executor.Classify(cause, entry.AttemptCount, c.cfg.MaxAttempts)
	reason := cause.Error()
	lastError, err := json.Marshal(struct {
		Class   string `json:"class"`
		Message string `json:"message"`
	}{Class: class.String(), Message: reason})
	if err != nil {
		return store.Entry{}, err
	}

	switch class {
	case executor.Retryable:
		return c.store.TransitionTo(ctx, entry.Workspace, queuestate.Pending, store.TransitionOpts{
			Actor:      agent,
			Reason:     reason,
			LastError:  string(lastError),
			ClearOwner: true,
		})
	case executor.Cancelled:
		return c.store.TransitionTo(ctx, entry.Workspace, queuestate.Cancelled, store.TransitionOpts{
			Actor:     agent,
			Reason:    reason,
			LastError: string(lastError),
		})
	default:
		return c.store.TransitionTo(ctx, entry.Workspace, queuestate.FailedTerminal, store.TransitionOpts{
			Actor:     agent,
			Reason:    reason,
			LastError: string(lastError),
		})
	}
}

// Status summarizes the current contents of the queue.
type Status struct {
	Total          int
	Pending        int
	Claimed        int
	Rebasing       int
	Testing        int
	ReadyToMerge   int
	Merged         int
	FailedTerminal int
	Cancelled      int
	LockHolder     string
}

func (c *Coordinator) Status(ctx context.Context) (Status, error) {
	var st Status

	for _, s := range []queuestate.Status{
		queuestate.Pending, queuestate.Claimed, queuestate.Rebasing, queuestate.Testing,
		queuestate.ReadyToMerge, queuestate.Merged, queuestate.FailedTerminal, queuestate.Cancelled,
	} {
		entries, err := c.store.List(ctx, s)
		if err != nil {
			return Status{}, fmt.Errorf("list %s: %w", s, err)
		}
		n := len(entries)
		st.Total += n
		switch s {
		case queuestate.Pending:
			st.Pending = n
		case queuestate.Claimed:
			st.Claimed = n
		case queuestate.Rebasing:
			st.Rebasing = n
		case queuestate.Testing:
			st.Testing = n
		case queuestate.ReadyToMerge:
			st.ReadyToMerge = n
		case queuestate.Merged:
			st.Merged = n
		case queuestate.FailedTerminal:
			st.FailedTerminal = n
		case queuestate.Cancelled:
			st.Cancelled = n
		}
	}

	lk, err := c.lockMgr.Peek(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("peek lock: %w", err)
	}
	if lk.Held {
		st.LockHolder = lk.Holder.String()
	}
	return st, nil
}
