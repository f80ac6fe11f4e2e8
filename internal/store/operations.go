package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lprior-repo/mergequeue/internal/clock"
	qerrors "github.com/lprior-repo/mergequeue/internal/errors"
	"github.com/lprior-repo/mergequeue/internal/events"
	"github.com/lprior-repo/mergequeue/internal/queueid"
	"github.com/lprior-repo/mergequeue/internal/queuestate"
)

// Lock is the processing lock singleton row (C4's ProcessingLock).
type Lock struct {
	Holder     queueid.AgentID
	AcquiredAt clock.Timestamp
	Held       bool
}

// AcquireLock attempts to acquire the singleton processing lock for agent.
// Re-entrant: returns true if agent already holds it.
func (s *Store) AcquireLock(ctx context.Context, agent queueid.AgentID) (bool, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var current sql.NullString
	if err := tx.GetContext(ctx, &current, `SELECT agent_id FROM processing_lock WHERE id = 1`); err != nil {
		return false, qerrors.WrapStore(err, "read processing lock")
	}

	if current.Valid && current.String != "" && current.String != agent.String() {
		return false, nil
	}

	now := s.clock.Now()
	if !current.Valid || current.String == "" {
		if _, err := tx.ExecContext(ctx, `UPDATE processing_lock SET agent_id = ?, acquired_at = ? WHERE id = 1`,
			agent.String(), now.String()); err != nil {
			return false, qerrors.WrapStore(err, "acquire processing lock")
		}
		if err := appendEvent(ctx, tx, s.clock, events.NewLockAcquired(agent, now), agent); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, qerrors.WrapStore(err, "commit acquire lock")
	}
	return true, nil
}

// ReleaseLock releases the processing lock iff agent is the current holder.
func (s *Store) ReleaseLock(ctx context.Context, agent queueid.AgentID) (bool, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var current sql.NullString
	if err := tx.GetContext(ctx, &current, `SELECT agent_id FROM processing_lock WHERE id = 1`); err != nil {
		return false, qerrors.WrapStore(err, "read processing lock")
	}
	if !current.Valid || current.String != agent.String() {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `UPDATE processing_lock SET agent_id = NULL, acquired_at = NULL WHERE id = 1`); err != nil {
		return false, qerrors.WrapStore(err, "release processing lock")
	}
	if err := appendEvent(ctx, tx, s.clock, events.NewLockReleased(agent, s.clock.Now()), agent); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, qerrors.WrapStore(err, "commit release lock")
	}
	return true, nil
}

// PeekLock returns the current processing lock state without mutating it.
func (s *Store) PeekLock(ctx context.Context) (Lock, error) {
	var agent sql.NullString
	var acquiredAt sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT agent_id, acquired_at FROM processing_lock WHERE id = 1`).
		Scan(&agent, &acquiredAt)
	if err != nil {
		return Lock{}, qerrors.WrapStore(err, "peek processing lock")
	}
	if !agent.Valid || agent.String == "" {
		return Lock{Held: false}, nil
	}
	at, err := clock.Parse(acquiredAt.String)
	if err != nil {
		return Lock{}, qerrors.WrapStore(err, "parse acquired_at")
	}
	return Lock{Holder: queueid.AgentID(agent.String), AcquiredAt: at, Held: true}, nil
}

// ReclaimLockIfStale releases the processing lock iff it is held, no
// non-terminal entry is currently Claimed/Rebasing/Testing with a
// non-expired lease owned by the holder, and the lock has been held longer
// than threshold. The threshold protects a holder that acquired the lock
// moments ago and has not yet had a chance to claim live work from being
// reclaimed out from under it. Never releases a lock that corresponds to
// live work, regardless of threshold.
func (s *Store) ReclaimLockIfStale(ctx context.Context, threshold time.Duration) (bool, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var holder sql.NullString
	var acquiredAt sql.NullString
	if err := tx.QueryRowContext(ctx, `SELECT agent_id, acquired_at FROM processing_lock WHERE id = 1`).
		Scan(&holder, &acquiredAt); err != nil {
		return false, qerrors.WrapStore(err, "read processing lock")
	}
	if !holder.Valid || holder.String == "" {
		return false, nil
	}

	now := s.clock.Now()
	if acquiredAt.Valid {
		at, err := clock.Parse(acquiredAt.String)
		if err != nil {
			return false, qerrors.WrapStore(err, "parse acquired_at")
		}
		if now.Time().Sub(at.Time()) <= threshold {
			return false, nil
		}
	}

	var liveCount int
	err = tx.GetContext(ctx, &liveCount,
		`SELECT COUNT(*) FROM entries
		 WHERE owner = ? AND status IN ('claimed','rebasing','testing') AND lease_expires_at >= ?`,
		holder.String, now.String())
	if err != nil {
		return false, qerrors.WrapStore(err, "count live work")
	}
	if liveCount > 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `UPDATE processing_lock SET agent_id = NULL, acquired_at = NULL WHERE id = 1`); err != nil {
		return false, qerrors.WrapStore(err, "reclaim processing lock")
	}
	if err := appendEvent(ctx, tx, s.clock, events.NewLockReclaimed(queueid.AgentID(holder.String), now), ""); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, qerrors.WrapStore(err, "commit reclaim lock")
	}
	return true, nil
}

// ClaimNext selects the highest-priority, oldest claimable entry (Pending,
// or Claimed/Rebasing/Testing with an expired lease) and transitions it to
// Claimed under agent with a fresh lease. Returns (Entry{}, false, nil) if
// there is nothing to claim. ReadyToMerge entries are never selected.
func (s *Store) ClaimNext(ctx context.Context, agent queueid.AgentID, leaseTTL clock.Timestamp) (Entry, bool, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return Entry{}, false, err
	}
	defer tx.Rollback()

	now := s.clock.Now()
	var r row
	err = tx.GetContext(ctx, &r, `
		SELECT * FROM entries
		WHERE status = 'pending'
		   OR (status IN ('claimed','rebasing','testing') AND lease_expires_at < ?)
		ORDER BY priority ASC, seq ASC, id ASC
		LIMIT 1`, now.String())
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, qerrors.WrapStore(err, "select claim candidate")
	}
	candidate, err := r.toEntry()
	if err != nil {
		return Entry{}, false, err
	}

	newAttempt := candidate.AttemptCount + 1
	_, err = tx.ExecContext(ctx,
		`UPDATE entries SET status = ?, owner = ?, lease_expires_at = ?, started_at = ?, attempt_count = ? WHERE id = ?`,
		string(queuestate.Claimed), agent.String(), leaseTTL.String(), now.String(), newAttempt, candidate.ID)
	if err != nil {
		return Entry{}, false, qerrors.WrapStore(err, "claim entry")
	}

	if err := appendEvent(ctx, tx, s.clock, events.NewEntryClaimed(candidate.ID, agent, newAttempt, leaseTTL, now), agent); err != nil {
		return Entry{}, false, err
	}

	if err := tx.Commit(); err != nil {
		return Entry{}, false, qerrors.WrapStore(err, "commit claim")
	}

	return s.Get(ctx, candidate.Workspace)
}

// Heartbeat extends the lease of workspace's entry iff agent is the
// current owner. Does not increment attempt_count.
func (s *Store) Heartbeat(ctx context.Context, ws queueid.Workspace, agent queueid.AgentID, newExpiresAt clock.Timestamp) (Entry, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return Entry{}, err
	}
	defer tx.Rollback()

	current, err := getForUpdate(ctx, tx, ws)
	if err != nil {
		return Entry{}, err
	}
	if current.Owner != agent {
		return Entry{}, qerrors.Newf(qerrors.NotOwner, "agent %q does not own %q", agent, ws)
	}
	now := s.clock.Now()
	if current.LeaseExpired(now) {
		return Entry{}, qerrors.Newf(qerrors.LeaseExpired, "lease for %q expired at %s", ws, current.LeaseExpiresAt)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE entries SET lease_expires_at = ? WHERE id = ?`, newExpiresAt.String(), current.ID); err != nil {
		return Entry{}, qerrors.WrapStore(err, "heartbeat entry")
	}
	if err := appendEvent(ctx, tx, s.clock, events.NewEntryLeaseRefreshed(current.ID, agent, newExpiresAt, now), agent); err != nil {
		return Entry{}, err
	}

	if err := tx.Commit(); err != nil {
		return Entry{}, qerrors.WrapStore(err, "commit heartbeat")
	}
	return s.Get(ctx, ws)
}

// ReleaseLease transitions workspace's entry back to Pending iff agent is
// the current owner and status is Claimed/Rebasing/Testing. Clears
// ownership and leaves attempt_count unchanged.
func (s *Store) ReleaseLease(ctx context.Context, ws queueid.Workspace, agent queueid.AgentID) (Entry, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return Entry{}, err
	}
	defer tx.Rollback()

	current, err := getForUpdate(ctx, tx, ws)
	if err != nil {
		return Entry{}, err
	}
	if current.Owner != agent {
		return Entry{}, qerrors.Newf(qerrors.NotOwner, "agent %q does not own %q", agent, ws)
	}
	if !queuestate.HasOwner(current.Status) {
		return Entry{}, qerrors.Newf(qerrors.InvalidTransition, "entry %q is not owned (%s)", ws, current.Status)
	}

	now := s.clock.Now()
	if _, err := tx.ExecContext(ctx,
		`UPDATE entries SET status = ?, owner = NULL, lease_expires_at = NULL, started_at = ? WHERE id = ?`,
		string(queuestate.Pending), now.String(), current.ID); err != nil {
		return Entry{}, qerrors.WrapStore(err, "release lease")
	}
	if err := appendEvent(ctx, tx, s.clock, events.NewEntryTransitioned(current.ID, current.Status, queuestate.Pending, agent, "lease released", now), agent); err != nil {
		return Entry{}, err
	}

	if err := tx.Commit(); err != nil {
		return Entry{}, qerrors.WrapStore(err, "commit release lease")
	}
	return s.Get(ctx, ws)
}

// TransitionOpts carries the side-effect fields a transition may need to
// set, beyond status itself.
type TransitionOpts struct {
	Actor            queueid.AgentID
	Reason           string
	HeadSHA          string
	TestedAgainstSHA string
	LastError        string
	ClearOwner       bool
}

// TransitionTo moves workspace's entry from its current status to newStatus
// if legal, applying opts's side-effect fields, and appends an
// EntryTransitioned event. Fails NotFound, InvalidTransition.
func (s *Store) TransitionTo(ctx context.Context, ws queueid.Workspace, newStatus queuestate.Status, opts TransitionOpts) (Entry, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return Entry{}, err
	}
	defer tx.Rollback()

	current, err := getForUpdate(ctx, tx, ws)
	if err != nil {
		return Entry{}, err
	}
	if queuestate.IsTerminal(current.Status) {
		return Entry{}, qerrors.Newf(qerrors.TerminalState, "entry %q is terminal (%s)", ws, current.Status)
	}
	if err := queuestate.CheckTransition(current.Status, newStatus); err != nil {
		return Entry{}, qerrors.Wrap(qerrors.InvalidTransition, err, "transition_to")
	}

	now := s.clock.Now()
	owner := current.Owner
	leaseExpiresAt := current.LeaseExpiresAt
	if opts.ClearOwner || !queuestate.HasOwner(newStatus) {
		owner = ""
		leaseExpiresAt = clock.Zero
	}

	headSHA := current.HeadSHA
	if opts.HeadSHA != "" {
		headSHA = opts.HeadSHA
	}
	testedAgainstSHA := current.TestedAgainstSHA
	if opts.TestedAgainstSHA != "" {
		testedAgainstSHA = opts.TestedAgainstSHA
	}
	lastError := current.LastError
	if opts.LastError != "" {
		lastError = opts.LastError
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE entries
		 SET status = ?, owner = ?, lease_expires_at = ?, started_at = ?, head_sha = ?, tested_against_sha = ?, last_error = ?
		 WHERE id = ?`,
		string(newStatus), nullIfEmpty(owner.String()), nullableTimestamp(leaseExpiresAt), now.String(),
		nullIfEmpty(headSHA), nullIfEmpty(testedAgainstSHA), nullIfEmpty(lastError), current.ID)
	if err != nil {
		return Entry{}, qerrors.WrapStore(err, "transition entry")
	}

	if err := appendEvent(ctx, tx, s.clock, events.NewEntryTransitioned(current.ID, current.Status, newStatus, opts.Actor, opts.Reason, now), opts.Actor); err != nil {
		return Entry{}, err
	}

	if err := tx.Commit(); err != nil {
		return Entry{}, qerrors.WrapStore(err, "commit transition")
	}
	return s.Get(ctx, ws)
}

func nullableTimestamp(ts clock.Timestamp) sql.NullString {
	if ts.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: ts.String(), Valid: true}
}

// CommitMerge finalizes a ReadyToMerge entry as Merged once the freshness
// guard has confirmed tested_against_sha still matches trunk head.
func (s *Store) CommitMerge(ctx context.Context, ws queueid.Workspace, mergedSHA string) (Entry, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return Entry{}, err
	}
	defer tx.Rollback()

	current, err := getForUpdate(ctx, tx, ws)
	if err != nil {
		return Entry{}, err
	}
	if err := queuestate.CheckTransition(current.Status, queuestate.Merged); err != nil {
		return Entry{}, qerrors.Wrap(qerrors.InvalidTransition, err, "commit_merge")
	}

	now := s.clock.Now()
	if _, err := tx.ExecContext(ctx,
		`UPDATE entries SET status = ?, merged_sha = ?, started_at = ? WHERE id = ?`,
		string(queuestate.Merged), mergedSHA, now.String(), current.ID); err != nil {
		return Entry{}, qerrors.WrapStore(err, "commit merge")
	}
	if err := appendEvent(ctx, tx, s.clock, events.NewEntryMerged(current.ID, mergedSHA, now), ""); err != nil {
		return Entry{}, err
	}

	if err := tx.Commit(); err != nil {
		return Entry{}, qerrors.WrapStore(err, "commit merge tx")
	}
	return s.Get(ctx, ws)
}

// ReturnToRebasing demotes an entry from ReadyToMerge or Testing back to
// Rebasing because trunk has advanced past tested_against_sha. The entry's
// added_at/seq are untouched, preserving FIFO position.
func (s *Store) ReturnToRebasing(ctx context.Context, ws queueid.Workspace, newMainSHA string) (Entry, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return Entry{}, err
	}
	defer tx.Rollback()

	current, err := getForUpdate(ctx, tx, ws)
	if err != nil {
		return Entry{}, err
	}
	if err := queuestate.CheckTransition(current.Status, queuestate.Rebasing); err != nil {
		return Entry{}, qerrors.Wrap(qerrors.InvalidTransition, err, "return_to_rebasing_if_main_changed")
	}

	now := s.clock.Now()
	previousTested := current.TestedAgainstSHA
	if _, err := tx.ExecContext(ctx,
		`UPDATE entries SET status = ?, tested_against_sha = NULL, started_at = ? WHERE id = ?`,
		string(queuestate.Rebasing), now.String(), current.ID); err != nil {
		return Entry{}, qerrors.WrapStore(err, "return to rebasing")
	}
	if err := appendEvent(ctx, tx, s.clock, events.NewEntryReturnedToRebasing(current.ID, previousTested, newMainSHA, now), current.Owner); err != nil {
		return Entry{}, err
	}

	if err := tx.Commit(); err != nil {
		return Entry{}, qerrors.WrapStore(err, "commit return to rebasing")
	}
	return s.Get(ctx, ws)
}

// SweepExpiredLeases reclaims every non-terminal Claimed/Rebasing/Testing
// entry whose lease has expired back to Pending, leaving ReadyToMerge
// entries untouched, and returns the count reclaimed.
func (s *Store) SweepExpiredLeases(ctx context.Context) (int, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := s.clock.Now()
	var expired []row
	err = tx.SelectContext(ctx, &expired,
		`SELECT * FROM entries WHERE status IN ('claimed','rebasing','testing') AND lease_expires_at < ?`,
		now.String())
	if err != nil {
		return 0, qerrors.WrapStore(err, "select expired leases")
	}

	for _, r := range expired {
		e, err := r.toEntry()
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE entries SET status = ?, owner = NULL, lease_expires_at = NULL WHERE id = ?`,
			string(queuestate.Pending), e.ID); err != nil {
			return 0, qerrors.WrapStore(err, "reclaim entry")
		}
		if err := appendEvent(ctx, tx, s.clock, events.NewEntryReclaimed(e.ID, e.Owner, e.AttemptCount, now), ""); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, qerrors.WrapStore(err, "commit sweep")
	}
	return len(expired), nil
}
