// Package store provides the durable queue store (C3): a single SQLite
// database file holding the entries table, the processing_lock singleton,
// and the append-only events log. Every multi-field mutation runs inside a
// single SQLite transaction (the driver's default deferred BEGIN, on a pool
// limited to one open connection), giving SQLite's serialized-writer
// semantics as the atomicity guarantee the coordinator's invariants need.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/lprior-repo/mergequeue/internal/clock"
	qerrors "github.com/lprior-repo/mergequeue/internal/errors"
	"github.com/lprior-repo/mergequeue/internal/events"
	"github.com/lprior-repo/mergequeue/internal/queueid"
	"github.com/lprior-repo/mergequeue/internal/queuestate"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Entry is the persisted shape of a queue entry, mirroring the entries
// table column-for-column.
type Entry struct {
	ID               queueid.EntryID
	Workspace        queueid.Workspace
	Bead             queueid.BeadID
	Priority         queueid.Priority
	AddedAt          clock.Timestamp
	Seq              int64
	Status           queuestate.Status
	Owner            queueid.AgentID
	LeaseExpiresAt   clock.Timestamp
	StartedAt        clock.Timestamp
	HeadSHA          string
	TestedAgainstSHA string
	AttemptCount     int
	LastError        string
	IdempotencyKey   string
	MergedSHA        string
}

// HasLease reports whether the entry carries a lease at all (owner set).
func (e Entry) HasLease() bool {
	return e.Owner != ""
}

// LeaseExpired reports whether the entry's lease is expired as of now.
// An entry with no lease is never considered expired by this check; the
// caller is expected to have already verified HasLease.
func (e Entry) LeaseExpired(now clock.Timestamp) bool {
	return e.HasLease() && e.LeaseExpiresAt.Before(now)
}

// row is the sqlx scan target; nullable columns use sql.Null* so empty
// string/zero values round-trip cleanly to the Entry type above.
type row struct {
	ID                 int64          `db:"id"`
	Workspace          string         `db:"workspace"`
	Bead               sql.NullString `db:"bead"`
	Priority           int            `db:"priority"`
	AddedAt            string         `db:"added_at"`
	Seq                int64          `db:"seq"`
	Status             string         `db:"status"`
	Owner              sql.NullString `db:"owner"`
	LeaseExpiresAt     sql.NullString `db:"lease_expires_at"`
	StartedAt          string         `db:"started_at"`
	HeadSHA            sql.NullString `db:"head_sha"`
	TestedAgainstSHA   sql.NullString `db:"tested_against_sha"`
	AttemptCount       int            `db:"attempt_count"`
	LastError          sql.NullString `db:"last_error"`
	IdempotencyKey     sql.NullString `db:"idempotency_key"`
	MergedSHA          sql.NullString `db:"merged_sha"`
}

func (r row) toEntry() (Entry, error) {
	addedAt, err := clock.Parse(r.AddedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parse added_at: %w", err)
	}
	startedAt, err := clock.Parse(r.StartedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parse started_at: %w", err)
	}
	var leaseExpiresAt clock.Timestamp
	if r.LeaseExpiresAt.Valid && r.LeaseExpiresAt.String != "" {
		leaseExpiresAt, err = clock.Parse(r.LeaseExpiresAt.String)
		if err != nil {
			return Entry{}, fmt.Errorf("parse lease_expires_at: %w", err)
		}
	}
	return Entry{
		ID:               queueid.EntryID(r.ID),
		Workspace:        queueid.Workspace(r.Workspace),
		Bead:             queueid.BeadID(r.Bead.String),
		Priority:         queueid.Priority(r.Priority),
		AddedAt:          addedAt,
		Seq:              r.Seq,
		Status:           queuestate.Status(r.Status),
		Owner:            queueid.AgentID(r.Owner.String),
		LeaseExpiresAt:   leaseExpiresAt,
		StartedAt:        startedAt,
		HeadSHA:          r.HeadSHA.String,
		TestedAgainstSHA: r.TestedAgainstSHA.String,
		AttemptCount:     r.AttemptCount,
		LastError:        r.LastError.String,
		IdempotencyKey:   r.IdempotencyKey.String,
		MergedSHA:        r.MergedSHA.String,
	}, nil
}

// Store is the durable queue store.
type Store struct {
	db    *sqlx.DB
	clock clock.Source
}

// Open opens (creating if necessary) the SQLite database at path and
// applies any pending goose migrations.
func Open(path string, clk clock.Source) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, qerrors.WrapStore(err, "open database")
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite is not safe for concurrent writers from one *DB

	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, qerrors.WrapStore(err, "set migration dialect")
	}
	goose.SetBaseFS(migrationsFS)
	if err := goose.Up(db.DB, "migrations"); err != nil {
		db.Close()
		return nil, qerrors.WrapStore(err, "apply migrations")
	}

	if clk == nil {
		clk = clock.RealSource{}
	}
	return &Store{db: db, clock: clk}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// execer is satisfied by *sqlx.DB and *sqlx.Tx, letting internal helpers
// run against either a bare connection or an open transaction.
type execer interface {
	sqlx.Ext
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

func (s *Store) begin(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, qerrors.WrapStore(err, "begin transaction")
	}
	if _, err := tx.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		tx.Rollback()
		return nil, qerrors.WrapStore(err, "enable foreign keys")
	}
	return tx, nil
}

func appendEvent(ctx context.Context, ex execer, clk clock.Source, ev events.Event, actor queueid.AgentID) error {
	rec, err := events.Encode(ev, actor.String())
	if err != nil {
		return qerrors.WrapStore(err, "encode event")
	}
	var entryID sql.NullInt64
	if rec.EntryID != 0 {
		entryID = sql.NullInt64{Int64: rec.EntryID, Valid: true}
	}
	_, err = ex.ExecContext(ctx,
		`INSERT INTO events (ts, kind, entry_id, actor, payload) VALUES (?, ?, ?, ?, ?)`,
		clk.Now().String(), string(rec.Kind), entryID, nullIfEmpty(rec.Actor), string(rec.Payload))
	if err != nil {
		return qerrors.WrapStore(err, "append event")
	}
	return nil
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Add inserts a new Pending entry for workspace. Rejects with Conflict if a
// non-terminal entry for the same workspace already exists. If
// idempotencyKey is non-empty and already bound to an entry for the same
// workspace, returns that entry instead of creating a duplicate; the same
// key reused against a different workspace does not match and proceeds as
// a normal (possibly conflicting) add.
func (s *Store) Add(ctx context.Context, ws queueid.Workspace, bead queueid.BeadID, priority queueid.Priority, idempotencyKey string) (Entry, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return Entry{}, err
	}
	defer tx.Rollback()

	if idempotencyKey != "" {
		existing, err := getByIdempotencyKey(ctx, tx, ws, idempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return Entry{}, qerrors.WrapStore(err, "lookup idempotency key")
		}
	}

	var conflict int
	err = tx.GetContext(ctx, &conflict,
		`SELECT COUNT(*) FROM entries WHERE workspace = ? AND status NOT IN ('merged','failed_terminal','cancelled')`,
		ws.String())
	if err != nil {
		return Entry{}, qerrors.WrapStore(err, "check workspace conflict")
	}
	if conflict > 0 {
		return Entry{}, qerrors.Newf(qerrors.Conflict, "workspace %q already has a non-terminal entry", ws)
	}

	now := s.clock.Now()
	var seq int64
	if err := tx.GetContext(ctx, &seq, `SELECT COALESCE(MAX(seq), 0) + 1 FROM entries`); err != nil {
		return Entry{}, qerrors.WrapStore(err, "assign sequence")
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO entries (workspace, bead, priority, added_at, seq, status, started_at, idempotency_key)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ws.String(), nullIfEmpty(bead.String()), int(priority), now.String(), seq, string(queuestate.Pending), now.String(), nullIfEmpty(idempotencyKey))
	if err != nil {
		return Entry{}, qerrors.WrapStore(err, "insert entry")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Entry{}, qerrors.WrapStore(err, "read inserted id")
	}

	ev := events.NewEntryAdded(queueid.EntryID(id), ws, priority, bead, now)
	if err := appendEvent(ctx, tx, s.clock, ev, ""); err != nil {
		return Entry{}, err
	}

	if err := tx.Commit(); err != nil {
		return Entry{}, qerrors.WrapStore(err, "commit add")
	}

	return s.Get(ctx, ws)
}

func getByIdempotencyKey(ctx context.Context, ex execer, ws queueid.Workspace, key string) (Entry, error) {
	var r row
	err := ex.GetContext(ctx, &r, `SELECT * FROM entries WHERE workspace = ? AND idempotency_key = ?`, ws.String(), key)
	if err != nil {
		return Entry{}, err
	}
	return r.toEntry()
}

// Get returns the entry for workspace, or NotFound.
func (s *Store) Get(ctx context.Context, ws queueid.Workspace) (Entry, error) {
	var r row
	err := s.db.GetContext(ctx, &r, `SELECT * FROM entries WHERE workspace = ? ORDER BY id DESC LIMIT 1`, ws.String())
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, qerrors.Newf(qerrors.NotFound, "no entry for workspace %q", ws)
	}
	if err != nil {
		return Entry{}, qerrors.WrapStore(err, "get entry")
	}
	return r.toEntry()
}

// List returns entries matching status, or all non-terminal entries when
// status is "". The unfiltered view never mixes terminal and non-terminal
// rows.
func (s *Store) List(ctx context.Context, status queuestate.Status) ([]Entry, error) {
	var rows []row
	var err error
	if status == "" {
		err = s.db.SelectContext(ctx, &rows,
			`SELECT * FROM entries WHERE status NOT IN ('merged','failed_terminal','cancelled')
			 ORDER BY priority ASC, seq ASC, id ASC`)
	} else {
		err = s.db.SelectContext(ctx, &rows,
			`SELECT * FROM entries WHERE status = ? ORDER BY priority ASC, seq ASC, id ASC`,
			string(status))
	}
	if err != nil {
		return nil, qerrors.WrapStore(err, "list entries")
	}

	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		e, err := r.toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// eventRow mirrors a row of the events table for sqlx scanning.
type eventRow struct {
	Seq     int64          `db:"seq"`
	TS      string         `db:"ts"`
	Kind    string         `db:"kind"`
	EntryID sql.NullInt64  `db:"entry_id"`
	Actor   sql.NullString `db:"actor"`
	Payload string         `db:"payload"`
}

// ListEvents returns the audit log for workspace's current entry, oldest
// first. Returns NotFound if workspace has no entry.
func (s *Store) ListEvents(ctx context.Context, ws queueid.Workspace) ([]events.Record, error) {
	entry, err := s.Get(ctx, ws)
	if err != nil {
		return nil, err
	}
	return s.listEventsForEntry(ctx, entry.ID)
}

// ListAllEvents returns every event in the store's audit log, oldest
// first, regardless of which entry it concerns.
func (s *Store) ListAllEvents(ctx context.Context) ([]events.Record, error) {
	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM events ORDER BY seq ASC`); err != nil {
		return nil, qerrors.WrapStore(err, "list events")
	}
	return toRecords(rows)
}

func (s *Store) listEventsForEntry(ctx context.Context, id queueid.EntryID) ([]events.Record, error) {
	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM events WHERE entry_id = ? ORDER BY seq ASC`, int64(id)); err != nil {
		return nil, qerrors.WrapStore(err, "list events for entry")
	}
	return toRecords(rows)
}

func toRecords(rows []eventRow) ([]events.Record, error) {
	recs := make([]events.Record, 0, len(rows))
	for _, r := range rows {
		ts, err := clock.Parse(r.TS)
		if err != nil {
			return nil, qerrors.WrapStore(err, "parse event timestamp")
		}
		recs = append(recs, events.Record{
			Seq:       r.Seq,
			Timestamp: ts,
			Kind:      events.Kind(r.Kind),
			EntryID:   r.EntryID.Int64,
			Actor:     r.Actor.String,
			Payload:   []byte(r.Payload),
		})
	}
	return recs, nil
}

// Cancel moves any non-terminal entry for workspace to Cancelled.
// Idempotent: cancelling an already-cancelled entry succeeds without error.
func (s *Store) Cancel(ctx context.Context, ws queueid.Workspace, reason string) (Entry, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return Entry{}, err
	}
	defer tx.Rollback()

	var r row
	err = tx.GetContext(ctx, &r, `SELECT * FROM entries WHERE workspace = ? ORDER BY id DESC LIMIT 1`, ws.String())
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, qerrors.Newf(qerrors.NotFound, "no entry for workspace %q", ws)
	}
	if err != nil {
		return Entry{}, qerrors.WrapStore(err, "get entry for cancel")
	}
	current, err := r.toEntry()
	if err != nil {
		return Entry{}, err
	}

	if current.Status == queuestate.Cancelled {
		return current, nil
	}
	if queuestate.IsTerminal(current.Status) {
		return Entry{}, qerrors.Newf(qerrors.TerminalState, "entry %q is terminal (%s)", ws, current.Status)
	}
	if err := queuestate.CheckTransition(current.Status, queuestate.Cancelled); err != nil {
		return Entry{}, qerrors.Wrap(qerrors.InvalidTransition, err, "cancel")
	}

	now := s.clock.Now()
	_, err = tx.ExecContext(ctx,
		`UPDATE entries SET status = ?, owner = NULL, lease_expires_at = NULL, started_at = ? WHERE id = ?`,
		string(queuestate.Cancelled), now.String(), current.ID)
	if err != nil {
		return Entry{}, qerrors.WrapStore(err, "cancel entry")
	}

	if err := appendEvent(ctx, tx, s.clock, events.NewEntryCancelled(current.ID, reason, now), ""); err != nil {
		return Entry{}, err
	}

	if err := tx.Commit(); err != nil {
		return Entry{}, qerrors.WrapStore(err, "commit cancel")
	}
	return s.Get(ctx, ws)
}

// getForUpdate reads the current row for workspace within tx.
func getForUpdate(ctx context.Context, tx *sqlx.Tx, ws queueid.Workspace) (Entry, error) {
	var r row
	err := tx.GetContext(ctx, &r, `SELECT * FROM entries WHERE workspace = ? ORDER BY id DESC LIMIT 1`, ws.String())
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, qerrors.Newf(qerrors.NotFound, "no entry for workspace %q", ws)
	}
	if err != nil {
		return Entry{}, qerrors.WrapStore(err, "get entry")
	}
	return r.toEntry()
}
