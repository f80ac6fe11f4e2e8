package events

import (
	"encoding/json"
	"fmt"

	"github.com/lprior-repo/mergequeue/internal/clock"
)

// Record is the row shape persisted to the store's events table: the
// event's kind and correlation fields factored out for indexing, with the
// full event serialized as JSON in Payload. Seq and Timestamp are only
// populated when a Record is read back from the store; Encode leaves them
// zero since the store assigns Seq on insert and stamps Timestamp itself.
type Record struct {
	Seq       int64
	Timestamp clock.Timestamp
	Kind      Kind
	EntryID   int64
	Actor     string
	Payload   []byte
}

// Encode serializes ev into a Record ready for insertion.
func Encode(ev Event, actor string) (Record, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return Record{}, fmt.Errorf("encode event %s: %w", ev.Kind(), err)
	}
	return Record{
		Kind:    ev.Kind(),
		EntryID: int64(ev.EntryID()),
		Actor:   actor,
		Payload: payload,
	}, nil
}

// Decode unmarshals a Record's payload back into its concrete Event type,
// selected by Kind. Returns an error for an unrecognized kind or malformed
// payload.
func Decode(rec Record) (Event, error) {
	var ev Event
	switch rec.Kind {
	case KindEntryAdded:
		ev = &EntryAdded{}
	case KindEntryClaimed:
		ev = &EntryClaimed{}
	case KindEntryLeaseRefreshed:
		ev = &EntryLeaseRefreshed{}
	case KindEntryTransitioned:
		ev = &EntryTransitioned{}
	case KindEntryReturnedToRebasing:
		ev = &EntryReturnedToRebasing{}
	case KindEntryMerged:
		ev = &EntryMerged{}
	case KindEntryCancelled:
		ev = &EntryCancelled{}
	case KindEntryReclaimed:
		ev = &EntryReclaimed{}
	case KindLockAcquired:
		ev = &LockAcquired{}
	case KindLockReleased:
		ev = &LockReleased{}
	case KindLockReclaimed:
		ev = &LockReclaimed{}
	default:
		return nil, fmt.Errorf("decode event: unrecognized kind %q", rec.Kind)
	}
	if err := json.Unmarshal(rec.Payload, ev); err != nil {
		return nil, fmt.Errorf("decode event %s: %w", rec.Kind, err)
	}
	return ev, nil
}
