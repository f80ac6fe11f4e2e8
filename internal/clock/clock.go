// Package clock provides the wall-clock timestamp type and source used
// throughout the merge queue. Timestamps are captured centrally by the
// store, never by callers, so that ordering and expiry checks are
// consistent regardless of which process or goroutine observes them.
package clock

import (
	"encoding/json"
	"errors"
	"time"
)

// Timestamp represents a UTC instant with nanosecond precision, preserved
// through JSON and string round-trips via sortableLayout.
type Timestamp struct {
	t time.Time
}

// sortableLayout is RFC3339 with a fixed 9-digit fractional second. Unlike
// RFC3339Nano (which trims trailing zeros), every formatted value has the
// same width, so lexical string comparison agrees with chronological
// order — required because the store sorts and filters on the string
// column directly.
const sortableLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Now returns a Timestamp representing the current instant in UTC.
func Now() Timestamp {
	return Timestamp{t: time.Now().UTC()}
}

// FromTime converts a time.Time to a Timestamp, normalizing to UTC.
func FromTime(t time.Time) Timestamp {
	return Timestamp{t: t.UTC()}
}

// Zero is the zero-value Timestamp.
var Zero Timestamp

// Parse parses a sortableLayout, RFC3339, or RFC3339Nano formatted string.
func Parse(s string) (Timestamp, error) {
	for _, layout := range []string{sortableLayout, time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{t: t.UTC()}, nil
		}
	}
	_, err := time.Parse(sortableLayout, s)
	return Timestamp{}, err
}

// Time returns the underlying time.Time.
func (ts Timestamp) Time() time.Time { return ts.t }

// String returns the fixed-width, lexically sortable representation.
func (ts Timestamp) String() string {
	return ts.t.Format(sortableLayout)
}

// Before reports whether ts is strictly before other.
func (ts Timestamp) Before(other Timestamp) bool { return ts.t.Before(other.t) }

// After reports whether ts is strictly after other.
func (ts Timestamp) After(other Timestamp) bool { return ts.t.After(other.t) }

// Add returns ts shifted by d.
func (ts Timestamp) Add(d time.Duration) Timestamp {
	return Timestamp{t: ts.t.Add(d)}
}

// IsZero reports whether ts is the zero value.
func (ts Timestamp) IsZero() bool { return ts.t.IsZero() }

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.t.Format(sortableLayout))
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("invalid JSON timestamp: not a string")
	}
	parsed, err := Parse(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	ts.t = parsed.t
	return nil
}

// Source supplies the current time. Production code uses RealSource; tests
// can substitute a Fixed source for deterministic expiry checks.
type Source interface {
	Now() Timestamp
}

// RealSource reads the system clock.
type RealSource struct{}

// Now returns the current system time in UTC.
func (RealSource) Now() Timestamp { return Now() }

// Fixed is a Source that always returns the same instant.
type Fixed struct {
	At Timestamp
}

// Now returns the fixed instant.
func (f Fixed) Now() Timestamp { return f.At }
