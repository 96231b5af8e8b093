package stix

import (
	"fmt"
	"time"
)

// timestampFormat is the wire format for object timestamps: RFC 3339 with
// millisecond precision and a literal Z suffix.
const timestampFormat = "2006-01-02T15:04:05.000Z"

// Timestamp is a point in time serialized in the interchange wire format.
// The zero Timestamp marshals to nothing under omitzero and compares as
// earlier than every real timestamp.
type Timestamp struct {
	time.Time
}

// NewTimestamp returns a Timestamp for t, truncated to millisecond
// precision in UTC so that a value round-trips through the wire format
// unchanged.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Millisecond)}
}

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return NewTimestamp(time.Now())
}

// ParseTimestamp parses a wire-format timestamp. Plain RFC 3339 values
// without fractional seconds are accepted as well.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return NewTimestamp(t), nil
}

// MustParseTimestamp parses a wire-format timestamp and panics on failure.
// Intended for fixtures and tests.
func MustParseTimestamp(s string) Timestamp {
	t, err := ParseTimestamp(s)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the wire representation.
func (t Timestamp) String() string {
	return t.UTC().Format(timestampFormat)
}

// Equal reports whether t and other name the same instant.
func (t Timestamp) Equal(other Timestamp) bool {
	return t.Time.Equal(other.Time)
}

// After reports whether t is strictly later than other.
func (t Timestamp) After(other Timestamp) bool {
	return t.Time.After(other.Time)
}

// Before reports whether t is strictly earlier than other.
func (t Timestamp) Before(other Timestamp) bool {
	return t.Time.Before(other.Time)
}

// MarshalJSON renders the wire format.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON parses the wire format.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid timestamp literal %s", data)
	}
	parsed, err := ParseTimestamp(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
