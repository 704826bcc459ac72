package event

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// StartLength is the length of a complete start timestamp, in characters.
const StartLength = 23

// startLayout covers the date and time-of-day; milliseconds follow a colon,
// which time.Parse does not accept as a fractional separator.
const startLayout = "2006-01-02 15:04:05"

// ErrInvalidTimestamp is returned when start text is not a complete timestamp.
var ErrInvalidTimestamp = errors.New("invalid start timestamp")

// HasValidStart returns true if Start is present and exactly StartLength
// characters long.
func (e *Event) HasValidStart() bool {
	return e.Start != nil && utf8.RuneCountInString(*e.Start) == StartLength
}

// TruncateStart cuts s to at most StartLength characters. The cut is always
// on a character boundary.
func TruncateStart(s string) string {
	n := 0
	for i := range s {
		if n == StartLength {
			return s[:i]
		}
		n++
	}
	return s
}

// StartTime parses the event's start timestamp.
func (e *Event) StartTime() (time.Time, error) {
	if e.Start == nil {
		return time.Time{}, fmt.Errorf("event %s: %w: missing", e.Key(), ErrInvalidTimestamp)
	}
	ts, err := ParseStart(*e.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("event %s: %w", e.Key(), err)
	}
	return ts, nil
}

// ParseStart parses a "YYYY-MM-DD HH:MM:SS:fff" timestamp. The result is in
// UTC; the log carries no zone information.
func ParseStart(s string) (time.Time, error) {
	if len(s) != StartLength || s[19] != ':' {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}

	ts, err := time.Parse(startLayout, s[:19])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidTimestamp, s, err)
	}

	ms := 0
	for _, c := range s[20:] {
		if c < '0' || c > '9' {
			return time.Time{}, fmt.Errorf("%w: %q: bad milliseconds", ErrInvalidTimestamp, s)
		}
		ms = ms*10 + int(c-'0')
	}

	return ts.Add(time.Duration(ms) * time.Millisecond), nil
}
