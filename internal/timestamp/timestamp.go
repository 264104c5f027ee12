// Package timestamp extracts timestamps embedded at the start of log lines.
//
// Lines from different tools carry timestamps in very different shapes
// (Hadoop "2015-10-17 15:37:56,547", Android "12-17 19:31:36.263",
// kernel "[    0.000000]", plain counters "16 : ..."). The Extractor tries
// bracketed timestamps first, then the longest parseable leading word prefix.
package timestamp

import (
	"fmt"
	"time"
)

// Kind tells whether a Timestamp was read as a plain number or as a date.
type Kind int

const (
	KindNumeric Kind = iota
	KindDateTime
)

// Timestamp is a point in time extracted from a log line.
//
// Numeric timestamps (counters, seconds since boot) and calendar timestamps
// are both reduced to seconds so they can be compared and subtracted.
type Timestamp struct {
	// Representation is the text the timestamp was parsed from, if any.
	Representation string

	kind    Kind
	seconds float64
	time    time.Time
}

// FromSeconds builds a numeric Timestamp.
func FromSeconds(s float64) Timestamp {
	return Timestamp{kind: KindNumeric, seconds: s}
}

// FromTime builds a calendar Timestamp.
func FromTime(t time.Time) Timestamp {
	return Timestamp{kind: KindDateTime, time: t}
}

// Kind returns how the timestamp was interpreted.
func (t Timestamp) Kind() Kind {
	return t.kind
}

// Time returns the calendar value and whether the timestamp is a date.
func (t Timestamp) Time() (time.Time, bool) {
	return t.time, t.kind == KindDateTime
}

// Numeric returns the timestamp in seconds. Calendar values are seconds
// since the Unix epoch; layouts without a year resolve to year 0, which
// keeps them ordered among themselves.
func (t Timestamp) Numeric() float64 {
	if t.kind == KindDateTime {
		return float64(t.time.Unix()) + float64(t.time.Nanosecond())/1e9
	}
	return t.seconds
}

// Relative returns the number of seconds elapsed since origin.
func (t Timestamp) Relative(origin Timestamp) float64 {
	if t.kind == KindDateTime && origin.kind == KindDateTime {
		secs := float64(t.time.Unix() - origin.time.Unix())
		return secs + float64(t.time.Nanosecond()-origin.time.Nanosecond())/1e9
	}
	return t.Numeric() - origin.Numeric()
}

// Equal reports whether both timestamps denote the same instant.
func (t Timestamp) Equal(o Timestamp) bool {
	return t.Numeric() == o.Numeric()
}

// Before reports whether t is strictly earlier than o.
func (t Timestamp) Before(o Timestamp) bool {
	return t.Numeric() < o.Numeric()
}

func (t Timestamp) String() string {
	if t.Representation != "" {
		return t.Representation
	}
	if t.kind == KindDateTime {
		return t.time.Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("%g", t.seconds)
}
