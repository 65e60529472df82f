// Package timeparse normalizes the heterogeneous timestamp encodings found
// in collected flight offers and derives arrival times and stay durations.
//
// Timestamps are treated as local-naive: a trailing UTC offset, positive or
// negative, is stripped before parsing and never applied.
package timeparse

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ISOLayout is the canonical output layout for derived instants.
const ISOLayout = "2006-01-02T15:04:05"

// DateLayout is the date-only layout used by search windows and fallbacks.
const DateLayout = "2006-01-02"

// layouts are tried in order against the offset-stripped input.
var layouts = []string{
	ISOLayout,
	"2006-01-02 15:04:05",
	DateLayout,
}

// stripOffset removes a trailing timezone offset. Everything after the
// first '+' is dropped; a negative offset shows up as a fourth
// '-'-separated segment after the date's own hyphens and is dropped too.
func stripOffset(s string) string {
	if i := strings.IndexByte(s, '+'); i >= 0 {
		s = s[:i]
	}
	parts := strings.SplitN(s, "-", 4)
	if len(parts) == 4 {
		return strings.Join(parts[:3], "-")
	}
	return s
}

// Parse normalizes a timestamp string into an instant. It returns an error
// only when no known layout matches the offset-stripped input.
func Parse(s string) (time.Time, error) {
	clean := stripOffset(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, clean); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// ComputeArrival derives an arrival instant from a departure timestamp and a
// flight duration in minutes. When the departure cannot be parsed the
// original string is returned unchanged, so the caller always has a value to
// carry through.
func ComputeArrival(departureAt string, durationMin int) string {
	departure, err := Parse(departureAt)
	if err != nil {
		return departureAt
	}
	return departure.Add(time.Duration(durationMin) * time.Minute).Format(ISOLayout)
}

// StayDays computes the whole-day gap between an arrival and a subsequent
// departure, floored toward negative infinity. When either timestamp fails
// to parse as an instant, the date-only prefixes are compared instead; when
// that fails too the result is 0, not an error.
func StayDays(arrivalAt, departureAt string) int {
	arrival, errA := Parse(arrivalAt)
	departure, errD := Parse(departureAt)
	if errA == nil && errD == nil {
		return wholeDays(departure.Sub(arrival))
	}

	arrival, errA = time.Parse(DateLayout, datePrefix(arrivalAt))
	departure, errD = time.Parse(DateLayout, datePrefix(departureAt))
	if errA == nil && errD == nil {
		return wholeDays(departure.Sub(arrival))
	}
	return 0
}

func wholeDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}

func datePrefix(s string) string {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i]
	}
	return s
}
