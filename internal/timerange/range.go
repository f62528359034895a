// Package timerange provides the half-open time interval used to query
// time-indexed file collections.
package timerange

import (
	"fmt"
	"strings"
	"time"

	"github.com/koustreak/timefs/internal/errs"
)

// Range is the half-open interval [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

// New returns [start, end). End must be after start.
func New(start, end time.Time) (Range, error) {
	if !end.After(start) {
		return Range{}, errs.Newf(errs.ErrKindInvalidArgument,
			"range end %s is not after start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return Range{Start: start, End: end}, nil
}

// MustNew is New for literals known to be valid; it panics otherwise.
func MustNew(start, end time.Time) Range {
	r, err := New(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

// Intersects reports whether the two intervals share at least one instant.
// Intervals that only touch at an endpoint do not intersect.
func (r Range) Intersects(o Range) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// Contains reports whether t lies in [Start, End).
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Duration is End - Start.
func (r Range) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Equal reports whether both endpoints denote the same instants.
func (r Range) Equal(o Range) bool {
	return r.Start.Equal(o.Start) && r.End.Equal(o.End)
}

func (r Range) String() string {
	return r.Start.UTC().Format(time.RFC3339) + "/" + r.End.UTC().Format(time.RFC3339)
}

// layouts accepted by Parse, most precise first, each paired with the width
// an instant written at that precision covers.
var layouts = []struct {
	layout string
	next   func(time.Time) time.Time
}{
	{time.RFC3339Nano, func(t time.Time) time.Time { return t.Add(time.Second) }},
	{"2006-01-02T15:04:05", func(t time.Time) time.Time { return t.Add(time.Second) }},
	{"2006-01-02T15:04", func(t time.Time) time.Time { return t.Add(time.Minute) }},
	{"2006-01-02T15", func(t time.Time) time.Time { return t.Add(time.Hour) }},
	{"2006-01-02", func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }},
	{"2006-002", func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }},
	{"2006-01", func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }},
	{"2006", func(t time.Time) time.Time { return t.AddDate(1, 0, 0) }},
}

func parseInstant(s string) (time.Time, func(time.Time) time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range layouts {
		t, err := time.ParseInLocation(l.layout, s, time.UTC)
		if err == nil {
			return t.UTC(), l.next, nil
		}
	}
	return time.Time{}, nil, errs.Newf(errs.ErrKindInvalidArgument, "unrecognised time %q", s)
}

// Parse reads "start/end" or a single instant. A single instant covers the
// width of its precision: "2020-01-01" is that day, "2020-01" that month.
func Parse(s string) (Range, error) {
	if start, end, ok := strings.Cut(s, "/"); ok {
		st, _, err := parseInstant(start)
		if err != nil {
			return Range{}, err
		}
		et, _, err := parseInstant(end)
		if err != nil {
			return Range{}, err
		}
		return New(st, et)
	}

	t, next, err := parseInstant(s)
	if err != nil {
		return Range{}, fmt.Errorf("parse range: %w", err)
	}
	return New(t, next(t))
}
