// Package interval provides the half-open time range model used by conflict
// detection and free-slot suggestion.
package interval

import "time"

// Range is a half-open time interval [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange builds a range. The caller is responsible for ensuring Start < End;
// the schedule entity enforces that invariant before ranges reach this package.
func NewRange(start, end time.Time) Range {
	return Range{Start: start, End: end}
}

// Overlaps reports whether two half-open ranges intersect. Ranges that merely
// touch (a.End == b.Start) do not overlap.
func Overlaps(a, b Range) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Duration returns the length of the range.
func (r Range) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}
