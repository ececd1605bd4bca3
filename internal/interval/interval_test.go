package interval

import (
	"testing"
	"time"
)

func mkRange(startHour, endHour int) Range {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return NewRange(day.Add(time.Duration(startHour)*time.Hour), day.Add(time.Duration(endHour)*time.Hour))
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b Range
		want bool
	}{
		{"identical", mkRange(10, 11), mkRange(10, 11), true},
		{"partial overlap", mkRange(10, 12), mkRange(11, 13), true},
		{"containment", mkRange(9, 17), mkRange(10, 11), true},
		{"touching end to start", mkRange(10, 11), mkRange(11, 12), false},
		{"touching start to end", mkRange(11, 12), mkRange(10, 11), false},
		{"disjoint", mkRange(8, 9), mkRange(14, 15), false},
	}
	for _, tc := range cases {
		if got := Overlaps(tc.a, tc.b); got != tc.want {
			t.Errorf("%s: Overlaps = %v, want %v", tc.name, got, tc.want)
		}
		// Overlap is symmetric.
		if got := Overlaps(tc.b, tc.a); got != tc.want {
			t.Errorf("%s (swapped): Overlaps = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestContains(t *testing.T) {
	r := mkRange(10, 11)

	if !r.Contains(r.Start) {
		t.Error("range should contain its start")
	}
	if r.Contains(r.End) {
		t.Error("half-open range should not contain its end")
	}
	if !r.Contains(r.Start.Add(30 * time.Minute)) {
		t.Error("range should contain its midpoint")
	}
	if r.Contains(r.Start.Add(-time.Minute)) {
		t.Error("range should not contain times before start")
	}
}

func TestDuration(t *testing.T) {
	if got := mkRange(10, 12).Duration(); got != 2*time.Hour {
		t.Errorf("Duration = %v", got)
	}
}
