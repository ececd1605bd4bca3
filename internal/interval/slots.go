package interval

import "time"

// Slot is a computed free window. Slots are never persisted; they are
// recomputed on every request.
type Slot struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

// SuggestSlots walks the busy intervals of a day and emits free windows of
// exactly duration each, within [dayStart, dayEnd). busy must be sorted by
// start time ascending, which is what the conflict query guarantees.
//
// A cursor starts at dayStart. For each busy interval in order, as long as a
// full slot fits before the busy interval begins, one is emitted back-to-back
// with the previous; the cursor then jumps past the busy interval. Boundary
// fits use <= so touching placements are allowed, matching the half-open
// overlap rule.
func SuggestSlots(busy []Range, dayStart, dayEnd time.Time, duration time.Duration) []Slot {
	slots := []Slot{}
	if duration <= 0 || !dayStart.Before(dayEnd) {
		return slots
	}

	cursor := dayStart
	for _, b := range busy {
		for !cursor.Add(duration).After(b.Start) {
			slots = append(slots, Slot{Start: cursor, End: cursor.Add(duration)})
			cursor = cursor.Add(duration)
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}

	for !cursor.Add(duration).After(dayEnd) {
		slots = append(slots, Slot{Start: cursor, End: cursor.Add(duration)})
		cursor = cursor.Add(duration)
	}

	return slots
}
