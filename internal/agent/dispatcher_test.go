package agent

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/weihung/schedagent/internal/interval"
	"github.com/weihung/schedagent/internal/schedule"
)

// memScheduleStore is an in-memory schedule.Store for dispatcher and agent
// tests.
type memScheduleStore struct {
	items map[string]*schedule.Schedule
}

func newMemScheduleStore() *memScheduleStore {
	return &memScheduleStore{items: map[string]*schedule.Schedule{}}
}

func (m *memScheduleStore) Add(ctx context.Context, s *schedule.Schedule) error {
	cp := *s
	m.items[s.ID] = &cp
	return nil
}

func (m *memScheduleStore) GetByID(ctx context.Context, id string) (*schedule.Schedule, error) {
	s, ok := m.items[id]
	if !ok {
		return nil, schedule.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memScheduleStore) List(ctx context.Context, page, size int, filter schedule.ListFilter) ([]*schedule.Schedule, int, error) {
	var all []*schedule.Schedule
	for _, s := range m.items {
		if filter.StartFrom != nil && s.StartTime.Before(*filter.StartFrom) {
			continue
		}
		if filter.StartTo != nil && !s.StartTime.Before(*filter.StartTo) {
			continue
		}
		cp := *s
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartTime.Before(all[j].StartTime) })

	total := len(all)
	lo := (page - 1) * size
	if lo > total {
		lo = total
	}
	hi := lo + size
	if hi > total {
		hi = total
	}
	return all[lo:hi], total, nil
}

func (m *memScheduleStore) Update(ctx context.Context, s *schedule.Schedule) error {
	if _, ok := m.items[s.ID]; !ok {
		return schedule.ErrNotFound
	}
	cp := *s
	m.items[s.ID] = &cp
	return nil
}

func (m *memScheduleStore) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := m.items[id]; !ok {
		return false, nil
	}
	delete(m.items, id)
	return true, nil
}

func (m *memScheduleStore) FindConflicts(ctx context.Context, r interval.Range, excludeID string) ([]*schedule.Schedule, error) {
	var out []*schedule.Schedule
	for _, s := range m.items {
		if s.ID == excludeID {
			continue
		}
		if interval.Overlaps(s.Range(), r) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *memScheduleStore) {
	t.Helper()
	store := newMemScheduleStore()
	return NewDispatcher(schedule.NewService(store, nil), time.UTC), store
}

func TestExecuteUnknownTool(t *testing.T) {
	d, _ := newTestDispatcher(t)

	res := d.Execute(context.Background(), "u1", "launch_rocket", nil)
	if ok, _ := res["success"].(bool); ok {
		t.Fatalf("unknown tool reported success: %v", res)
	}
	if msg, _ := res["error"].(string); msg != "unknown tool: launch_rocket" {
		t.Errorf("error = %q", msg)
	}
}

func TestExecuteMissingArgument(t *testing.T) {
	d, _ := newTestDispatcher(t)

	res := d.Execute(context.Background(), "u1", ToolCreateSchedule, map[string]any{
		"title": "standup",
	})
	if ok, _ := res["success"].(bool); ok {
		t.Fatalf("create without times reported success: %v", res)
	}
	if _, hasErr := res["error"]; !hasErr {
		t.Errorf("failure result missing error field: %v", res)
	}
}

func TestExecuteCreateAndGet(t *testing.T) {
	d, store := newTestDispatcher(t)

	res := d.Execute(context.Background(), "u1", ToolCreateSchedule, map[string]any{
		"title":      "standup",
		"start_time": "2026-03-02T10:00:00",
		"end_time":   "2026-03-02T10:30:00",
		"location":   "room 4",
	})
	if ok, _ := res["success"].(bool); !ok {
		t.Fatalf("create failed: %v", res)
	}
	id, _ := res["schedule_id"].(string)
	if id == "" {
		t.Fatalf("no schedule_id in %v", res)
	}
	if len(store.items) != 1 {
		t.Fatalf("store has %d items", len(store.items))
	}

	got := d.Execute(context.Background(), "u1", ToolGetSchedule, map[string]any{"schedule_id": id})
	if ok, _ := got["success"].(bool); !ok {
		t.Fatalf("get failed: %v", got)
	}
	if got["title"] != "standup" || got["location"] != "room 4" {
		t.Errorf("get result = %v", got)
	}
}

func TestExecuteUpdateOwnership(t *testing.T) {
	d, _ := newTestDispatcher(t)

	created := d.Execute(context.Background(), "owner", ToolCreateSchedule, map[string]any{
		"title":      "review",
		"start_time": "2026-03-02T14:00:00",
		"end_time":   "2026-03-02T15:00:00",
	})
	id := created["schedule_id"].(string)

	res := d.Execute(context.Background(), "intruder", ToolUpdateSchedule, map[string]any{
		"schedule_id": id,
		"title":       "hijacked",
	})
	if ok, _ := res["success"].(bool); ok {
		t.Fatalf("foreign update reported success: %v", res)
	}

	res = d.Execute(context.Background(), "owner", ToolUpdateSchedule, map[string]any{
		"schedule_id": id,
		"title":       "design review",
	})
	if ok, _ := res["success"].(bool); !ok {
		t.Fatalf("owner update failed: %v", res)
	}
	if res["title"] != "design review" {
		t.Errorf("updated title = %v", res["title"])
	}
}

func TestExecuteDelete(t *testing.T) {
	d, store := newTestDispatcher(t)

	created := d.Execute(context.Background(), "u1", ToolCreateSchedule, map[string]any{
		"title":      "dentist",
		"start_time": "2026-03-03T09:00:00",
		"end_time":   "2026-03-03T10:00:00",
	})
	id := created["schedule_id"].(string)

	res := d.Execute(context.Background(), "u1", ToolDeleteSchedule, map[string]any{"schedule_id": id})
	if ok, _ := res["success"].(bool); !ok {
		t.Fatalf("delete failed: %v", res)
	}
	if len(store.items) != 0 {
		t.Errorf("store still has %d items", len(store.items))
	}

	res = d.Execute(context.Background(), "u1", ToolDeleteSchedule, map[string]any{"schedule_id": id})
	if ok, _ := res["success"].(bool); ok {
		t.Errorf("second delete reported success: %v", res)
	}
}

func TestExecuteCheckConflicts(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Execute(context.Background(), "u1", ToolCreateSchedule, map[string]any{
		"title":      "focus block",
		"start_time": "2026-03-02T10:00:00",
		"end_time":   "2026-03-02T12:00:00",
	})

	res := d.Execute(context.Background(), "u1", ToolCheckConflicts, map[string]any{
		"start_time": "2026-03-02T11:00:00",
		"end_time":   "2026-03-02T11:30:00",
	})
	if ok, _ := res["success"].(bool); !ok {
		t.Fatalf("check failed: %v", res)
	}
	if has, _ := res["has_conflicts"].(bool); !has {
		t.Errorf("expected conflict: %v", res)
	}
	if n, _ := res["conflict_count"].(int); n != 1 {
		t.Errorf("conflict_count = %v", res["conflict_count"])
	}

	// Touching ranges never conflict.
	res = d.Execute(context.Background(), "u1", ToolCheckConflicts, map[string]any{
		"start_time": "2026-03-02T12:00:00",
		"end_time":   "2026-03-02T13:00:00",
	})
	if has, _ := res["has_conflicts"].(bool); has {
		t.Errorf("touching range flagged as conflict: %v", res)
	}
}

func TestExecuteSuggestSlots(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Execute(context.Background(), "u1", ToolCreateSchedule, map[string]any{
		"title":      "lunch",
		"start_time": "2026-03-02T12:00:00",
		"end_time":   "2026-03-02T13:00:00",
	})

	res := d.Execute(context.Background(), "u1", ToolSuggestSlots, map[string]any{
		"date":             "2026-03-02",
		"duration_minutes": float64(60),
	})
	if ok, _ := res["success"].(bool); !ok {
		t.Fatalf("suggest failed: %v", res)
	}
	slots, _ := res["available_slots"].([]map[string]any)
	// Work hours 09:00-18:00 with 12:00-13:00 busy: three slots before
	// lunch, five after.
	if len(slots) != 8 {
		t.Fatalf("got %d slots: %v", len(slots), slots)
	}
	if slots[0]["start_time"] != "2026-03-02T09:00:00Z" {
		t.Errorf("first slot = %v", slots[0])
	}
	if total, _ := res["total_slots"].(int); total != 8 {
		t.Errorf("total_slots = %v", res["total_slots"])
	}
}

func TestExecuteInvalidTimestamp(t *testing.T) {
	d, _ := newTestDispatcher(t)

	res := d.Execute(context.Background(), "u1", ToolCheckConflicts, map[string]any{
		"start_time": "next tuesday",
		"end_time":   "2026-03-02T11:00:00",
	})
	if ok, _ := res["success"].(bool); ok {
		t.Fatalf("garbage timestamp reported success: %v", res)
	}
}
