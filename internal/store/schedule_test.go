package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/weihung/schedagent/internal/interval"
	"github.com/weihung/schedagent/internal/schedule"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustSchedule(t *testing.T, creator, title string, start, end time.Time) *schedule.Schedule {
	t.Helper()
	s, err := schedule.New(creator, title, start, end)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func hourAt(hour int) time.Time {
	return time.Date(2026, 3, 2, hour, 0, 0, 0, time.UTC)
}

func TestScheduleRoundTrip(t *testing.T) {
	st := NewScheduleStore(openTestDB(t))
	ctx := context.Background()

	s, err := schedule.New("u1", "standup", hourAt(10), hourAt(11),
		schedule.WithDescription("daily sync"),
		schedule.WithLocation("room 4"),
		schedule.WithTimezone("UTC"))
	if err != nil {
		t.Fatal(err)
	}
	s.MarkSynced("evt-1")

	if err := st.Add(ctx, s); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := st.GetByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "standup" || got.Description != "daily sync" || got.Location != "room 4" {
		t.Errorf("fields = %q %q %q", got.Title, got.Description, got.Location)
	}
	if !got.StartTime.Equal(s.StartTime) || !got.EndTime.Equal(s.EndTime) {
		t.Errorf("times = %v-%v", got.StartTime, got.EndTime)
	}
	if got.Timezone != "UTC" || got.CreatorID != "u1" {
		t.Errorf("timezone=%q creator=%q", got.Timezone, got.CreatorID)
	}
	if got.ProviderEventID != "evt-1" || got.SyncedAt == nil {
		t.Errorf("sync marker = %q %v", got.ProviderEventID, got.SyncedAt)
	}
}

func TestScheduleGetMissing(t *testing.T) {
	st := NewScheduleStore(openTestDB(t))
	if _, err := st.GetByID(context.Background(), "missing"); !errors.Is(err, schedule.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestScheduleUpdate(t *testing.T) {
	st := NewScheduleStore(openTestDB(t))
	ctx := context.Background()

	s := mustSchedule(t, "u1", "standup", hourAt(10), hourAt(11))
	if err := st.Add(ctx, s); err != nil {
		t.Fatal(err)
	}

	title := "design review"
	newEnd := hourAt(12)
	if err := s.Apply(schedule.Update{Title: &title, EndTime: &newEnd}); err != nil {
		t.Fatal(err)
	}
	if err := st.Update(ctx, s); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ := st.GetByID(ctx, s.ID)
	if got.Title != "design review" || !got.EndTime.Equal(newEnd) {
		t.Errorf("after update: %q %v", got.Title, got.EndTime)
	}
	if got.UpdatedAt == nil {
		t.Error("UpdatedAt not persisted")
	}

	missing := mustSchedule(t, "u1", "ghost", hourAt(10), hourAt(11))
	if err := st.Update(ctx, missing); !errors.Is(err, schedule.ErrNotFound) {
		t.Errorf("update of missing row err = %v", err)
	}
}

func TestScheduleDelete(t *testing.T) {
	st := NewScheduleStore(openTestDB(t))
	ctx := context.Background()

	s := mustSchedule(t, "u1", "standup", hourAt(10), hourAt(11))
	st.Add(ctx, s)

	deleted, err := st.Delete(ctx, s.ID)
	if err != nil || !deleted {
		t.Fatalf("Delete = %v, %v", deleted, err)
	}
	deleted, err = st.Delete(ctx, s.ID)
	if err != nil || deleted {
		t.Fatalf("second Delete = %v, %v", deleted, err)
	}
}

func TestScheduleListFilterAndPaging(t *testing.T) {
	st := NewScheduleStore(openTestDB(t))
	ctx := context.Background()

	for hour := 9; hour <= 14; hour++ {
		st.Add(ctx, mustSchedule(t, "u1", "m", hourAt(hour), hourAt(hour+1)))
	}

	items, total, err := st.List(ctx, 1, 4, schedule.ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 6 || len(items) != 4 {
		t.Errorf("page 1: total=%d len=%d", total, len(items))
	}
	// Ordered by start time ascending.
	for i := 1; i < len(items); i++ {
		if items[i].StartTime.Before(items[i-1].StartTime) {
			t.Errorf("list out of order at %d", i)
		}
	}

	items, _, err = st.List(ctx, 2, 4, schedule.ListFilter{})
	if err != nil {
		t.Fatalf("List page 2: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("page 2: len=%d", len(items))
	}

	from := hourAt(11)
	to := hourAt(13)
	items, total, err = st.List(ctx, 1, 20, schedule.ListFilter{StartFrom: &from, StartTo: &to})
	if err != nil {
		t.Fatalf("filtered List: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("filtered: total=%d len=%d", total, len(items))
	}
}

func TestScheduleFindConflicts(t *testing.T) {
	st := NewScheduleStore(openTestDB(t))
	ctx := context.Background()

	// Insert out of chronological order to exercise the ORDER BY.
	late := mustSchedule(t, "u1", "late", hourAt(14), hourAt(15))
	early := mustSchedule(t, "u1", "early", hourAt(10), hourAt(11))
	st.Add(ctx, late)
	st.Add(ctx, early)

	conflicts, err := st.FindConflicts(ctx, interval.NewRange(hourAt(9), hourAt(18)), "")
	if err != nil {
		t.Fatalf("FindConflicts: %v", err)
	}
	if len(conflicts) != 2 {
		t.Fatalf("got %d conflicts", len(conflicts))
	}
	if conflicts[0].ID != early.ID || conflicts[1].ID != late.ID {
		t.Error("conflicts not ordered by start time")
	}

	// Touching ranges do not conflict under the half-open model.
	conflicts, err = st.FindConflicts(ctx, interval.NewRange(hourAt(11), hourAt(14)), "")
	if err != nil {
		t.Fatalf("FindConflicts: %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("touching ranges conflicted: %v", conflicts)
	}

	// excludeID removes one schedule from consideration.
	conflicts, err = st.FindConflicts(ctx, interval.NewRange(hourAt(10), hourAt(11)), early.ID)
	if err != nil {
		t.Fatalf("FindConflicts: %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("excluded schedule still reported: %v", conflicts)
	}
}
