package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/weihung/schedagent/internal/interval"
	"github.com/weihung/schedagent/internal/schedule"
)

// ScheduleStore implements schedule.Store on SQLite.
type ScheduleStore struct {
	db *DB
}

// NewScheduleStore binds a schedule store to an open database.
func NewScheduleStore(db *DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

const scheduleColumns = `id, title, description, location, start_time, end_time,
	all_day, timezone, creator_id, provider_event_id, synced_at, created_at, updated_at`

// Add persists a new schedule.
func (st *ScheduleStore) Add(ctx context.Context, s *schedule.Schedule) error {
	_, err := st.db.db.ExecContext(ctx, `
		INSERT INTO schedules (`+scheduleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Title, nullString(s.Description), nullString(s.Location),
		encodeTime(s.StartTime), encodeTime(s.EndTime),
		boolToInt(s.AllDay), s.Timezone, s.CreatorID,
		nullString(s.ProviderEventID), encodeTimePtr(s.SyncedAt),
		encodeTime(s.CreatedAt), encodeTimePtr(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// GetByID returns the schedule or schedule.ErrNotFound.
func (st *ScheduleStore) GetByID(ctx context.Context, id string) (*schedule.Schedule, error) {
	row := st.db.db.QueryRowContext(ctx,
		`SELECT `+scheduleColumns+` FROM schedules WHERE id = ?`, id)
	s, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, schedule.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan schedule: %w", err)
	}
	return s, nil
}

// List returns one page ordered by start time ascending plus the total count.
func (st *ScheduleStore) List(ctx context.Context, page, size int, filter schedule.ListFilter) ([]*schedule.Schedule, int, error) {
	where := "1=1"
	args := []any{}
	if filter.StartFrom != nil {
		where += " AND start_time >= ?"
		args = append(args, encodeTime(*filter.StartFrom))
	}
	if filter.StartTo != nil {
		where += " AND start_time <= ?"
		args = append(args, encodeTime(*filter.StartTo))
	}

	var total int
	if err := st.db.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schedules WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}

	args = append(args, size, (page-1)*size)
	rows, err := st.db.db.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM schedules WHERE `+where+`
		 ORDER BY start_time ASC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	items, err := collectSchedules(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update rewrites an existing schedule, or returns schedule.ErrNotFound.
func (st *ScheduleStore) Update(ctx context.Context, s *schedule.Schedule) error {
	res, err := st.db.db.ExecContext(ctx, `
		UPDATE schedules SET
			title = ?, description = ?, location = ?,
			start_time = ?, end_time = ?, all_day = ?, timezone = ?,
			provider_event_id = ?, synced_at = ?, updated_at = ?
		WHERE id = ?`,
		s.Title, nullString(s.Description), nullString(s.Location),
		encodeTime(s.StartTime), encodeTime(s.EndTime),
		boolToInt(s.AllDay), s.Timezone,
		nullString(s.ProviderEventID), encodeTimePtr(s.SyncedAt), encodeTimePtr(s.UpdatedAt),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

// Delete removes a schedule and reports whether a row existed.
func (st *ScheduleStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := st.db.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete schedule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// FindConflicts returns every schedule overlapping r, ordered by start time
// ascending. Half-open semantics: touching boundaries never conflict.
func (st *ScheduleStore) FindConflicts(ctx context.Context, r interval.Range, excludeID string) ([]*schedule.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules
		WHERE start_time < ? AND end_time > ?`
	args := []any{encodeTime(r.End), encodeTime(r.Start)}
	if excludeID != "" {
		query += " AND id != ?"
		args = append(args, excludeID)
	}
	query += " ORDER BY start_time ASC"

	rows, err := st.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query conflicts: %w", err)
	}
	defer rows.Close()

	return collectSchedules(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*schedule.Schedule, error) {
	var s schedule.Schedule
	var description, location, providerEventID, syncedAt, updatedAt sql.NullString
	var startTime, endTime, createdAt string
	var allDay int

	err := row.Scan(
		&s.ID, &s.Title, &description, &location, &startTime, &endTime,
		&allDay, &s.Timezone, &s.CreatorID, &providerEventID, &syncedAt,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Description = description.String
	s.Location = location.String
	s.AllDay = allDay != 0
	s.ProviderEventID = providerEventID.String

	if s.StartTime, err = decodeTime(startTime); err != nil {
		return nil, fmt.Errorf("decode start_time: %w", err)
	}
	if s.EndTime, err = decodeTime(endTime); err != nil {
		return nil, fmt.Errorf("decode end_time: %w", err)
	}
	if s.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	if s.SyncedAt, err = decodeTimePtr(syncedAt); err != nil {
		return nil, fmt.Errorf("decode synced_at: %w", err)
	}
	if s.UpdatedAt, err = decodeTimePtr(updatedAt); err != nil {
		return nil, fmt.Errorf("decode updated_at: %w", err)
	}

	return &s, nil
}

func collectSchedules(rows *sql.Rows) ([]*schedule.Schedule, error) {
	items := []*schedule.Schedule{}
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedules: %w", err)
	}
	return items, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
