package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/weihung/schedagent/internal/logging"
	"github.com/weihung/schedagent/internal/schedule"
)

// toolHandler executes one tool on behalf of userID. Returning an error is
// allowed; the dispatcher converts it into a structured failure result.
type toolHandler func(ctx context.Context, userID string, args map[string]any) (map[string]any, error)

// Dispatcher routes tool calls to schedule operations. It never lets an error
// escape: every failure becomes {"success": false, "error": ...} so a single
// bad tool call cannot take down the conversation loop.
type Dispatcher struct {
	schedules *schedule.Service
	loc       *time.Location // interpretation of zone-less timestamps
	handlers  map[string]toolHandler
}

// NewDispatcher builds the handler table over a schedule service. loc governs
// how timestamps without a UTC offset are interpreted; nil means time.Local.
func NewDispatcher(schedules *schedule.Service, loc *time.Location) *Dispatcher {
	if loc == nil {
		loc = time.Local
	}
	d := &Dispatcher{schedules: schedules, loc: loc}
	d.handlers = map[string]toolHandler{
		ToolCreateSchedule: d.createSchedule,
		ToolListSchedules:  d.listSchedules,
		ToolGetSchedule:    d.getSchedule,
		ToolUpdateSchedule: d.updateSchedule,
		ToolDeleteSchedule: d.deleteSchedule,
		ToolCheckConflicts: d.checkConflicts,
		ToolSuggestSlots:   d.suggestSlots,
	}
	return d
}

// Execute runs one tool call and always returns a structured result with a
// "success" field. Unknown tools and handler errors are reported, not raised.
func (d *Dispatcher) Execute(ctx context.Context, userID, name string, args map[string]any) (result map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			logging.Warn("dispatch", "tool %s panicked: %v", name, r)
			result = failure(fmt.Sprintf("internal error: %v", r))
		}
	}()

	handler, ok := d.handlers[name]
	if !ok {
		return failure(fmt.Sprintf("unknown tool: %s", name))
	}
	if args == nil {
		args = map[string]any{}
	}

	res, err := handler(ctx, userID, args)
	if err != nil {
		logging.Debug("dispatch", "tool %s failed: %v", name, err)
		return failure(err.Error())
	}
	res["success"] = true
	return res
}

func failure(msg string) map[string]any {
	return map[string]any{"success": false, "error": msg}
}

func (d *Dispatcher) createSchedule(ctx context.Context, userID string, args map[string]any) (map[string]any, error) {
	title, err := stringArg(args, "title")
	if err != nil {
		return nil, err
	}
	start, err := timeArg(args, "start_time", d.loc)
	if err != nil {
		return nil, err
	}
	end, err := timeArg(args, "end_time", d.loc)
	if err != nil {
		return nil, err
	}

	s, err := d.schedules.Create(ctx, schedule.CreateParams{
		CreatorID:   userID,
		Title:       title,
		StartTime:   start,
		EndTime:     end,
		Description: optionalString(args, "description"),
		Location:    optionalString(args, "location"),
		AllDay:      optionalBool(args, "all_day"),
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"schedule_id": s.ID,
		"title":       s.Title,
		"start_time":  s.StartTime.Format(time.RFC3339),
		"end_time":    s.EndTime.Format(time.RFC3339),
		"description": s.Description,
		"location":    s.Location,
	}, nil
}

func (d *Dispatcher) listSchedules(ctx context.Context, _ string, args map[string]any) (map[string]any, error) {
	var filter schedule.ListFilter
	if _, ok := args["start_from"]; ok {
		t, err := timeArg(args, "start_from", d.loc)
		if err != nil {
			return nil, err
		}
		filter.StartFrom = &t
	}
	if _, ok := args["start_to"]; ok {
		t, err := timeArg(args, "start_to", d.loc)
		if err != nil {
			return nil, err
		}
		filter.StartTo = &t
	}

	items, total, err := d.schedules.List(ctx, optionalInt(args, "page", 1), optionalInt(args, "size", 20), filter)
	if err != nil {
		return nil, err
	}

	list := make([]map[string]any, 0, len(items))
	for _, s := range items {
		list = append(list, map[string]any{
			"id":          s.ID,
			"title":       s.Title,
			"start_time":  s.StartTime.Format(time.RFC3339),
			"end_time":    s.EndTime.Format(time.RFC3339),
			"description": s.Description,
			"location":    s.Location,
			"all_day":     s.AllDay,
		})
	}
	return map[string]any{"total": total, "schedules": list}, nil
}

func (d *Dispatcher) getSchedule(ctx context.Context, _ string, args map[string]any) (map[string]any, error) {
	id, err := stringArg(args, "schedule_id")
	if err != nil {
		return nil, err
	}
	s, err := d.schedules.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":          s.ID,
		"title":       s.Title,
		"start_time":  s.StartTime.Format(time.RFC3339),
		"end_time":    s.EndTime.Format(time.RFC3339),
		"description": s.Description,
		"location":    s.Location,
		"all_day":     s.AllDay,
		"timezone":    s.Timezone,
		"creator_id":  s.CreatorID,
	}, nil
}

func (d *Dispatcher) updateSchedule(ctx context.Context, userID string, args map[string]any) (map[string]any, error) {
	id, err := stringArg(args, "schedule_id")
	if err != nil {
		return nil, err
	}

	var u schedule.Update
	u.Title = optionalStringPtr(args, "title")
	u.Description = optionalStringPtr(args, "description")
	u.Location = optionalStringPtr(args, "location")
	if _, ok := args["start_time"]; ok {
		t, err := timeArg(args, "start_time", d.loc)
		if err != nil {
			return nil, err
		}
		u.StartTime = &t
	}
	if _, ok := args["end_time"]; ok {
		t, err := timeArg(args, "end_time", d.loc)
		if err != nil {
			return nil, err
		}
		u.EndTime = &t
	}

	s, err := d.schedules.UpdateByID(ctx, userID, id, u)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"schedule_id": s.ID,
		"title":       s.Title,
		"start_time":  s.StartTime.Format(time.RFC3339),
		"end_time":    s.EndTime.Format(time.RFC3339),
	}, nil
}

func (d *Dispatcher) deleteSchedule(ctx context.Context, userID string, args map[string]any) (map[string]any, error) {
	id, err := stringArg(args, "schedule_id")
	if err != nil {
		return nil, err
	}
	if err := d.schedules.Delete(ctx, userID, id); err != nil {
		return nil, err
	}
	return map[string]any{"message": "schedule deleted"}, nil
}

func (d *Dispatcher) checkConflicts(ctx context.Context, _ string, args map[string]any) (map[string]any, error) {
	start, err := timeArg(args, "start_time", d.loc)
	if err != nil {
		return nil, err
	}
	end, err := timeArg(args, "end_time", d.loc)
	if err != nil {
		return nil, err
	}

	conflicts, err := d.schedules.CheckConflicts(ctx, start, end, optionalString(args, "exclude_id"))
	if err != nil {
		return nil, err
	}

	list := make([]map[string]any, 0, len(conflicts))
	for _, s := range conflicts {
		list = append(list, map[string]any{
			"id":         s.ID,
			"title":      s.Title,
			"start_time": s.StartTime.Format(time.RFC3339),
			"end_time":   s.EndTime.Format(time.RFC3339),
			"location":   s.Location,
		})
	}
	return map[string]any{
		"has_conflicts":  len(conflicts) > 0,
		"conflict_count": len(conflicts),
		"conflicts":      list,
	}, nil
}

func (d *Dispatcher) suggestSlots(ctx context.Context, _ string, args map[string]any) (map[string]any, error) {
	day, err := timeArg(args, "date", d.loc)
	if err != nil {
		return nil, err
	}
	duration := time.Duration(optionalInt(args, "duration_minutes", 60)) * time.Minute
	workStart := optionalInt(args, "work_start_hour", 9)
	workEnd := optionalInt(args, "work_end_hour", 18)

	slots, err := d.schedules.SuggestSlots(ctx, day, duration, workStart, workEnd)
	if err != nil {
		return nil, err
	}

	list := make([]map[string]any, 0, len(slots))
	for _, slot := range slots {
		list = append(list, map[string]any{
			"start_time": slot.Start.Format(time.RFC3339),
			"end_time":   slot.End.Format(time.RFC3339),
		})
	}
	return map[string]any{
		"available_slots": list,
		"total_slots":     len(list),
	}, nil
}

// ── argument parsing ──

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("argument %q must be a non-empty string", key)
	}
	return s, nil
}

func optionalString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func optionalStringPtr(args map[string]any, key string) *string {
	if s, ok := args[key].(string); ok {
		return &s
	}
	return nil
}

func optionalBool(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func optionalInt(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64: // JSON numbers decode as float64
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

// timeArg parses an ISO-8601 timestamp argument. Timestamps without a UTC
// offset are placed in loc; a bare date means midnight.
func timeArg(args map[string]any, key string, loc *time.Location) (time.Time, error) {
	raw, err := stringArg(args, key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := parseISOTime(raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("argument %q: %v", key, err)
	}
	return t, nil
}

var isoLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{time.RFC3339, true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02", false},
}

func parseISOTime(s string, loc *time.Location) (time.Time, error) {
	for _, l := range isoLayouts {
		if l.zoned {
			if t, err := time.Parse(l.layout, s); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.ParseInLocation(l.layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO 8601 timestamp %q", s)
}
