package agent

import "github.com/weihung/schedagent/internal/llm"

// Tool names form a closed set. New tools are added by extending this list
// and the dispatcher's handler table, never by reflection.
const (
	ToolCreateSchedule = "create_schedule"
	ToolListSchedules  = "list_schedules"
	ToolGetSchedule    = "get_schedule"
	ToolUpdateSchedule = "update_schedule"
	ToolDeleteSchedule = "delete_schedule"
	ToolCheckConflicts = "check_conflicts"
	ToolSuggestSlots   = "suggest_available_slots"
)

// ToolSpec declares one callable operation: its name, a model-readable
// description, and a typed parameter schema. The schema is sent verbatim to
// the model so it can format valid calls, and doubles as the MCP tool
// definition source.
type ToolSpec struct {
	Name        string
	Description string
	Properties  map[string]llm.Property
	Required    []string
}

// ToolSpecs lists every tool the agent exposes, in a stable order.
func ToolSpecs() []ToolSpec {
	return []ToolSpec{
		{
			Name:        ToolCreateSchedule,
			Description: "Create a new schedule/event/meeting. Requires a title and start/end times.",
			Properties: map[string]llm.Property{
				"title":       {Type: "string", Description: "Schedule title"},
				"start_time":  {Type: "string", Description: "Start time in ISO 8601 format, e.g. 2025-01-15T14:00:00"},
				"end_time":    {Type: "string", Description: "End time in ISO 8601 format, e.g. 2025-01-15T15:00:00"},
				"description": {Type: "string", Description: "Schedule description (optional)"},
				"location":    {Type: "string", Description: "Location (optional)"},
				"all_day":     {Type: "boolean", Description: "Whether this is an all-day event, default false"},
			},
			Required: []string{"title", "start_time", "end_time"},
		},
		{
			Name:        ToolListSchedules,
			Description: "List schedules, optionally filtered by a start-time range.",
			Properties: map[string]llm.Property{
				"start_from": {Type: "string", Description: "Filter: earliest start time (inclusive), ISO 8601"},
				"start_to":   {Type: "string", Description: "Filter: latest start time (inclusive), ISO 8601"},
				"page":       {Type: "integer", Description: "Page number, default 1"},
				"size":       {Type: "integer", Description: "Page size, default 20"},
			},
		},
		{
			Name:        ToolGetSchedule,
			Description: "Fetch the details of a single schedule by id.",
			Properties: map[string]llm.Property{
				"schedule_id": {Type: "string", Description: "The schedule's UUID"},
			},
			Required: []string{"schedule_id"},
		},
		{
			Name:        ToolUpdateSchedule,
			Description: "Modify an existing schedule. Only pass the fields to change.",
			Properties: map[string]llm.Property{
				"schedule_id": {Type: "string", Description: "UUID of the schedule to modify"},
				"title":       {Type: "string", Description: "New title"},
				"start_time":  {Type: "string", Description: "New start time, ISO 8601"},
				"end_time":    {Type: "string", Description: "New end time, ISO 8601"},
				"description": {Type: "string", Description: "New description"},
				"location":    {Type: "string", Description: "New location"},
			},
			Required: []string{"schedule_id"},
		},
		{
			Name:        ToolDeleteSchedule,
			Description: "Delete a schedule.",
			Properties: map[string]llm.Property{
				"schedule_id": {Type: "string", Description: "UUID of the schedule to delete"},
			},
			Required: []string{"schedule_id"},
		},
		{
			Name:        ToolCheckConflicts,
			Description: "Check whether a time range conflicts with existing schedules. Call this before creating or moving a schedule.",
			Properties: map[string]llm.Property{
				"start_time": {Type: "string", Description: "Start of the range to check, ISO 8601"},
				"end_time":   {Type: "string", Description: "End of the range to check, ISO 8601"},
				"exclude_id": {Type: "string", Description: "Schedule UUID to exclude (when moving a schedule, exclude itself)"},
			},
			Required: []string{"start_time", "end_time"},
		},
		{
			Name:        ToolSuggestSlots,
			Description: "Suggest free time slots within working hours on a given date. Call this to offer alternatives when a conflict is found.",
			Properties: map[string]llm.Property{
				"date":             {Type: "string", Description: "The date to scan, ISO 8601 (e.g. 2025-01-15T00:00:00)"},
				"duration_minutes": {Type: "integer", Description: "Required duration in minutes, default 60"},
				"work_start_hour":  {Type: "integer", Description: "Working day start hour, default 9"},
				"work_end_hour":    {Type: "integer", Description: "Working day end hour, default 18"},
			},
			Required: []string{"date"},
		},
	}
}

// ToolSchema renders the registry in the wire format sent to the model.
func ToolSchema() []llm.Tool {
	specs := ToolSpecs()
	tools := make([]llm.Tool, 0, len(specs))
	for _, spec := range specs {
		required := spec.Required
		if required == nil {
			required = []string{}
		}
		tools = append(tools, llm.Tool{
			Type: "function",
			Function: llm.Function{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters: llm.Parameters{
					Type:       "object",
					Properties: spec.Properties,
					Required:   required,
				},
			},
		})
	}
	return tools
}
