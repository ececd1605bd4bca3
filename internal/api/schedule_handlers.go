package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/weihung/schedagent/internal/schedule"
)

type scheduleRequest struct {
	Title       string     `json:"title"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	AllDay      bool       `json:"all_day"`
	Timezone    string     `json:"timezone"`
}

func (h *Handler) createSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StartTime == nil || req.EndTime == nil {
		Error(w, http.StatusBadRequest, "start_time and end_time are required")
		return
	}

	s, err := h.schedules.Create(r.Context(), schedule.CreateParams{
		CreatorID:   callerID(r),
		Title:       req.Title,
		StartTime:   *req.StartTime,
		EndTime:     *req.EndTime,
		Description: req.Description,
		Location:    req.Location,
		AllDay:      req.AllDay,
		Timezone:    req.Timezone,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusCreated, s)
}

func (h *Handler) listSchedules(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	size := queryInt(r, "size", 20)

	var filter schedule.ListFilter
	var err error
	if filter.StartFrom, err = queryTime(r, "start_from"); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.StartTo, err = queryTime(r, "start_to"); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.schedules.List(r.Context(), page, size, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"schedules": items,
		"total":     total,
		"page":      page,
		"size":      size,
	})
}

func (h *Handler) getSchedule(w http.ResponseWriter, r *http.Request) {
	s, err := h.schedules.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, s)
}

type scheduleUpdateRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	AllDay      *bool      `json:"all_day"`
	Timezone    *string    `json:"timezone"`
}

func (h *Handler) updateSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := h.schedules.UpdateByID(r.Context(), callerID(r), chi.URLParam(r, "id"), schedule.Update{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		AllDay:      req.AllDay,
		Timezone:    req.Timezone,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, s)
}

func (h *Handler) deleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := h.schedules.Delete(r.Context(), callerID(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) syncSchedule(w http.ResponseWriter, r *http.Request) {
	s, err := h.schedules.Sync(r.Context(), callerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, s)
}

// syncStatus reports whether an external calendar provider is configured.
func (h *Handler) syncStatus(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]any{
		"sync_enabled": h.schedules.SyncEnabled(),
	})
}

func (h *Handler) checkConflicts(w http.ResponseWriter, r *http.Request) {
	start, err := queryTime(r, "start_time")
	if err != nil || start == nil {
		Error(w, http.StatusBadRequest, "start_time is required (RFC 3339)")
		return
	}
	end, err := queryTime(r, "end_time")
	if err != nil || end == nil {
		Error(w, http.StatusBadRequest, "end_time is required (RFC 3339)")
		return
	}

	conflicts, err := h.schedules.CheckConflicts(r.Context(), *start, *end, r.URL.Query().Get("exclude_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"has_conflicts":  len(conflicts) > 0,
		"conflict_count": len(conflicts),
		"conflicts":      conflicts,
	})
}

func (h *Handler) availableSlots(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	day, err := time.ParseInLocation("2006-01-02", dateStr, h.loc)
	if err != nil {
		Error(w, http.StatusBadRequest, "date is required (YYYY-MM-DD)")
		return
	}
	duration := time.Duration(queryInt(r, "duration_minutes", 60)) * time.Minute

	slots, err := h.schedules.SuggestSlots(r.Context(), day, duration,
		queryInt(r, "work_start_hour", h.workStart),
		queryInt(r, "work_end_hour", h.workEnd))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"date":            dateStr,
		"available_slots": slots,
		"total_slots":     len(slots),
	})
}

// queryTime parses an optional RFC 3339 query parameter.
func queryTime(r *http.Request, key string) (*time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
