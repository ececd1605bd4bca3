// Package api exposes the scheduling agent over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/weihung/schedagent/internal/agent"
	"github.com/weihung/schedagent/internal/conversation"
	"github.com/weihung/schedagent/internal/llm"
	"github.com/weihung/schedagent/internal/schedule"
)

// Handler holds the HTTP surface's dependencies.
type Handler struct {
	agent     *agent.Agent
	schedules *schedule.Service
	workStart int
	workEnd   int
	loc       *time.Location // interpretation of zone-less dates
}

// NewHandler wires the HTTP handler set. loc governs how date-only query
// parameters are interpreted; nil means time.Local.
func NewHandler(ag *agent.Agent, schedules *schedule.Service, workStartHour, workEndHour int, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		agent:     ag,
		schedules: schedules,
		workStart: workStartHour,
		workEnd:   workEndHour,
		loc:       loc,
	}
}

// Router assembles the full route tree.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/healthz"))

	r.Route("/api", func(r chi.Router) {
		r.Use(requireIdentity)

		r.Route("/agent", func(r chi.Router) {
			r.Post("/chat", h.chat)
			r.Get("/conversations", h.listConversations)
			r.Get("/conversations/{id}/messages", h.conversationMessages)
			r.Delete("/conversations/{id}", h.deleteConversation)
		})

		r.Route("/schedules", func(r chi.Router) {
			r.Post("/", h.createSchedule)
			r.Get("/", h.listSchedules)
			r.Get("/conflicts", h.checkConflicts)
			r.Get("/available-slots", h.availableSlots)
			r.Get("/sync/status", h.syncStatus)
			r.Get("/{id}", h.getSchedule)
			r.Put("/{id}", h.updateSchedule)
			r.Delete("/{id}", h.deleteSchedule)
			r.Post("/{id}/sync", h.syncSchedule)
		})
	})

	return r
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps domain errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrNotFound), errors.Is(err, conversation.ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, schedule.ErrAccessDenied), errors.Is(err, conversation.ErrAccessDenied):
		Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, schedule.ErrInvalid):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, schedule.ErrSyncNotConfigured):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, llm.ErrUnavailable):
		Error(w, http.StatusServiceUnavailable, "language model backend unavailable")
	default:
		Error(w, http.StatusInternalServerError, err.Error())
	}
}
