package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		Error(w, http.StatusBadRequest, "message must not be empty")
		return
	}

	res, err := h.agent.Chat(r.Context(), callerID(r), callerName(r), req.Message, req.ConversationID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, res)
}

func (h *Handler) listConversations(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	size := queryInt(r, "size", 20)

	items, total, err := h.agent.Conversations(r.Context(), callerID(r), page, size)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"conversations": items,
		"total":         total,
		"page":          page,
		"size":          size,
	})
}

func (h *Handler) conversationMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.agent.Messages(r.Context(), callerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (h *Handler) deleteConversation(w http.ResponseWriter, r *http.Request) {
	if err := h.agent.DeleteConversation(r.Context(), callerID(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
