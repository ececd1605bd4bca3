package api

import (
	"context"
	"net/http"
)

type contextKey string

const (
	userIDKey   contextKey = "user_id"
	usernameKey contextKey = "username"
)

// requireIdentity extracts the caller from the X-User-ID and X-Username
// headers. Requests without a user id are rejected before any handler runs.
func requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			Error(w, http.StatusUnauthorized, "missing X-User-ID header")
			return
		}
		username := r.Header.Get("X-Username")
		if username == "" {
			username = userID
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		ctx = context.WithValue(ctx, usernameKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

func callerName(r *http.Request) string {
	name, _ := r.Context().Value(usernameKey).(string)
	return name
}
