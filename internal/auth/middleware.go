// Package auth handles OAuth flows, token storage, and API sessions.
package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

// userIDKey carries the authenticated user ID through the request
// context
const userIDKey contextKey = "glassdesk.user_id"

// UserID returns the authenticated user from a request context, empty
// when the request is unauthenticated.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// WithUserID injects a user ID into a context. Tests and internal
// callers use it.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Middleware validates the Bearer session token and scopes the request
// to its user. Requests without a valid token get 401.
func (s *SessionManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
			return
		}

		userID, err := s.Validate(token)
		if err != nil {
			http.Error(w, `{"error":"invalid session"}`, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}
