package server

import (
	"context"
	"net/http"
	"strings"

	"backtester/internal/model"
)

type contextKey string

const userContextKey contextKey = "user"

// requireAuth resolves the Bearer token to a user and injects it into the
// request context; requests without a valid token get a 401.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "bearer token required")
			return
		}

		email, err := s.auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		user, err := s.store.GetUserByEmail(email)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to load user for token")
			writeError(w, http.StatusInternalServerError, "authentication service error")
			return
		}
		if user == nil || !user.IsActive {
			writeError(w, http.StatusUnauthorized, "unknown or inactive user")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// currentUser returns the authenticated user, or nil outside requireAuth.
func currentUser(r *http.Request) *model.User {
	user, _ := r.Context().Value(userContextKey).(*model.User)
	return user
}
