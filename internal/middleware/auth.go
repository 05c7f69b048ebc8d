package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tmcf/paceline/internal/httputil"
	"github.com/tmcf/paceline/internal/logger"
	"github.com/tmcf/paceline/internal/session"
)

type contextKey string

const athleteContextKey contextKey = "athlete"

// SessionAuth verifies the Authorization bearer token and stores the athlete
// ID in the request context. Requests without a valid app session are
// rejected with 401 before the handler runs.
func SessionAuth(sessions *session.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httputil.WriteError(w, http.StatusUnauthorized, "Missing Authorization header")
				return
			}

			athleteID, err := sessions.Verify(token)
			if err != nil {
				logger.Debug("Rejected session token", "error", err)
				httputil.WriteError(w, http.StatusUnauthorized, "Invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), athleteContextKey, athleteID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AthleteID extracts the authenticated athlete from the request context.
func AthleteID(r *http.Request) (int64, bool) {
	id, ok := r.Context().Value(athleteContextKey).(int64)
	return id, ok
}

// bearerToken pulls the token out of an "Authorization: Bearer <token>"
// header; empty when the header is missing or not bearer-shaped.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
