// Package identity resolves the chat user behind each request.
package identity

import (
	"context"
	"net"
	"net/http"
	"regexp"
	"strings"
)

const (
	// UserHeaderName carries the chat platform's user ID, set by the bot transport.
	UserHeaderName = "X-Chat-User-ID"
	userQueryParam = "user_id"
)

type contextKey int

const (
	userIDKey contextKey = iota
)

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:@-]{1,64}$`)

// UserIDFromContext extracts the user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func userIDFromRequest(r *http.Request) string {
	id := r.Header.Get(UserHeaderName)
	if id == "" {
		id = r.URL.Query().Get(userQueryParam)
	}
	return strings.TrimSpace(id)
}

// Middleware injects the caller's chat user ID. Requests without one, with a
// malformed one, or from the platform's anonymous account are rejected.
func Middleware(anonymousID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := userIDFromRequest(r)
			if userID == "" || !userIDPattern.MatchString(userID) {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			if anonymousID != "" && userID == anonymousID {
				http.Error(w, `{"error":"anonymous_user"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// IPFromRequest returns a normalized remote IP for optional request tracing.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
