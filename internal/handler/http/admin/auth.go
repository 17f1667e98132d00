// Package admin provides the administrative HTTP endpoints. Every route is
// guarded by a shared token sent in the X-Admin-Token header.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"contest-api/internal/handler/http/respond"
	"contest-api/internal/observability/logging"
)

// TokenHeader carries the administrative token.
const TokenHeader = "X-Admin-Token"

// RequireToken rejects requests whose X-Admin-Token does not match token.
// A missing header is 401, a wrong one is 403.
func RequireToken(token string) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(TokenHeader)
			if got == "" {
				respond.Error(w, http.StatusUnauthorized, "admin token required")
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				logging.FromContext(r.Context()).Warn("admin token mismatch",
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", r.RemoteAddr))
				respond.Error(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
