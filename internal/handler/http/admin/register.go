package admin

import (
	"net/http"

	entryUC "contest-api/internal/usecase/entry"
)

// Register registers the admin routes. Nothing is registered when token is
// empty, so the routes answer 404 unless an administrator token is configured.
func Register(mux *http.ServeMux, svc *entryUC.Service, token string) bool {
	if token == "" {
		return false
	}
	guard := RequireToken(token)
	mux.Handle("PATCH  /admin/entries/{id}/review-status", guard(ReviewStatusHandler{Svc: svc}))
	return true
}
