package entry

import (
	"net/http"

	entryUC "contest-api/internal/usecase/entry"
)

// Register registers the entry and file routes with the given mux.
// limit wraps the submission route; pass nil to leave it unlimited.
func Register(mux *http.ServeMux, svc *entryUC.Service, limit func(http.Handler) http.Handler) {
	var create http.Handler = CreateHandler{Svc: svc}
	if limit != nil {
		create = limit(create)
	}

	mux.Handle("POST   /entries", create)
	mux.Handle("GET    /entries/{key}", GetHandler{Svc: svc})
	mux.Handle("DELETE /entries/{id}", DeleteHandler{Svc: svc})
	mux.Handle("GET    /files/{paymentIntentId}", FileHandler{Svc: svc})
}
