package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	entryHTTP "contest-api/internal/handler/http/entry"
	"contest-api/internal/handler/http/pathutil"
	"contest-api/internal/handler/http/respond"
	entryUC "contest-api/internal/usecase/entry"
)

const reviewBodyLimit = 4 << 10

// ReviewStatusHandler serves PATCH /admin/entries/{id}/review-status and
// returns the updated entry.
type ReviewStatusHandler struct {
	Svc *entryUC.Service
}

// ServeHTTP 審査ステータス更新
func (h ReviewStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractKeyBetween(r.URL.Path, "/admin/entries/", "/review-status")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, reviewBodyLimit)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			respond.FromError(w, r, err)
			return
		}
		respond.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}

	e, err := h.Svc.UpdateReviewStatus(r.Context(), id, req.Status)
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, entryHTTP.ToDTO(e))
}
