package entry

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"contest-api/internal/handler/http/pathutil"
	"contest-api/internal/handler/http/respond"
	entryUC "contest-api/internal/usecase/entry"
)

// deleteBodyLimit caps the {userId} body.
const deleteBodyLimit = 4 << 10

// DeleteHandler serves DELETE /entries/{id}. The body names the requesting user.
type DeleteHandler struct {
	Svc *entryUC.Service
}

func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractKey(r.URL.Path, "/entries/")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		UserID string `json:"userId"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, deleteBodyLimit)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeDecodeError(w, r, err)
		return
	}

	if err := h.Svc.Delete(r.Context(), id, req.UserID); err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, DeletedResponse{
		Message: "entry deleted",
		EntryID: id,
	})
}
