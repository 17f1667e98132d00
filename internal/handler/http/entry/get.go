package entry

import (
	"net/http"

	"contest-api/internal/domain/entity"
	"contest-api/internal/handler/http/pathutil"
	"contest-api/internal/handler/http/respond"
	entryUC "contest-api/internal/usecase/entry"
)

// GetHandler serves GET /entries/{key}.
// A key carrying the entry id prefix names one entry; any other key is an
// owner id whose entries are listed newest first.
type GetHandler struct {
	Svc *entryUC.Service
}

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key, err := pathutil.ExtractKey(r.URL.Path, "/entries/")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if entity.IsEntryID(key) {
		e, err := h.Svc.Get(r.Context(), key)
		if err != nil {
			respond.FromError(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, ToDTO(e))
		return
	}

	entries, err := h.Svc.List(r.Context(), key)
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	out := ListResponse{Entries: make([]DTO, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, ToDTO(e))
	}
	respond.JSON(w, http.StatusOK, out)
}
