package entry

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"contest-api/internal/handler/http/pathutil"
	"contest-api/internal/handler/http/respond"
	"contest-api/internal/observability/logging"
	entryUC "contest-api/internal/usecase/entry"
)

// FileHandler streams the pitch deck attached to the entry paid for by the
// intent in the path.
type FileHandler struct {
	Svc *entryUC.Service
}

func (h FileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	intentID, err := pathutil.ExtractKey(r.URL.Path, "/files/")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	f, err := h.Svc.OpenFile(r.Context(), intentID)
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	defer func() { _ = f.Body.Close() }()

	contentType := f.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": f.Filename}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if f.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, f.Body); err != nil {
		// ヘッダ送信後なのでログのみ
		logging.FromContext(r.Context()).Warn("file stream interrupted",
			slog.String("payment_intent_id", intentID),
			slog.Any("error", err))
	}
}
