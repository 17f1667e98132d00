package entry

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"contest-api/internal/handler/http/respond"
	entryUC "contest-api/internal/usecase/entry"
)

const (
	// multipartOverhead is allowed on top of the file size limit for the
	// form fields and part headers.
	multipartOverhead = 1 << 20
	// multipartMemory is how much of the form is buffered before parts spill
	// to temporary files.
	multipartMemory = 8 << 20
	fileField       = "file"
)

// CreateHandler accepts a submission.
type CreateHandler struct {
	Svc *entryUC.Service
}

// MaxBodyBytes is the request body cap: the file limit plus form overhead.
func (h CreateHandler) MaxBodyBytes() int64 {
	if h.Svc.MaxFileSize <= 0 {
		return entryUC.DefaultMaxFileSizeServer + multipartOverhead
	}
	return h.Svc.MaxFileSize + multipartOverhead
}

// ServeHTTP エントリ投稿
//
// The body is multipart/form-data with the metadata fields and an optional
// file part named "file". Text and video entries may send a JSON body with
// the same field names instead.
func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBodyBytes())

	req, err := decodeSubmit(r)
	if err != nil {
		writeDecodeError(w, r, err)
		return
	}

	e, err := h.Svc.Submit(r.Context(), req)
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, CreatedResponse{EntryID: e.ID})
}

var errMalformedBody = errors.New("malformed request body")

func decodeSubmit(r *http.Request) (entryUC.SubmitRequest, error) {
	var req entryUC.SubmitRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, err
		}
		return req, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return req, err
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req = entryUC.SubmitRequest{
		UserID:          r.FormValue("userId"),
		Category:        r.FormValue("category"),
		EntryType:       r.FormValue("entryType"),
		Title:           r.FormValue("title"),
		Description:     r.FormValue("description"),
		TextContent:     r.FormValue("textContent"),
		PitchDeckURL:    r.FormValue("pitchDeckUrl"),
		VideoURL:        r.FormValue("videoUrl"),
		PaymentIntentID: r.FormValue("paymentIntentId"),
	}

	file, header, err := r.FormFile(fileField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return req, nil
	case err != nil:
		return req, err
	}
	defer func() { _ = file.Close() }()

	upload, err := readUpload(file, header)
	if err != nil {
		return req, err
	}
	req.File = upload
	return req, nil
}

func readUpload(file multipart.File, header *multipart.FileHeader) (*entryUC.Upload, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &entryUC.Upload{
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Size:     header.Size,
		Data:     data,
	}, nil
}

// writeDecodeError answers 413 for an oversized body and 400 for anything
// else the decoder rejected.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		respond.FromError(w, r, err)
		return
	}
	if errors.Is(err, http.ErrNotMultipart) {
		respond.Error(w, http.StatusBadRequest, "expected multipart/form-data or application/json body")
		return
	}
	respond.Error(w, http.StatusBadRequest, errMalformedBody.Error())
}
