package entry

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"contest-api/internal/domain/entity"
)

// Upload is a file attached to a submission. MimeType is the type the client
// declared; the content is not sniffed.
type Upload struct {
	Filename string
	MimeType string
	Size     int64
	Data     []byte
}

// AllowedMimeTypes lists the slide deck formats accepted for pitch-deck entries.
var AllowedMimeTypes = map[string]bool{
	"application/pdf":               true,
	"application/vnd.ms-powerpoint": true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
}

// Default upload limits per deployment target.
const (
	DefaultMaxFileSizeServerless int64 = 4 << 20
	DefaultMaxFileSizeServer     int64 = 25 << 20
)

// FileURL returns the download path for the file attached to an intent's entry.
func FileURL(intentID string) string {
	return "/files/" + url.PathEscape(intentID)
}

// checkUpload enforces the type allow-list and the size limit.
func checkUpload(u *Upload, maxSize int64) error {
	if len(u.Data) == 0 {
		return &entity.ValidationError{Field: "file", Message: "is empty"}
	}
	mime := normalizeMime(u.MimeType)
	if !AllowedMimeTypes[mime] {
		return &entity.ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("type %q is not allowed; upload a PDF, PPT or PPTX", u.MimeType),
			Err:     entity.ErrUnsupportedFileType,
		}
	}
	size := max(u.Size, int64(len(u.Data)))
	if maxSize > 0 && size > maxSize {
		return &entity.ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("must be at most %d bytes", maxSize),
			Err:     entity.ErrFileTooLarge,
		}
	}
	return nil
}

// fileRef converts a checked upload into the reference stored on the entry.
func fileRef(u *Upload, intentID string) *entity.FileRef {
	name := filepath.Base(strings.ReplaceAll(u.Filename, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		name = "pitch-deck"
	}
	return &entity.FileRef{
		Filename: name,
		MimeType: normalizeMime(u.MimeType),
		Size:     int64(len(u.Data)),
		Data:     u.Data,
		URL:      FileURL(intentID),
	}
}

// normalizeMime drops parameters such as "; charset=binary" and lowercases.
func normalizeMime(v string) string {
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = v[:i]
	}
	return strings.ToLower(strings.TrimSpace(v))
}
