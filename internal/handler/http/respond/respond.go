// Package respond provides utilities for sending HTTP responses in JSON format.
// It maps domain errors onto status codes and keeps internal details out of
// response bodies.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"contest-api/internal/domain/entity"
	"contest-api/internal/observability/logging"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string            `json:"error"`
	Reason string            `json:"reason,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// Log the error but cannot send error response as headers already sent
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// Error writes {"error": msg} with the given status code.
func Error(w http.ResponseWriter, code int, msg string) {
	JSON(w, code, ErrorBody{Error: msg})
}

// rejection is implemented by workflow errors that carry a rejection reason.
type rejection interface {
	RejectReason() string
}

// Status returns the HTTP status code for err and the message safe to show
// the client.
func Status(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, entity.ErrDependencyUnavailable):
		return http.StatusServiceUnavailable, entity.ErrDependencyUnavailable.Error()
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "request body too large"
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound, entity.ErrNotFound.Error()
	case errors.Is(err, entity.ErrForbidden):
		return http.StatusForbidden, entity.ErrForbidden.Error()
	case errors.Is(err, entity.ErrDuplicateEntry):
		return http.StatusConflict, entity.ErrDuplicateEntry.Error()
	case errors.Is(err, entity.ErrSignatureInvalid):
		return http.StatusBadRequest, entity.ErrSignatureInvalid.Error()
	case errors.Is(err, entity.ErrPaymentNotCompleted):
		return http.StatusBadRequest, entity.ErrPaymentNotCompleted.Error()
	case errors.Is(err, entity.ErrUnsupportedFileType):
		return http.StatusBadRequest, entity.ErrUnsupportedFileType.Error()
	case errors.Is(err, entity.ErrFileTooLarge):
		return http.StatusBadRequest, entity.ErrFileTooLarge.Error()
	case errors.Is(err, entity.ErrInvalidCategory):
		return http.StatusBadRequest, entity.ErrInvalidCategory.Error()
	case entity.FieldMessages(err) != nil:
		return http.StatusBadRequest, "validation failed"
	}
	return http.StatusInternalServerError, "internal server error"
}

// FromError writes the error response for err.
//
// 4xx bodies carry the sentinel message plus any field errors and rejection
// reason. 5xx bodies never carry more than a generic message; the sanitized
// error is logged with the request logger instead.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	code, msg := Status(err)
	body := ErrorBody{Error: msg}

	if code < http.StatusInternalServerError {
		body.Fields = entity.FieldMessages(err)
		var rej rejection
		if errors.As(err, &rej) {
			body.Reason = rej.RejectReason()
		}
	}

	logger := logging.FromContext(r.Context())
	switch {
	case code >= http.StatusInternalServerError:
		logger.Error("request failed",
			slog.Int("status", code),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", SanitizeError(err)))
	default:
		logger.Debug("request rejected",
			slog.Int("status", code),
			slog.String("error", SanitizeError(err)))
	}

	JSON(w, code, body)
}
