package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-api/internal/domain/entity"
)

func TestJSON(t *testing.T) {
	tests := []struct {
		name         string
		code         int
		data         any
		expectedBody string
	}{
		{
			name:         "success with map",
			code:         http.StatusOK,
			data:         map[string]string{"message": "success"},
			expectedBody: `{"message":"success"}`,
		},
		{
			name:         "success with struct",
			code:         http.StatusCreated,
			data:         struct{ ID int }{ID: 123},
			expectedBody: `{"ID":123}`,
		},
		{
			name:         "success with nil",
			code:         http.StatusNoContent,
			data:         nil,
			expectedBody: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			JSON(w, tt.code, tt.data)

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			if tt.expectedBody == "" {
				assert.Empty(t, w.Body.String())
				return
			}
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

type rejected struct{ err error }

func (r *rejected) Error() string        { return "rejected: " + r.err.Error() }
func (r *rejected) Unwrap() error        { return r.err }
func (r *rejected) RejectReason() string { return "payment-incomplete" }

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{name: "not found", err: fmt.Errorf("get entry: %w", entity.ErrNotFound), code: 404, msg: "entry not found"},
		{name: "forbidden", err: entity.ErrForbidden, code: 403, msg: "not the owner of this entry"},
		{name: "duplicate", err: fmt.Errorf("persist: %w", entity.ErrDuplicateEntry), code: 409},
		{name: "signature", err: entity.ErrSignatureInvalid, code: 400},
		{name: "payment", err: entity.ErrPaymentNotCompleted, code: 400},
		{name: "file type", err: &entity.ValidationError{Field: "file", Message: "png", Err: entity.ErrUnsupportedFileType}, code: 400, msg: "unsupported file type"},
		{name: "file size", err: entity.ErrFileTooLarge, code: 400},
		{name: "category", err: entity.ErrInvalidCategory, code: 400},
		{name: "validation", err: &entity.ValidationError{Field: "title", Message: "is required"}, code: 400, msg: "validation failed"},
		{name: "unavailable", err: fmt.Errorf("find: %w", entity.ErrDependencyUnavailable), code: 503, msg: "service temporarily unavailable"},
		{
			name: "unavailable wins over rejection",
			err:  &rejected{err: fmt.Errorf("gateway: %w", entity.ErrDependencyUnavailable)},
			code: 503,
		},
		{name: "body too large", err: &http.MaxBytesError{Limit: 10}, code: 413},
		{name: "unexpected", err: errors.New("pq: relation missing"), code: 500, msg: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := Status(tt.err)
			assert.Equal(t, tt.code, code)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, msg)
			}
		})
	}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestFromError_ValidationFields(t *testing.T) {
	var errs entity.ValidationErrors
	errs.Add("title", "is required")
	errs.Add("userId", "is required")

	w := httptest.NewRecorder()
	FromError(w, httptest.NewRequest(http.MethodPost, "/entries", nil), errs)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "validation failed", body.Error)
	assert.Equal(t, map[string]string{"title": "is required", "userId": "is required"}, body.Fields)
}

func TestFromError_RejectionReason(t *testing.T) {
	w := httptest.NewRecorder()
	FromError(w, httptest.NewRequest(http.MethodPost, "/entries", nil),
		&rejected{err: entity.ErrPaymentNotCompleted})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "payment not completed", body.Error)
	assert.Equal(t, "payment-incomplete", body.Reason)
}

func TestFromError_InternalDetailsHidden(t *testing.T) {
	w := httptest.NewRecorder()
	FromError(w, httptest.NewRequest(http.MethodGet, "/entries/x", nil),
		errors.New("dial postgres://app:hunter2@db:5432/contest: refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "hunter2")
}

func TestFromError_Nil(t *testing.T) {
	w := httptest.NewRecorder()
	FromError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, http.StatusUnauthorized, "admin token required")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"admin token required"}`, w.Body.String())
}
