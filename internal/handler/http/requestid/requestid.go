// Package requestid assigns every request an id that follows it through
// logs, traces, notification sends and the X-Request-ID response header.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader is read from the request and always written on the response.
const RequestIDHeader = "X-Request-ID"

const maxLen = 128

type ctxKey struct{}

// FromContext returns the request id, or "" outside a request.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// WithRequestID stores id in ctx. Background work started from a request
// uses it to keep the caller's id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// Middleware keeps a caller-supplied X-Request-ID when it is at most 128
// printable ASCII bytes and otherwise generates a UUID v4.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !acceptable(id) {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}

// acceptable rejects control bytes, spaces and non-ASCII so ids cannot
// break a log line.
func acceptable(id string) bool {
	if id == "" || len(id) > maxLen {
		return false
	}
	for _, c := range []byte(id) {
		if c <= ' ' || c > '~' {
			return false
		}
	}
	return true
}
