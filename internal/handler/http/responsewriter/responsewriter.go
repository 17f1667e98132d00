// Package responsewriter provides a wrapper for http.ResponseWriter that records response metrics.
// It tracks status codes and bytes written for logging, metrics and tracing.
package responsewriter

import (
	"net/http"
)

// ResponseWriter wraps http.ResponseWriter to record response metrics.
type ResponseWriter struct {
	http.ResponseWriter
	statusCode    int
	bytesWritten  int
	headerWritten bool
}

// Wrap wraps w for recording. Wrapping an already wrapped writer returns it unchanged,
// so stacked middleware share one recorder.
func Wrap(w http.ResponseWriter) *ResponseWriter {
	if rw, ok := w.(*ResponseWriter); ok {
		return rw
	}
	return &ResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader records the status code and calls the underlying WriteHeader.
// Only the first call has an effect.
func (w *ResponseWriter) WriteHeader(statusCode int) {
	if w.headerWritten {
		return
	}
	w.statusCode = statusCode
	w.headerWritten = true
	w.ResponseWriter.WriteHeader(statusCode)
}

// Write writes the response body and records the size.
func (w *ResponseWriter) Write(b []byte) (int, error) {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += n
	return n, err
}

// Flush forwards to the underlying writer when it supports flushing.
// File downloads are streamed through it.
func (w *ResponseWriter) Flush() {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// StatusCode returns the recorded HTTP status code.
func (w *ResponseWriter) StatusCode() int {
	return w.statusCode
}

// BytesWritten returns the number of bytes written to the response.
func (w *ResponseWriter) BytesWritten() int {
	return w.bytesWritten
}

// HeaderWritten reports whether a status line has been sent.
func (w *ResponseWriter) HeaderWritten() bool {
	return w.headerWritten
}

// Unwrap returns the underlying http.ResponseWriter (for http.ResponseController support).
func (w *ResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
