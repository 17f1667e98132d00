package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/trace"

	"contest-api/internal/handler/http/requestid"
	"contest-api/internal/handler/http/respond"
	"contest-api/internal/handler/http/responsewriter"
	"contest-api/internal/observability/logging"
)

// Logging returns middleware that logs HTTP requests with structured logging.
//
// The request-scoped logger (carrying request_id and trace_id) is placed in the
// request context so handlers and use cases log with the same fields via
// logging.FromContext. It must run inside requestid.Middleware and the tracing
// middleware for those ids to be present.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLogger := logging.WithRequestID(r.Context(), logger)
			if sc := trace.SpanFromContext(r.Context()).SpanContext(); sc.HasTraceID() {
				reqLogger = reqLogger.With(slog.String("trace_id", sc.TraceID().String()))
			}
			r = r.WithContext(logging.WithLogger(r.Context(), reqLogger))

			// Wrap ResponseWriter to record status code and size
			wrapped := responsewriter.Wrap(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if wrapped.StatusCode() >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			reqLogger.LogAttrs(r.Context(), level, "request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.Header.Get("User-Agent")),
				slog.Int("status", wrapped.StatusCode()),
				slog.Int("bytes", wrapped.BytesWritten()),
				slog.Duration("duration", duration),
				slog.String("duration_ms", fmt.Sprintf("%.2f", duration.Seconds()*1000)),
			)
		})
	}
}

// Recover returns middleware that catches panics, logs them and answers 500.
// The stack trace is logged only when includeStack is set (non-production).
// The response body never carries panic details.
func Recover(logger *slog.Logger, includeStack bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				attrs := []slog.Attr{
					slog.String("request_id", requestid.FromContext(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("panic", respond.SanitizeString(fmt.Sprint(rec))),
				}
				if includeStack {
					attrs = append(attrs, slog.String("stack", string(debug.Stack())))
				}
				logger.LogAttrs(r.Context(), slog.LevelError, "panic recovered", attrs...)

				// ヘッダ送信済みなら何もできない
				if rw, ok := w.(*responsewriter.ResponseWriter); ok && rw.HeaderWritten() {
					return
				}
				respond.Error(w, http.StatusInternalServerError, "internal server error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// LimitRequestBody returns middleware that limits the size of request bodies.
// Reads past the limit fail with *http.MaxBytesError, which respond maps to 413.
func LimitRequestBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// Chain applies middlewares so that the first one listed is the outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
