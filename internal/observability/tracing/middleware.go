package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"contest-api/internal/handler/http/pathutil"
	"contest-api/internal/handler/http/requestid"
	"contest-api/internal/handler/http/responsewriter"
)

// TraceIDHeader carries the server span's trace id back to the client.
const TraceIDHeader = "X-Trace-Id"

// Middleware opens a server span per request, continuing any W3C trace
// context the caller sent. The span is named after the normalised route so
// user and entry ids never appear in span names. Responses of 500 and above
// mark the span as failed.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := pathutil.NormalizePath(r.URL.Path)
		ctx, span := GetTracer().Start(ctx, r.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("http.route", route),
			),
		)
		defer span.End()

		if id := requestid.FromContext(ctx); id != "" {
			span.SetAttributes(attribute.String("request.id", id))
		}
		w.Header().Set(TraceIDHeader, span.SpanContext().TraceID().String())

		rw := responsewriter.Wrap(w)
		next.ServeHTTP(rw, r.WithContext(ctx))

		status := rw.StatusCode()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	})
}
