package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"contest-api/internal/handler/http/pathutil"
	"contest-api/internal/handler/http/responsewriter"
	"contest-api/internal/observability/metrics"
)

// MetricsMiddleware records HTTP request metrics including duration, size, and status codes.
// It uses path normalization to prevent label cardinality explosion from ID-containing paths.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		// Example: /entries/ent_01J... -> /entries/:key
		path := pathutil.NormalizePath(r.URL.Path)

		rw := responsewriter.Wrap(w)
		start := time.Now()
		next.ServeHTTP(rw, r)

		requestSize := 0
		if r.ContentLength > 0 {
			requestSize = int(r.ContentLength)
		}
		metrics.RecordHTTPRequest(r.Method, path, strconv.Itoa(rw.StatusCode()),
			time.Since(start), requestSize, rw.BytesWritten())
	})
}

// MetricsHandler returns an HTTP handler for the Prometheus metrics endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
