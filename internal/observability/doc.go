// Package observability groups the logging, metrics and tracing packages.
//
// Subpackages:
//   - logging: slog setup and the request-scoped logger carried in contexts
//   - metrics: Prometheus collectors for HTTP traffic, submissions, payments
//     and storage
//   - tracing: OpenTelemetry provider setup, HTTP middleware and span helpers
package observability
