// Package logging builds the process logger and carries a request-scoped
// logger through context.
//
// main builds one logger from LOG_LEVEL and LOG_FORMAT and installs it as
// slog's default. The HTTP logging middleware derives a child logger with
// request_id and trace_id and stores it with WithLogger; use cases and
// adapters pick it up with FromContext:
//
//	logging.FromContext(ctx).Info("entry persisted",
//	    slog.String("entry_id", e.ID))
//
// Attributes whose key names a secret (authorization, client_secret,
// webhook_url and similar) are replaced with "[REDACTED]" by every logger
// New returns.
package logging
