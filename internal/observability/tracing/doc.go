// Package tracing wires OpenTelemetry into the request path.
//
// InitProvider installs the SDK provider and the W3C propagators at
// startup. Middleware opens one server span per request and echoes the
// trace id in X-Trace-Id; use cases open child spans with StartSpan around
// gateway, storage and database calls:
//
//	ctx, span := tracing.StartSpan(ctx, "gateway.create_intent")
//	defer func() { tracing.EndSpan(span, err) }()
//
// No exporter is attached by default. Spans still carry real ids, which the
// logging middleware copies into every request log line as trace_id.
package tracing
