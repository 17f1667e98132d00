package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// InitProvider installs a global TracerProvider and the W3C trace context
// propagator. Spans get real trace ids for log correlation; exporters are
// attached with opts (e.g. sdktrace.WithBatcher). The returned function flushes
// and stops the provider.
func InitProvider(service, version string, opts ...sdktrace.TracerProviderOption) func(context.Context) error {
	res := resource.NewSchemaless(
		attribute.String("service.name", service),
		attribute.String("service.version", version),
	)
	opts = append([]sdktrace.TracerProviderOption{sdktrace.WithResource(res)}, opts...)
	tp := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown
}
