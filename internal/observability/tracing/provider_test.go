package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitProvider(t *testing.T) {
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	exporter := tracetest.NewInMemoryExporter()
	shutdown := InitProvider("contest-api", "v1.2.3", sdktrace.WithSyncer(exporter))

	ctx, span := StartSpan(context.Background(), "entry.submit")
	assert.NotEmpty(t, TraceID(ctx))
	EndSpan(span, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "entry.submit", spans[0].Name)

	var service string
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == "service.name" {
			service = kv.Value.AsString()
		}
	}
	assert.Equal(t, "contest-api", service)
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")

	require.NoError(t, shutdown(context.Background()))
}
