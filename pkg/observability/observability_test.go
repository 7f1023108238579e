package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestConnectorTracerRecordsOutcome(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	shutdown, err := Initialize(TracingConfig{
		ServiceName:    "tap-typo",
		ServiceVersion: "test",
		SamplingRate:   1.0,
		Exporter:       exporter,
	})
	require.NoError(t, err)

	tracer := NewConnectorTracer("source", "typo")
	ctx := context.Background()

	require.NoError(t, tracer.Trace(ctx, "fetch_page", func(context.Context) error { return nil }))

	failure := errors.New("boom")
	err = tracer.Trace(ctx, "sync_stream", func(context.Context) error { return failure })
	assert.Equal(t, failure, err)

	require.NoError(t, shutdown(ctx))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	assert.Equal(t, "source.typo.fetch_page", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)

	assert.Equal(t, "source.typo.sync_stream", spans[1].Name)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, "boom", spans[1].Status.Description)

	var operation string
	for _, attr := range spans[1].Attributes {
		if attr.Key == "connector.operation" {
			operation = attr.Value.AsString()
		}
	}
	assert.Equal(t, "sync_stream", operation)
}

func TestSpanWithoutInitialize(t *testing.T) {
	_, span := NewSpan(context.Background(), "noop")
	span.SetAttribute("count", 3)
	span.SetAttribute("other", struct{}{})
	span.Finish(nil)
}
