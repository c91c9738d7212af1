package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNoopLeavesContextAlone(t *testing.T) {
	ctx := context.Background()
	got, span := NewNoop().Start(ctx, "role_request.approve", String("role", "coach"))
	assert.Equal(t, ctx, got)
	require.NotNil(t, span)
	assert.NotPanics(t, func() {
		span.SetAttributes(Bool("issued", true))
		span.AddEvent("code.issued", Int("sequence", 1))
		span.End(errors.New("boom"))
	})
}

func TestOTelWithInjectedTracer(t *testing.T) {
	tr := NewOTel("clubid", WithTracer(noop.NewTracerProvider().Tracer("test")))
	_, span := tr.Start(context.Background(), "integration.decide", String("decision", "approved"))
	assert.NotPanics(t, func() { span.End(nil) })
}

func TestToOTelSkipsUnsupportedValues(t *testing.T) {
	got := toOTel([]Attribute{
		String("a", "x"),
		Bool("b", true),
		Int("c", 3),
		{Key: "d", Value: int64(4)},
		{Key: "e", Value: []string{"unsupported"}},
	})
	assert.Equal(t, []attribute.KeyValue{
		attribute.String("a", "x"),
		attribute.Bool("b", true),
		attribute.Int("c", 3),
		attribute.Int64("d", 4),
	}, got)
	assert.Nil(t, toOTel(nil))
}
