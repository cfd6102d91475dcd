package tracer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNoopTracer(t *testing.T) {
	ctx := context.Background()
	newCtx, span := NewNoop().Start(ctx, SpanIssue, String(AttrCredentialID, "VC-2024-1"))

	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)
	span.SetAttributes(Bool(AttrRevoked, true))
	span.AddEvent(EventPublished)
	span.End(errors.New("ignored"))
}

func TestOTelTracerWithNoopProvider(t *testing.T) {
	tr := NewOTel(WithOTelTracer(noop.NewTracerProvider().Tracer("test")))
	_, span := tr.Start(context.Background(), SpanDisclose,
		String(AttrCredentialID, "VC-2024-1"),
		Attribute{Key: AttrProofs, Value: []string{"adult"}},
	)
	require.NotNil(t, span)
	span.AddEvent(EventPublished, Int(AttrCount, 2))
	span.End(errors.New("boom"))
}

func TestNewOTelDefaultsToGlobalProvider(t *testing.T) {
	assert.NotNil(t, NewOTel().tracer)
}

func TestToOTelAttributes(t *testing.T) {
	got := toOTelAttributes([]Attribute{
		String("s", "v"),
		Bool("b", true),
		Int("i", 3),
		Duration("d", 1500*time.Millisecond),
		{Key: "list", Value: []string{"a", "b"}},
		{Key: "skipped", Value: struct{}{}},
	})

	assert.Equal(t, []attribute.KeyValue{
		attribute.String("s", "v"),
		attribute.Bool("b", true),
		attribute.Int64("i", 3),
		attribute.Int64("d", 1500),
		attribute.StringSlice("list", []string{"a", "b"}),
	}, got)
	assert.Nil(t, toOTelAttributes(nil))
}
