package instrumentation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	return recorder
}

func TestStartToolSpan(t *testing.T) {
	recorder := withRecorder(t)

	ctx, span := StartToolSpan(context.Background(), "search_event", "call_1")
	assert.NotEmpty(t, TraceID(ctx))
	EndSpan(span, nil)

	spans := recorder.Ended()
	if assert.Len(t, spans, 1) {
		assert.Equal(t, "tool.search_event", spans[0].Name())
	}
}

func TestStartGoogleAPISpan_Error(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartGoogleAPISpan(context.Background(), ServiceCalendar, OperationDelete, "primary")
	EndSpan(span, errors.New("not found"))

	spans := recorder.Ended()
	if assert.Len(t, spans, 1) {
		assert.Equal(t, "google.calendar.delete", spans[0].Name())
		assert.Equal(t, "not found", spans[0].Status().Description)
	}
}

func TestStartModelSpan(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartModelSpan(context.Background(), "session-1")
	EndSpan(span, nil)

	assert.Len(t, recorder.Ended(), 1)
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}
