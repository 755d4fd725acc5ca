package emit

import (
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestOTelEmitter_CreatesSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("contractor-flow-test")

	emitter := NewOTelEmitter(tracer)
	emitter.Emit(Event{
		RunID:  "run-001",
		Step:   2,
		NodeID: "analyze_sentiment",
		Msg:    "node completed",
		Meta: map[string]interface{}{
			"sentiment": "negative",
			"tokens_in": 42,
		},
	})

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	span := spans[0]
	if span.Name() != "node completed" {
		t.Errorf("expected span name 'node completed', got %q", span.Name())
	}

	attrs := make(map[string]interface{})
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}

	if attrs["contractorflow.run_id"] != "run-001" {
		t.Errorf("expected run_id attribute, got %v", attrs["contractorflow.run_id"])
	}
	if attrs["contractorflow.sentiment"] != "negative" {
		t.Errorf("expected sentiment attribute, got %v", attrs["contractorflow.sentiment"])
	}
	if attrs["contractorflow.llm.tokens_in"] != int64(42) {
		t.Errorf("expected tokens_in attribute, got %v", attrs["contractorflow.llm.tokens_in"])
	}
}

func TestOTelEmitter_ErrorStatus(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("contractor-flow-test")

	emitter := NewOTelEmitter(tracer)
	emitter.Emit(Event{
		RunID: "run-002",
		Msg:   "node failed",
		Meta:  map[string]interface{}{"error": "analyzer unavailable"},
	})

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status().Description != "analyzer unavailable" {
		t.Errorf("expected error status, got %+v", spans[0].Status())
	}
	if len(spans[0].Events()) == 0 {
		t.Error("expected recorded error event on span")
	}
}
