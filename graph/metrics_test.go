package graph

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusMetrics_Counters(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	metrics.IncrementRetries("run-1", "analyze_sentiment", "transient")
	metrics.IncrementRetries("run-1", "analyze_sentiment", "transient")
	metrics.RecordSentiment("positive", "rules")
	metrics.RecordConversationOutcome("confirmed")
	metrics.AddLLMTokens("gpt-4o-mini", 120, 3)

	if got := testutil.ToFloat64(metrics.retries.WithLabelValues("run-1", "analyze_sentiment", "transient")); got != 2 {
		t.Errorf("expected 2 retries, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.sentiment.WithLabelValues("positive", "rules")); got != 1 {
		t.Errorf("expected 1 sentiment result, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.conversations.WithLabelValues("confirmed")); got != 1 {
		t.Errorf("expected 1 conversation, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.llmTokens.WithLabelValues("gpt-4o-mini", "input")); got != 120 {
		t.Errorf("expected 120 input tokens, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.llmTokens.WithLabelValues("gpt-4o-mini", "output")); got != 3 {
		t.Errorf("expected 3 output tokens, got %v", got)
	}
}

func TestPrometheusMetrics_StepLatency(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	metrics.RecordStepLatency("run-1", "greet", 25*time.Millisecond, "success")

	count := testutil.CollectAndCount(metrics.stepLatency)
	if count != 1 {
		t.Errorf("expected 1 latency series, got %d", count)
	}
}

func TestPrometheusMetrics_Disable(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	metrics.Disable()
	metrics.RecordConversationOutcome("handoff")

	if got := testutil.ToFloat64(metrics.conversations.WithLabelValues("handoff")); got != 0 {
		t.Errorf("expected 0 while disabled, got %v", got)
	}

	metrics.Enable()
	metrics.RecordConversationOutcome("handoff")

	if got := testutil.ToFloat64(metrics.conversations.WithLabelValues("handoff")); got != 1 {
		t.Errorf("expected 1 after re-enable, got %v", got)
	}
}
