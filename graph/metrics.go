package graph

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics provides Prometheus-compatible metrics collection for
// workflow execution monitoring.
//
// Metrics exposed (all namespaced with "contractorflow_"):
//
//  1. step_latency_ms (histogram): node execution duration in milliseconds.
//     Labels: run_id, node_id, status (success/error).
//
//  2. retries_total (counter): cumulative node retry attempts.
//     Labels: run_id, node_id, reason.
//
//  3. sentiment_results_total (counter): classification outcomes.
//     Labels: sentiment (positive/negative/unknown), analyzer (rules/llm).
//
//  4. conversations_total (counter): finished conversations by outcome.
//     Labels: outcome (confirmed/rescheduled/handoff/failed).
//
//  5. llm_tokens_total (counter): tokens consumed by LLM calls.
//     Labels: model, direction (input/output).
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := NewPrometheusMetrics(registry)
//	engine := New(reducer, st, emitter, WithMetrics(metrics))
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
//
// Thread-safe: the underlying Prometheus collectors handle concurrency.
type PrometheusMetrics struct {
	stepLatency   *prometheus.HistogramVec
	retries       *prometheus.CounterVec
	sentiment     *prometheus.CounterVec
	conversations *prometheus.CounterVec
	llmTokens     *prometheus.CounterVec

	registry prometheus.Registerer

	mu      sync.RWMutex
	enabled bool
}

// NewPrometheusMetrics creates and registers all workflow execution metrics
// with the provided Prometheus registry.
//
// Pass prometheus.DefaultRegisterer for the global registry, or a custom
// registry for isolation (recommended in tests).
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	pm := &PrometheusMetrics{
		registry: registry,
		enabled:  true,
	}

	pm.stepLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "contractorflow",
		Name:      "step_latency_ms",
		Help:      "Node execution duration in milliseconds",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
	}, []string{"run_id", "node_id", "status"})

	pm.retries = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contractorflow",
		Name:      "retries_total",
		Help:      "Cumulative count of node retry attempts",
	}, []string{"run_id", "node_id", "reason"})

	pm.sentiment = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contractorflow",
		Name:      "sentiment_results_total",
		Help:      "Sentiment classification outcomes by analyzer",
	}, []string{"sentiment", "analyzer"})

	pm.conversations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contractorflow",
		Name:      "conversations_total",
		Help:      "Finished conversations by outcome",
	}, []string{"outcome"})

	pm.llmTokens = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contractorflow",
		Name:      "llm_tokens_total",
		Help:      "Tokens consumed by LLM calls",
	}, []string{"model", "direction"})

	return pm
}

// RecordStepLatency records the execution duration of a node in milliseconds.
//
// Status is the execution outcome ("success", "error").
func (pm *PrometheusMetrics) RecordStepLatency(runID, nodeID string, latency time.Duration, status string) {
	if !pm.isEnabled() {
		return
	}

	pm.stepLatency.WithLabelValues(runID, nodeID, status).Observe(float64(latency.Milliseconds()))
}

// IncrementRetries increments the retry counter for a node.
//
// Reason is the retry cause ("transient", "timeout").
func (pm *PrometheusMetrics) IncrementRetries(runID, nodeID, reason string) {
	if !pm.isEnabled() {
		return
	}

	pm.retries.WithLabelValues(runID, nodeID, reason).Inc()
}

// RecordSentiment counts a classification outcome.
//
// Analyzer identifies the classifier that produced it ("rules", "llm").
func (pm *PrometheusMetrics) RecordSentiment(sentiment, analyzer string) {
	if !pm.isEnabled() {
		return
	}

	pm.sentiment.WithLabelValues(sentiment, analyzer).Inc()
}

// RecordConversationOutcome counts a finished conversation.
//
// Outcome is one of "confirmed", "rescheduled", "handoff", "failed".
func (pm *PrometheusMetrics) RecordConversationOutcome(outcome string) {
	if !pm.isEnabled() {
		return
	}

	pm.conversations.WithLabelValues(outcome).Inc()
}

// AddLLMTokens accumulates token usage for a model.
func (pm *PrometheusMetrics) AddLLMTokens(model string, inputTokens, outputTokens int) {
	if !pm.isEnabled() {
		return
	}

	pm.llmTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	pm.llmTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
}

// Disable temporarily disables metric recording (useful for testing).
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable re-enables metric recording after Disable.
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}

func (pm *PrometheusMetrics) isEnabled() bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.enabled
}
