package graph

import "time"

// Option is a functional option for configuring an Engine.
//
// Example:
//
//	engine := graph.New(
//	    reducer, st, emitter,
//	    graph.WithMaxSteps(50),
//	    graph.WithRetries(2),
//	    graph.WithNodeTimeout(30*time.Second),
//	)
type Option func(*engineConfig)

// engineConfig collects options before they are applied to an Engine.
type engineConfig struct {
	maxSteps    int
	retries     int
	nodeTimeout time.Duration
	metrics     *PrometheusMetrics
	costTracker *CostTracker
}

// WithMaxSteps limits workflow execution to prevent infinite loops.
//
// Default: 0 (no limit, use with caution).
//
// Conversation loops (clarify, reschedule) are fully supported; MaxSteps
// guards against a missing or misconfigured exit condition. When exceeded,
// Run returns an EngineError with code "MAX_STEPS_EXCEEDED".
//
// Recommended values:
//   - Linear workflows: 20
//   - Workflows with retry loops: depth x max iterations
func WithMaxSteps(n int) Option {
	return func(cfg *engineConfig) {
		cfg.maxSteps = n
	}
}

// WithRetries sets how many times a node is retried on transient errors.
//
// Default: 0 (no retries).
//
// Transient errors are identified by the Retryable interface: any error in
// the chain that implements Retryable() bool and reports true is retried.
// Provider rate limits and server errors qualify; bad credentials do not.
func WithRetries(n int) Option {
	return func(cfg *engineConfig) {
		cfg.retries = n
	}
}

// WithNodeTimeout sets the maximum execution time for a single node.
//
// Default: 0 (no per-node timeout).
//
// Prevents a slow LLM call from blocking workflow progress indefinitely.
// When exceeded, the node's context is cancelled and the node error is
// treated like any other node failure.
func WithNodeTimeout(d time.Duration) Option {
	return func(cfg *engineConfig) {
		cfg.nodeTimeout = d
	}
}

// WithMetrics enables Prometheus metrics collection.
//
// The engine records step counts, step latency, and retry counts per node.
//
// Example:
//
//	registry := prometheus.NewRegistry()
//	metrics := graph.NewPrometheusMetrics(registry)
//	engine := graph.New(reducer, st, emitter, graph.WithMetrics(metrics))
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
func WithMetrics(metrics *PrometheusMetrics) Option {
	return func(cfg *engineConfig) {
		cfg.metrics = metrics
	}
}

// WithCostTracker enables LLM cost tracking with static pricing.
//
// The tracker accumulates per-model token usage and cost across the run.
// Nodes that call an LLM record usage via Engine.CostTracker().
//
// Example:
//
//	tracker := graph.NewCostTracker("run-123", "USD")
//	engine := graph.New(reducer, st, emitter, graph.WithCostTracker(tracker))
//	// after execution:
//	total := tracker.TotalCost()
func WithCostTracker(tracker *CostTracker) Option {
	return func(cfg *engineConfig) {
		cfg.costTracker = tracker
	}
}
