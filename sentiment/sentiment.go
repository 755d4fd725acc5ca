// Package sentiment classifies customer replies about scheduling.
//
// The workflow asks a customer whether a consultation tomorrow works and
// needs to know if the reply is an agreement, a refusal, or something it
// cannot act on. Two analyzers implement the same interface: RuleAnalyzer
// matches deterministic keyword rules (used in mock mode and tests) and
// LLMAnalyzer delegates to a chat model.
package sentiment

import (
	"context"

	"github.com/prizmhq/contractor-flow/graph/model"
)

// Sentiment is the classification outcome for a customer reply.
type Sentiment string

const (
	// Neutral is the initial state before any reply has been analyzed.
	Neutral Sentiment = "neutral"

	// Positive means the customer agreed to the proposed schedule.
	Positive Sentiment = "positive"

	// Negative means the customer declined or raised an objection.
	Negative Sentiment = "negative"

	// Unknown means the reply was ambiguous and needs clarification.
	Unknown Sentiment = "unknown"
)

// Result is the outcome of analyzing a single customer reply.
type Result struct {
	// Sentiment is the classification (Positive, Negative, or Unknown).
	Sentiment Sentiment

	// Reason is the raw classifier output, kept for trace submission
	// and debugging ("POSITIVE", "matched phrase: budget is too high").
	Reason string

	// Model identifies the LLM that produced the result. Empty for the
	// rule-based analyzer.
	Model string

	// Usage reports token consumption for LLM-backed analysis.
	// Zero for the rule-based analyzer.
	Usage model.Usage
}

// Analyzer classifies a customer reply.
//
// Implementations must be safe for concurrent use.
type Analyzer interface {
	// Analyze classifies the given reply text.
	Analyze(ctx context.Context, text string) (Result, error)

	// Name identifies the analyzer ("rules", "llm") for metrics.
	Name() string
}
