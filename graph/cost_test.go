package graph

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCostTracker_RecordLLMCall(t *testing.T) {
	tracker := NewCostTracker("run-1", "USD")

	// gpt-4o-mini: $0.15/1M input, $0.60/1M output
	tracker.RecordLLMCall("gpt-4o-mini", 1_000_000, 1_000_000, "analyze_sentiment")

	if got := tracker.TotalCost(); !almostEqual(got, 0.75) {
		t.Errorf("expected total cost 0.75, got %v", got)
	}

	in, out := tracker.TokenUsage()
	if in != 1_000_000 || out != 1_000_000 {
		t.Errorf("unexpected token usage: in=%d out=%d", in, out)
	}

	calls := tracker.Calls()
	if len(calls) != 1 || calls[0].NodeID != "analyze_sentiment" {
		t.Errorf("unexpected call history: %+v", calls)
	}
}

func TestCostTracker_CostByModel(t *testing.T) {
	tracker := NewCostTracker("run-1", "USD")

	tracker.RecordLLMCall("gpt-4o-mini", 1_000_000, 0, "a")
	tracker.RecordLLMCall("claude-3-5-haiku-20241022", 1_000_000, 0, "b")

	costs := tracker.CostByModel()
	if !almostEqual(costs["gpt-4o-mini"], 0.15) {
		t.Errorf("expected gpt-4o-mini cost 0.15, got %v", costs["gpt-4o-mini"])
	}
	if !almostEqual(costs["claude-3-5-haiku-20241022"], 0.80) {
		t.Errorf("expected haiku cost 0.80, got %v", costs["claude-3-5-haiku-20241022"])
	}
}

func TestCostTracker_UnknownModelZeroCost(t *testing.T) {
	tracker := NewCostTracker("run-1", "USD")

	tracker.RecordLLMCall("some-local-model", 5000, 100, "a")

	if got := tracker.TotalCost(); got != 0 {
		t.Errorf("expected zero cost for unknown model, got %v", got)
	}
	in, out := tracker.TokenUsage()
	if in != 5000 || out != 100 {
		t.Errorf("token counts should still accumulate: in=%d out=%d", in, out)
	}
}

func TestCostTracker_SetCustomPricing(t *testing.T) {
	tracker := NewCostTracker("run-1", "USD")

	tracker.SetCustomPricing("my-model", 1.00, 2.00)
	tracker.RecordLLMCall("my-model", 1_000_000, 500_000, "a")

	if got := tracker.TotalCost(); !almostEqual(got, 2.00) {
		t.Errorf("expected cost 2.00, got %v", got)
	}
}
