package sentiment

import (
	"context"
	"testing"
)

func TestRuleAnalyzer_Classify(t *testing.T) {
	tests := []struct {
		input string
		want  Sentiment
	}{
		// Agreements
		{"yes", Positive},
		{"Yes!", Positive},
		{"I'll do it tomorrow", Positive},
		{"sounds great", Positive},
		{"will do", Positive},
		{"sure, that works", Positive},

		// Refusals
		{"no", Negative},
		{"No thanks", Negative},
		{"I can't right now", Negative},
		{"I'm concerned about the cost", Negative},
		{"the budget is too high", Negative},

		// Ambiguous
		{"maybe", Unknown},
		{"I'll think about it", Unknown},
		{"can you provide more information", Unknown},
		{"what color is the faucet", Unknown},
		{"", Unknown},

		// Token matching must not fire inside longer words.
		{"I know the drill", Unknown},
		{"that's a nosy question", Unknown},
	}

	analyzer := NewRuleAnalyzer()
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := analyzer.Analyze(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("Analyze failed: %v", err)
			}
			if result.Sentiment != tt.want {
				t.Errorf("Analyze(%q) = %s, want %s (reason: %s)", tt.input, result.Sentiment, tt.want, result.Reason)
			}
		})
	}
}

func TestRuleAnalyzer_HedgeOverridesOtherMatches(t *testing.T) {
	analyzer := NewRuleAnalyzer()

	result, err := analyzer.Analyze(context.Background(), "maybe yes")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.Sentiment != Unknown {
		t.Errorf("hedge should force Unknown, got %s", result.Sentiment)
	}
}

func TestRuleAnalyzer_ContextCancellation(t *testing.T) {
	analyzer := NewRuleAnalyzer()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := analyzer.Analyze(ctx, "yes"); err == nil {
		t.Error("expected error for cancelled context")
	}
}
