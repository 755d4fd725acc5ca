package sentiment

import (
	"context"
	"strings"
)

// Phrase tables for the rule-based classifier. Multi-word phrases are
// matched as substrings of the lowercased reply; single words are matched
// against whole tokens so "no" does not fire inside "know".
var (
	hedgePhrases = []string{
		"i'll think about it",
		"think about it",
		"can you provide more information",
		"more information",
		"not sure",
	}
	hedgeWords = []string{"maybe", "perhaps", "possibly"}

	positivePhrases = []string{
		"i'll do it tomorrow",
		"sounds great",
		"sounds good",
		"will do",
		"that works",
	}
	positiveWords = []string{"yes", "yeah", "yep", "sure", "ok", "okay", "absolutely", "definitely"}

	negativePhrases = []string{
		"i can't right now",
		"can't right now",
		"concerned about the cost",
		"budget is too high",
		"too expensive",
		"not interested",
	}
	negativeWords = []string{"no", "nope", "can't", "cannot", "won't"}
)

// RuleAnalyzer is a deterministic keyword-based classifier.
//
// It exists so the workflow can run without an LLM: in tests, in demos,
// and whenever MOCK_SENTIMENT_ANALYSIS is enabled. Classification:
//
//  1. Hedge phrases ("maybe", "I'll think about it") force Unknown,
//     regardless of other matches.
//  2. Otherwise positive and negative matches are counted; the side with
//     more matches wins.
//  3. Ties, including zero matches, are Unknown.
type RuleAnalyzer struct{}

// NewRuleAnalyzer creates a rule-based analyzer.
func NewRuleAnalyzer() *RuleAnalyzer {
	return &RuleAnalyzer{}
}

// Name implements Analyzer.
func (a *RuleAnalyzer) Name() string { return "rules" }

// Analyze implements Analyzer. It never returns an error.
func (a *RuleAnalyzer) Analyze(ctx context.Context, text string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	normalized := strings.ToLower(strings.TrimSpace(text))
	tokens := tokenize(normalized)

	if phrase := firstMatch(normalized, tokens, hedgePhrases, hedgeWords); phrase != "" {
		return Result{Sentiment: Unknown, Reason: "hedge: " + phrase}, nil
	}

	posMatch := firstMatch(normalized, tokens, positivePhrases, positiveWords)
	negMatch := firstMatch(normalized, tokens, negativePhrases, negativeWords)
	posCount := countMatches(normalized, tokens, positivePhrases, positiveWords)
	negCount := countMatches(normalized, tokens, negativePhrases, negativeWords)

	switch {
	case posCount > negCount:
		return Result{Sentiment: Positive, Reason: "matched: " + posMatch}, nil
	case negCount > posCount:
		return Result{Sentiment: Negative, Reason: "matched: " + negMatch}, nil
	default:
		return Result{Sentiment: Unknown, Reason: "no decisive match"}, nil
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '\'':
			return false
		default:
			return true
		}
	})
}

func firstMatch(text string, tokens []string, phrases, words []string) string {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return phrase
		}
	}
	for _, word := range words {
		for _, token := range tokens {
			if token == word {
				return word
			}
		}
	}
	return ""
}

func countMatches(text string, tokens []string, phrases, words []string) int {
	count := 0
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			count++
		}
	}
	for _, word := range words {
		for _, token := range tokens {
			if token == word {
				count++
				break
			}
		}
	}
	return count
}
