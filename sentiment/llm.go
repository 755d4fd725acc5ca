package sentiment

import (
	"context"
	"fmt"
	"strings"

	"github.com/prizmhq/contractor-flow/graph/model"
)

// classifyPrompt instructs the model to answer with a single label.
const classifyPrompt = "Analyze if the user agrees to schedule a consultation for tomorrow. Respond with only: POSITIVE, NEGATIVE, or UNCLEAR"

// LLMAnalyzer classifies replies by asking a chat model.
//
// The model is instructed to answer with exactly one of POSITIVE,
// NEGATIVE, or UNCLEAR. Parsing is tolerant of surrounding whitespace
// and casing; anything that is not clearly POSITIVE or NEGATIVE is
// treated as Unknown rather than an error, so a chatty model degrades
// to a clarification round instead of failing the conversation.
type LLMAnalyzer struct {
	model model.ChatModel
}

// NewLLMAnalyzer creates an analyzer backed by the given chat model.
func NewLLMAnalyzer(m model.ChatModel) *LLMAnalyzer {
	return &LLMAnalyzer{model: m}
}

// Name implements Analyzer.
func (a *LLMAnalyzer) Name() string { return "llm" }

// Analyze implements Analyzer.
func (a *LLMAnalyzer) Analyze(ctx context.Context, text string) (Result, error) {
	out, err := a.model.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: classifyPrompt},
		{Role: model.RoleUser, Content: text},
	})
	if err != nil {
		return Result{}, fmt.Errorf("sentiment analysis failed: %w", err)
	}

	label := strings.ToUpper(strings.TrimSpace(out.Text))

	result := Result{
		Reason: label,
		Model:  out.Model,
		Usage:  out.Usage,
	}
	switch {
	case strings.HasPrefix(label, "POSITIVE"):
		result.Sentiment = Positive
	case strings.HasPrefix(label, "NEGATIVE"):
		result.Sentiment = Negative
	default:
		result.Sentiment = Unknown
	}
	return result, nil
}
