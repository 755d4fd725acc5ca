package workflow

import (
	"context"
	"fmt"

	"github.com/prizmhq/contractor-flow/graph"
	"github.com/prizmhq/contractor-flow/sentiment"
)

// Node IDs in the conversation graph.
const (
	nodeInitialize       = "initialize"
	nodeValidate         = "validate"
	nodeGreet            = "greet"
	nodeRouteInput       = "route_input"
	nodeAnalyzeSentiment = "analyze_sentiment"
	nodeConfirm          = "confirm"
	nodeClarify          = "clarify"
	nodeHandoff          = "handoff"
	nodeReschedulePrompt = "reschedule_prompt"
	nodeReschedule       = "reschedule"
	nodeSummarize        = "summarize"
	nodeFormat           = "format"
)

// Default parties applied when the caller leaves them unset.
var (
	defaultVendor = Vendor{
		Name:        "Dave's Plumbing",
		Email:       "dave@plumbing.com",
		PhoneNumber: "555-9876",
	}
	defaultTask = Task{
		Description: "Kitchen faucet installation",
		Category:    "Plumbing",
	}
)

// initialize fills in default vendor and task details and resets the
// classification state for a fresh conversation.
func (w *Workflow) initialize(_ context.Context, s State) graph.NodeResult[State] {
	delta := State{Sentiment: sentiment.Neutral}

	if s.Vendor == (Vendor{}) {
		delta.Vendor = defaultVendor
	}
	if s.Task == (Task{}) {
		delta.Task = defaultTask
	}

	return graph.NodeResult[State]{
		Delta: delta,
		Route: graph.Goto(nodeValidate),
	}
}

// validate checks that every required party field is present. Defaults
// have already been applied, so a failure here means the caller supplied
// an incomplete customer or a partially filled vendor or task.
func (w *Workflow) validate(_ context.Context, s State) graph.NodeResult[State] {
	required := []struct {
		field string
		value string
	}{
		{"customer.name", s.Customer.Name},
		{"customer.email", s.Customer.Email},
		{"customer.phoneNumber", s.Customer.PhoneNumber},
		{"customer.zipCode", s.Customer.ZipCode},
		{"task.description", s.Task.Description},
		{"task.category", s.Task.Category},
		{"vendor.name", s.Vendor.Name},
		{"vendor.email", s.Vendor.Email},
		{"vendor.phoneNumber", s.Vendor.PhoneNumber},
	}

	for _, r := range required {
		if r.value == "" {
			return graph.NodeResult[State]{
				Err: &graph.NodeError{
					Message: "missing required field: " + r.field,
					Code:    "VALIDATION_ERROR",
					NodeID:  nodeValidate,
				},
			}
		}
	}

	return graph.NodeResult[State]{Route: graph.Goto(nodeGreet)}
}

// greet opens the conversation and pauses to wait for the customer.
func (w *Workflow) greet(_ context.Context, s State) graph.NodeResult[State] {
	greeting := fmt.Sprintf(
		"Hello %s! I'm your project coordinator. I'll help you with your %s. "+
			"Would you like me to schedule a consultation with %s for tomorrow?",
		s.Customer.Name, lowerFirst(s.Task.Description), s.Vendor.Name,
	)

	return graph.NodeResult[State]{
		Delta: State{
			Messages:    []Message{{Role: RoleAssistant, Content: greeting}},
			CurrentStep: StepAwaitSchedule,
		},
		Route: graph.Stop(),
	}
}

// routeInput dispatches a resumed conversation based on what the
// coordinator was waiting for when it paused.
func (w *Workflow) routeInput(_ context.Context, s State) graph.NodeResult[State] {
	if s.LastCustomerMessage() == "" {
		return graph.NodeResult[State]{
			Err: &graph.NodeError{
				Message: "no customer message to process",
				Code:    "NO_INPUT",
				NodeID:  nodeRouteInput,
			},
		}
	}

	switch s.CurrentStep {
	case StepAwaitSchedule:
		return graph.NodeResult[State]{Route: graph.Goto(nodeAnalyzeSentiment)}
	case StepAwaitReschedule:
		return graph.NodeResult[State]{Route: graph.Goto(nodeReschedule)}
	default:
		return graph.NodeResult[State]{
			Err: &graph.NodeError{
				Message: "unexpected conversation step: " + s.CurrentStep,
				Code:    "INVALID_STEP",
				NodeID:  nodeRouteInput,
			},
		}
	}
}

// analyzeSentiment classifies the customer's latest reply. Routing to
// confirm, reschedule_prompt, clarify, or handoff happens through edges
// evaluated against the merged state.
func (w *Workflow) analyzeSentiment(ctx context.Context, s State) graph.NodeResult[State] {
	if s.SentimentAttempts >= w.maxAttempts {
		return graph.NodeResult[State]{Route: graph.Goto(nodeHandoff)}
	}

	result, err := w.analyzer.Analyze(ctx, s.LastCustomerMessage())
	if err != nil {
		return graph.NodeResult[State]{
			Err: &graph.NodeError{
				Message: "sentiment analysis failed",
				Code:    "ANALYZER_ERROR",
				NodeID:  nodeAnalyzeSentiment,
				Cause:   err,
			},
		}
	}

	if w.metrics != nil {
		w.metrics.RecordSentiment(string(result.Sentiment), w.analyzer.Name())
		if result.Model != "" {
			w.metrics.AddLLMTokens(result.Model, result.Usage.InputTokens, result.Usage.OutputTokens)
		}
	}
	if w.costTracker != nil && result.Model != "" {
		w.costTracker.RecordLLMCall(result.Model, result.Usage.InputTokens, result.Usage.OutputTokens, nodeAnalyzeSentiment)
	}

	return graph.NodeResult[State]{
		Delta: State{
			Sentiment:         result.Sentiment,
			SentimentAttempts: s.SentimentAttempts + 1,
			SentimentReason:   result.Reason,
		},
	}
}

// confirm acknowledges an agreement and moves on to the summary.
func (w *Workflow) confirm(_ context.Context, s State) graph.NodeResult[State] {
	msg := fmt.Sprintf("Great! I'll have %s contact you to confirm the details. Have a great day!", s.Vendor.Name)

	return graph.NodeResult[State]{
		Delta: State{Messages: []Message{{Role: RoleAssistant, Content: msg}}},
		Route: graph.Goto(nodeSummarize),
	}
}

// clarify asks the customer to answer more directly and pauses.
func (w *Workflow) clarify(_ context.Context, _ State) graph.NodeResult[State] {
	msg := "I'm not sure if that's a yes or no. Would you like me to schedule the consultation for tomorrow?"

	return graph.NodeResult[State]{
		Delta: State{
			Messages:    []Message{{Role: RoleAssistant, Content: msg}},
			CurrentStep: StepAwaitSchedule,
		},
		Route: graph.Stop(),
	}
}

// handoff gives up on automated scheduling after repeated ambiguous
// replies and ends the conversation without an outcome.
func (w *Workflow) handoff(_ context.Context, s State) graph.NodeResult[State] {
	msg := fmt.Sprintf("I'll have %s contact you to discuss the scheduling details directly. Have a great day!", s.Vendor.Name)

	if w.metrics != nil {
		w.metrics.RecordConversationOutcome("handoff")
	}

	return graph.NodeResult[State]{
		Delta: State{
			Messages:    []Message{{Role: RoleAssistant, Content: msg}},
			CurrentStep: StepDone,
		},
		Route: graph.Stop(),
	}
}

// reschedulePrompt asks for a better time and pauses.
func (w *Workflow) reschedulePrompt(_ context.Context, _ State) graph.NodeResult[State] {
	msg := "I understand. When would be a better time for you?"

	return graph.NodeResult[State]{
		Delta: State{
			Messages:    []Message{{Role: RoleAssistant, Content: msg}},
			CurrentStep: StepAwaitReschedule,
		},
		Route: graph.Stop(),
	}
}

// reschedule records the customer's preferred time and moves on to the
// summary.
func (w *Workflow) reschedule(_ context.Context, s State) graph.NodeResult[State] {
	preferred := s.LastCustomerMessage()
	msg := fmt.Sprintf("Thank you for letting me know. I'll have %s contact you to confirm the details. Have a great day!", s.Vendor.Name)

	return graph.NodeResult[State]{
		Delta: State{
			PreferredTime: preferred,
			Messages:      []Message{{Role: RoleAssistant, Content: msg}},
		},
		Route: graph.Goto(nodeSummarize),
	}
}

// summarize builds the one-line project summary.
func (w *Workflow) summarize(_ context.Context, s State) graph.NodeResult[State] {
	summary := fmt.Sprintf(
		"New %s project for %s (%s) assigned to %s",
		s.Task.Category, s.Customer.Name, s.Customer.ZipCode, s.Vendor.Name,
	)

	return graph.NodeResult[State]{
		Delta: State{Summary: summary},
		Route: graph.Goto(nodeFormat),
	}
}

// format produces the final Outcome and ends the conversation.
func (w *Workflow) format(_ context.Context, s State) graph.NodeResult[State] {
	if w.metrics != nil {
		outcome := "confirmed"
		if s.Sentiment == sentiment.Negative {
			outcome = "rescheduled"
		}
		w.metrics.RecordConversationOutcome(outcome)
	}

	return graph.NodeResult[State]{
		Delta: State{
			Outcome: &Outcome{
				CustomerEmail:  s.Customer.Email,
				VendorEmail:    s.Vendor.Email,
				ProjectSummary: s.Summary,
			},
			CurrentStep: StepDone,
		},
		Route: graph.Stop(),
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'A' && r[0] <= 'Z' {
		r[0] += 'a' - 'A'
	}
	return string(r)
}
