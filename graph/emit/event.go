package emit

// Event represents an observability event emitted during workflow execution.
//
// Events provide insight into conversation runs:
//   - Node execution completion
//   - Sentiment decisions and attempt counts
//   - Checkpoint save/resume operations
//   - LLM token usage and cost
type Event struct {
	// RunID identifies the workflow execution that emitted this event.
	RunID string

	// Step is the sequential step number in the workflow (1-indexed).
	// Zero for run-level events (start, resume, error).
	Step int

	// NodeID identifies which node emitted this event.
	// Empty string for run-level events.
	NodeID string

	// Msg is a human-readable description of the event.
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys:
	//   - "sentiment": classification outcome for a customer reply
	//   - "attempt": sentiment analysis attempt number
	//   - "tokens_in", "tokens_out": LLM token usage
	//   - "cost_usd": LLM call cost
	//   - "checkpoint_id": checkpoint identifier
	//   - "error": error details
	Meta map[string]interface{}
}
