// Package workflow implements the contractor scheduling conversation.
//
// A conversation connects a customer with a vendor for a home improvement
// task. The coordinator greets the customer, proposes a consultation for
// tomorrow, classifies the reply sentiment, and either confirms the
// appointment, collects a better time, asks for clarification, or hands
// the scheduling off to the vendor after repeated ambiguous replies.
package workflow

import (
	"github.com/prizmhq/contractor-flow/sentiment"
)

// Conversation step markers stored in State.CurrentStep.
const (
	// StepAwaitSchedule means the coordinator asked about tomorrow's
	// consultation and is waiting for the customer's reply.
	StepAwaitSchedule = "await_schedule"

	// StepAwaitReschedule means the customer declined and the
	// coordinator asked for a better time.
	StepAwaitReschedule = "await_reschedule"

	// StepDone means the conversation has finished.
	StepDone = "done"
)

// Message roles in the conversation transcript.
const (
	RoleAssistant = "assistant"
	RoleCustomer  = "customer"
)

// Message is a single entry in the conversation transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Customer identifies the homeowner requesting work.
type Customer struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	ZipCode     string `json:"zipCode"`
}

// Vendor identifies the contractor assigned to the task.
type Vendor struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

// Task describes the requested work.
type Task struct {
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Outcome is the final deliverable of a completed conversation: the
// contact pair and project summary handed to downstream systems.
type Outcome struct {
	CustomerEmail  string `json:"customer_email"`
	VendorEmail    string `json:"vendor_email"`
	ProjectSummary string `json:"project_summary"`
}

// State is the shared workflow state threaded through every node.
type State struct {
	Customer Customer `json:"customer"`
	Task     Task     `json:"task"`
	Vendor   Vendor   `json:"vendor"`

	// Messages is the conversation transcript in order.
	Messages []Message `json:"messages"`

	// CurrentStep tracks conversation progress and tells the input
	// router how to interpret the next customer reply.
	CurrentStep string `json:"current_step"`

	// Sentiment is the latest classification of the customer's reply.
	Sentiment sentiment.Sentiment `json:"sentiment"`

	// SentimentAttempts counts classification rounds so far.
	SentimentAttempts int `json:"sentiment_attempts"`

	// SentimentReason is the raw classifier output for the latest round.
	SentimentReason string `json:"sentiment_reason,omitempty"`

	// PreferredTime is the customer's rescheduling preference, verbatim.
	PreferredTime string `json:"preferred_time,omitempty"`

	// Summary is the one-line project summary built near the end.
	Summary string `json:"summary,omitempty"`

	// Outcome is set once the conversation produced a deliverable.
	Outcome *Outcome `json:"outcome,omitempty"`
}

// LastCustomerMessage returns the content of the most recent customer
// message, or empty string if the customer hasn't spoken yet.
func (s State) LastCustomerMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleCustomer {
			return s.Messages[i].Content
		}
	}
	return ""
}

// Reduce merges a partial state update into the previous state.
//
// Merge rules:
//   - Messages are appended
//   - Non-zero scalar fields replace the previous value
//   - SentimentAttempts is absolute (nodes set the new total)
//   - Customer, Task, and Vendor merge field-wise
func Reduce(prev, delta State) State {
	prev.Customer = mergeCustomer(prev.Customer, delta.Customer)
	prev.Task = mergeTask(prev.Task, delta.Task)
	prev.Vendor = mergeVendor(prev.Vendor, delta.Vendor)

	prev.Messages = append(prev.Messages, delta.Messages...)

	if delta.CurrentStep != "" {
		prev.CurrentStep = delta.CurrentStep
	}
	if delta.Sentiment != "" {
		prev.Sentiment = delta.Sentiment
	}
	if delta.SentimentAttempts != 0 {
		prev.SentimentAttempts = delta.SentimentAttempts
	}
	if delta.SentimentReason != "" {
		prev.SentimentReason = delta.SentimentReason
	}
	if delta.PreferredTime != "" {
		prev.PreferredTime = delta.PreferredTime
	}
	if delta.Summary != "" {
		prev.Summary = delta.Summary
	}
	if delta.Outcome != nil {
		prev.Outcome = delta.Outcome
	}

	return prev
}

func mergeCustomer(prev, delta Customer) Customer {
	if delta.Name != "" {
		prev.Name = delta.Name
	}
	if delta.Email != "" {
		prev.Email = delta.Email
	}
	if delta.PhoneNumber != "" {
		prev.PhoneNumber = delta.PhoneNumber
	}
	if delta.ZipCode != "" {
		prev.ZipCode = delta.ZipCode
	}
	return prev
}

func mergeTask(prev, delta Task) Task {
	if delta.Description != "" {
		prev.Description = delta.Description
	}
	if delta.Category != "" {
		prev.Category = delta.Category
	}
	return prev
}

func mergeVendor(prev, delta Vendor) Vendor {
	if delta.Name != "" {
		prev.Name = delta.Name
	}
	if delta.Email != "" {
		prev.Email = delta.Email
	}
	if delta.PhoneNumber != "" {
		prev.PhoneNumber = delta.PhoneNumber
	}
	return prev
}
