package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prizmhq/contractor-flow/graph"
	"github.com/prizmhq/contractor-flow/graph/emit"
	"github.com/prizmhq/contractor-flow/graph/store"
	"github.com/prizmhq/contractor-flow/sentiment"
)

// defaultMaxSentimentAttempts caps clarification rounds before the
// conversation is handed off to the vendor.
const defaultMaxSentimentAttempts = 3

// defaultMaxSteps bounds a single engine run. Conversations pause at
// every customer turn, so individual runs are short.
const defaultMaxSteps = 50

// Config configures a Workflow.
type Config struct {
	// Analyzer classifies customer replies. Required.
	Analyzer sentiment.Analyzer

	// Store persists run state and pause checkpoints.
	// Defaults to an in-memory store.
	Store store.Store[State]

	// Emitter receives observability events. Optional.
	Emitter emit.Emitter

	// Metrics records sentiment and conversation outcome counters. Optional.
	Metrics *graph.PrometheusMetrics

	// CostTracker accumulates LLM spend. Optional.
	CostTracker *graph.CostTracker

	// MaxSentimentAttempts caps clarification rounds. Defaults to 3.
	MaxSentimentAttempts int

	// MaxSteps bounds a single engine run. Defaults to 50.
	MaxSteps int

	// Retries is how many times transient node errors are retried.
	Retries int

	// NodeTimeout bounds a single node execution (LLM call). Optional.
	NodeTimeout time.Duration
}

// Workflow is the contractor scheduling conversation graph.
//
// A Workflow is built once and can serve many conversations; per-run
// state lives in the store, keyed by run ID.
type Workflow struct {
	engine      *graph.Engine[State]
	store       store.Store[State]
	analyzer    sentiment.Analyzer
	metrics     *graph.PrometheusMetrics
	costTracker *graph.CostTracker
	maxAttempts int
}

// New builds the conversation graph.
func New(cfg Config) (*Workflow, error) {
	if cfg.Analyzer == nil {
		return nil, errors.New("analyzer is required")
	}

	st := cfg.Store
	if st == nil {
		st = store.NewMemStore[State]()
	}
	maxAttempts := cfg.MaxSentimentAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxSentimentAttempts
	}
	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}

	opts := []graph.Option{
		graph.WithMaxSteps(maxSteps),
		graph.WithRetries(cfg.Retries),
	}
	if cfg.NodeTimeout > 0 {
		opts = append(opts, graph.WithNodeTimeout(cfg.NodeTimeout))
	}
	if cfg.Metrics != nil {
		opts = append(opts, graph.WithMetrics(cfg.Metrics))
	}
	if cfg.CostTracker != nil {
		opts = append(opts, graph.WithCostTracker(cfg.CostTracker))
	}

	w := &Workflow{
		engine:      graph.New(Reduce, st, cfg.Emitter, opts...),
		store:       st,
		analyzer:    cfg.Analyzer,
		metrics:     cfg.Metrics,
		costTracker: cfg.CostTracker,
		maxAttempts: maxAttempts,
	}

	nodes := map[string]graph.NodeFunc[State]{
		nodeInitialize:       w.initialize,
		nodeValidate:         w.validate,
		nodeGreet:            w.greet,
		nodeRouteInput:       w.routeInput,
		nodeAnalyzeSentiment: w.analyzeSentiment,
		nodeConfirm:          w.confirm,
		nodeClarify:          w.clarify,
		nodeHandoff:          w.handoff,
		nodeReschedulePrompt: w.reschedulePrompt,
		nodeReschedule:       w.reschedule,
		nodeSummarize:        w.summarize,
		nodeFormat:           w.format,
	}
	for id, fn := range nodes {
		if err := w.engine.Add(id, fn); err != nil {
			return nil, fmt.Errorf("failed to register node %s: %w", id, err)
		}
	}
	if err := w.engine.StartAt(nodeInitialize); err != nil {
		return nil, err
	}

	// Sentiment routing is edge-based so each branch condition is
	// stated once, against the merged state.
	edges := []struct {
		from, to string
		when     graph.Predicate[State]
	}{
		{nodeAnalyzeSentiment, nodeConfirm, func(s State) bool {
			return s.Sentiment == sentiment.Positive
		}},
		{nodeAnalyzeSentiment, nodeReschedulePrompt, func(s State) bool {
			return s.Sentiment == sentiment.Negative
		}},
		{nodeAnalyzeSentiment, nodeHandoff, func(s State) bool {
			return s.SentimentAttempts >= w.maxAttempts
		}},
		{nodeAnalyzeSentiment, nodeClarify, nil},
	}
	for _, e := range edges {
		if err := w.engine.Connect(e.from, e.to, e.when); err != nil {
			return nil, fmt.Errorf("failed to connect %s -> %s: %w", e.from, e.to, err)
		}
	}

	return w, nil
}

// Conversation is a single customer exchange driven through the workflow.
//
// Lifecycle:
//
//	conv := w.NewConversation("run-001", customer, task, vendor)
//	state, err := conv.Start(ctx)        // greeting, paused
//	state, err = conv.Reply(ctx, "yes")  // classified, confirmed, done
//
// Each pause saves a checkpoint; each Reply appends the customer message
// and resumes the graph at the input router. Not safe for concurrent use.
type Conversation struct {
	w     *Workflow
	runID string
	turn  int
	state State
	done  bool
}

// NewConversation prepares a conversation for the given parties.
//
// Zero-valued task and vendor get defaults during initialization; the
// customer must be fully specified or Start fails validation.
func (w *Workflow) NewConversation(runID string, customer Customer, task Task, vendor Vendor) *Conversation {
	return &Conversation{
		w:     w,
		runID: runID,
		state: State{Customer: customer, Task: task, Vendor: vendor},
	}
}

// Start runs the opening of the conversation up to the first pause and
// returns the state, whose transcript ends with the greeting.
func (c *Conversation) Start(ctx context.Context) (State, error) {
	final, err := c.w.engine.Run(ctx, c.runID, c.state)
	if err != nil {
		return State{}, err
	}

	c.state = final
	c.done = final.CurrentStep == StepDone
	return final, nil
}

// Reply delivers a customer message and advances the conversation until
// it pauses again or finishes.
func (c *Conversation) Reply(ctx context.Context, text string) (State, error) {
	if c.done {
		return State{}, errors.New("conversation already finished")
	}

	c.turn++
	resumed := c.state
	resumed.Messages = append(resumed.Messages, Message{Role: RoleCustomer, Content: text})

	cpID := fmt.Sprintf("%s-turn-%d", c.runID, c.turn)
	if err := c.w.store.SaveCheckpoint(ctx, cpID, resumed, c.turn); err != nil {
		return State{}, fmt.Errorf("failed to checkpoint conversation: %w", err)
	}

	runID := fmt.Sprintf("%s-r%d", c.runID, c.turn)
	final, err := c.w.engine.ResumeFromCheckpoint(ctx, cpID, runID, nodeRouteInput)
	if err != nil {
		return State{}, err
	}

	c.state = final
	c.done = final.CurrentStep == StepDone
	return final, nil
}

// Done reports whether the conversation has finished.
func (c *Conversation) Done() bool { return c.done }

// State returns the latest conversation state.
func (c *Conversation) State() State { return c.state }

// Outcome returns the final deliverable, or nil if the conversation has
// not produced one (still running, or handed off).
func (c *Conversation) Outcome() *Outcome { return c.state.Outcome }

// LastAssistantMessage returns the coordinator's most recent line, or
// empty string before the greeting.
func (c *Conversation) LastAssistantMessage() string {
	for i := len(c.state.Messages) - 1; i >= 0; i-- {
		if c.state.Messages[i].Role == RoleAssistant {
			return c.state.Messages[i].Content
		}
	}
	return ""
}
