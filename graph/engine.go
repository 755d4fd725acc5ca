package graph

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prizmhq/contractor-flow/graph/emit"
	"github.com/prizmhq/contractor-flow/graph/store"
)

// Reducer merges a partial state update (delta) into the previous state.
//
// Reducers must be deterministic: the same prev and delta always produce
// the same result. The common pattern is field-wise merge, where zero
// values in delta leave prev unchanged.
type Reducer[S any] func(prev, delta S) S

// Retryable classifies errors the engine may retry.
//
// An error anywhere in the chain that implements this interface and
// reports true is considered transient. See WithRetries.
type Retryable interface {
	Retryable() bool
}

// Engine orchestrates stateful workflow execution with checkpointing support.
//
// The Engine is the core runtime that:
//   - Manages workflow graph topology (nodes and edges)
//   - Executes nodes in sequence
//   - Merges state updates via the reducer
//   - Persists state at each step via the store
//   - Emits observability events via the emitter
//   - Enforces execution limits (MaxSteps, Retries, NodeTimeout)
//   - Supports checkpoint save/resume for paused conversations
//
// Type parameter S is the state type shared across the workflow.
//
// Example:
//
//	reducer := func(prev, delta State) State {
//	    if delta.CurrentStep != "" {
//	        prev.CurrentStep = delta.CurrentStep
//	    }
//	    return prev
//	}
//
//	engine := graph.New(reducer, store.NewMemStore[State](), emit.NewLogEmitter(nil, false),
//	    graph.WithMaxSteps(50))
//	engine.Add("greet", greetNode)
//	engine.StartAt("greet")
//
//	final, err := engine.Run(ctx, "run-001", State{})
type Engine[S any] struct {
	mu sync.RWMutex

	reducer   Reducer[S]
	nodes     map[string]Node[S]
	edges     []Edge[S]
	startNode string
	store     store.Store[S]
	emitter   emit.Emitter
	cfg       engineConfig
}

// New creates a new Engine with the given configuration.
//
// Parameters:
//   - reducer: merges partial state updates (required for Run)
//   - st: persistence backend for state and checkpoints (required for Run)
//   - emitter: observability event receiver (optional, can be nil)
//   - opts: functional options (WithMaxSteps, WithRetries, ...)
//
// The constructor does not validate all parameters to allow flexible
// initialization. Validation occurs when Run is called.
func New[S any](reducer Reducer[S], st store.Store[S], emitter emit.Emitter, opts ...Option) *Engine[S] {
	var cfg engineConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Engine[S]{
		reducer: reducer,
		nodes:   make(map[string]Node[S]),
		edges:   make([]Edge[S], 0),
		store:   st,
		emitter: emitter,
		cfg:     cfg,
	}
}

// CostTracker returns the tracker configured via WithCostTracker, or nil.
// Nodes that call an LLM use it to record token usage.
func (e *Engine[S]) CostTracker() *CostTracker {
	return e.cfg.costTracker
}

// Add registers a node in the workflow graph.
//
// Node IDs must be unique within the workflow.
//
// Returns error if nodeID is empty, node is nil, or the ID already exists.
func (e *Engine[S]) Add(nodeID string, node Node[S]) error {
	if nodeID == "" {
		return &EngineError{Message: "node ID cannot be empty"}
	}
	if node == nil {
		return &EngineError{Message: "node cannot be nil"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; exists {
		return &EngineError{
			Message: "duplicate node ID: " + nodeID,
			Code:    "DUPLICATE_NODE",
		}
	}

	e.nodes[nodeID] = node
	return nil
}

// StartAt sets the entry point for workflow execution.
//
// The node must have been registered via Add before calling StartAt.
func (e *Engine[S]) StartAt(nodeID string) error {
	if nodeID == "" {
		return &EngineError{Message: "start node ID cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; !exists {
		return &EngineError{
			Message: "start node does not exist: " + nodeID,
			Code:    "NODE_NOT_FOUND",
		}
	}

	e.startNode = nodeID
	return nil
}

// Connect creates an edge between two nodes.
//
// Edges can be unconditional (predicate = nil) or conditional. Explicit
// routing via NodeResult.Route takes precedence over edges.
//
// Node existence is not validated (lazy validation) to allow flexible
// graph construction order.
//
// Example:
//
//	// Unconditional edge
//	engine.Connect("greet", "route_input", nil)
//
//	// Conditional edge
//	engine.Connect("analyze_sentiment", "confirm", func(s State) bool {
//	    return s.Sentiment == "positive"
//	})
func (e *Engine[S]) Connect(from, to string, predicate Predicate[S]) error {
	if from == "" {
		return &EngineError{Message: "from node ID cannot be empty"}
	}
	if to == "" {
		return &EngineError{Message: "to node ID cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.edges = append(e.edges, Edge[S]{From: from, To: to, When: predicate})
	return nil
}

// Run executes the workflow from start to completion or error.
//
// Workflow execution:
//  1. Validates engine configuration (reducer, store, startNode)
//  2. Executes nodes starting from startNode
//  3. Follows routing decisions (Stop, Goto, edges)
//  4. Applies reducer to merge state updates
//  5. Persists state after each node
//  6. Emits observability events
//  7. Enforces MaxSteps and retries transient node errors
//  8. Respects context cancellation
//
// Returns the final state after the workflow reaches a terminal node, or
// an error if validation fails, node execution fails, or limits are hit.
func (e *Engine[S]) Run(ctx context.Context, runID string, initial S) (S, error) {
	var zero S

	if err := e.validate(); err != nil {
		return zero, err
	}

	e.mu.RLock()
	start := e.startNode
	e.mu.RUnlock()

	return e.runLoop(ctx, runID, start, initial)
}

// SaveCheckpoint creates a named checkpoint for the most recent state of a run.
//
// Checkpoints mark pause points: save one when the workflow stops to wait
// for customer input, then resume with ResumeFromCheckpoint once the reply
// arrives.
//
// Returns error if the run has no persisted state or the store fails.
func (e *Engine[S]) SaveCheckpoint(ctx context.Context, runID string, cpID string) error {
	latestState, latestStep, err := e.store.LoadLatest(ctx, runID)
	if err != nil {
		return &EngineError{
			Message: "cannot create checkpoint: run state not found: " + err.Error(),
			Code:    "RUN_NOT_FOUND",
		}
	}

	if err := e.store.SaveCheckpoint(ctx, cpID, latestState, latestStep); err != nil {
		return &EngineError{
			Message: "failed to save checkpoint: " + err.Error(),
			Code:    "CHECKPOINT_SAVE_FAILED",
		}
	}

	if e.emitter != nil {
		e.emitter.Emit(emit.Event{
			RunID:  runID,
			Step:   latestStep,
			Msg:    "checkpoint saved: " + cpID,
			Meta:   map[string]interface{}{"checkpoint_id": cpID},
		})
	}

	return nil
}

// ResumeFromCheckpoint resumes workflow execution from a saved checkpoint.
//
// The resume operation loads the checkpoint state, starts a new run with
// that state as initial state, and begins execution at startNode.
//
// Parameters:
//   - ctx: context for cancellation
//   - cpID: checkpoint identifier to resume from
//   - newRunID: unique run ID for the resumed execution
//   - startNode: node to begin execution at
//
// Example:
//
//	// Conversation paused waiting for the customer
//	_ = engine.SaveCheckpoint(ctx, "run-001", "awaiting-reply")
//
//	// Customer replied; continue from the input router
//	final, err := engine.ResumeFromCheckpoint(ctx, "awaiting-reply", "run-001-r2", "route_input")
func (e *Engine[S]) ResumeFromCheckpoint(ctx context.Context, cpID string, newRunID string, startNode string) (S, error) {
	var zero S

	checkpointState, checkpointStep, err := e.store.LoadCheckpoint(ctx, cpID)
	if err != nil {
		return zero, &EngineError{
			Message: "cannot resume: checkpoint not found: " + err.Error(),
			Code:    "CHECKPOINT_NOT_FOUND",
		}
	}

	if err := e.validate(); err != nil {
		return zero, err
	}
	if startNode == "" {
		return zero, &EngineError{
			Message: "start node not specified for resume",
			Code:    "NO_START_NODE",
		}
	}

	e.mu.RLock()
	_, exists := e.nodes[startNode]
	e.mu.RUnlock()
	if !exists {
		return zero, &EngineError{
			Message: "resume start node does not exist: " + startNode,
			Code:    "NODE_NOT_FOUND",
		}
	}

	if e.emitter != nil {
		e.emitter.Emit(emit.Event{
			RunID:  newRunID,
			NodeID: startNode,
			Msg:    "resuming from checkpoint: " + cpID,
			Meta: map[string]interface{}{
				"checkpoint_id":   cpID,
				"checkpoint_step": checkpointStep,
			},
		})
	}

	return e.runLoop(ctx, newRunID, startNode, checkpointState)
}

func (e *Engine[S]) validate() error {
	if e.reducer == nil {
		return &EngineError{
			Message: "reducer is required",
			Code:    "MISSING_REDUCER",
		}
	}
	if e.store == nil {
		return &EngineError{
			Message: "store is required",
			Code:    "MISSING_STORE",
		}
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.startNode == "" {
		return &EngineError{
			Message: "start node not set (call StartAt before Run)",
			Code:    "NO_START_NODE",
		}
	}
	if _, exists := e.nodes[e.startNode]; !exists {
		return &EngineError{
			Message: "start node does not exist: " + e.startNode,
			Code:    "NODE_NOT_FOUND",
		}
	}
	return nil
}

// runLoop is the shared execution loop behind Run and ResumeFromCheckpoint.
func (e *Engine[S]) runLoop(ctx context.Context, runID, startNode string, initial S) (S, error) {
	var zero S

	currentState := initial
	currentNode := startNode
	step := 0

	for {
		step++

		if e.cfg.maxSteps > 0 && step > e.cfg.maxSteps {
			return zero, &EngineError{
				Message: "workflow exceeded MaxSteps limit",
				Code:    "MAX_STEPS_EXCEEDED",
			}
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		e.mu.RLock()
		nodeImpl, exists := e.nodes[currentNode]
		e.mu.RUnlock()
		if !exists {
			return zero, &EngineError{
				Message: "node not found during execution: " + currentNode,
				Code:    "NODE_NOT_FOUND",
			}
		}

		result := e.executeNode(ctx, runID, currentNode, nodeImpl, currentState)
		if result.Err != nil {
			return zero, result.Err
		}

		currentState = e.reducer(currentState, result.Delta)

		if err := e.store.SaveStep(ctx, runID, step, currentNode, currentState); err != nil {
			return zero, &EngineError{
				Message: "failed to save step: " + err.Error(),
				Code:    "STORE_ERROR",
			}
		}

		if e.emitter != nil {
			e.emitter.Emit(emit.Event{
				RunID:  runID,
				Step:   step,
				NodeID: currentNode,
				Msg:    "node completed",
			})
		}

		if result.Route.Terminal {
			return currentState, nil
		}
		if result.Route.To != "" {
			currentNode = result.Route.To
			continue
		}

		nextNode := e.evaluateEdges(currentNode, currentState)
		if nextNode == "" {
			return zero, &EngineError{
				Message: "no valid route from node: " + currentNode,
				Code:    "NO_ROUTE",
			}
		}
		currentNode = nextNode
	}
}

// executeNode runs a node with the configured per-node timeout, retrying
// transient failures up to the configured retry count.
func (e *Engine[S]) executeNode(ctx context.Context, runID, nodeID string, node Node[S], state S) NodeResult[S] {
	for attempt := 0; ; attempt++ {
		runCtx := ctx
		var cancel context.CancelFunc
		if e.cfg.nodeTimeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, e.cfg.nodeTimeout)
		}

		start := time.Now()
		result := node.Run(runCtx, state)
		if cancel != nil {
			cancel()
		}

		status := "success"
		if result.Err != nil {
			status = "error"
		}
		if e.cfg.metrics != nil {
			e.cfg.metrics.RecordStepLatency(runID, nodeID, time.Since(start), status)
		}

		if result.Err == nil {
			return result
		}
		if attempt >= e.cfg.retries || !isRetryable(result.Err) {
			return result
		}

		if e.cfg.metrics != nil {
			e.cfg.metrics.IncrementRetries(runID, nodeID, "transient")
		}
		if e.emitter != nil {
			e.emitter.Emit(emit.Event{
				RunID:  runID,
				NodeID: nodeID,
				Msg:    "retrying node",
				Meta: map[string]interface{}{
					"attempt": attempt + 1,
					"error":   result.Err.Error(),
				},
			})
		}
	}
}

func isRetryable(err error) bool {
	var r Retryable
	return errors.As(err, &r) && r.Retryable()
}

// evaluateEdges finds the first matching edge from the given node.
//
// Edges are evaluated in registration order. An edge with a nil predicate
// always matches; otherwise the predicate decides. First match wins.
//
// Returns empty string if no edges match.
func (e *Engine[S]) evaluateEdges(fromNode string, state S) string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, edge := range e.edges {
		if edge.From != fromNode {
			continue
		}
		if edge.When == nil || edge.When(state) {
			return edge.To
		}
	}
	return ""
}

// EngineError represents an error from Engine operations.
type EngineError struct {
	Message string
	Code    string
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}
