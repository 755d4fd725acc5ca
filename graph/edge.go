// Package graph provides the workflow graph execution engine.
package graph

// Edge represents a connection between two nodes in the workflow graph.
//
// Edges define control flow between nodes. They can be:
//   - Unconditional: always traverse (When = nil)
//   - Conditional: only traverse if the predicate returns true
//
// Explicit routing via NodeResult.Route takes precedence over edges.
//
// Type parameter S is the state type used for predicate evaluation.
type Edge[S any] struct {
	// From is the source node ID.
	From string

	// To is the destination node ID.
	To string

	// When is an optional predicate that determines if this edge is traversed.
	// Nil means the edge is unconditional.
	When Predicate[S]
}

// Predicate evaluates state to determine if an edge should be traversed.
//
// Predicates should be pure functions (deterministic, no side effects).
// Common patterns:
//   - Sentiment match: state.Sentiment == "negative"
//   - Attempt cap: state.SentimentAttempts >= 3
//   - Presence: state.Outcome != nil
//
// Type parameter S is the state type to evaluate.
type Predicate[S any] func(state S) bool
