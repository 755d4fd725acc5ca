// Package store provides persistence backends for workflow state and
// checkpoints.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested run ID or checkpoint ID does not exist.
var ErrNotFound = errors.New("not found")

// Store provides persistence for workflow state and checkpoints.
//
// It enables:
//   - Step-by-step state persistence during execution
//   - Latest state retrieval for resumption
//   - Full run history retrieval for trace submission
//   - Named checkpoint save/load for paused conversations
//
// Implementations:
//   - MemStore: in-memory, for tests and single-shot runs
//   - SQLiteStore: single-file local persistence
//   - MySQLStore: shared persistence for multi-process deployments
//
// Type parameter S is the state type to persist.
type Store[S any] interface {
	// SaveStep persists the state after a node execution step.
	// Each step is identified by runID + step number.
	SaveStep(ctx context.Context, runID string, step int, nodeID string, state S) error

	// LoadLatest retrieves the most recent state for a given run.
	// Returns ErrNotFound if runID has no persisted steps.
	LoadLatest(ctx context.Context, runID string) (state S, step int, err error)

	// History retrieves all persisted steps for a run in step order.
	// Returns ErrNotFound if runID has no persisted steps.
	History(ctx context.Context, runID string) ([]StepRecord[S], error)

	// SaveCheckpoint creates a named snapshot of workflow state.
	// Checkpoints mark pause points a conversation can resume from.
	// Saving an existing checkpoint ID overwrites it.
	SaveCheckpoint(ctx context.Context, cpID string, state S, step int) error

	// LoadCheckpoint retrieves a previously saved checkpoint.
	// Returns ErrNotFound if cpID doesn't exist.
	LoadCheckpoint(ctx context.Context, cpID string) (state S, step int, err error)
}

// StepRecord represents a single execution step in the workflow history.
type StepRecord[S any] struct {
	// Step is the sequential step number (1-indexed).
	Step int

	// NodeID identifies which node produced this state.
	NodeID string

	// State is the workflow state after this step completed.
	State S
}

// Checkpoint represents a named snapshot of workflow state.
type Checkpoint[S any] struct {
	// ID is the unique checkpoint identifier.
	ID string

	// State is the snapshotted workflow state.
	State S

	// Step is the step number when this checkpoint was created.
	Step int
}
