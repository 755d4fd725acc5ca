package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/prizmhq/contractor-flow/graph/emit"
	"github.com/prizmhq/contractor-flow/graph/store"
)

type testState struct {
	Step    string `json:"step"`
	Count   int    `json:"count"`
	Message string `json:"message"`
}

func testReducer(prev, delta testState) testState {
	if delta.Step != "" {
		prev.Step = delta.Step
	}
	if delta.Message != "" {
		prev.Message = delta.Message
	}
	prev.Count += delta.Count
	return prev
}

func newTestEngine(opts ...Option) *Engine[testState] {
	return New(testReducer, store.NewMemStore[testState](), emit.NewNullEmitter(), opts...)
}

type transientError struct{ msg string }

func (e *transientError) Error() string   { return e.msg }
func (e *transientError) Retryable() bool { return true }

func TestEngine_Add(t *testing.T) {
	noop := NodeFunc[testState](func(_ context.Context, _ testState) NodeResult[testState] {
		return NodeResult[testState]{Route: Stop()}
	})

	t.Run("valid node", func(t *testing.T) {
		e := newTestEngine()
		if err := e.Add("greet", noop); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("empty ID", func(t *testing.T) {
		e := newTestEngine()
		if err := e.Add("", noop); err == nil {
			t.Error("expected error for empty node ID")
		}
	})

	t.Run("nil node", func(t *testing.T) {
		e := newTestEngine()
		if err := e.Add("greet", nil); err == nil {
			t.Error("expected error for nil node")
		}
	})

	t.Run("duplicate ID", func(t *testing.T) {
		e := newTestEngine()
		_ = e.Add("greet", noop)

		err := e.Add("greet", noop)
		var engErr *EngineError
		if !errors.As(err, &engErr) || engErr.Code != "DUPLICATE_NODE" {
			t.Errorf("expected DUPLICATE_NODE error, got %v", err)
		}
	})
}

func TestEngine_StartAt(t *testing.T) {
	e := newTestEngine()
	_ = e.Add("greet", NodeFunc[testState](func(_ context.Context, _ testState) NodeResult[testState] {
		return NodeResult[testState]{Route: Stop()}
	}))

	if err := e.StartAt("greet"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := e.StartAt("missing"); err == nil {
		t.Error("expected error for unknown start node")
	}
}

func TestEngine_Run_Validation(t *testing.T) {
	t.Run("missing reducer", func(t *testing.T) {
		e := New[testState](nil, store.NewMemStore[testState](), nil)

		_, err := e.Run(context.Background(), "run-1", testState{})
		var engErr *EngineError
		if !errors.As(err, &engErr) || engErr.Code != "MISSING_REDUCER" {
			t.Errorf("expected MISSING_REDUCER, got %v", err)
		}
	})

	t.Run("missing start node", func(t *testing.T) {
		e := newTestEngine()

		_, err := e.Run(context.Background(), "run-1", testState{})
		var engErr *EngineError
		if !errors.As(err, &engErr) || engErr.Code != "NO_START_NODE" {
			t.Errorf("expected NO_START_NODE, got %v", err)
		}
	})
}

func TestEngine_Run_LinearWorkflow(t *testing.T) {
	e := newTestEngine()

	_ = e.Add("first", NodeFunc[testState](func(_ context.Context, _ testState) NodeResult[testState] {
		return NodeResult[testState]{
			Delta: testState{Step: "first", Count: 1},
			Route: Goto("second"),
		}
	}))
	_ = e.Add("second", NodeFunc[testState](func(_ context.Context, _ testState) NodeResult[testState] {
		return NodeResult[testState]{
			Delta: testState{Step: "second", Count: 1, Message: "done"},
			Route: Stop(),
		}
	}))
	_ = e.StartAt("first")

	final, err := e.Run(context.Background(), "run-linear", testState{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if final.Step != "second" || final.Count != 2 || final.Message != "done" {
		t.Errorf("unexpected final state: %+v", final)
	}
}

func TestEngine_Run_PersistsSteps(t *testing.T) {
	st := store.NewMemStore[testState]()
	e := New(testReducer, st, emit.NewNullEmitter())

	_ = e.Add("only", NodeFunc[testState](func(_ context.Context, _ testState) NodeResult[testState] {
		return NodeResult[testState]{Delta: testState{Count: 1}, Route: Stop()}
	}))
	_ = e.StartAt("only")

	if _, err := e.Run(context.Background(), "run-persist", testState{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	records, err := st.History(context.Background(), "run-persist")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(records) != 1 || records[0].NodeID != "only" {
		t.Errorf("unexpected history: %+v", records)
	}
}

func TestEngine_Run_EdgeRouting(t *testing.T) {
	e := newTestEngine()

	_ = e.Add("router", NodeFunc[testState](func(_ context.Context, s testState) NodeResult[testState] {
		// No explicit route; edges decide.
		return NodeResult[testState]{Delta: testState{Count: 1}}
	}))
	_ = e.Add("high", NodeFunc[testState](func(_ context.Context, _ testState) NodeResult[testState] {
		return NodeResult[testState]{Delta: testState{Message: "high"}, Route: Stop()}
	}))
	_ = e.Add("low", NodeFunc[testState](func(_ context.Context, _ testState) NodeResult[testState] {
		return NodeResult[testState]{Delta: testState{Message: "low"}, Route: Stop()}
	}))
	_ = e.Connect("router", "high", func(s testState) bool { return s.Count > 5 })
	_ = e.Connect("router", "low", nil)
	_ = e.StartAt("router")

	final, err := e.Run(context.Background(), "run-edges-low", testState{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if final.Message != "low" {
		t.Errorf("expected low branch, got %q", final.Message)
	}

	final, err = e.Run(context.Background(), "run-edges-high", testState{Count: 10})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if final.Message != "high" {
		t.Errorf("expected high branch, got %q", final.Message)
	}
}

func TestEngine_Run_NoRoute(t *testing.T) {
	e := newTestEngine()
	_ = e.Add("stuck", NodeFunc[testState](func(_ context.Context, _ testState) NodeResult[testState] {
		return NodeResult[testState]{}
	}))
	_ = e.StartAt("stuck")

	_, err := e.Run(context.Background(), "run-stuck", testState{})
	var engErr *EngineError
	if !errors.As(err, &engErr) || engErr.Code != "NO_ROUTE" {
		t.Errorf("expected NO_ROUTE, got %v", err)
	}
}

func TestEngine_Run_MaxStepsExceeded(t *testing.T) {
	e := newTestEngine(WithMaxSteps(5))
	_ = e.Add("loop", NodeFunc[testState](func(_ context.Context, _ testState) NodeResult[testState] {
		return NodeResult[testState]{Delta: testState{Count: 1}, Route: Goto("loop")}
	}))
	_ = e.StartAt("loop")

	_, err := e.Run(context.Background(), "run-loop", testState{})
	var engErr *EngineError
	if !errors.As(err, &engErr) || engErr.Code != "MAX_STEPS_EXCEEDED" {
		t.Errorf("expected MAX_STEPS_EXCEEDED, got %v", err)
	}
}

func TestEngine_Run_NodeErrorHalts(t *testing.T) {
	wantErr := errors.New("boom")
	e := newTestEngine()
	_ = e.Add("fail", NodeFunc[testState](func(_ context.Context, _ testState) NodeResult[testState] {
		return NodeResult[testState]{Err: wantErr}
	}))
	_ = e.StartAt("fail")

	_, err := e.Run(context.Background(), "run-fail", testState{})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected node error, got %v", err)
	}
}

func TestEngine_Run_RetriesTransientErrors(t *testing.T) {
	attempts := 0
	e := newTestEngine(WithRetries(2))
	_ = e.Add("flaky", NodeFunc[testState](func(_ context.Context, _ testState) NodeResult[testState] {
		attempts++
		if attempts < 3 {
			return NodeResult[testState]{Err: &transientError{msg: "rate limited"}}
		}
		return NodeResult[testState]{Delta: testState{Message: "recovered"}, Route: Stop()}
	}))
	_ = e.StartAt("flaky")

	final, err := e.Run(context.Background(), "run-flaky", testState{})
	if err != nil {
		t.Fatalf("Run failed after retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if final.Message != "recovered" {
		t.Errorf("unexpected final state: %+v", final)
	}
}

func TestEngine_Run_DoesNotRetryPermanentErrors(t *testing.T) {
	attempts := 0
	wantErr := errors.New("invalid api key")
	e := newTestEngine(WithRetries(3))
	_ = e.Add("fail", NodeFunc[testState](func(_ context.Context, _ testState) NodeResult[testState] {
		attempts++
		return NodeResult[testState]{Err: wantErr}
	}))
	_ = e.StartAt("fail")

	_, err := e.Run(context.Background(), "run-permanent", testState{})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt for permanent error, got %d", attempts)
	}
}

func TestEngine_Run_ContextCancellation(t *testing.T) {
	e := newTestEngine()
	_ = e.Add("loop", NodeFunc[testState](func(_ context.Context, _ testState) NodeResult[testState] {
		return NodeResult[testState]{Route: Goto("loop")}
	}))
	_ = e.StartAt("loop")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx, "run-cancel", testState{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEngine_CheckpointResume(t *testing.T) {
	e := newTestEngine()

	_ = e.Add("pause", NodeFunc[testState](func(_ context.Context, _ testState) NodeResult[testState] {
		return NodeResult[testState]{
			Delta: testState{Step: "paused", Count: 1},
			Route: Stop(),
		}
	}))
	_ = e.Add("resume", NodeFunc[testState](func(_ context.Context, s testState) NodeResult[testState] {
		return NodeResult[testState]{
			Delta: testState{Step: "resumed", Count: 1, Message: "welcome back"},
			Route: Stop(),
		}
	}))
	_ = e.StartAt("pause")

	ctx := context.Background()
	if _, err := e.Run(ctx, "run-1", testState{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if err := e.SaveCheckpoint(ctx, "run-1", "awaiting-reply"); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	final, err := e.ResumeFromCheckpoint(ctx, "awaiting-reply", "run-2", "resume")
	if err != nil {
		t.Fatalf("ResumeFromCheckpoint failed: %v", err)
	}
	if final.Step != "resumed" {
		t.Errorf("expected resumed step, got %q", final.Step)
	}
	// Checkpoint state carries over: count from the original run plus one.
	if final.Count != 2 {
		t.Errorf("expected count 2 after resume, got %d", final.Count)
	}
}

func TestEngine_SaveCheckpoint_UnknownRun(t *testing.T) {
	e := newTestEngine()

	err := e.SaveCheckpoint(context.Background(), "no-such-run", "cp-1")
	var engErr *EngineError
	if !errors.As(err, &engErr) || engErr.Code != "RUN_NOT_FOUND" {
		t.Errorf("expected RUN_NOT_FOUND, got %v", err)
	}
}

func TestEngine_ResumeFromCheckpoint_UnknownCheckpoint(t *testing.T) {
	e := newTestEngine()
	_ = e.Add("any", NodeFunc[testState](func(_ context.Context, _ testState) NodeResult[testState] {
		return NodeResult[testState]{Route: Stop()}
	}))
	_ = e.StartAt("any")

	_, err := e.ResumeFromCheckpoint(context.Background(), "no-such-cp", "run-x", "any")
	var engErr *EngineError
	if !errors.As(err, &engErr) || engErr.Code != "CHECKPOINT_NOT_FOUND" {
		t.Errorf("expected CHECKPOINT_NOT_FOUND, got %v", err)
	}
}
