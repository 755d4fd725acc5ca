package store

import (
	"context"
	"errors"
	"testing"
)

type convState struct {
	Step      string `json:"step"`
	Sentiment string `json:"sentiment"`
	Attempts  int    `json:"attempts"`
}

// storeSuite runs the shared behavior contract against any Store implementation.
func storeSuite(t *testing.T, newStore func(t *testing.T) Store[convState]) {
	t.Helper()

	t.Run("save and load latest", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		if err := st.SaveStep(ctx, "run-1", 1, "greet", convState{Step: "await_schedule"}); err != nil {
			t.Fatalf("SaveStep failed: %v", err)
		}
		if err := st.SaveStep(ctx, "run-1", 2, "analyze_sentiment", convState{Step: "await_schedule", Sentiment: "positive"}); err != nil {
			t.Fatalf("SaveStep failed: %v", err)
		}

		state, step, err := st.LoadLatest(ctx, "run-1")
		if err != nil {
			t.Fatalf("LoadLatest failed: %v", err)
		}
		if step != 2 {
			t.Errorf("expected step 2, got %d", step)
		}
		if state.Sentiment != "positive" {
			t.Errorf("expected sentiment 'positive', got %q", state.Sentiment)
		}
	})

	t.Run("load latest unknown run", func(t *testing.T) {
		st := newStore(t)

		_, _, err := st.LoadLatest(context.Background(), "no-such-run")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("history in step order", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		// Out-of-order saves must still come back sorted.
		if err := st.SaveStep(ctx, "run-2", 3, "confirm", convState{Step: "done"}); err != nil {
			t.Fatalf("SaveStep failed: %v", err)
		}
		if err := st.SaveStep(ctx, "run-2", 1, "greet", convState{Step: "await_schedule"}); err != nil {
			t.Fatalf("SaveStep failed: %v", err)
		}
		if err := st.SaveStep(ctx, "run-2", 2, "analyze_sentiment", convState{Sentiment: "positive"}); err != nil {
			t.Fatalf("SaveStep failed: %v", err)
		}

		records, err := st.History(ctx, "run-2")
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected 3 records, got %d", len(records))
		}
		for i, want := range []string{"greet", "analyze_sentiment", "confirm"} {
			if records[i].NodeID != want {
				t.Errorf("record %d: expected node %q, got %q", i, want, records[i].NodeID)
			}
			if records[i].Step != i+1 {
				t.Errorf("record %d: expected step %d, got %d", i, i+1, records[i].Step)
			}
		}
	})

	t.Run("history unknown run", func(t *testing.T) {
		st := newStore(t)

		_, err := st.History(context.Background(), "no-such-run")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("runs are isolated", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		if err := st.SaveStep(ctx, "run-a", 1, "greet", convState{Step: "a"}); err != nil {
			t.Fatalf("SaveStep failed: %v", err)
		}
		if err := st.SaveStep(ctx, "run-b", 1, "greet", convState{Step: "b"}); err != nil {
			t.Fatalf("SaveStep failed: %v", err)
		}

		state, _, err := st.LoadLatest(ctx, "run-a")
		if err != nil {
			t.Fatalf("LoadLatest failed: %v", err)
		}
		if state.Step != "a" {
			t.Errorf("expected state for run-a, got %q", state.Step)
		}
	})

	t.Run("checkpoint save and load", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		saved := convState{Step: "await_reschedule", Sentiment: "negative", Attempts: 1}
		if err := st.SaveCheckpoint(ctx, "cp-pause", saved, 4); err != nil {
			t.Fatalf("SaveCheckpoint failed: %v", err)
		}

		state, step, err := st.LoadCheckpoint(ctx, "cp-pause")
		if err != nil {
			t.Fatalf("LoadCheckpoint failed: %v", err)
		}
		if step != 4 {
			t.Errorf("expected step 4, got %d", step)
		}
		if state != saved {
			t.Errorf("expected state %+v, got %+v", saved, state)
		}
	})

	t.Run("checkpoint overwrite", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		if err := st.SaveCheckpoint(ctx, "cp-1", convState{Attempts: 1}, 2); err != nil {
			t.Fatalf("SaveCheckpoint failed: %v", err)
		}
		if err := st.SaveCheckpoint(ctx, "cp-1", convState{Attempts: 2}, 5); err != nil {
			t.Fatalf("SaveCheckpoint failed: %v", err)
		}

		state, step, err := st.LoadCheckpoint(ctx, "cp-1")
		if err != nil {
			t.Fatalf("LoadCheckpoint failed: %v", err)
		}
		if state.Attempts != 2 || step != 5 {
			t.Errorf("expected overwritten checkpoint (attempts=2, step=5), got attempts=%d step=%d", state.Attempts, step)
		}
	})

	t.Run("checkpoint not found", func(t *testing.T) {
		st := newStore(t)

		_, _, err := st.LoadCheckpoint(context.Background(), "no-such-cp")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
