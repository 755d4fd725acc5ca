package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStore(t *testing.T) {
	storeSuite(t, func(t *testing.T) Store[convState] {
		st, err := NewSQLiteStore[convState](filepath.Join(t.TempDir(), "runs.db"))
		if err != nil {
			t.Fatalf("NewSQLiteStore failed: %v", err)
		}
		t.Cleanup(func() { _ = st.Close() })
		return st
	})
}

func TestSQLiteStore_SaveStepUpsert(t *testing.T) {
	st, err := NewSQLiteStore[convState](filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.SaveStep(ctx, "run-1", 1, "greet", convState{Step: "first"}); err != nil {
		t.Fatalf("SaveStep failed: %v", err)
	}
	if err := st.SaveStep(ctx, "run-1", 1, "greet", convState{Step: "second"}); err != nil {
		t.Fatalf("SaveStep upsert failed: %v", err)
	}

	records, err := st.History(ctx, "run-1")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record after upsert, got %d", len(records))
	}
	if records[0].State.Step != "second" {
		t.Errorf("expected upserted state, got %q", records[0].State.Step)
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	st, err := NewSQLiteStore[convState](path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if err := st.SaveStep(ctx, "run-1", 1, "greet", convState{Step: "await_schedule"}); err != nil {
		t.Fatalf("SaveStep failed: %v", err)
	}
	if err := st.SaveCheckpoint(ctx, "cp-1", convState{Step: "await_schedule"}, 1); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLiteStore[convState](path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	state, step, err := reopened.LoadLatest(ctx, "run-1")
	if err != nil {
		t.Fatalf("LoadLatest after reopen failed: %v", err)
	}
	if step != 1 || state.Step != "await_schedule" {
		t.Errorf("unexpected state after reopen: step=%d state=%+v", step, state)
	}

	if _, _, err := reopened.LoadCheckpoint(ctx, "cp-1"); err != nil {
		t.Errorf("LoadCheckpoint after reopen failed: %v", err)
	}
}
