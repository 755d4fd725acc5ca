package emit

import "testing"

func TestNullEmitter_DiscardsEvents(t *testing.T) {
	emitter := NewNullEmitter()

	// Must not panic, regardless of event contents.
	emitter.Emit(Event{})
	emitter.Emit(Event{
		RunID:  "run-001",
		Step:   1,
		NodeID: "greet",
		Msg:    "node completed",
		Meta:   map[string]interface{}{"error": "boom"},
	})
}

func TestNullEmitter_ImplementsEmitter(t *testing.T) {
	var _ Emitter = NewNullEmitter()
	var _ Emitter = NewLogEmitter(nil, false)
}
