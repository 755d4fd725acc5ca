package emit

// NullEmitter implements Emitter by discarding all events.
//
// Use it to disable event emission without changing wiring:
//
//	engine := graph.New(reducer, store, emit.NewNullEmitter())
type NullEmitter struct{}

// NewNullEmitter returns an emitter that discards every event.
// Safe for concurrent use, zero overhead.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event.
func (n *NullEmitter) Emit(event Event) {}
