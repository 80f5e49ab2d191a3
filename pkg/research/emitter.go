package research

import (
	"context"
	"sync"
)

// Emitter delivers a session's progress events to a single consumer in
// order, over a bounded channel. A slow consumer blocks the producer
// rather than dropping events.
//
// The emitter is single-writer: only the session's driver goroutine may
// call Emit and Close. The consumer MUST drain Events() until the
// channel is closed, even after it stops caring about the session;
// this is what lets Close deliver the terminal done event on every
// path, including cancellation.
type Emitter struct {
	ch   chan ProgressEvent
	seq  uint64
	once sync.Once
}

// DefaultEventBuffer is the sink capacity used by callers that have no
// reason to pick another.
const DefaultEventBuffer = 16

func NewEmitter(buffer int) *Emitter {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	return &Emitter{ch: make(chan ProgressEvent, buffer)}
}

// Events returns the consumer side of the stream. It is closed after
// the terminal done event has been sent.
func (e *Emitter) Events() <-chan ProgressEvent {
	return e.ch
}

// Emit queues one event, blocking when the buffer is full. It returns
// the context error if the session is cancelled while blocked.
func (e *Emitter) Emit(ctx context.Context, kind EventKind, data EventData) error {
	e.seq++
	ev := ProgressEvent{Seq: e.seq, Kind: kind, Data: data}
	select {
	case e.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close sends the terminal done event and closes the stream. It is
// idempotent; only the first call wins. The send is unconditional (no
// context check) so the terminal event is delivered exactly once even
// on cancelled and failed sessions, relying on the consumer's drain
// contract.
func (e *Emitter) Close(data EventData) {
	e.once.Do(func() {
		data.Done = true
		e.seq++
		e.ch <- ProgressEvent{Seq: e.seq, Kind: EventDone, Data: data}
		close(e.ch)
	})
}
