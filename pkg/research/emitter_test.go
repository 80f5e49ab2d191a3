package research

import (
	"context"
	"testing"
	"time"
)

func TestEmitterSequenceAndTerminalDone(t *testing.T) {
	em := NewEmitter(8)
	ctx := context.Background()

	go func() {
		em.Emit(ctx, EventProcessing, EventData{Message: "one"})
		em.Emit(ctx, EventPrompt, EventData{Content: "two"})
		em.Emit(ctx, EventMessage, EventData{Content: "three"})
		em.Close(EventData{Message: "finished"})
	}()

	var events []ProgressEvent
	for ev := range em.Events() {
		events = append(events, ev)
	}

	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	var last uint64
	for i, ev := range events {
		if ev.Seq <= last {
			t.Errorf("event %d: seq %d not strictly increasing after %d", i, ev.Seq, last)
		}
		last = ev.Seq
	}
	final := events[len(events)-1]
	if final.Kind != EventDone || !final.Data.Done {
		t.Errorf("final event = %+v, want terminal done", final)
	}
	for _, ev := range events[:len(events)-1] {
		if ev.Data.Done {
			t.Errorf("non-terminal event flagged done: %+v", ev)
		}
	}
}

func TestEmitterCloseIsIdempotent(t *testing.T) {
	em := NewEmitter(4)
	em.Close(EventData{Message: "first"})
	em.Close(EventData{Message: "second"}) // must not panic or send again

	var count int
	for range em.Events() {
		count++
	}
	if count != 1 {
		t.Errorf("got %d terminal events, want exactly 1", count)
	}
}

func TestEmitterBackpressureRespectsCancellation(t *testing.T) {
	em := NewEmitter(1)
	ctx, cancel := context.WithCancel(context.Background())

	// Fill the buffer; nobody is consuming.
	if err := em.Emit(ctx, EventProcessing, EventData{}); err != nil {
		t.Fatalf("first emit: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- em.Emit(ctx, EventProcessing, EventData{})
	}()

	select {
	case err := <-done:
		t.Fatalf("emit returned %v before cancellation, want block", err)
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err == nil {
			t.Error("emit after cancel returned nil, want context error")
		}
	case <-time.After(time.Second):
		t.Fatal("emit did not unblock after cancellation")
	}
}
