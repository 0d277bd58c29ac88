package authcore

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

// gateSink blocks every delivery until the test releases the gate, which
// makes buffer-full behavior deterministic.
type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{gate: make(chan struct{})}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

func TestDispatchSinkDeliversToWrappedSink(t *testing.T) {
	sink := &countingSink{}
	dispatch := NewDispatchSink(sink, DispatchConfig{BufferSize: 8})

	for i := 0; i < 5; i++ {
		dispatch.Emit(context.Background(), AuditEvent{EventType: EventAuthRejected})
	}
	dispatch.Close()

	if got := sink.count.Load(); got != 5 {
		t.Fatalf("delivered = %d, want 5", got)
	}
}

func TestDispatchSinkDropIfFullDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	dispatch := NewDispatchSink(sink, DispatchConfig{BufferSize: 1, DropIfFull: true})
	defer func() {
		close(sink.gate)
		dispatch.Close()
	}()

	dispatch.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatch.Emit(context.Background(), AuditEvent{EventType: "e2"})

	start := time.Now()
	dispatch.Emit(context.Background(), AuditEvent{EventType: "e3"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("emit blocked despite DropIfFull")
	}
	if dispatch.Dropped() == 0 {
		t.Fatal("dropped counter did not increment on full buffer")
	}
}

func TestDispatchSinkBlocksUntilSpaceWithoutDrop(t *testing.T) {
	sink := newGateSink()
	dispatch := NewDispatchSink(sink, DispatchConfig{BufferSize: 1})
	defer func() {
		close(sink.gate)
		dispatch.Close()
	}()

	dispatch.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatch.Emit(context.Background(), AuditEvent{EventType: "e2"})

	done := make(chan struct{})
	go func() {
		dispatch.Emit(context.Background(), AuditEvent{EventType: "e3"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("emit returned while the buffer was still full")
	case <-time.After(150 * time.Millisecond):
	}

	sink.gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("emit did not proceed after space opened up")
	}
}

func TestDispatchSinkCloseIdempotentAndEmitAfterCloseSafe(t *testing.T) {
	dispatch := NewDispatchSink(&countingSink{}, DispatchConfig{BufferSize: 4, DropIfFull: true})

	dispatch.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatch.Close()
	dispatch.Close()
	dispatch.Emit(context.Background(), AuditEvent{EventType: "e2"})
}
