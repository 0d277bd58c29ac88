package authcore

import (
	"context"
	"sync"
	"sync/atomic"
)

// DispatchConfig tunes a [DispatchSink].
type DispatchConfig struct {
	// BufferSize is the number of events held while the consumer catches
	// up. Defaults to 1.
	BufferSize int
	// DropIfFull makes Emit non-blocking: when the buffer is full the event
	// is counted as dropped instead of stalling the request path.
	DropIfFull bool
}

// DispatchSink decouples audit emission from audit delivery: events are
// handed to the wrapped sink on a dedicated goroutine so a slow sink (file,
// network shipper) never adds latency to the gate. Close drains the buffer
// before returning.
type DispatchSink struct {
	cfg       DispatchConfig
	sink      AuditSink
	ch        chan AuditEvent
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewDispatchSink wraps sink with an asynchronous buffer.
func NewDispatchSink(sink AuditSink, cfg DispatchConfig) *DispatchSink {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &DispatchSink{
		cfg:  cfg,
		sink: sink,
		ch:   make(chan AuditEvent, cfg.BufferSize),
		done: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *DispatchSink) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.ch:
			d.sink.Emit(context.Background(), event)
		case <-d.done:
			for {
				select {
				case event := <-d.ch:
					d.sink.Emit(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

// Emit queues the event for delivery. With DropIfFull set it never blocks;
// otherwise it waits for buffer space, the context, or Close, whichever
// comes first. Emit after Close is a no-op.
func (d *DispatchSink) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- event:
		case <-d.done:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- event:
	case <-ctx.Done():
	case <-d.done:
	}
}

// Close stops the dispatcher after draining buffered events. Safe to call
// more than once.
func (d *DispatchSink) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped reports how many events were discarded because the buffer was
// full.
func (d *DispatchSink) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
