package goAuthClient

import (
	"context"
	"sync"
	"sync/atomic"
)

type eventEmitter interface {
	Emit(ctx context.Context, event SessionEvent)
	Close()
	Dropped() uint64
}

// syncEmitter delivers on the caller's goroutine, so the sink has run before the
// operation that caused the event returns.
type syncEmitter struct {
	sink EventSink
}

func (e syncEmitter) Emit(ctx context.Context, event SessionEvent) {
	e.sink.Emit(ctx, event)
}

func (syncEmitter) Close() {}

func (syncEmitter) Dropped() uint64 { return 0 }

// eventDispatcher delivers events on one worker goroutine. Every Emit ends either
// delivered or counted in Dropped, including Emits racing with or following Close.
type eventDispatcher struct {
	cfg     EventsConfig
	sink    EventSink
	ch      chan SessionEvent
	closing chan struct{} // releases senders blocked on a full queue
	stop    chan struct{} // tells run to drain and exit
	wg      sync.WaitGroup
	dropped atomic.Uint64

	// mu is read-held by senders across the closed check and the send.
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

func newEventEmitter(cfg EventsConfig, sink EventSink) eventEmitter {
	if sink == nil {
		sink = NoOpSink{}
	}
	if !cfg.Async {
		return syncEmitter{sink: sink}
	}
	return newEventDispatcher(cfg, sink)
}

func newEventDispatcher(cfg EventsConfig, sink EventSink) *eventDispatcher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}

	d := &eventDispatcher{
		cfg:     cfg,
		sink:    sink,
		ch:      make(chan SessionEvent, cfg.BufferSize),
		closing: make(chan struct{}),
		stop:    make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *eventDispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.ch:
			d.sink.Emit(context.Background(), event)
		case <-d.stop:
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

func (d *eventDispatcher) Emit(ctx context.Context, event SessionEvent) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped.Add(1)
		return
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- event:
	case <-ctx.Done():
		d.dropped.Add(1)
	case <-d.closing:
		d.dropped.Add(1)
	}
}

// Close stops accepting events and waits until every queued event has been
// delivered. Events rejected during or after Close count as dropped.
func (d *eventDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		close(d.closing)
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		close(d.stop)
		d.wg.Wait()
	})
}

func (d *eventDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
