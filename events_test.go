package goAuthClient

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, SessionEvent) {
	s.count.Add(1)
}

func (s *countingSink) Count() int64 {
	return s.count.Load()
}

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{
		gate: make(chan struct{}),
	}
}

func (s *gateSink) Emit(context.Context, SessionEvent) {
	<-s.gate
}

type recordingSink struct {
	mu     sync.Mutex
	events []SessionEvent
}

func (s *recordingSink) Emit(_ context.Context, event SessionEvent) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func (s *recordingSink) Events() []SessionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SessionEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordingSink) OfType(t EventType) []SessionEvent {
	var out []SessionEvent
	for _, e := range s.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func TestSyncEmitterDeliversInline(t *testing.T) {
	sink := &countingSink{}
	e := newEventEmitter(EventsConfig{}, sink)
	e.Emit(context.Background(), SessionEvent{Type: EventLogout})
	if sink.Count() != 1 {
		t.Fatalf("expected inline delivery, got %d", sink.Count())
	}
	e.Close()
}

func TestDispatcherDropIfFullDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	d := newEventDispatcher(EventsConfig{Async: true, BufferSize: 1, DropIfFull: true}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	d.Emit(context.Background(), SessionEvent{Type: "e1"})
	d.Emit(context.Background(), SessionEvent{Type: "e2"})

	start := time.Now()
	d.Emit(context.Background(), SessionEvent{Type: "e3"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking emit when DropIfFull is true")
	}
	if d.Dropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
}

func TestDispatcherBlocksUntilSpace(t *testing.T) {
	sink := newGateSink()
	d := newEventDispatcher(EventsConfig{Async: true, BufferSize: 1}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	d.Emit(context.Background(), SessionEvent{Type: "e1"})
	d.Emit(context.Background(), SessionEvent{Type: "e2"})

	done := make(chan struct{})
	go func() {
		d.Emit(context.Background(), SessionEvent{Type: "e3"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected emit to block while buffer is full")
	case <-time.After(150 * time.Millisecond):
	}

	sink.gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected blocked emit to proceed after space is available")
	}
}

func TestDispatcherCloseDrainsQueue(t *testing.T) {
	sink := &countingSink{}
	d := newEventDispatcher(EventsConfig{Async: true, BufferSize: 16}, sink)
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), SessionEvent{Type: EventSessionInvalidated})
	}
	d.Close()
	if sink.Count() != 10 {
		t.Fatalf("expected 10 delivered events after close, got %d", sink.Count())
	}
}

func TestDispatcherCloseIdempotentAndEmitAfterCloseSafe(t *testing.T) {
	d := newEventDispatcher(EventsConfig{Async: true, BufferSize: 4, DropIfFull: true}, &countingSink{})

	d.Emit(context.Background(), SessionEvent{Type: "e1"})
	d.Close()
	d.Close()
	d.Emit(context.Background(), SessionEvent{Type: "e2"})
}

func TestDispatcherEmitRacingCloseIsDeliveredOrDropped(t *testing.T) {
	for round := 0; round < 50; round++ {
		sink := &countingSink{}
		d := newEventDispatcher(EventsConfig{Async: true, BufferSize: 2}, sink)

		const emitters = 16
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < emitters; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				d.Emit(context.Background(), SessionEvent{Type: EventSessionInvalidated})
			}()
		}
		close(start)
		d.Close()
		wg.Wait()

		if got := sink.Count() + int64(d.Dropped()); got != emitters {
			t.Fatalf("round %d: delivered %d + dropped %d != %d emitted", round, sink.Count(), d.Dropped(), emitters)
		}
	}
}

func TestDispatcherEmitAfterCloseCountsDropped(t *testing.T) {
	d := newEventDispatcher(EventsConfig{Async: true, BufferSize: 4}, &countingSink{})
	d.Close()
	d.Emit(context.Background(), SessionEvent{Type: EventLogout})
	if d.Dropped() != 1 {
		t.Fatalf("expected 1 dropped, got %d", d.Dropped())
	}
}

func TestChannelSinkDelivers(t *testing.T) {
	sink := NewChannelSink(0)
	sink.Emit(context.Background(), SessionEvent{Type: EventLogout})

	select {
	case e := <-sink.Events():
		if e.Type != EventLogout {
			t.Fatalf("unexpected event %q", e.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("expected buffered event")
	}
}

func TestChannelSinkGivesUpOnCanceledContext(t *testing.T) {
	sink := NewChannelSink(1)
	sink.Emit(context.Background(), SessionEvent{Type: "e1"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sink.Emit(ctx, SessionEvent{Type: "e2"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected emit to block while the buffer is full")
	case <-time.After(50 * time.Millisecond):
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected emit to return after cancel")
	}
	if e := <-sink.Events(); e.Type != "e1" {
		t.Fatalf("expected only e1 buffered, got %q", e.Type)
	}
	select {
	case e := <-sink.Events():
		t.Fatalf("canceled event was delivered: %q", e.Type)
	default:
	}
}

func TestJSONWriterSinkWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), SessionEvent{
		Timestamp: time.Now().UTC(),
		Type:      EventSessionInvalidated,
		Origin:    "http://localhost:5000",
		Status:    401,
		HadToken:  true,
	})

	line := buf.String()
	if !strings.HasSuffix(line, "\n") {
		t.Fatal("expected newline-terminated JSON line")
	}
	if !strings.Contains(line, `"type":"session_invalidated"`) {
		t.Fatalf("expected event type in line, got %s", line)
	}
	if !strings.Contains(line, `"had_token":true`) {
		t.Fatalf("expected had_token in line, got %s", line)
	}
}

func TestMultiSinkFansOut(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	var called bool
	MultiSink{a, nil, b, SinkFunc(func(context.Context, SessionEvent) { called = true })}.
		Emit(context.Background(), SessionEvent{Type: EventLogout})
	if a.Count() != 1 || b.Count() != 1 || !called {
		t.Fatal("expected every sink to receive the event")
	}
}
