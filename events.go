package goAuthClient

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// EventType names a session lifecycle transition.
type EventType string

const (
	// EventSessionEstablished is emitted after EstablishSession stores a token.
	EventSessionEstablished EventType = "session_established"
	// EventSessionInvalidated is emitted once per 401 response, after the store is cleared.
	EventSessionInvalidated EventType = "session_invalidated"
	// EventLogout is emitted after Logout clears the store.
	EventLogout EventType = "logout"
)

// SessionEvent describes one session transition. HadToken reports whether the
// request that triggered an invalidation carried a bearer token, so a listener can
// tell an expired session from a rejected login.
type SessionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Origin    string    `json:"origin"`
	Method    string    `json:"method,omitempty"`
	Path      string    `json:"path,omitempty"`
	Status    int       `json:"status,omitempty"`
	Message   string    `json:"message,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	HadToken  bool      `json:"had_token"`
}

// EventSink receives session events. The top-level navigator of a program is
// expected to be the only sink that reacts to them.
type EventSink interface {
	Emit(ctx context.Context, event SessionEvent)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(ctx context.Context, event SessionEvent)

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, event SessionEvent) {
	if f != nil {
		f(ctx, event)
	}
}

// NoOpSink discards every event. It is the default when no sink is configured.
type NoOpSink struct{}

// Emit does nothing.
func (NoOpSink) Emit(context.Context, SessionEvent) {}

// ChannelSink buffers events on a channel for a consumer goroutine.
type ChannelSink struct {
	events chan SessionEvent
}

// NewChannelSink returns a ChannelSink with the given buffer. Values below one
// select a buffer of one.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan SessionEvent, buffer),
	}
}

// Emit waits for buffer space. The event is discarded once ctx is done.
func (s *ChannelSink) Emit(ctx context.Context, event SessionEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events returns the receive side of the buffer.
func (s *ChannelSink) Events() <-chan SessionEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink returns a sink writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

// Emit writes event followed by a newline. Encoding and write errors are ignored.
func (s *JSONWriterSink) Emit(ctx context.Context, event SessionEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// MultiSink fans an event out to every sink in order.
type MultiSink []EventSink

// Emit delivers event to each non-nil sink.
func (m MultiSink) Emit(ctx context.Context, event SessionEvent) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, event)
		}
	}
}
