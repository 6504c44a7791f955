package main

import (
	"context"
	"errors"
	"testing"
	"time"

	goAuthClient "github.com/MrEthical07/goAuthClient"
)

func TestPercentile(t *testing.T) {
	samples := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := percentile(samples, 50); got != 5 {
		t.Fatalf("expected p50=5, got %d", got)
	}
	if got := percentile(samples, 100); got != 10 {
		t.Fatalf("expected p100=10, got %d", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Fatalf("expected 0 for no samples, got %d", got)
	}
}

func TestRunPhaseCountsEveryOp(t *testing.T) {
	calls := 0
	ch := make(chan struct{}, 100)
	stats := runPhase(100, 8, func() error {
		ch <- struct{}{}
		return nil
	})
	close(ch)
	for range ch {
		calls++
	}
	if calls != 100 || stats.ops != 100 || stats.failures != 0 {
		t.Fatalf("expected 100 ops and no failures, got calls=%d stats=%+v", calls, stats)
	}
}

func TestRunPhaseCountsFailures(t *testing.T) {
	stats := runPhase(10, 2, func() error { return errors.New("boom") })
	if stats.failures != 10 {
		t.Fatalf("expected 10 failures, got %d", stats.failures)
	}
}

func TestCountEventsDrainsBuffer(t *testing.T) {
	sink := goAuthClient.NewChannelSink(4)
	ctx := context.Background()
	sink.Emit(ctx, goAuthClient.SessionEvent{Type: goAuthClient.EventSessionEstablished})
	sink.Emit(ctx, goAuthClient.SessionEvent{Type: goAuthClient.EventSessionInvalidated})
	sink.Emit(ctx, goAuthClient.SessionEvent{Type: goAuthClient.EventSessionInvalidated})

	if got := countEvents(sink, goAuthClient.EventSessionInvalidated); got != 2 {
		t.Fatalf("expected 2 invalidations, got %d", got)
	}
	if got := countEvents(sink, goAuthClient.EventSessionEstablished); got != 0 {
		t.Fatalf("expected drained buffer, got %d", got)
	}
}
