package otel

import (
	"context"
	"errors"
	"sync"
	"testing"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot goAuthClient.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() goAuthClient.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshot
}

func (f *fakeSource) EventsDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				out[m.Name] = data.DataPoints[0].Value
			case metricdata.Gauge[int64]:
				out[m.Name] = data.DataPoints[0].Value
			}
		}
	}
	return out
}

func TestExporterCollectsCountersAndBuckets(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("goauthclient-test")

	src := &fakeSource{
		snapshot: goAuthClient.MetricsSnapshot{
			Counters: map[goAuthClient.MetricID]uint64{
				goAuthClient.MetricLoginSuccess: 3,
			},
			Histograms: map[goAuthClient.MetricID][]uint64{
				goAuthClient.MetricRequestLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := NewExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewExporterFromSource: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}()

	got := collect(t, reader)
	if got["goauthclient_login_success_total"] != 3 {
		t.Fatalf("expected login_success 3, got %d", got["goauthclient_login_success_total"])
	}
	if got["goauthclient_request_latency_seconds_bucket_le_0_025"] != 3 {
		t.Fatalf("expected cumulative bucket 3, got %d", got["goauthclient_request_latency_seconds_bucket_le_0_025"])
	}
	if got["goauthclient_request_latency_seconds_count"] != 8 {
		t.Fatalf("expected count 8, got %d", got["goauthclient_request_latency_seconds_count"])
	}
	if got["goauthclient_events_dropped_total"] != 1 {
		t.Fatalf("expected dropped 1, got %d", got["goauthclient_events_dropped_total"])
	}
}

func TestExporterRejectsNilInputs(t *testing.T) {
	meter := sdkmetric.NewMeterProvider().Meter("goauthclient-test")
	if _, err := NewExporterFromSource(meter, nil); !errors.Is(err, ErrNilSource) {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewExporterFromSource(nil, &fakeSource{}); !errors.Is(err, ErrNilMeter) {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
	if _, err := NewExporter(meter, nil); !errors.Is(err, ErrNilSource) {
		t.Fatalf("expected ErrNilSource for nil client, got %v", err)
	}
}

func TestExporterOverRealClient(t *testing.T) {
	client, err := goAuthClient.New().WithMetricsEnabled(true).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	client.Metrics().Inc(goAuthClient.MetricLogout)
	client.Metrics().Inc(goAuthClient.MetricLogout)

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("goauthclient-test")
	exp, err := NewExporter(meter, client)
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}
	defer exp.Close()

	if got := collect(t, reader)["goauthclient_logout_total"]; got != 2 {
		t.Fatalf("expected logout 2, got %d", got)
	}
}
