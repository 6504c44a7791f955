// Package otel publishes goAuthClient metrics as OpenTelemetry instruments.
//
// [NewExporter] registers an Int64ObservableCounter per client counter and an
// Int64ObservableGauge per latency bucket. One callback reads
// [goAuthClient.Client.MetricsSnapshot] on each collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate client state.
package otel
