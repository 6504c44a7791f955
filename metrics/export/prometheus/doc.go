// Package prometheus exposes goAuthClient metrics through client_golang.
//
// [Collector] implements prometheus.Collector over a client's [goAuthClient.MetricsSnapshot].
// Counters are named goauthclient_*_total and the request latency histogram is
// goauthclient_request_latency_seconds.
//
// # What this package must NOT do
//
//   - Register in the global Prometheus registry. Callers register the Collector or
//     mount [Collector.Handler].
//   - Mutate client state.
package prometheus
