package internaldefs

import (
	goAuthClient "github.com/MrEthical07/goAuthClient"
)

// CounterDef names one client counter.
type CounterDef struct {
	ID   goAuthClient.MetricID
	Name string
	Help string
}

// HistogramDef names one client histogram.
type HistogramDef struct {
	ID   goAuthClient.MetricID
	Name string
	Help string
}

// EventsDroppedName is the counter for session events discarded by the async dispatcher.
const (
	EventsDroppedName = "goauthclient_events_dropped_total"
	EventsDroppedHelp = "Session events dropped due to dispatcher backpressure."
)

// CounterDefs lists every exported counter in stable order.
var CounterDefs = []CounterDef{
	{ID: goAuthClient.MetricRequestSent, Name: "goauthclient_requests_sent_total", Help: "Requests handed to the transport."},
	{ID: goAuthClient.MetricRequestSuccess, Name: "goauthclient_requests_success_total", Help: "Requests answered with a decoded 2xx response."},
	{ID: goAuthClient.MetricRequestFailure, Name: "goauthclient_requests_failure_total", Help: "Requests that did not end in a decoded 2xx response."},
	{ID: goAuthClient.MetricNetworkError, Name: "goauthclient_network_errors_total", Help: "Requests that produced no response."},
	{ID: goAuthClient.MetricUnauthorized, Name: "goauthclient_unauthorized_total", Help: "Responses with status 401."},
	{ID: goAuthClient.MetricForbidden, Name: "goauthclient_forbidden_total", Help: "Responses with status 403."},
	{ID: goAuthClient.MetricLoginSuccess, Name: "goauthclient_login_success_total", Help: "Successful logins."},
	{ID: goAuthClient.MetricLoginFailure, Name: "goauthclient_login_failure_total", Help: "Failed logins."},
	{ID: goAuthClient.MetricRegisterSuccess, Name: "goauthclient_register_success_total", Help: "Successful registrations."},
	{ID: goAuthClient.MetricRegisterFailure, Name: "goauthclient_register_failure_total", Help: "Failed registrations."},
	{ID: goAuthClient.MetricSessionEstablished, Name: "goauthclient_session_established_total", Help: "Tokens stored after login."},
	{ID: goAuthClient.MetricSessionInvalidated, Name: "goauthclient_session_invalidated_total", Help: "Sessions cleared after a 401."},
	{ID: goAuthClient.MetricLogout, Name: "goauthclient_logout_total", Help: "Logout operations."},
	{ID: goAuthClient.MetricGuardAllowed, Name: "goauthclient_guard_allowed_total", Help: "Route guard checks that allowed a view."},
	{ID: goAuthClient.MetricGuardDenied, Name: "goauthclient_guard_denied_total", Help: "Route guard checks that redirected to login."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goAuthClient.MetricRequestLatency, Name: "goauthclient_request_latency_seconds", Help: "Request round-trip latency histogram."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The eighth bucket is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket in instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
