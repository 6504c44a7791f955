package goAuthClient

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goAuthClient/session"
)

// DefaultBaseURL is the API address used when Config.BaseURL is not set.
const DefaultBaseURL = "http://localhost:5000"

// Config configures a Client. Build it from DefaultConfig and override fields.
type Config struct {
	BaseURL string
	HTTP    HTTPConfig
	Session SessionConfig
	Guard   GuardConfig
	Events  EventsConfig
	Metrics MetricsConfig
}

/*
====================================
HTTP CONFIG
====================================
*/

// HTTPConfig controls outgoing requests. A zero Timeout means no client timeout.
type HTTPConfig struct {
	UserAgent string
	Timeout   time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig names the persisted token slot for the file and Redis stores
// created by the Builder.
type SessionConfig struct {
	StorageName string
}

/*
====================================
GUARD CONFIG
====================================
*/

// NetworkPolicy decides how the route guard treats a validation probe that got no response.
type NetworkPolicy int

const (
	// FailClosed denies access when the probe fails at the network level.
	FailClosed NetworkPolicy = iota
	// FailOpen allows access with no user profile when the probe fails at the network level.
	FailOpen
)

func (p NetworkPolicy) String() string {
	switch p {
	case FailClosed:
		return "fail_closed"
	case FailOpen:
		return "fail_open"
	default:
		return "unknown"
	}
}

// GuardConfig configures the route guard.
type GuardConfig struct {
	NetworkPolicy NetworkPolicy
	LoginPath     string
}

/*
====================================
EVENTS CONFIG
====================================
*/

// EventsConfig controls session event delivery. With Async false, sinks run inline
// on the goroutine that caused the event.
type EventsConfig struct {
	Async      bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		HTTP: HTTPConfig{
			UserAgent: "goAuthClient/1",
			Timeout:   0,
		},
		Session: SessionConfig{
			StorageName: session.DefaultStorageName,
		},
		Guard: GuardConfig{
			NetworkPolicy: FailClosed,
			LoginPath:     "/login",
		},
		Events: EventsConfig{
			Async:      false,
			BufferSize: 64,
			DropIfFull: false,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// DefaultConfig returns the configuration used by New.
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.BaseURL = strings.TrimSpace(cfg.BaseURL)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid field of c.
func (c *Config) Validate() error {
	// BaseURL
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("BaseURL must be set")
	}
	u, err := url.Parse(strings.TrimSpace(c.BaseURL))
	if err != nil {
		return errors.New("BaseURL must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("BaseURL scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("BaseURL must include a host")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return errors.New("BaseURL must not carry a query or fragment")
	}

	// HTTP
	if strings.TrimSpace(c.HTTP.UserAgent) == "" {
		return errors.New("HTTP UserAgent must be set")
	}
	if c.HTTP.Timeout < 0 {
		return errors.New("HTTP Timeout must be >= 0")
	}

	// Session
	name := strings.TrimSpace(c.Session.StorageName)
	if name == "" {
		return errors.New("Session StorageName must be set")
	}
	if strings.ContainsAny(name, `/\:`) {
		return errors.New("Session StorageName must not contain path or key separators")
	}

	// Guard
	if c.Guard.NetworkPolicy != FailClosed && c.Guard.NetworkPolicy != FailOpen {
		return errors.New("Guard NetworkPolicy is invalid")
	}
	if !strings.HasPrefix(c.Guard.LoginPath, "/") {
		return errors.New("Guard LoginPath must start with /")
	}

	// Events
	if c.Events.Async && c.Events.BufferSize <= 0 {
		return errors.New("Events BufferSize must be > 0 when Async is true")
	}
	if !c.Events.Async && c.Events.DropIfFull {
		return errors.New("Events DropIfFull requires Async")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
