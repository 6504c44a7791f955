package goAuthClient

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/goAuthClient/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/MrEthical07/goAuthClient"

// Builder assembles a Client. A Builder can be built once.
type Builder struct {
	config Config

	store      session.Store
	fileDir    string
	redis      redis.UniversalClient
	redisPfx   string
	httpClient *http.Client

	logger         zerolog.Logger
	eventSink      EventSink
	tracerProvider trace.TracerProvider

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
		logger: zerolog.Nop(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL sets Config.BaseURL.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.BaseURL = baseURL
	return b
}

// WithSessionStore uses store as the token slot. It takes precedence over
// WithFileSessionStore and WithRedisSessionStore.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithFileSessionStore persists the token under dir, scoped to the BaseURL origin.
func (b *Builder) WithFileSessionStore(dir string) *Builder {
	b.fileDir = dir
	return b
}

// WithRedisSessionStore keeps the token in Redis, scoped to the BaseURL origin.
func (b *Builder) WithRedisSessionStore(client redis.UniversalClient, prefix string) *Builder {
	b.redis = client
	b.redisPfx = prefix
	return b
}

// WithHTTPClient replaces the transport. Config.HTTP.Timeout is not applied to it.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithLogger sets the structured logger. The default discards everything.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithEventSink registers the listener for session events.
func (b *Builder) WithEventSink(sink EventSink) *Builder {
	b.eventSink = sink
	return b
}

// WithTracerProvider sets the provider request spans come from. The default is
// the global provider.
func (b *Builder) WithTracerProvider(tp trace.TracerProvider) *Builder {
	b.tracerProvider = tp
	return b
}

// WithMetricsEnabled toggles Config.Metrics.Enabled.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles Config.Metrics.EnableLatencyHistograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns the Client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	origin, err := session.Origin(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	// -------- SESSION STORE --------
	store := b.store
	switch {
	case store != nil:
	case b.fileDir != "" && b.redis != nil:
		return nil, errors.New("file and redis session stores are mutually exclusive")
	case b.fileDir != "":
		fs, err := session.NewFileStore(b.fileDir, origin, cfg.Session.StorageName)
		if err != nil {
			return nil, err
		}
		store = fs
	case b.redis != nil:
		store = session.NewRedisStore(b.redis, b.redisPfx, origin, cfg.Session.StorageName)
	default:
		store = session.NewMemoryStore()
	}

	// -------- TRANSPORT --------
	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTP.Timeout}
	}

	tp := b.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	c := &Client{
		config:  cfg,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		origin:  origin,
		http:    httpClient,
		store:   store,
		logger:  b.logger.With().Str("component", "goAuthClient").Str("origin", origin).Logger(),
		tracer:  tp.Tracer(tracerName),
		events:  newEventEmitter(cfg.Events, b.eventSink),
		metrics: NewMetrics(cfg.Metrics),
	}

	b.built = true

	return c, nil
}
