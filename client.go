package goAuthClient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/goAuthClient/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxResponseBytes = 1 << 20

// Client is the session-bound API client shared by every view. It is safe for
// concurrent use. Create it with [Builder.Build].
type Client struct {
	config  Config
	baseURL string
	origin  string
	http    *http.Client
	store   session.Store
	logger  zerolog.Logger
	tracer  trace.Tracer
	events  eventEmitter
	metrics *Metrics
}

// Config returns a copy of the configuration the Client was built with.
func (c *Client) Config() Config {
	if c == nil {
		return Config{}
	}
	return cloneConfig(c.config)
}

// Origin returns the scheme://host[:port] the session slot is scoped to.
func (c *Client) Origin() string {
	if c == nil {
		return ""
	}
	return c.origin
}

// SessionStore returns the token slot. The route guard reads it directly.
func (c *Client) SessionStore() session.Store {
	if c == nil {
		return nil
	}
	return c.store
}

// Logger returns the client logger.
func (c *Client) Logger() zerolog.Logger {
	if c == nil {
		return zerolog.Nop()
	}
	return c.logger
}

// Metrics returns the client counters.
func (c *Client) Metrics() *Metrics {
	if c == nil {
		return nil
	}
	return c.metrics
}

// MetricsSnapshot returns a copy of all counters.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil {
		return NewMetrics(MetricsConfig{}).Snapshot()
	}
	return c.metrics.Snapshot()
}

// EventsDropped returns the number of events the async dispatcher discarded.
func (c *Client) EventsDropped() uint64 {
	if c == nil || c.events == nil {
		return 0
	}
	return c.events.Dropped()
}

// HasSession reports whether a non-empty token is stored. It does not contact the API.
func (c *Client) HasSession(ctx context.Context) (bool, error) {
	if c == nil || c.store == nil {
		return false, ErrClientNotReady
	}
	token, ok, err := c.store.Get(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}
	return ok && token != "", nil
}

// Close flushes pending session events.
func (c *Client) Close() {
	if c == nil || c.events == nil {
		return
	}
	c.events.Close()
}

// Do sends one JSON request to path on the configured API and decodes a 2xx body
// into out.
//
// A stored non-empty token is attached as a bearer credential; with no token the
// Authorization header is omitted. A 401 answer clears the session store and emits
// one EventSessionInvalidated before Do returns. Non-2xx answers are returned as
// *APIError; requests with no response wrap ErrNetwork.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	if c == nil || c.http == nil || c.store == nil {
		return ErrClientNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	requestID := requestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	ctx, span := c.tracer.Start(ctx, "goAuthClient.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
			attribute.String("goauthclient.request_id", requestID),
		),
	)
	defer span.End()

	log := c.logger.With().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Logger()

	token, ok, err := c.store.Get(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
		failSpan(span, err)
		log.Error().Err(err).Msg("session store read failed")
		return err
	}
	hadToken := ok && token != ""

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			err = fmt.Errorf("%w: encode request body: %v", ErrValidation, err)
			failSpan(span, err)
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		err = fmt.Errorf("%w: build request: %v", ErrValidation, err)
		failSpan(span, err)
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.HTTP.UserAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if hadToken {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.metrics.Inc(MetricRequestSent)
	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	c.metrics.Observe(MetricRequestLatency, elapsed)

	if err != nil {
		c.metrics.Inc(MetricNetworkError)
		c.metrics.Inc(MetricRequestFailure)
		err = fmt.Errorf("%w: %v", ErrNetwork, err)
		failSpan(span, err)
		log.Debug().Err(err).Dur("duration", elapsed).Msg("request failed without response")
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.metrics.Inc(MetricNetworkError)
		c.metrics.Inc(MetricRequestFailure)
		err = fmt.Errorf("%w: read response: %v", ErrNetwork, err)
		failSpan(span, err)
		return err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	log.Debug().Int("status", resp.StatusCode).Dur("duration", elapsed).Msg("request completed")

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		if out != nil && len(bytes.TrimSpace(raw)) > 0 {
			if err := json.Unmarshal(raw, out); err != nil {
				c.metrics.Inc(MetricRequestFailure)
				err = fmt.Errorf("%w: %v", ErrMalformedResponse, err)
				failSpan(span, err)
				return err
			}
		}
		c.metrics.Inc(MetricRequestSuccess)
		return nil
	}

	c.metrics.Inc(MetricRequestFailure)
	apiErr := &APIError{
		Method:  method,
		Path:    path,
		Status:  resp.StatusCode,
		Message: errorMessage(raw, resp.StatusCode),
		Err:     kindForStatus(resp.StatusCode),
	}
	failSpan(span, apiErr)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		c.metrics.Inc(MetricUnauthorized)
		if err := c.invalidate(ctx, apiErr, requestID, hadToken); err != nil {
			return errors.Join(apiErr, err)
		}
	case http.StatusForbidden:
		c.metrics.Inc(MetricForbidden)
	}

	return apiErr
}

// invalidate runs the 401 side effect: clear the slot, then tell the navigator.
func (c *Client) invalidate(ctx context.Context, apiErr *APIError, requestID string, hadToken bool) error {
	var clearErr error
	if err := c.store.Clear(ctx); err != nil {
		clearErr = fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
		c.logger.Error().Err(clearErr).Str("path", apiErr.Path).Msg("session clear after 401 failed")
	}

	c.metrics.Inc(MetricSessionInvalidated)
	c.logger.Warn().
		Str("method", apiErr.Method).
		Str("path", apiErr.Path).
		Str("request_id", requestID).
		Bool("had_token", hadToken).
		Msg("session invalidated by 401")

	c.events.Emit(ctx, SessionEvent{
		Timestamp: time.Now().UTC(),
		Type:      EventSessionInvalidated,
		Origin:    c.origin,
		Method:    apiErr.Method,
		Path:      apiErr.Path,
		Status:    apiErr.Status,
		Message:   apiErr.Message,
		RequestID: requestID,
		HadToken:  hadToken,
	})

	return clearErr
}

func (c *Client) emit(ctx context.Context, t EventType) {
	c.events.Emit(ctx, SessionEvent{
		Timestamp: time.Now().UTC(),
		Type:      t,
		Origin:    c.origin,
	})
}

// errorMessage picks the server message: "error" first, then "msg". Anything
// else falls back to the status text.
func errorMessage(raw []byte, status int) string {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, key := range []string{"error", "msg"} {
			if s, ok := body[key].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return http.StatusText(status)
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
