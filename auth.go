package goAuthClient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
)

// API routes called by the Client. Session events carry them in SessionEvent.Path.
const (
	PathLogin     = "/api/auth/login"
	PathRegister  = "/api/auth/register"
	PathMe        = "/api/auth/me"
	PathDashboard = "/api/dashboard"
	PathProfile   = "/api/profile"
	PathAdmin     = "/api/admin"
)

// Login submits credentials to POST /api/auth/login.
//
// Login does not persist the returned token. A rejected login matches both
// ErrInvalidCredentials and ErrUnauthorized. The 401 is handled like any other, so
// the store has also been cleared when Login returns that error.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	if strings.TrimSpace(username) == "" || password == "" {
		c.metrics.Inc(MetricLoginFailure)
		return nil, fmt.Errorf("%w: username and password are required", ErrValidation)
	}

	var res LoginResult
	err := c.Do(ctx, http.MethodPost, PathLogin, loginRequest{
		Username: username,
		Password: password,
	}, &res)
	if err != nil {
		c.metrics.Inc(MetricLoginFailure)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			apiErr.also = ErrInvalidCredentials
		}
		return nil, err
	}
	if res.AccessToken == "" {
		c.metrics.Inc(MetricLoginFailure)
		return nil, fmt.Errorf("%w: login response has no access_token", ErrMalformedResponse)
	}

	c.metrics.Inc(MetricLoginSuccess)
	return &res, nil
}

// EstablishSession stores token as the active credential. It is the step a view
// performs after a successful Login.
func (c *Client) EstablishSession(ctx context.Context, token string) error {
	if c == nil || c.store == nil {
		return ErrClientNotReady
	}
	if token == "" {
		return fmt.Errorf("%w: token is empty", ErrValidation)
	}
	if err := c.store.Set(ctx, token); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}

	c.metrics.Inc(MetricSessionEstablished)
	c.logger.Info().Msg("session established")
	c.emit(ctx, EventSessionEstablished)
	return nil
}

// Register creates an account with POST /api/auth/register. It never touches the
// session store, even when the API answers with a token.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	if c == nil {
		return ErrClientNotReady
	}
	if err := validateRegistration(username, email, password); err != nil {
		c.metrics.Inc(MetricRegisterFailure)
		return err
	}

	err := c.Do(ctx, http.MethodPost, PathRegister, registerRequest{
		Username: username,
		Email:    email,
		Password: password,
	}, nil)
	if err != nil {
		c.metrics.Inc(MetricRegisterFailure)
		return err
	}

	c.metrics.Inc(MetricRegisterSuccess)
	return nil
}

func validateRegistration(username, email, password string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || password == "" {
		return fmt.Errorf("%w: username, email and password are required", ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	return nil
}

// GetCurrentUser fetches GET /api/auth/me. The route guard uses it as its
// session validation probe.
func (c *Client) GetCurrentUser(ctx context.Context) (*UserProfile, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	var res currentUserResponse
	if err := c.Do(ctx, http.MethodGet, PathMe, nil, &res); err != nil {
		return nil, err
	}
	if res.User == nil {
		return nil, fmt.Errorf("%w: response has no user", ErrMalformedResponse)
	}
	return res.User, nil
}

// Logout clears the stored token. It makes no remote call and is idempotent.
func (c *Client) Logout(ctx context.Context) error {
	if c == nil || c.store == nil {
		return ErrClientNotReady
	}
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}

	c.metrics.Inc(MetricLogout)
	c.logger.Info().Msg("logged out")
	c.emit(ctx, EventLogout)
	return nil
}
