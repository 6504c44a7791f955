package goAuthClient

import (
	"context"
	"fmt"
	"net/http"
)

// GetDashboard fetches GET /api/dashboard.
func (c *Client) GetDashboard(ctx context.Context) (*Dashboard, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	var res Dashboard
	if err := c.Do(ctx, http.MethodGet, PathDashboard, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetDashboardStats returns only the stats block of the dashboard.
func (c *Client) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	d, err := c.GetDashboard(ctx)
	if err != nil {
		return nil, err
	}
	return &d.Data, nil
}

// GetProfile fetches GET /api/profile.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	var res Profile
	if err := c.Do(ctx, http.MethodGet, PathProfile, nil, &res); err != nil {
		return nil, err
	}
	if res.Profile == nil {
		return nil, fmt.Errorf("%w: response has no profile", ErrMalformedResponse)
	}
	return &res, nil
}

// GetAdminPanel fetches GET /api/admin. Non-admin sessions get ErrForbidden and
// keep their token.
func (c *Client) GetAdminPanel(ctx context.Context) (*AdminPanel, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	var res AdminPanel
	if err := c.Do(ctx, http.MethodGet, PathAdmin, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
