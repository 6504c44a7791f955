package goAuthClient

import (
	"strings"
	"time"
)

// UserProfile is the user record returned by the API. It is never cached by the Client.
type UserProfile struct {
	ID        int64  `json:"id,omitempty"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
	IsActive  *bool  `json:"is_active,omitempty"`
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// MemberSince parses CreatedAt. The API may send RFC 3339 or a zone-less ISO
// timestamp; zone-less values are read as UTC.
func (u *UserProfile) MemberSince() (time.Time, bool) {
	if u == nil {
		return time.Time{}, false
	}
	raw := strings.TrimSpace(u.CreatedAt)
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DashboardStats holds the aggregate numbers shown on the dashboard.
type DashboardStats struct {
	TotalUsers  int `json:"total_users"`
	ActiveUsers int `json:"active_users"`
}

// Dashboard is the body of GET /api/dashboard.
type Dashboard struct {
	Message string         `json:"message"`
	User    *UserProfile   `json:"user"`
	Data    DashboardStats `json:"data"`
}

// ProfileStats is the stats block of GET /api/profile.
type ProfileStats struct {
	AccountAgeDays int  `json:"account_age_days"`
	IsActive       bool `json:"is_active"`
}

// Profile is the body of GET /api/profile.
type Profile struct {
	Profile *UserProfile `json:"profile"`
	Stats   ProfileStats `json:"stats"`
}

// AdminPanel is the body of GET /api/admin.
type AdminPanel struct {
	Message    string         `json:"message"`
	Users      []*UserProfile `json:"users"`
	TotalUsers int            `json:"total_users"`
}

// LoginResult is a successful login answer. The token is not persisted until the
// caller passes it to EstablishSession.
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	User        *UserProfile `json:"user,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type currentUserResponse struct {
	User *UserProfile `json:"user"`
}
