package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// DefaultStorageName is the fixed name the token slot is persisted under.
const DefaultStorageName = "token"

// ErrStoreUnavailable wraps backend failures (disk, Redis) of a persistent Store.
var ErrStoreUnavailable = errors.New("session store unavailable")

// ErrInvalidOrigin is returned by [Origin] for URLs without a scheme or host.
var ErrInvalidOrigin = errors.New("invalid origin")

// Store is a persisted slot holding at most one credential token.
//
// Get reports ok=false when no token is stored. Set replaces any prior value
// without inspecting it. Clear removes the value and must not fail when the slot
// is already empty.
type Store interface {
	Get(ctx context.Context) (token string, ok bool, err error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Origin returns the scheme://host[:port] scope of rawURL. Scheme and host are
// lower-cased and default ports (80 for http, 443 for https) are dropped, so
// "HTTP://Api.Example.com:80/x" and "http://api.example.com" share one scope.
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidOrigin, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidOrigin, rawURL)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return scheme + "://" + host + ":" + port, nil
	}
	return scheme + "://" + host, nil
}
