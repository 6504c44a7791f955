package guard

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	goAuthClient "github.com/MrEthical07/goAuthClient"
)

// ErrDenied is returned by a protected view when the guard refused entry.
var ErrDenied = errors.New("login required")

// State is the guard state for one check.
type State int

const (
	StateValidating State = iota
	StateAllowed
	StateDenied
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateAllowed:
		return "allowed"
	case StateDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Reason explains a decision.
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonNoToken: nothing stored, no network call was made.
	ReasonNoToken
	// ReasonUnauthorized: the probe answered 401 and the token was cleared.
	ReasonUnauthorized
	// ReasonNetwork: the probe got no response. The token is kept.
	ReasonNetwork
	// ReasonProbeFailed: the probe failed for another reason. The token is kept.
	ReasonProbeFailed
	// ReasonStoreError: the session store could not be read.
	ReasonStoreError
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNoToken:
		return "no_token"
	case ReasonUnauthorized:
		return "unauthorized"
	case ReasonNetwork:
		return "network"
	case ReasonProbeFailed:
		return "probe_failed"
	case ReasonStoreError:
		return "store_error"
	default:
		return "unknown"
	}
}

// Result is the outcome of one Check.
type Result struct {
	State  State
	Reason Reason
	User   *goAuthClient.UserProfile
	Err    error
}

// Authenticated reports whether the token was present and the probe confirmed it.
// A fail-open Allowed result is not authenticated.
func (r Result) Authenticated() bool {
	return r.State == StateAllowed && r.User != nil
}

// View renders a screen that needs a session. user is nil only under FailOpen.
type View func(ctx context.Context, user *goAuthClient.UserProfile) error

// Option configures a Guard.
type Option func(*Guard)

// WithRedirect sets the hook called on every denial, typically navigation to the
// login entry point.
func WithRedirect(fn func(ctx context.Context, res Result)) Option {
	return func(g *Guard) {
		g.redirect = fn
	}
}

// WithNetworkPolicy overrides the client's Guard.NetworkPolicy.
func WithNetworkPolicy(p goAuthClient.NetworkPolicy) Option {
	return func(g *Guard) {
		g.policy = p
	}
}

// Guard protects views behind session validation.
type Guard struct {
	client    *goAuthClient.Client
	policy    goAuthClient.NetworkPolicy
	loginPath string
	redirect  func(ctx context.Context, res Result)
}

// New returns a Guard for client.
func New(client *goAuthClient.Client, opts ...Option) *Guard {
	cfg := client.Config()
	g := &Guard{
		client:    client,
		policy:    cfg.Guard.NetworkPolicy,
		loginPath: cfg.Guard.LoginPath,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// LoginPath returns the login entry point denials redirect to.
func (g *Guard) LoginPath() string {
	return g.loginPath
}

// Check validates the current session.
func (g *Guard) Check(ctx context.Context) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	store := g.client.SessionStore()
	if store == nil {
		return g.deny(ReasonStoreError, goAuthClient.ErrClientNotReady)
	}

	token, ok, err := store.Get(ctx)
	if err != nil {
		return g.deny(ReasonStoreError, fmt.Errorf("%w: %v", goAuthClient.ErrSessionUnavailable, err))
	}
	if !ok || token == "" {
		return g.deny(ReasonNoToken, nil)
	}

	user, err := g.client.GetCurrentUser(ctx)
	switch {
	case err == nil:
		return g.allow(Result{State: StateAllowed, User: user})
	case errors.Is(err, goAuthClient.ErrUnauthorized):
		if clearErr := store.Clear(ctx); clearErr != nil {
			log := g.client.Logger()
			log.Error().Err(clearErr).Msg("guard: session clear failed")
		}
		return g.deny(ReasonUnauthorized, err)
	case errors.Is(err, goAuthClient.ErrNetwork):
		if g.policy == goAuthClient.FailOpen {
			return g.allow(Result{State: StateAllowed, Reason: ReasonNetwork, Err: err})
		}
		return g.deny(ReasonNetwork, err)
	default:
		return g.deny(ReasonProbeFailed, err)
	}
}

// Protect wraps view so that it only renders after an allowing Check. On denial the
// redirect hook runs and the wrapped view returns ErrDenied.
func (g *Guard) Protect(view View) View {
	return func(ctx context.Context, _ *goAuthClient.UserProfile) error {
		res := g.Check(ctx)
		if res.State != StateAllowed {
			if g.redirect != nil {
				g.redirect(ctx, res)
			}
			return deniedError(res)
		}
		return view(WithUser(ctx, res.User), res.User)
	}
}

// Middleware guards an HTTP handler. Denied requests are redirected to the login path.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := g.Check(r.Context())
		if res.State != StateAllowed {
			if g.redirect != nil {
				g.redirect(r.Context(), res)
			}
			http.Redirect(w, r, g.loginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), res.User)))
	})
}

func (g *Guard) allow(res Result) Result {
	g.client.Metrics().Inc(goAuthClient.MetricGuardAllowed)
	log := g.client.Logger()
	log.Debug().Str("reason", res.Reason.String()).Bool("authenticated", res.Authenticated()).Msg("guard allowed")
	return res
}

func (g *Guard) deny(reason Reason, err error) Result {
	g.client.Metrics().Inc(goAuthClient.MetricGuardDenied)
	log := g.client.Logger()
	log.Info().Str("reason", reason.String()).Err(err).Msg("guard denied")
	return Result{State: StateDenied, Reason: reason, Err: err}
}

func deniedError(res Result) error {
	if res.Err == nil {
		return fmt.Errorf("%w: %s", ErrDenied, res.Reason)
	}
	return fmt.Errorf("%w: %s: %w", ErrDenied, res.Reason, res.Err)
}
