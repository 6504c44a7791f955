package guard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/internal/apitest"
	"github.com/MrEthical07/goAuthClient/session"
)

type guardEnv struct {
	client *goAuthClient.Client
	api    *apitest.Server
	store  *session.MemoryStore
}

func newGuardEnv(t *testing.T, mutate func(*goAuthClient.Config)) *guardEnv {
	t.Helper()
	api, err := apitest.NewServer()
	if err != nil {
		t.Fatalf("start api: %v", err)
	}
	t.Cleanup(api.Close)

	cfg := goAuthClient.DefaultConfig()
	cfg.BaseURL = api.URL
	cfg.Metrics.Enabled = true
	if mutate != nil {
		mutate(&cfg)
	}

	store := session.NewMemoryStore()
	client, err := goAuthClient.New().WithConfig(cfg).WithSessionStore(store).Build()
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	t.Cleanup(client.Close)
	return &guardEnv{client: client, api: api, store: store}
}

func (e *guardEnv) login(t *testing.T, username string) string {
	t.Helper()
	if _, err := e.api.AddUser(username, username+"@example.com", "pw"); err != nil {
		t.Fatalf("add user: %v", err)
	}
	tok, err := e.api.IssueToken(username)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := e.store.Set(context.Background(), tok); err != nil {
		t.Fatalf("set: %v", err)
	}
	return tok
}

func (e *guardEnv) token(t *testing.T) (string, bool) {
	t.Helper()
	tok, ok, _ := e.store.Get(context.Background())
	return tok, ok
}

func TestCheckNoTokenMakesNoNetworkCall(t *testing.T) {
	env := newGuardEnv(t, nil)

	res := New(env.client).Check(context.Background())
	if res.State != StateDenied || res.Reason != ReasonNoToken {
		t.Fatalf("expected denied/no_token, got %v/%v", res.State, res.Reason)
	}
	if n := len(env.api.Requests()); n != 0 {
		t.Fatalf("expected no network call, got %d", n)
	}
}

func TestCheckValidTokenAllows(t *testing.T) {
	env := newGuardEnv(t, nil)
	env.login(t, "alice")

	res := New(env.client).Check(context.Background())
	if res.State != StateAllowed || !res.Authenticated() {
		t.Fatalf("expected authenticated allow, got %+v", res)
	}
	if res.User.Username != "alice" {
		t.Fatalf("unexpected user %+v", res.User)
	}
	if got := env.client.Metrics().Value(goAuthClient.MetricGuardAllowed); got != 1 {
		t.Fatalf("expected MetricGuardAllowed=1, got %d", got)
	}
}

func TestCheckUnauthorizedClearsToken(t *testing.T) {
	env := newGuardEnv(t, nil)
	tok := env.login(t, "alice")
	if err := env.api.Revoke(tok); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	res := New(env.client).Check(context.Background())
	if res.State != StateDenied || res.Reason != ReasonUnauthorized {
		t.Fatalf("expected denied/unauthorized, got %v/%v", res.State, res.Reason)
	}
	if !errors.Is(res.Err, goAuthClient.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized cause, got %v", res.Err)
	}
	if _, ok := env.token(t); ok {
		t.Fatal("expected token cleared")
	}
}

func TestCheckNetworkFailureFailsClosedKeepsToken(t *testing.T) {
	env := newGuardEnv(t, nil)
	tok := env.login(t, "alice")
	env.api.Close()

	res := New(env.client).Check(context.Background())
	if res.State != StateDenied || res.Reason != ReasonNetwork {
		t.Fatalf("expected denied/network, got %v/%v", res.State, res.Reason)
	}
	if got, ok := env.token(t); !ok || got != tok {
		t.Fatal("expected token untouched on network failure")
	}
}

func TestCheckNetworkFailureFailOpen(t *testing.T) {
	env := newGuardEnv(t, func(c *goAuthClient.Config) { c.Guard.NetworkPolicy = goAuthClient.FailOpen })
	tok := env.login(t, "alice")
	env.api.Close()

	res := New(env.client).Check(context.Background())
	if res.State != StateAllowed || res.Authenticated() || res.User != nil {
		t.Fatalf("expected unauthenticated allow, got %+v", res)
	}
	if got, ok := env.token(t); !ok || got != tok {
		t.Fatal("expected token untouched under fail open")
	}

	res = New(env.client, WithNetworkPolicy(goAuthClient.FailClosed)).Check(context.Background())
	if res.State != StateDenied {
		t.Fatalf("expected option to override policy, got %v", res.State)
	}
}

func TestCheckOtherProbeFailureKeepsToken(t *testing.T) {
	env := newGuardEnv(t, nil)
	tok := env.login(t, "alice")
	env.api.DeleteUser("alice")

	res := New(env.client).Check(context.Background())
	if res.State != StateDenied || res.Reason != ReasonProbeFailed {
		t.Fatalf("expected denied/probe_failed, got %v/%v", res.State, res.Reason)
	}
	if !errors.Is(res.Err, goAuthClient.ErrNotFound) {
		t.Fatalf("expected ErrNotFound cause, got %v", res.Err)
	}
	if got, ok := env.token(t); !ok || got != tok {
		t.Fatal("expected token untouched")
	}
}

type brokenStore struct{ session.MemoryStore }

func (*brokenStore) Get(context.Context) (string, bool, error) {
	return "", false, errors.New("disk gone")
}

func TestCheckStoreErrorDenies(t *testing.T) {
	client, err := goAuthClient.New().WithSessionStore(&brokenStore{}).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	res := New(client).Check(context.Background())
	if res.State != StateDenied || res.Reason != ReasonStoreError {
		t.Fatalf("expected denied/store_error, got %v/%v", res.State, res.Reason)
	}
	if !errors.Is(res.Err, goAuthClient.ErrSessionUnavailable) {
		t.Fatalf("expected ErrSessionUnavailable, got %v", res.Err)
	}
}

func TestProtectRendersOrRedirects(t *testing.T) {
	env := newGuardEnv(t, nil)

	var redirects []Result
	g := New(env.client, WithRedirect(func(_ context.Context, res Result) {
		redirects = append(redirects, res)
	}))

	rendered := 0
	view := g.Protect(func(ctx context.Context, user *goAuthClient.UserProfile) error {
		rendered++
		if u, ok := UserFromContext(ctx); !ok || u != user {
			t.Fatal("expected user on the view context")
		}
		return nil
	})

	err := view(context.Background(), nil)
	if !errors.Is(err, ErrDenied) {
		t.Fatalf("expected ErrDenied, got %v", err)
	}
	if rendered != 0 || len(redirects) != 1 {
		t.Fatalf("expected redirect without render, got rendered=%d redirects=%d", rendered, len(redirects))
	}

	env.login(t, "alice")
	if err := view(context.Background(), nil); err != nil {
		t.Fatalf("expected allowed render, got %v", err)
	}
	if rendered != 1 {
		t.Fatalf("expected one render, got %d", rendered)
	}
	if n := len(env.api.RequestsTo("/api/auth/me")); n != 1 {
		t.Fatalf("expected one probe, got %d", n)
	}

	_ = view(context.Background(), nil)
	if n := len(env.api.RequestsTo("/api/auth/me")); n != 2 {
		t.Fatalf("expected every entry to probe again, got %d", n)
	}
}

func TestProtectedCall401ThenGuardDenies(t *testing.T) {
	env := newGuardEnv(t, nil)
	tok := env.login(t, "alice")
	if err := env.api.Revoke(tok); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if _, err := env.client.GetDashboard(context.Background()); !errors.Is(err, goAuthClient.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, ok := env.token(t); ok {
		t.Fatal("expected session cleared by the 401")
	}

	before := len(env.api.Requests())
	res := New(env.client).Check(context.Background())
	if res.State != StateDenied || res.Reason != ReasonNoToken {
		t.Fatalf("expected denied/no_token, got %v/%v", res.State, res.Reason)
	}
	if len(env.api.Requests()) != before {
		t.Fatal("expected guard to skip the network once the token is gone")
	}
}

func TestMiddlewareRedirectsToLogin(t *testing.T) {
	env := newGuardEnv(t, func(c *goAuthClient.Config) { c.Guard.LoginPath = "/signin" })
	g := New(env.client)

	h := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok {
			t.Fatal("expected user in request context")
		}
		_, _ = w.Write([]byte(u.Username))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/signin" {
		t.Fatalf("expected redirect to /signin, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	env.login(t, "alice")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "alice" {
		t.Fatalf("expected guarded handler to run, got %d %q", rec.Code, rec.Body.String())
	}
}
