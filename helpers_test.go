package goAuthClient

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/goAuthClient/internal/apitest"
	"github.com/MrEthical07/goAuthClient/session"
)

type testEnv struct {
	client *Client
	api    *apitest.Server
	store  session.Store
	sink   *recordingSink
}

func newTestClient(t *testing.T, store session.Store) *testEnv {
	t.Helper()

	api, err := apitest.NewServer()
	if err != nil {
		t.Fatalf("start api: %v", err)
	}
	t.Cleanup(api.Close)

	if store == nil {
		store = session.NewMemoryStore()
	}
	sink := &recordingSink{}

	client, err := New().
		WithBaseURL(api.URL).
		WithSessionStore(store).
		WithEventSink(sink).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	t.Cleanup(client.Close)

	return &testEnv{client: client, api: api, store: store, sink: sink}
}

func (e *testEnv) addUser(t *testing.T, username, password string) {
	t.Helper()
	if _, err := e.api.AddUser(username, username+"@example.com", password); err != nil {
		t.Fatalf("add user: %v", err)
	}
}

// loginAs stores a valid token for username without going through Login.
func (e *testEnv) loginAs(t *testing.T, username string) string {
	t.Helper()
	tok, err := e.api.IssueToken(username)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if err := e.store.Set(context.Background(), tok); err != nil {
		t.Fatalf("set token: %v", err)
	}
	return tok
}

func (e *testEnv) storedToken(t *testing.T) (string, bool) {
	t.Helper()
	tok, ok, err := e.store.Get(context.Background())
	if err != nil {
		t.Fatalf("store get: %v", err)
	}
	return tok, ok
}

var errBackendDown = errors.New("backend down")

// faultyStore wraps a MemoryStore and fails the configured operations.
type faultyStore struct {
	*session.MemoryStore
	getErr   error
	setErr   error
	clearErr error
}

func newFaultyStore() *faultyStore {
	return &faultyStore{MemoryStore: session.NewMemoryStore()}
}

func (s *faultyStore) Get(ctx context.Context) (string, bool, error) {
	if s.getErr != nil {
		return "", false, s.getErr
	}
	return s.MemoryStore.Get(ctx)
}

func (s *faultyStore) Set(ctx context.Context, token string) error {
	if s.setErr != nil {
		return s.setErr
	}
	return s.MemoryStore.Set(ctx, token)
}

func (s *faultyStore) Clear(ctx context.Context) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	return s.MemoryStore.Clear(ctx)
}
