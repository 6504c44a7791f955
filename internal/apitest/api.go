package apitest

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/goAuthClient/jwt"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AdminUsername is the only account allowed on /api/admin.
const AdminUsername = "admin"

// TokenTTL is the lifetime of issued access tokens.
const TokenTTL = time.Hour

const createdAtLayout = "2006-01-02T15:04:05.000000"

// ErrUserExists is returned by AddUser for a taken username or email.
var ErrUserExists = errors.New("user already exists")

// Request is one call recorded by the API.
type Request struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	UserAgent     string
}

// Stats pins the dashboard numbers.
type Stats struct {
	TotalUsers  int
	ActiveUsers int
}

type user struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
	IsActive     bool
}

func (u *user) toMap() gin.H {
	return gin.H{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"created_at": u.CreatedAt.UTC().Format(createdAtLayout),
		"is_active":  u.IsActive,
	}
}

type injected struct {
	status int
	body   gin.H
}

// API is the fake backend. All methods are safe for concurrent use.
type API struct {
	mu       sync.Mutex
	users    map[string]*user
	byID     map[int64]*user
	nextID   int64
	revoked  map[string]struct{}
	stats    *Stats
	requests []Request
	inject   map[string]injected

	tokens *jwt.Manager
	engine *gin.Engine
	now    func() time.Time
}

// New returns an API with no users.
func New() (*API, error) {
	tokens, err := jwt.NewManager(jwt.Config{
		TTL:           TokenTTL,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte("apitest-signing-secret-0123456789"),
		Issuer:        "apitest",
	})
	if err != nil {
		return nil, err
	}

	a := &API{
		users:   make(map[string]*user),
		byID:    make(map[int64]*user),
		revoked: make(map[string]struct{}),
		inject:  make(map[string]injected),
		tokens:  tokens,
		now:     time.Now,
	}
	a.engine = a.routes()
	return a, nil
}

// Handler returns the HTTP handler serving the API.
func (a *API) Handler() http.Handler {
	return a.engine
}

// AddUser creates an account directly and returns its id.
func (a *API) AddUser(username, email, password string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.users[username]; ok {
		return 0, ErrUserExists
	}
	for _, u := range a.users {
		if strings.EqualFold(u.Email, email) {
			return 0, ErrUserExists
		}
	}

	a.nextID++
	u := &user{
		ID:           a.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    a.now().UTC(),
		IsActive:     true,
	}
	a.users[username] = u
	a.byID[u.ID] = u
	return u.ID, nil
}

// DeleteUser removes an account. Tokens already issued for it keep verifying,
// so protected routes answer 404.
func (a *API) DeleteUser(username string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if u, ok := a.users[username]; ok {
		delete(a.users, username)
		delete(a.byID, u.ID)
	}
}

// IssueToken signs a token for an existing user.
func (a *API) IssueToken(username string) (string, error) {
	a.mu.Lock()
	u, ok := a.users[username]
	a.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("apitest: unknown user %q", username)
	}
	return a.tokens.Issue(strconv.FormatInt(u.ID, 10), u.Username)
}

// Revoke makes token answer 401 from now on, as an expired token would.
func (a *API) Revoke(token string) error {
	claims, err := a.tokens.Parse(token)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.revoked[claims.ID] = struct{}{}
	a.mu.Unlock()
	return nil
}

// SetStats pins the dashboard numbers. Without it they are computed from the users.
func (a *API) SetStats(s Stats) {
	a.mu.Lock()
	a.stats = &s
	a.mu.Unlock()
}

// FailNext makes the next request to method and path answer status with body.
func (a *API) FailNext(method, path string, status int, body map[string]any) {
	a.mu.Lock()
	a.inject[method+" "+path] = injected{status: status, body: body}
	a.mu.Unlock()
}

// Requests returns every recorded request in arrival order.
func (a *API) Requests() []Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Request, len(a.requests))
	copy(out, a.requests)
	return out
}

// RequestsTo returns the recorded requests for path.
func (a *API) RequestsTo(path string) []Request {
	var out []Request
	for _, r := range a.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Server is an API listening on a loopback httptest server.
type Server struct {
	*API
	URL string
	srv *httptest.Server
}

// NewServer starts an API on a random loopback port.
func NewServer() (*Server, error) {
	a, err := New()
	if err != nil {
		return nil, err
	}
	srv := httptest.NewServer(a.Handler())
	return &Server{API: a, URL: srv.URL, srv: srv}, nil
}

// Close shuts the listener down. Requests made afterwards fail at the network level.
func (s *Server) Close() {
	s.srv.Close()
}
