package authtest

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/server"
	"github.com/kbukum/authkit/token"
)

// Routes served by the stub.
const (
	PathLogin      = "/auth/login"
	PathSignup     = "/auth/signup"
	PathLogout     = "/auth/logout"
	PathOAuthLogin = "/oauth/login"
)

// SessionCookie is set on sign-in and cleared on logout.
const SessionCookie = "authkit_session"

// Issuer is the iss claim of minted tokens.
const Issuer = "authtest"

// DefaultTokenTTL is the lifetime of minted tokens.
const DefaultTokenTTL = time.Hour

// User is an account known to the server.
type User struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
	TenantID    string
	Role        string
	Scopes      []string
}

type account struct {
	User
	hash string
}

// Request is a recorded call.
type Request struct {
	Method string
	Path   string
	Query  string
	Body   []byte
	Header http.Header
}

type scripted struct {
	status int
	body   string
	json   bool
}

// Server is the stub auth API.
type Server struct {
	srv    *server.Server
	url    string
	secret []byte
	log    *logger.Logger
	now    func() time.Time
	hasher Hasher

	mu       sync.Mutex
	accounts map[string]*account
	sessions map[string]string
	scripts  map[string][]scripted
	holds    map[string][]*Gate
	gates    []*Gate
	requests []Request
	latency  time.Duration
	tokenTTL time.Duration

	closeOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithSecret sets the HS256 signing key. Defaults to 32 random bytes.
func WithSecret(secret []byte) Option { return func(s *Server) { s.secret = secret } }

// WithClock sets the clock used for iat and exp.
func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option { return func(s *Server) { s.log = l } }

// WithHasher sets the password hasher. Defaults to bcrypt at minimum cost.
func WithHasher(h Hasher) Option { return func(s *Server) { s.hasher = h } }

// WithTokenTTL sets the lifetime of minted tokens.
func WithTokenTTL(ttl time.Duration) Option { return func(s *Server) { s.tokenTTL = ttl } }

// New starts a server on an ephemeral loopback port.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		now:      time.Now,
		tokenTTL: DefaultTokenTTL,
		accounts: make(map[string]*account),
		sessions: make(map[string]string),
		scripts:  make(map[string][]scripted),
		holds:    make(map[string][]*Gate),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.hasher == nil {
		s.hasher = NewBcryptHasher()
	}
	if len(s.secret) == 0 {
		s.secret = make([]byte, 32)
		if _, err := rand.Read(s.secret); err != nil {
			return nil, fmt.Errorf("authtest: secret: %w", err)
		}
	}

	s.srv = server.New(server.Config{Mode: gin.TestMode}, s.log)
	s.srv.ApplyMiddleware()
	s.routes(s.srv.GinEngine())

	if err := s.srv.Start(context.Background()); err != nil {
		return nil, err
	}
	url, err := s.srv.URL()
	if err != nil {
		return nil, err
	}
	s.url = url
	return s, nil
}

// Start is New for tests: it fails t on error and stops the server on cleanup.
func Start(t testing.TB, opts ...Option) *Server {
	t.Helper()
	s, err := New(opts...)
	if err != nil {
		t.Fatalf("authtest: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

// URL returns the server origin, e.g. http://127.0.0.1:53121.
func (s *Server) URL() string { return s.url }

// Close stops the server. Held requests are released first.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		for _, g := range s.gates {
			g.Release()
		}
		clear(s.holds)
		s.mu.Unlock()
		_ = s.srv.Stop(context.Background())
	})
}

// AddUser registers an account. A blank ID is generated.
func (s *Server) AddUser(u User) (User, error) {
	hash, err := s.hasher.Hash(u.Password)
	if err != nil {
		return User{}, fmt.Errorf("authtest: hash password: %w", err)
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	key := strings.ToLower(u.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[key]; ok {
		return User{}, fmt.Errorf("authtest: %s already registered", u.Email)
	}
	s.accounts[key] = &account{User: u, hash: hash}
	return u, nil
}

// MintToken signs claims with the server key.
func (s *Server) MintToken(claims token.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString(s.secret)
}

// TokenFor mints a token for u that expires after ttl.
func (s *Server) TokenFor(u User, ttl time.Duration) (string, error) {
	now := s.now()
	return s.MintToken(token.Claims{
		Subject:   u.ID,
		UserID:    u.ID,
		TenantID:  u.TenantID,
		Role:      u.Role,
		Scopes:    u.Scopes,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Issuer:    Issuer,
	})
}

// FailNext makes the next request to path answer status with
// {"success":false,"error":msg}.
func (s *Server) FailNext(path string, status int, msg string) {
	s.script(path, scripted{status: status, body: msg, json: true})
}

// RespondNextRaw makes the next request to path answer status with body
// verbatim as text/plain.
func (s *Server) RespondNextRaw(path string, status int, body string) {
	s.script(path, scripted{status: status, body: body})
}

func (s *Server) script(path string, sc scripted) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[path] = append(s.scripts[path], sc)
}

// SetLatency delays every response by d.
func (s *Server) SetLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency = d
}

// Hold parks the next request to path until the returned gate is released.
func (s *Server) Hold(path string) *Gate {
	g := &Gate{arrived: make(chan struct{}), release: make(chan struct{})}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holds[path] = append(s.holds[path], g)
	s.gates = append(s.gates, g)
	return g
}

// Requests returns the recorded calls to path, oldest first.
func (s *Server) Requests(path string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, r := range s.requests {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// ActiveSessions returns the number of session cookies not yet logged out.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Gate parks one request.
type Gate struct {
	arrived     chan struct{}
	release     chan struct{}
	arriveOnce  sync.Once
	releaseOnce sync.Once
}

// Arrived is closed once the held request reaches the server.
func (g *Gate) Arrived() <-chan struct{} { return g.arrived }

// Release lets the held request continue. It is safe to call more than once.
func (g *Gate) Release() { g.releaseOnce.Do(func() { close(g.release) }) }

func (g *Gate) wait(ctx context.Context) {
	g.arriveOnce.Do(func() { close(g.arrived) })
	select {
	case <-g.release:
	case <-ctx.Done():
	}
}

// intercept records the request and applies latency, holds and scripts.
func (s *Server) intercept(c *gin.Context) {
	body, _ := c.GetRawData()
	path := c.Request.URL.Path

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: c.Request.Method,
		Path:   path,
		Query:  c.Request.URL.RawQuery,
		Body:   body,
		Header: c.Request.Header.Clone(),
	})
	latency := s.latency
	var gate *Gate
	if gates := s.holds[path]; len(gates) > 0 {
		gate, s.holds[path] = gates[0], gates[1:]
	}
	var sc *scripted
	if scripts := s.scripts[path]; len(scripts) > 0 {
		sc, s.scripts[path] = &scripts[0], scripts[1:]
	}
	s.mu.Unlock()

	c.Set(bodyKey, body)

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-c.Request.Context().Done():
		}
	}
	if gate != nil {
		gate.wait(c.Request.Context())
	}
	if sc == nil {
		c.Next()
		return
	}
	if sc.json {
		c.AbortWithStatusJSON(sc.status, gin.H{"success": false, "error": sc.body})
		return
	}
	c.Data(sc.status, "text/plain; charset=utf-8", []byte(sc.body))
	c.Abort()
}
