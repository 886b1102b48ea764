package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/httpclient"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/observability"
	"github.com/kbukum/authkit/pkce"
	"github.com/kbukum/authkit/token"
	"github.com/kbukum/authkit/tokenstore"
	"github.com/kbukum/authkit/validation"
)

// API routes.
const (
	PathLogin  = "/auth/login"
	PathSignup = "/auth/signup"
	PathLogout = "/auth/logout"
)

// Fallback messages when the server gives no reason.
const (
	msgLoginFailed  = "Login failed"
	msgSignupFailed = "Signup failed"
)

// ErrOAuthNotConfigured is returned by LoginWithOAuth without a pkce.Engine.
var ErrOAuthNotConfigured = errors.New("session: oauth is not configured")

// Controller owns the AuthState of one client session.
type Controller struct {
	cfg     Config
	storage tokenstore.Storage
	client  *httpclient.Client
	engine  *pkce.Engine
	codec   *token.Codec
	log     *logger.Logger
	tracer  trace.Tracer
	metrics *observability.Metrics

	// mu guards state, gen, seq and subs. Storage writes made by a commit
	// also happen under mu.
	mu    sync.Mutex
	state AuthState
	gen   uint64
	seq   uint64 // committed transitions
	subs  map[int]func(AuthState)
	subID int

	// notifyMu serializes commits with their notifications so subscribers
	// observe snapshots in commit order.
	notifyMu sync.Mutex

	ready chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithStorage sets the token storage. Defaults to tokenstore.NewMemory.
func WithStorage(s tokenstore.Storage) Option { return func(c *Controller) { c.storage = s } }

// WithHTTPClient sets the client used for auth API calls.
func WithHTTPClient(hc *httpclient.Client) Option { return func(c *Controller) { c.client = hc } }

// WithEngine enables LoginWithOAuth.
func WithEngine(e *pkce.Engine) Option { return func(c *Controller) { c.engine = e } }

// WithCodec replaces the token codec, e.g. to inject a clock.
func WithCodec(codec *token.Codec) Option { return func(c *Controller) { c.codec = codec } }

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option { return func(c *Controller) { c.log = l } }

// WithTracer sets the tracer. Defaults to the global authkit tracer.
func WithTracer(t trace.Tracer) Option { return func(c *Controller) { c.tracer = t } }

// WithMetrics sets the metric instruments. Nil disables metrics.
func WithMetrics(m *observability.Metrics) Option { return func(c *Controller) { c.metrics = m } }

// New creates a Controller and starts hydrating it from storage in the
// background. State reports IsLoading until hydration has finished; use
// Ready or Wait to block on it.
func New(cfg Config, opts ...Option) (*Controller, error) {
	cfg.ApplyDefaults()
	c := &Controller{
		cfg:   cfg,
		state: AuthState{IsLoading: true},
		subs:  make(map[int]func(AuthState)),
		ready: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.log = logger.OrDefault(c.log, "session")
	if c.storage == nil {
		c.storage = tokenstore.NewMemory()
	}
	if c.codec == nil {
		c.codec = token.NewCodec()
	}
	if c.tracer == nil {
		c.tracer = observability.Tracer(observability.InstrumentationName)
	}
	if c.metrics == nil {
		// Instruments on the global provider are no-ops until observability.Init runs.
		if m, err := observability.NewMetrics(observability.Meter(observability.InstrumentationName)); err == nil {
			c.metrics = m
		}
	}
	if c.client == nil {
		hc, err := httpclient.New(httpclient.Config{BaseURL: cfg.APIURL})
		if err != nil {
			return nil, fmt.Errorf("session: http client: %w", err)
		}
		c.client = hc
	}
	if cfg.AutoRefresh {
		c.log.Debug("auto refresh requested; tokens are only checked for validity, never renewed")
	}

	go c.hydrate()
	return c, nil
}

// Ready is closed once hydration has completed.
func (c *Controller) Ready() <-chan struct{} { return c.ready }

// Wait blocks until hydration has completed or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns a snapshot of the current state.
func (c *Controller) State() AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe registers fn to receive every committed state. fn runs
// synchronously on the committing goroutine and must not call Login, Signup,
// Logout or RefreshToken. The returned function removes the subscription.
func (c *Controller) Subscribe(fn func(AuthState)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.subID
	c.subID++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// GetToken reads the access token straight from storage.
func (c *Controller) GetToken() (string, bool) {
	return c.storage.Token()
}

// Storage returns the token storage the controller writes to.
func (c *Controller) Storage() tokenstore.Storage { return c.storage }

func (c *Controller) hydrate() {
	defer close(c.ready)

	start := time.Now()
	ctx, span := c.tracer.Start(context.Background(), "session.hydrate")
	defer span.End()

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	tok, ok := c.storage.Token()
	var user *token.User
	if ok && !c.codec.IsExpired(tok) {
		user = c.codec.ExtractUser(tok)
	}

	if user == nil {
		committed := c.commitWith(gen, c.storage.Clear, func(s *AuthState) { s.IsLoading = false })
		c.finish(ctx, span, "hydrate", "anonymous", committed, start)
		return
	}

	committed := c.commit(gen, func(s *AuthState) {
		*s = AuthState{User: user, Token: tok, IsAuthenticated: true}
	})
	if committed {
		c.notifyAuthChange(user)
	}
	c.finish(ctx, span, "hydrate", "authenticated", committed, start)
}

// Login exchanges credentials for a token.
func (c *Controller) Login(ctx context.Context, creds Credentials) Response {
	return c.authenticate(ctx, "login", PathLogin, msgLoginFailed, creds, creds)
}

// Signup creates an account and signs in with the returned token.
func (c *Controller) Signup(ctx context.Context, data SignupData) Response {
	return c.authenticate(ctx, "signup", PathSignup, msgSignupFailed, data, data.wire())
}

func (c *Controller) authenticate(ctx context.Context, transition, path, fallback string, input, body any) Response {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "session."+transition)
	defer span.End()

	gen := c.begin(func(s *AuthState) {
		s.IsLoading = true
		s.Error = ""
	})
	span.SetAttributes(attribute.Int64(observability.AttrGeneration, int64(gen)))

	if err := validation.Validate(input); err != nil {
		return c.fail(ctx, span, transition, gen, "invalid_input", apperrors.Message(err), start)
	}

	resp, err := c.client.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: path, Body: body})
	if resp != nil {
		span.SetAttributes(attribute.String(observability.AttrRequestID, resp.RequestID))
	}

	var data apiResponse
	switch {
	case resp == nil:
		return c.fail(ctx, span, transition, gen, "transport", transportMessage(err, fallback), start)
	case resp.DecodeJSON(&data) != nil:
		return c.fail(ctx, span, transition, gen, "bad_response", fallback, start)
	case !resp.IsSuccess() || !data.Success:
		msg := data.Error
		if msg == "" {
			msg = fallback
		}
		return c.fail(ctx, span, transition, gen, "rejected", msg, start)
	}

	user := c.codec.ExtractUser(data.Token)
	if user == nil {
		return c.fail(ctx, span, transition, gen, "invalid_token", apperrors.InvalidToken().Message, start)
	}

	committed := c.commitWith(gen, func() {
		c.storage.SetToken(data.Token)
		if data.RefreshToken != "" {
			c.storage.SetRefreshToken(data.RefreshToken)
		}
	}, func(s *AuthState) {
		*s = AuthState{User: user, Token: data.Token, IsAuthenticated: true}
	})
	if committed {
		c.notifyAuthChange(user)
		span.SetAttributes(attribute.String(observability.AttrUserID, user.ID))
		c.log.Info(transition+" succeeded", logger.Fields(
			logger.FieldUserID, user.ID,
			logger.FieldTenantID, user.TenantID,
			logger.FieldToken, logger.Fingerprint(data.Token),
		))
	}
	c.finish(ctx, span, transition, "success", committed, start)
	return Response{Success: true, Token: data.Token}
}

// Logout tells the server the session ended, then clears local state. The
// server call is best effort: its failure is logged and ignored.
func (c *Controller) Logout(ctx context.Context) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "session.logout")
	defer span.End()

	gen := c.begin(nil)

	if _, err := c.client.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: PathLogout}); err != nil {
		c.log.Debug("logout request failed; clearing local session anyway", logger.ErrorFields("logout", err))
		span.RecordError(err)
	}

	committed := c.commitWith(gen, c.storage.Clear, func(s *AuthState) { *s = AuthState{} })
	if committed {
		c.notifyAuthChange(nil)
	}
	c.finish(ctx, span, "logout", "success", committed, start)
}

// LoginWithOAuth starts an OAuth flow for provider, returning the URL handed
// to the navigator. AuthState does not change; the session resumes once the
// callback has stored a token and a controller hydrates from it.
func (c *Controller) LoginWithOAuth(ctx context.Context, provider pkce.Provider) (string, error) {
	if c.engine == nil {
		return "", ErrOAuthNotConfigured
	}
	ctx, span := c.tracer.Start(ctx, "session.oauth", trace.WithAttributes(
		attribute.String(observability.AttrProvider, string(provider)),
	))
	defer span.End()

	returnPath := "/"
	if c.cfg.CurrentPath != nil {
		if p := c.cfg.CurrentPath(); p != "" {
			returnPath = p
		}
	}
	endpoint := strings.TrimRight(c.cfg.APIURL, "/") + c.cfg.OAuthLoginPath

	redirect, err := c.engine.InitiateOAuthFlow(ctx, provider, endpoint, returnPath)
	if err != nil {
		observability.SetSpanError(span, err)
		c.metrics.RecordFailure(ctx, "oauth", "initiate")
		return redirect, err
	}
	c.metrics.RecordTransition(ctx, "oauth", "redirected", 0)
	return redirect, nil
}

// RefreshToken reports whether the stored token is still usable. An unusable
// token is cleared along with the session, exactly like the local half of
// Logout. No refresh endpoint is called.
//
// The token is read together with the commit count, and the clear only
// happens if no transition has committed since, so a Login finishing
// meanwhile keeps its token.
func (c *Controller) RefreshToken(ctx context.Context) bool {
	c.mu.Lock()
	gen, seq := c.gen, c.seq
	tok, ok := c.storage.Token()
	c.mu.Unlock()
	if ok && !c.codec.IsExpired(tok) {
		return true
	}

	unchanged := func() bool { return gen == c.gen && seq == c.seq }
	if c.commitIf(unchanged, c.storage.Clear, func(s *AuthState) { *s = AuthState{} }) {
		c.notifyAuthChange(nil)
		c.metrics.RecordTransition(ctx, "refresh", "expired", 0)
	}
	return false
}

// begin starts a new generation, applies mutate (if any) and notifies.
func (c *Controller) begin(mutate func(*AuthState)) uint64 {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	c.gen++
	gen := c.gen
	if mutate != nil {
		mutate(&c.state)
	}
	snapshot, subs := c.state.clone(), c.subscribers()
	c.mu.Unlock()

	if mutate != nil {
		publish(snapshot, subs)
	}
	return gen
}

// commit applies mutate if gen is still current.
func (c *Controller) commit(gen uint64, mutate func(*AuthState)) bool {
	return c.commitWith(gen, nil, mutate)
}

// commitWith runs sideEffect and mutate atomically with respect to other
// commits, but only if gen is still current. Subscribers are notified after.
func (c *Controller) commitWith(gen uint64, sideEffect func(), mutate func(*AuthState)) bool {
	return c.commitIf(func() bool { return gen == c.gen }, sideEffect, mutate)
}

// commitIf is commitWith with an arbitrary currency check, evaluated with
// mu held. Storage is only touched once current has passed.
func (c *Controller) commitIf(current func() bool, sideEffect func(), mutate func(*AuthState)) bool {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if !current() {
		gen := c.gen
		c.mu.Unlock()
		c.log.Debug("discarding stale session transition", logger.Fields("current_generation", gen))
		return false
	}
	if sideEffect != nil {
		sideEffect()
	}
	mutate(&c.state)
	c.seq++
	snapshot, subs := c.state.clone(), c.subscribers()
	c.mu.Unlock()

	publish(snapshot, subs)
	return true
}

// subscribers must be called with mu held.
func (c *Controller) subscribers() []func(AuthState) {
	subs := make([]func(AuthState), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	return subs
}

func publish(s AuthState, subs []func(AuthState)) {
	for _, fn := range subs {
		fn(s.clone())
	}
}

func (c *Controller) notifyAuthChange(user *token.User) {
	if c.cfg.OnAuthChange == nil {
		return
	}
	if user != nil {
		u := *user
		user = &u
	}
	c.cfg.OnAuthChange(user)
}

// fail records a failed login or signup and returns its Response.
func (c *Controller) fail(ctx context.Context, span trace.Span, transition string, gen uint64, reason, msg string, start time.Time) Response {
	committed := c.commit(gen, func(s *AuthState) {
		s.IsLoading = false
		s.Error = msg
	})

	span.SetAttributes(attribute.String(observability.AttrOutcome, "failure"))
	observability.SetSpanError(span, errors.New(msg))
	c.metrics.RecordFailure(ctx, transition, reason)
	c.metrics.RecordTransition(ctx, transition, "failure", time.Since(start))

	c.log.Info(transition+" failed", logger.Fields(
		logger.FieldOperation, transition,
		logger.FieldStatus, reason,
		logger.FieldError, msg,
		logger.FieldGeneration, gen,
		"committed", committed,
	))
	return Response{Success: false, Error: msg}
}

func (c *Controller) finish(ctx context.Context, span trace.Span, transition, outcome string, committed bool, start time.Time) {
	if !committed {
		outcome = "stale"
	}
	span.SetAttributes(attribute.String(observability.AttrOutcome, outcome))
	c.metrics.RecordTransition(ctx, transition, outcome, time.Since(start))
	c.log.Debug("session transition", logger.Fields(
		logger.FieldOperation, transition,
		logger.FieldStatus, outcome,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
}

// transportMessage is the user-facing text for a failure that produced no
// response.
func transportMessage(err error, fallback string) string {
	var httpErr *httpclient.Error
	if errors.As(err, &httpErr) {
		return httpErr.ToAppError("the auth server").Message
	}
	if err != nil {
		return apperrors.Message(err)
	}
	return fallback
}
