package pkce

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/statestore"
)

const (
	// StateKey is the fixed key flow state is stored under.
	StateKey = "werkcontext_oauth_state"
	// CallbackPath is where providers send the user back to.
	CallbackPath = "/auth/callback"
	// DefaultStateTTL bounds how long a started flow can be resumed.
	DefaultStateTTL = 10 * time.Minute
)

// ErrInvalidEndpoint is returned for authorization endpoints that are not absolute URLs.
var ErrInvalidEndpoint = errors.New("pkce: authorization endpoint must be an absolute URL")

// FlowState is what a started flow leaves behind for its callback.
type FlowState struct {
	CodeVerifier string   `json:"codeVerifier"`
	ReturnPath   string   `json:"returnPath"`
	Provider     Provider `json:"provider"`
	Nonce        string   `json:"nonce"`
}

// Engine starts and resumes PKCE flows.
type Engine struct {
	store     statestore.Store[FlowState]
	navigator Navigator
	origin    string
	random    io.Reader
	ttl       time.Duration
	log       *logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRandom replaces the random source. Intended for tests.
func WithRandom(r io.Reader) Option { return func(e *Engine) { e.random = r } }

// WithStateTTL changes how long flow state is kept.
func WithStateTTL(ttl time.Duration) Option { return func(e *Engine) { e.ttl = ttl } }

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option { return func(e *Engine) { e.log = l } }

// NewEngine creates an Engine. origin is the scheme and host the provider
// redirects back to, e.g. http://127.0.0.1:8765.
func NewEngine(store statestore.Store[FlowState], navigator Navigator, origin string, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		navigator: navigator,
		origin:    strings.TrimRight(origin, "/"),
		random:    rand.Reader,
		ttl:       DefaultStateTTL,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = logger.OrDefault(e.log, "pkce")
	return e
}

// Origin returns the callback origin.
func (e *Engine) Origin() string { return e.origin }

// CallbackURL returns the absolute redirect_uri sent to providers.
func (e *Engine) CallbackURL() string { return e.origin + CallbackPath }

// StoreFlowState saves state under StateKey, replacing any earlier flow.
func (e *Engine) StoreFlowState(ctx context.Context, state FlowState) error {
	if err := e.store.Save(ctx, StateKey, &state, e.ttl); err != nil {
		return fmt.Errorf("pkce: store flow state: %w", err)
	}
	return nil
}

// RetrieveFlowState consumes the stored flow state. It returns nil when none
// is stored or when the stored content cannot be read.
func (e *Engine) RetrieveFlowState(ctx context.Context) *FlowState {
	state, err := e.store.Take(ctx, StateKey)
	if err != nil {
		e.log.Warn("discarding unreadable flow state", logger.ErrorFields("retrieve_flow_state", err))
		return nil
	}
	return state
}

// BuildRedirectURL returns authEndpoint with the provider and redirect_uri
// query parameters set.
func (e *Engine) BuildRedirectURL(provider Provider, authEndpoint string) (string, error) {
	u, err := url.Parse(authEndpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidEndpoint, authEndpoint)
	}
	q := u.Query()
	q.Set("provider", string(provider))
	q.Set("redirect_uri", e.CallbackURL())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// InitiateOAuthFlow generates PKCE values, stores the flow state and then
// navigates to the provider. The state is stored before navigation starts;
// if storing fails nothing is opened. An empty returnPath means "/".
// The returned string is the URL handed to the Navigator.
func (e *Engine) InitiateOAuthFlow(ctx context.Context, provider Provider, authEndpoint, returnPath string) (string, error) {
	if !provider.Valid() {
		return "", fmt.Errorf("pkce: unknown provider %q", provider)
	}
	if returnPath == "" {
		returnPath = "/"
	}

	redirect, err := e.BuildRedirectURL(provider, authEndpoint)
	if err != nil {
		return "", err
	}
	params, err := generateParams(e.random)
	if err != nil {
		return "", err
	}
	nonce, err := randomString(e.random, nonceBytes)
	if err != nil {
		return "", err
	}

	state := FlowState{
		CodeVerifier: params.CodeVerifier,
		ReturnPath:   returnPath,
		Provider:     provider,
		Nonce:        nonce,
	}
	if err := e.StoreFlowState(ctx, state); err != nil {
		return "", err
	}

	e.log.Info("starting oauth flow", logger.Fields(
		logger.FieldProvider, string(provider),
		logger.FieldPath, returnPath,
	))
	if err := e.navigator.Navigate(ctx, redirect); err != nil {
		return redirect, fmt.Errorf("pkce: navigate: %w", err)
	}
	return redirect, nil
}
