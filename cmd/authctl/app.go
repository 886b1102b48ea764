package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kbukum/authkit/callback"
	"github.com/kbukum/authkit/config"
	"github.com/kbukum/authkit/httpclient"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/observability"
	"github.com/kbukum/authkit/pkce"
	"github.com/kbukum/authkit/redis"
	"github.com/kbukum/authkit/session"
	"github.com/kbukum/authkit/statestore"
	"github.com/kbukum/authkit/tokenstore"
)

// flowStateKeyPrefix namespaces OAuth flow state in Redis.
const flowStateKeyPrefix = "oauth"

// app holds the collaborators one command invocation needs.
type app struct {
	cfg      config.Config
	log      *logger.Logger
	storage  tokenstore.Storage
	client   *httpclient.Client
	ctrl     *session.Controller
	callback *callback.Server
	engine   *pkce.Engine
	closers  []func(context.Context) error
}

// appOptions enable the optional OAuth wiring.
type appOptions struct {
	oauth        bool
	navigator    pkce.Navigator
	callbackPort int
	returnPath   string
}

func loadConfig(opts *rootOptions) (config.Config, error) {
	var cfg config.Config
	loaderOpts := config.Options()
	if opts.configFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(opts.configFile))
	}
	if err := config.Load(config.ServiceName, &cfg, loaderOpts...); err != nil {
		return cfg, err
	}

	if opts.apiURL != "" {
		cfg.Session.APIURL = opts.apiURL
		cfg.HTTP.BaseURL = opts.apiURL
	}
	if opts.store != "" {
		cfg.Storage.Backend = opts.store
	}
	if opts.storePath != "" {
		cfg.Storage.Path = opts.storePath
	}
	if opts.debug {
		cfg.Debug = true
		cfg.Logging.Level = "debug"
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context, opts *rootOptions, ao appOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	log := logger.New(&cfg.Logging, cfg.Name)
	logger.SetGlobalLogger(log)

	a := &app{cfg: cfg, log: log}
	ok := false
	defer func() {
		if !ok {
			a.Close(context.WithoutCancel(ctx))
		}
	}()

	shutdown, err := observability.Init(ctx, cfg.Telemetry)
	if err != nil {
		log.Warn("telemetry disabled", logger.ErrorFields("observability_init", err))
	} else {
		a.closers = append(a.closers, shutdown)
	}

	a.storage = tokenstore.New(ctx, cfg.Storage, log)
	if c, isCloser := a.storage.(io.Closer); isCloser {
		a.closers = append(a.closers, func(context.Context) error { return c.Close() })
	}

	httpCfg := cfg.HTTP
	httpCfg.Retry = httpclient.DefaultRetryConfig()
	a.client, err = httpclient.New(httpCfg)
	if err != nil {
		return nil, fmt.Errorf("http client: %w", err)
	}

	if ao.oauth {
		if err := a.startOAuth(ctx, ao); err != nil {
			return nil, err
		}
	}
	if ao.returnPath != "" {
		returnPath := ao.returnPath
		a.cfg.Session.CurrentPath = func() string { return returnPath }
	}

	if err := a.hydrate(ctx); err != nil {
		return nil, err
	}
	ok = true
	return a, nil
}

// hydrate creates a controller over the app storage and waits for it to
// load the stored session.
func (a *app) hydrate(ctx context.Context) error {
	opts := []session.Option{
		session.WithStorage(a.storage),
		session.WithHTTPClient(a.client),
		session.WithLogger(a.log),
	}
	if a.engine != nil {
		opts = append(opts, session.WithEngine(a.engine))
	}
	ctrl, err := session.New(a.cfg.Session, opts...)
	if err != nil {
		return err
	}
	if err := ctrl.Wait(ctx); err != nil {
		return err
	}
	a.ctrl = ctrl
	return nil
}

func (a *app) startOAuth(ctx context.Context, ao appOptions) error {
	states, err := a.flowStates(ctx)
	if err != nil {
		return err
	}

	cbCfg := a.cfg.Callback
	if ao.callbackPort != 0 {
		cbCfg.Port = ao.callbackPort
	}
	a.callback = callback.NewServer(cbCfg, a.log)
	if err := a.callback.Listen(); err != nil {
		return fmt.Errorf("callback listener: %w", err)
	}
	a.closers = append(a.closers, a.callback.Stop)

	origin, err := a.callback.Origin()
	if err != nil {
		return err
	}
	engineOpts := []pkce.Option{pkce.WithLogger(a.log)}
	if a.cfg.FlowState.TTL > 0 {
		engineOpts = append(engineOpts, pkce.WithStateTTL(a.cfg.FlowState.TTL))
	}
	a.engine = pkce.NewEngine(states, ao.navigator, origin, engineOpts...)

	return a.callback.Start(ctx, callback.NewHandler(a.engine, a.storage, a.log))
}

func (a *app) flowStates(ctx context.Context) (statestore.Store[pkce.FlowState], error) {
	if a.cfg.FlowState.Backend != config.FlowStateRedis {
		return statestore.NewMemory[pkce.FlowState](), nil
	}
	client, err := redis.New(a.cfg.FlowState.Redis, a.log)
	if err != nil {
		return nil, fmt.Errorf("flow state redis: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("flow state redis: %w", err)
	}
	return statestore.NewRedis[pkce.FlowState](client, flowStateKeyPrefix), nil
}

// Close releases everything newApp opened, newest first.
func (a *app) Close(ctx context.Context) {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil && a.log != nil {
		a.log.Debug("shutdown", logger.ErrorFields("close", err))
	}
}
