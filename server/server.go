package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/server/middleware"
)

// ErrNotListening is returned when an operation needs a bound listener.
var ErrNotListening = errors.New("server: not listening")

// Server wraps a Gin engine in an http.Server whose lifecycle is split into
// Listen and Start, so the bound origin is known before anything is served.
type Server struct {
	cfg    Config
	engine *gin.Engine
	http   *http.Server
	log    *logger.Logger

	mu      sync.Mutex
	ln      net.Listener
	serving bool
}

// New builds a Server with a bare engine. Call ApplyMiddleware for the
// standard stack.
func New(cfg Config, log *logger.Logger) *Server {
	cfg.ApplyDefaults()
	log = logger.OrDefault(log, "server")

	mode := cfg.Mode
	if mode == "" {
		mode = gin.ReleaseMode
		if log.Enabled(zerolog.DebugLevel) && zerolog.GlobalLevel() <= zerolog.DebugLevel {
			mode = gin.DebugMode
		}
	}
	gin.SetMode(mode)

	engine := gin.New()
	return &Server{
		cfg:    cfg,
		engine: engine,
		log:    log,
		http: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

func (s *Server) GinEngine() *gin.Engine { return s.engine }

// ApplyMiddleware installs recovery, request IDs and request logging, in
// that order.
func (s *Server) ApplyMiddleware() {
	s.engine.Use(
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.RequestLogger(s.log),
	)
}

// Listen binds the configured address without serving. Repeated calls are
// no-ops.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bindLocked()
}

func (s *Server) bindLocked() error {
	if s.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("server: bind %s: %w", s.http.Addr, err)
	}
	s.ln = ln
	return nil
}

// Start binds if needed and serves in the background. It returns once the
// port is bound; a second call is a no-op.
func (s *Server) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.bindLocked(); err != nil {
		return err
	}
	if s.serving {
		return nil
	}
	s.serving = true

	ln := s.ln
	go func() {
		err := s.http.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve failed", logger.ErrorFields("serve", err))
		}
	}()
	s.log.Debug("listening", logger.Fields("addr", ln.Addr().String()))
	return nil
}

// Stop shuts the server down within the configured shutdown timeout. A
// server that was bound but never started just releases its port.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	serving, ln := s.serving, s.ln
	s.mu.Unlock()

	if !serving {
		if ln == nil {
			return nil
		}
		return ln.Close()
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		s.log.Warn("shutdown incomplete", logger.ErrorFields("shutdown", err))
		return fmt.Errorf("server: shutdown: %w", err)
	}
	s.log.Debug("stopped")
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return s.http.Addr
	}
	return s.ln.Addr().String()
}

// URL returns the http origin of the bound listener.
func (s *Server) URL() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return "", ErrNotListening
	}
	return "http://" + s.ln.Addr().String(), nil
}
