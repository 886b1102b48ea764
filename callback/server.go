package callback

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/pkce"
	"github.com/kbukum/authkit/server"
)

// ErrNotStarted is returned by Await before Start.
var ErrNotStarted = errors.New("callback: server not started")

var page = template.Must(template.New("callback").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family: sans-serif; margin: 4em auto; max-width: 32em">
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
</body>
</html>
`))

// Server is a loopback HTTP server that receives the OAuth redirect.
type Server struct {
	srv *server.Server
	log *logger.Logger

	results chan Result
	mu      sync.Mutex
	started bool
	claimed bool
}

// NewServer creates a callback server. A zero Config listens on an
// ephemeral loopback port.
func NewServer(cfg server.Config, log *logger.Logger) *Server {
	log = logger.OrDefault(log, "callback")
	srv := server.New(cfg, log)
	srv.ApplyMiddleware()
	srv.GinEngine().SetHTMLTemplate(page)
	return &Server{
		srv:     srv,
		log:     log,
		results: make(chan Result, 1),
	}
}

// Listen binds the port so Origin is known before any flow starts.
func (s *Server) Listen() error { return s.srv.Listen() }

// Origin returns the http origin the auth API should redirect to.
func (s *Server) Origin() (string, error) { return s.srv.URL() }

// Start mounts h at the callback path and begins serving.
func (s *Server) Start(ctx context.Context, h *Handler) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	s.srv.GinEngine().GET(pkce.CallbackPath, func(c *gin.Context) {
		if !s.claim() {
			s.log.Debug("ignoring repeated oauth callback")
			c.HTML(http.StatusConflict, "callback", gin.H{
				"Title":   "Already handled",
				"Message": "This sign-in was already completed. Return to the terminal.",
			})
			return
		}
		res := h.Handle(c.Request.Context(), c.Request.URL.Query())
		s.results <- res

		status, title, msg := http.StatusOK, "Signed in", "You can close this window and return to the terminal."
		if !res.OK() {
			status, title = http.StatusBadRequest, "Sign-in failed"
			msg = res.Error
			if msg == "" {
				msg = "The sign-in response did not include a token."
			}
		}
		c.HTML(status, "callback", gin.H{"Title": title, "Message": msg})
	})
	return s.srv.Start(ctx)
}

// claim reports whether this is the first callback. Later ones are answered
// without touching flow state or token storage.
func (s *Server) claim() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimed {
		return false
	}
	s.claimed = true
	return true
}

// Await blocks until the first callback arrives or ctx is done.
func (s *Server) Await(ctx context.Context) (Result, error) {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return Result{}, ErrNotStarted
	}

	select {
	case res := <-s.results:
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Stop shuts the listener down.
func (s *Server) Stop(ctx context.Context) error { return s.srv.Stop(ctx) }
