package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authkit/authctx"
	"github.com/kbukum/authkit/authtest"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/session"
	"github.com/kbukum/authkit/tokenstore"
)

func init() { gin.SetMode(gin.TestMode) }

// newController returns a hydrated controller, signed in when signedIn is set.
func newController(t *testing.T, signedIn bool) *session.Controller {
	t.Helper()
	api := authtest.Start(t)
	store := tokenstore.NewMemory()
	if signedIn {
		u, err := api.AddUser(authtest.User{Email: "ada@example.com", Password: "pw"})
		if err != nil {
			t.Fatal(err)
		}
		tok, _ := api.TokenFor(u, time.Hour)
		store.SetToken(tok)
	}
	c, err := session.New(session.Config{APIURL: api.URL()}, session.WithStorage(store), session.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	return c
}

func newRouter(c *session.Controller) *gin.Engine {
	e := gin.New()
	e.Use(authctx.Inject(c))
	e.GET("/dashboard", Protected(""), func(gc *gin.Context) {
		u, ok := User(gc)
		if !ok {
			gc.Status(http.StatusInternalServerError)
			return
		}
		gc.String(http.StatusOK, u.ID)
	})
	e.GET("/login", PublicOnly(""), func(gc *gin.Context) { gc.String(http.StatusOK, "login page") })
	return e
}

func get(e *gin.Engine, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, http.NoBody))
	return rr
}

func TestProtected(t *testing.T) {
	t.Run("anonymous is redirected with from", func(t *testing.T) {
		rr := get(newRouter(newController(t, false)), "/dashboard?tab=2")
		if rr.Code != http.StatusFound {
			t.Fatalf("status %d", rr.Code)
		}
		loc, _ := url.Parse(rr.Header().Get("Location"))
		if loc.Path != DefaultLoginPath || loc.Query().Get(ParamFrom) != "/dashboard?tab=2" {
			t.Fatalf("location %s", loc)
		}
	})

	t.Run("authenticated passes with user", func(t *testing.T) {
		c := newController(t, true)
		rr := get(newRouter(c), "/dashboard")
		if rr.Code != http.StatusOK || rr.Body.String() != c.State().User.ID {
			t.Fatalf("got %d %q", rr.Code, rr.Body.String())
		}
	})
}

func TestPublicOnly(t *testing.T) {
	tests := []struct {
		name     string
		signedIn bool
		target   string
		wantCode int
		wantLoc  string
	}{
		{"anonymous sees page", false, "/login", http.StatusOK, ""},
		{"authenticated goes home", true, "/login", http.StatusFound, "/"},
		{"authenticated returns to from", true, "/login?from=%2Fdashboard", http.StatusFound, "/dashboard"},
		{"off-site from ignored", true, "/login?from=%2F%2Fevil.example", http.StatusFound, "/"},
		{"absolute from ignored", true, "/login?from=https%3A%2F%2Fevil.example", http.StatusFound, "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(newRouter(newController(t, tt.signedIn)), tt.target)
			if rr.Code != tt.wantCode {
				t.Fatalf("status %d, want %d", rr.Code, tt.wantCode)
			}
			if got := rr.Header().Get("Location"); got != tt.wantLoc {
				t.Errorf("location %q, want %q", got, tt.wantLoc)
			}
		})
	}
}

func TestProtectedWithoutInjectPanics(t *testing.T) {
	e := gin.New()
	e.GET("/x", Protected("/login"))
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for missing controller")
		}
	}()
	get(e, "/x")
}
