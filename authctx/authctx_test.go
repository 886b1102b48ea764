package authctx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/session"
	"github.com/kbukum/authkit/tokenstore"
)

func newController(t *testing.T) *session.Controller {
	t.Helper()
	c, err := session.New(session.Config{APIURL: "http://127.0.0.1:1"},
		session.WithStorage(tokenstore.NewMemory()), session.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestControllerRoundTrip(t *testing.T) {
	c := newController(t)
	ctx := WithController(context.Background(), c)

	got, ok := Controller(ctx)
	if !ok || got != c {
		t.Fatalf("Controller() = %p, %v", got, ok)
	}
	if MustController(ctx) != c {
		t.Fatal("MustController returned a different controller")
	}
}

func TestControllerMissing(t *testing.T) {
	if _, ok := Controller(context.Background()); ok {
		t.Fatal("found a controller in an empty context")
	}
	if _, ok := Controller(WithController(context.Background(), nil)); ok {
		t.Fatal("nil controller reported as present")
	}
}

func TestMustControllerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustController(context.Background())
}

func TestInject(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := newController(t)

	e := gin.New()
	e.Use(Inject(c))
	e.GET("/", func(gc *gin.Context) {
		if MustController(gc.Request.Context()) != c {
			t.Error("request context does not carry the controller")
		}
		if v, _ := gc.Get(GinKey); v != c {
			t.Error("gin context does not carry the controller")
		}
		gc.Status(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status %d", rr.Code)
	}
}
