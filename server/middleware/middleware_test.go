package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/server/middleware"
)

func init() { gin.SetMode(gin.TestMode) }

func newEngine(log *logger.Logger, h gin.HandlerFunc) *gin.Engine {
	e := gin.New()
	e.Use(middleware.Recovery(log), middleware.RequestID(), middleware.RequestLogger(log))
	e.GET("/test", h)
	return e
}

func TestRecovery_NoPanic(t *testing.T) {
	e := newEngine(logger.Nop(), func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, httptest.NewRequest("GET", "/test", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRecovery_Panic(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)
	e := newEngine(log, func(*gin.Context) { panic("test panic") })

	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, httptest.NewRequest("GET", "/test", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body["error"] != "Internal server error" || body["success"] != false {
		t.Fatalf("unexpected body: %v", body)
	}
	if !strings.Contains(buf.String(), "handler panicked") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}

func TestRequestID_GeneratesID(t *testing.T) {
	var seen string
	e := newEngine(logger.Nop(), func(c *gin.Context) {
		seen = c.GetString(middleware.RequestIDKey)
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, httptest.NewRequest("GET", "/test", http.NoBody))

	got := rr.Header().Get(middleware.RequestIDHeader)
	if got == "" {
		t.Fatal("expected X-Request-Id in response headers")
	}
	if seen != got {
		t.Errorf("context id %q != header id %q", seen, got)
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	e := newEngine(logger.Nop(), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("GET", "/test", http.NoBody)
	req.Header.Set("X-Request-ID", "existing-id")
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)

	if got := rr.Header().Get(middleware.RequestIDHeader); got != "existing-id" {
		t.Fatalf("expected existing-id, got %s", got)
	}
}

func TestRequestLogger_OmitsQuery(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)
	e := newEngine(log, func(c *gin.Context) { c.Status(http.StatusUnauthorized) })

	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, httptest.NewRequest("GET", "/test?token=secret", http.NoBody))

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("4xx should log at warn: %s", out)
	}
	if strings.Contains(out, "secret") {
		t.Errorf("query leaked into log: %s", out)
	}
}
