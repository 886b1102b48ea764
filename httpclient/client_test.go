package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/kbukum/authkit/errors"
)

func TestClient_Do_POST_JSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/auth/login" {
			t.Errorf("expected /auth/login, got %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", ct)
		}
		if r.Header.Get(RequestIDHeader) == "" {
			t.Error("expected X-Request-ID header")
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "email": body["email"]})
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   map[string]string{"email": "a@example.com"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.IsSuccess() {
		t.Errorf("expected success, got %d", resp.StatusCode)
	}
	var out struct {
		Success bool   `json:"success"`
		Email   string `json:"email"`
	}
	if err := resp.DecodeJSON(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Success || out.Email != "a@example.com" {
		t.Errorf("unexpected body %+v", out)
	}
	if resp.RequestID == "" {
		t.Error("expected request id on response")
	}
}

func TestClient_Do_ErrorKeepsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"error":"bad credentials"}`))
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})
	resp, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/auth/login"})
	if !IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected response alongside error, got %+v", resp)
	}
	if string(resp.Body) != `{"success":false,"error":"bad credentials"}` {
		t.Errorf("unexpected body %s", resp.Body)
	}
}

func TestClient_CookiesAreCarried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		case "/auth/logout":
			if c, err := r.Cookie("session"); err != nil || c.Value != "abc" {
				t.Errorf("expected session cookie on logout, got %v %v", c, err)
			}
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})
	if _, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/auth/login"}); err != nil {
		t.Fatal(err)
	}
	if len(c.Cookies()) != 1 {
		t.Errorf("expected one cookie in jar, got %v", c.Cookies())
	}
	if _, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/auth/logout"}); err != nil {
		t.Fatal(err)
	}
}

func TestClient_DefaultHeadersAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Client"); got != "authctl" {
			t.Errorf("expected X-Client=authctl, got %q", got)
		}
		if got := r.URL.Query().Get("provider"); got != "github" {
			t.Errorf("expected provider=github, got %q", got)
		}
		if got := r.Header.Get(RequestIDHeader); got != "fixed" {
			t.Errorf("expected fixed request id, got %q", got)
		}
		if got := r.Header.Get("User-Agent"); !strings.HasPrefix(got, "authkit/") {
			t.Errorf("unexpected user agent %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL, Headers: map[string]string{"X-Client": "authctl"}})
	_, err := c.Do(context.Background(), Request{
		Method:    http.MethodGet,
		Path:      "/oauth/login",
		Query:     map[string]string{"provider": "github"},
		RequestID: "fixed",
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestClient_ConnectionErrorIsClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, _ := New(Config{BaseURL: url, Timeout: time.Second})
	_, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/auth/logout"})
	if !IsConnection(err) {
		t.Fatalf("expected connection error, got %v", err)
	}
	if !IsRetryable(err) {
		t.Error("connection errors are retryable")
	}
}

func TestClient_RetryOnlyTransportFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	retry := DefaultRetryConfig()
	retry.InitialBackoff = time.Millisecond
	c, _ := New(Config{BaseURL: srv.URL, Retry: retry})
	resp, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/auth/login"})
	var httpErr *Error
	if !errors.As(err, &httpErr) || httpErr.Code != ErrCodeServer {
		t.Fatalf("expected server error, got %v", err)
	}
	if resp == nil || resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected last response to be returned, got %+v", resp)
	}
	if calls.Load() != 1 {
		t.Errorf("server errors must not be retried, got %d calls", calls.Load())
	}
}

func TestClient_TruncatedBodyIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":`))
	}))
	defer srv.Close()

	retry := DefaultRetryConfig()
	retry.InitialBackoff = time.Millisecond
	c, _ := New(Config{BaseURL: srv.URL, Retry: retry})
	resp, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/auth/signup"})
	var httpErr *Error
	if !errors.As(err, &httpErr) || httpErr.Code != ErrCodeResponse {
		t.Fatalf("expected response error, got %v", err)
	}
	if resp != nil {
		t.Errorf("expected no response, got %+v", resp)
	}
	if IsConnection(err) || IsRetryable(err) {
		t.Error("a broken-off response must not be retryable")
	}
	if calls.Load() != 1 {
		t.Errorf("request was sent %d times", calls.Load())
	}
	if ae := httpErr.ToAppError("the auth server"); ae.Code != apperrors.ErrCodeExternalService {
		t.Errorf("ToAppError code = %s", ae.Code)
	}
}

func TestClient_TimeoutFromContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/"})
	if !IsTimeout(err) {
		t.Errorf("expected timeout, got %v", err)
	}
}

func TestClassifyStatusCode(t *testing.T) {
	tests := []struct {
		status int
		code   ErrorCode
		retry  bool
	}{
		{401, ErrCodeAuth, false},
		{403, ErrCodeAuth, false},
		{404, ErrCodeNotFound, false},
		{409, ErrCodeValidation, false},
		{429, ErrCodeRateLimit, true},
		{503, ErrCodeServer, true},
	}
	for _, tc := range tests {
		e := ClassifyStatusCode(tc.status, nil)
		if e == nil || e.Code != tc.code || e.Retryable != tc.retry {
			t.Errorf("status %d: got %+v", tc.status, e)
		}
	}
	if ClassifyStatusCode(204, nil) != nil {
		t.Error("2xx must not be an error")
	}
}

func TestErrorToAppError(t *testing.T) {
	tests := []struct {
		err  *Error
		code apperrors.ErrorCode
	}{
		{NewTimeoutError(context.DeadlineExceeded), apperrors.ErrCodeTimeout},
		{NewConnectionError(errors.New("refused")), apperrors.ErrCodeConnectionFailed},
		{ClassifyStatusCode(401, nil), apperrors.ErrCodeUnauthorized},
		{ClassifyStatusCode(502, nil), apperrors.ErrCodeExternalService},
		{ClassifyStatusCode(400, nil), apperrors.ErrCodeInvalidInput},
	}
	for _, tc := range tests {
		if got := tc.err.ToAppError("auth api"); got.Code != tc.code {
			t.Errorf("%v: got %s, want %s", tc.err, got.Code, tc.code)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Timeout != defaultTimeout {
		t.Errorf("expected default timeout, got %v", cfg.Timeout)
	}
	bad := Config{Timeout: -1}
	if bad.Validate() == nil {
		t.Error("expected error for negative timeout")
	}
}
