package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	l := New(&Config{Level: "invalid-level", Format: "json", Output: "discard"}, "test")
	if l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestJSONOutputCarriesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "debug", Format: "json"}, "authctl", &buf)

	l.WithComponent("session").Info("login succeeded", Fields(FieldUserID, "u-1", FieldStatus, 200))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["component"] != "session" {
		t.Errorf("component = %v, want session", entry["component"])
	}
	if entry["user_id"] != "u-1" {
		t.Errorf("user_id = %v, want u-1", entry["user_id"])
	}
	if entry["service"] != "authctl" {
		t.Errorf("service = %v, want authctl", entry["service"])
	}
	if entry["message"] != "login succeeded" {
		t.Errorf("message = %v", entry["message"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "warn", Format: "json"}, "svc", &buf)

	l.Info("hidden")
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %s", buf.String())
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn message, got %s", buf.String())
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: "json"}, "svc", &buf)
	l.WithError(errors.New("boom")).Error("failed")
	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Errorf("expected error field, got %s", buf.String())
	}
}

func TestConsoleFormatNoColor(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: "console", NoColor: true}, "svc", &buf)
	l.Info("hello")
	if !strings.Contains(buf.String(), "[INF]") || !strings.Contains(buf.String(), "hello") {
		t.Errorf("unexpected console output: %q", buf.String())
	}
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Info("nothing")
	l.WithComponent("x").Error("nothing")
}

func TestGlobalLogger(t *testing.T) {
	global = nil
	if GetGlobalLogger() == nil {
		t.Fatal("expected default global logger to be created")
	}
	custom := NewDefault("custom")
	SetGlobalLogger(custom)
	if GetGlobalLogger() != custom {
		t.Error("expected SetGlobalLogger to set the global logger")
	}
	if OrDefault(nil, "storage") == nil {
		t.Error("expected component logger from global")
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Level != "info" {
		t.Errorf("expected level 'info', got %q", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected format 'console', got %q", cfg.Format)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected output 'stderr', got %q", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Error("expected Timestamp to be true")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "info", Format: "json"}, false},
		{"valid console", Config{Level: "debug", Format: "console"}, false},
		{"invalid level", Config{Level: "bad", Format: "json"}, true},
		{"invalid format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	tok := "eyJhbGciOiJIUzI1NiJ9.e30.sig"
	fp := Fingerprint(tok)
	if len(fp) != 12 || strings.Contains(tok, fp) {
		t.Errorf("Fingerprint = %q", fp)
	}
	if Fingerprint(tok) != fp {
		t.Error("fingerprint not stable")
	}
	if Fingerprint("") != "" {
		t.Error("empty token should have empty fingerprint")
	}
}

func TestEnabled(t *testing.T) {
	l := NewWithWriter(&Config{Level: "info", Format: "json"}, "svc", io.Discard)
	if l.Enabled(zerolog.DebugLevel) || !l.Enabled(zerolog.WarnLevel) {
		t.Error("unexpected Enabled result at info level")
	}
	if Nop().Enabled(zerolog.ErrorLevel) {
		t.Error("nop logger reports enabled")
	}
}

func TestFields(t *testing.T) {
	got := Fields("op", "save", "id", 42, "dangling")
	if len(got) != 2 || got["op"] != "save" || got["id"] != 42 {
		t.Errorf("unexpected fields: %v", got)
	}
	ef := ErrorFields("logout", errors.New("timeout"))
	if ef[FieldOperation] != "logout" || ef[FieldError] != "timeout" {
		t.Errorf("unexpected error fields: %v", ef)
	}
}
