package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/authkit/errors"
)

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signupInput struct {
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
}

type serverInput struct {
	Addr string `mapstructure:"addr" validate:"required,hostname_port"`
}

func TestValidateValid(t *testing.T) {
	if err := Validate(loginInput{Email: "a@example.com", Password: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateCollectsAllFields(t *testing.T) {
	err := Validate(loginInput{Email: "not-an-email"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
	msg := errors.Message(err)
	if !strings.Contains(msg, "email: must be a valid email address") {
		t.Errorf("missing email message in %q", msg)
	}
	if !strings.Contains(msg, "password: is required") {
		t.Errorf("missing password message in %q", msg)
	}
	if len(Fields(err)) != 2 {
		t.Errorf("expected 2 field errors, got %v", Fields(err))
	}
}

func TestValidateMinAndEqField(t *testing.T) {
	tests := []struct {
		name    string
		in      signupInput
		wantMsg string
	}{
		{"too short", signupInput{Password: "short", ConfirmPassword: "short"}, "password: must be at least 8 characters"},
		{"mismatch", signupInput{Password: "longenough", ConfirmPassword: "different"}, "confirm_password: must match password"},
		{"ok", signupInput{Password: "longenough", ConfirmPassword: "longenough"}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.in)
			if tc.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(errors.Message(err), tc.wantMsg) {
				t.Errorf("expected %q, got %v", tc.wantMsg, err)
			}
		})
	}
}

func TestValidateUsesMapstructureNames(t *testing.T) {
	err := Validate(serverInput{Addr: "nope"})
	if err == nil || !strings.Contains(errors.Message(err), "addr: must be host:port") {
		t.Errorf("unexpected %v", err)
	}
}

func TestFieldsOnForeignError(t *testing.T) {
	if Fields(nil) != nil {
		t.Error("expected nil fields")
	}
	if Fields(errors.Internal(nil)) != nil {
		t.Error("expected nil fields for non-validation error")
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("ConfirmPassword"); got != "confirm_password" {
		t.Errorf("got %q", got)
	}
}
