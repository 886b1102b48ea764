package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/kbukum/authkit/session"
)

var errNotInteractive = errors.New("stdin is not a terminal; pass the missing values as flags")

// isInteractive reports whether stdin is a terminal.
func isInteractive() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func required(field string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// promptCredentials asks for whichever of email and password is empty.
func promptCredentials(creds *session.Credentials) error {
	if creds.Email != "" && creds.Password != "" {
		return nil
	}
	if !isInteractive() {
		return errNotInteractive
	}

	var fields []huh.Field
	if creds.Email == "" {
		fields = append(fields, huh.NewInput().Title("Email").Value(&creds.Email).Validate(required("email")))
	}
	if creds.Password == "" {
		fields = append(fields, huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).
			Value(&creds.Password).Validate(required("password")))
	}
	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

// promptSignup fills the empty fields of form.
func promptSignup(form *session.SignupForm) error {
	if form.Email != "" && form.Password != "" && form.ConfirmPassword != "" {
		return nil
	}
	if !isInteractive() {
		return errNotInteractive
	}

	var fields []huh.Field
	if form.Email == "" {
		fields = append(fields, huh.NewInput().Title("Email").Value(&form.Email).Validate(required("email")))
	}
	if form.DisplayName == "" {
		fields = append(fields, huh.NewInput().Title("Display name").Placeholder("optional").Value(&form.DisplayName))
	}
	if form.Password == "" {
		fields = append(fields, huh.NewInput().Title("Password").Description("At least 8 characters").
			EchoMode(huh.EchoModePassword).Value(&form.Password).Validate(func(s string) error {
			if len(s) < 8 {
				return errors.New("password must be at least 8 characters")
			}
			return nil
		}))
	}
	if form.ConfirmPassword == "" {
		fields = append(fields, huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).
			Value(&form.ConfirmPassword).Validate(func(s string) error {
			if s != form.Password {
				return errors.New("passwords do not match")
			}
			return nil
		}))
	}
	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}
