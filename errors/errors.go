package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is an error with a code, a user-facing message and a retry hint.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the cause and returns e.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail adds a detail and returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New builds an AppError. An empty message uses the code's default text and
// a zero httpStatus uses StatusFor(code).
func New(code ErrorCode, message string, httpStatus int) *AppError {
	info := codes[code]
	if message == "" {
		message = info.message
	}
	if httpStatus == 0 {
		httpStatus = StatusFor(code)
	}
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Retryable: info.retryable}
}

func ConnectionFailed(service string, cause error) *AppError {
	return New(ErrCodeConnectionFailed, fmt.Sprintf("Unable to connect to %s.", service), 0).
		WithDetail("service", service).WithCause(cause)
}

func Timeout(operation string) *AppError {
	return New(ErrCodeTimeout, "", 0).WithDetail("operation", operation)
}

// StorageUnavailable reports a token or flow-state backend that could not be
// opened or reached.
func StorageUnavailable(backend string, cause error) *AppError {
	return New(ErrCodeStorageUnavailable, fmt.Sprintf("The %s storage backend is unavailable.", backend), 0).
		WithDetail("backend", backend).WithCause(cause)
}

func Validation(message string) *AppError { return New(ErrCodeInvalidInput, message, 0) }

// Unauthorized reports rejected credentials. An empty reason uses the
// default message.
func Unauthorized(reason string) *AppError { return New(ErrCodeUnauthorized, reason, 0) }

func TokenExpired() *AppError { return New(ErrCodeTokenExpired, "", 0) }

func InvalidToken() *AppError { return New(ErrCodeInvalidToken, "", 0) }

// OAuth reports a failure surfaced by the OAuth callback. reason is the
// provider's error parameter when there is one.
func OAuth(provider, reason string) *AppError {
	e := New(ErrCodeOAuth, reason, 0)
	if provider != "" {
		e.WithDetail("provider", provider)
	}
	return e
}

func Internal(cause error) *AppError { return New(ErrCodeInternal, "", 0).WithCause(cause) }

// ExternalServiceError reports a 5xx from service.
func ExternalServiceError(service string, cause error) *AppError {
	return New(ErrCodeExternalService, fmt.Sprintf("The %s service encountered an error.", service), 0).
		WithDetail("service", service).WithCause(cause)
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err's chain holds an AppError with code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// Message returns the user-facing text for err: the Message of an AppError
// in the chain, otherwise err.Error(). Nil yields "".
func Message(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}
