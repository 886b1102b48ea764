package httpclient

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/kbukum/authkit/errors"
)

// ErrorCode says why a request failed.
type ErrorCode string

const (
	ErrCodeTimeout    ErrorCode = "timeout"
	ErrCodeConnection ErrorCode = "connection"
	// ErrCodeAuth covers 401 and 403.
	ErrCodeAuth       ErrorCode = "auth"
	ErrCodeNotFound   ErrorCode = "not_found"
	ErrCodeRateLimit  ErrorCode = "rate_limit"
	ErrCodeValidation ErrorCode = "validation"
	ErrCodeServer     ErrorCode = "server"
	// ErrCodeResponse is a reply that broke off after the server had the
	// request. It is never retried: the server may already have acted.
	ErrCodeResponse ErrorCode = "response"
)

// Error is a failed request. StatusCode is 0 when no response arrived.
type Error struct {
	StatusCode int
	Code       ErrorCode
	Message    string
	Retryable  bool
	Body       []byte
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// ToAppError translates e for display, naming service in the message.
func (e *Error) ToAppError(service string) *apperrors.AppError {
	switch e.Code {
	case ErrCodeTimeout:
		return apperrors.Timeout(service).WithCause(e)
	case ErrCodeConnection:
		return apperrors.ConnectionFailed(service, e)
	case ErrCodeAuth:
		return apperrors.Unauthorized("").WithCause(e)
	case ErrCodeServer, ErrCodeResponse:
		return apperrors.ExternalServiceError(service, e)
	default:
		return apperrors.New(apperrors.ErrCodeInvalidInput, e.Message, e.StatusCode).WithCause(e)
	}
}

// NewTimeoutError wraps a failure caused by a deadline or cancellation.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: err.Error(), Retryable: true, Err: err}
}

// NewConnectionError wraps a failure to reach the server.
func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Message: err.Error(), Retryable: true, Err: err}
}

// NewResponseError wraps a failure to read the body of a response whose
// status line already arrived.
func NewResponseError(statusCode int, err error) *Error {
	return &Error{StatusCode: statusCode, Code: ErrCodeResponse, Message: err.Error(), Err: err}
}

// NewValidationError reports a request that could not be built.
func NewValidationError(msg string) *Error {
	return &Error{Code: ErrCodeValidation, Message: msg}
}

// ClassifyStatusCode returns the Error for a non-2xx status, or nil.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	e := &Error{StatusCode: statusCode, Code: ErrCodeValidation, Message: fmt.Sprintf("HTTP %d", statusCode), Body: body}
	switch {
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		e.Code = ErrCodeAuth
	case statusCode == http.StatusNotFound:
		e.Code = ErrCodeNotFound
	case statusCode == http.StatusTooManyRequests:
		e.Code, e.Retryable = ErrCodeRateLimit, true
	case statusCode >= 500:
		e.Code, e.Retryable = ErrCodeServer, true
	}
	return e
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

func IsTimeout(err error) bool    { return hasCode(err, ErrCodeTimeout) }
func IsConnection(err error) bool { return hasCode(err, ErrCodeConnection) }
func IsAuth(err error) bool       { return hasCode(err, ErrCodeAuth) }

// IsRetryable reports whether err is an Error marked retryable.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}
