package errors

import "net/http"

// ErrorCode is a machine-readable error code.
type ErrorCode string

const (
	ErrCodeConnectionFailed   ErrorCode = "CONNECTION_FAILED"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"

	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrCodeUnauthorized means the auth API rejected the credentials.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
	// ErrCodeInvalidToken means a token could not be decoded.
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
	// ErrCodeOAuth means the provider or the callback reported a failure.
	ErrCodeOAuth ErrorCode = "OAUTH_ERROR"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeExternalService means the auth API answered with a 5xx.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

type codeInfo struct {
	status    int
	retryable bool
	message   string
}

var codes = map[ErrorCode]codeInfo{
	ErrCodeConnectionFailed:   {http.StatusServiceUnavailable, true, "Unable to reach the server."},
	ErrCodeTimeout:            {http.StatusGatewayTimeout, true, "The request took too long. Please try again."},
	ErrCodeStorageUnavailable: {http.StatusServiceUnavailable, true, "Token storage is unavailable."},
	ErrCodeInvalidInput:       {http.StatusBadRequest, false, "Invalid input."},
	ErrCodeUnauthorized:       {http.StatusUnauthorized, false, "Authentication required."},
	ErrCodeTokenExpired:       {http.StatusUnauthorized, false, "Your session has expired. Please log in again."},
	ErrCodeInvalidToken:       {http.StatusUnauthorized, false, "Invalid authentication token. Please log in again."},
	ErrCodeOAuth:              {http.StatusBadRequest, false, "Sign-in with the provider failed."},
	ErrCodeInternal:           {http.StatusInternalServerError, false, "An unexpected error occurred."},
	ErrCodeExternalService:    {http.StatusBadGateway, true, "The server encountered an error."},
}

// IsRetryableCode reports whether errors with code are worth retrying.
func IsRetryableCode(code ErrorCode) bool { return codes[code].retryable }

// StatusFor returns the HTTP status closest to code, 500 for unknown codes.
func StatusFor(code ErrorCode) int {
	if info, ok := codes[code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}
