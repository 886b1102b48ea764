// Package errors provides the authkit error taxonomy.
//
// AppError carries a machine-readable code, a human-readable message and a
// retryable hint. Session-level failures are ultimately surfaced to callers
// as plain strings (see session.AuthState.Error); Message extracts the
// user-facing text from any error for that purpose.
package errors
