// Package server runs a small Gin HTTP server bound to a local address.
//
// It backs the OAuth callback listener and the in-process auth API used in
// tests. Port 0 binds an ephemeral port; Listen reports the chosen address
// before any request is served, so callers can derive redirect URLs from it.
//
// Middleware (server/middleware):
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: request ID generation and propagation
//   - RequestLogger: per-request logging leveled by status
package server
