// Package authtest runs an in-process auth API for tests and local
// development.
//
// The server speaks the same wire format as the real backend: login, signup
// and logout under /auth, and an OAuth login route that redirects straight
// back to the caller with a token. Users are kept in memory with bcrypt
// password hashes (WithHasher switches to Argon2id), and tokens are
// HS256-signed JWTs.
//
// Hooks let a test shape the next responses: FailNext and RespondNextRaw
// script failures, SetLatency slows every route, and Hold parks requests
// until the test releases them.
package authtest
