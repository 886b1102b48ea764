// Package token decodes and inspects bearer tokens on the client side.
//
// Only the payload segment of a compact three-part token is read. The
// signature is never inspected: verification is the issuing server's job,
// and nothing in this package should be used to make a trust decision.
//
// Expiry checks fail closed. A token that cannot be decoded, or that carries
// no expiry claim, is reported as expired.
package token
