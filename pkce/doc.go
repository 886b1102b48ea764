// Package pkce starts OAuth authorization flows with Proof Key for Code
// Exchange (RFC 7636).
//
// An Engine generates the verifier, challenge and nonce, stores the flow
// state in a short-lived statestore.Store and then hands the provider URL to
// a Navigator. The flow resumes after the provider redirects back to
// /auth/callback, where RetrieveFlowState consumes the stored state once.
package pkce
