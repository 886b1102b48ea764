// Package session holds the authentication state of a client and drives the
// transitions between signed-out and signed-in.
//
// A Controller owns exactly one AuthState. It hydrates that state from a
// tokenstore.Storage when created, performs login, signup and logout
// exchanges against the auth API, and delegates OAuth sign-in to a
// pkce.Engine. Readers get immutable snapshots through State or a
// subscription; nothing outside the Controller mutates the state.
//
// Concurrent Login, Signup and Logout calls are allowed. Every call starts a
// new generation, and a call whose generation has been superseded by the
// time its network round-trip completes returns its Response to its caller
// without committing anything. The most recently started transition decides
// the final state.
package session
