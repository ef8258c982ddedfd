// Package vertixauth owns the session and authentication contract of the
// Vertix web client: login, logout, session persistence and restoration.
//
// A [SessionStore] is built with [New] and holds at most one session. It
// authenticates through a pluggable [Authenticator] ([MockAuthenticator]
// ships the two demo identities) and persists through a session.Backend
// under a single well-known key.
//
// # Architecture boundaries
//
// vertixauth is the public surface. Identity records live in package
// identity; the session model, payload codec and storage backends live in
// package session; payload signing lives in package jwt.
//
// # What this package must NOT do
//
//   - Hold a package-level session. Every store is owned by its caller.
//   - Let a persistence failure leave the store in an undefined state.
//     Memory is updated first and failures go to the logger, the audit sink
//     and the metrics.
//   - Log or audit a password.
package vertixauth
