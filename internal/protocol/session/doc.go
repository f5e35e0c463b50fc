// Package session runs the duplex request/reply engine over one connected
// byte stream.
//
// Ownership boundary:
// - request id assignment and the correlation table
// - frame write serialization and the single reader loop
// - inbound dispatch to registered handlers
// - lifecycle: open, running, draining, closed
// - retry backoff primitives
//
// A session never reconnects. Callers that want a new connection build a new
// session and resend through protocol.CloneRequest.
package session
