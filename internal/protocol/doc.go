// Package protocol owns the proxy wire contract.
//
// Ownership boundary:
// - message capability interfaces and shared headers
// - the message type registry and derived property schemas
// - payload encode/decode on top of the bag codec
//
// Framing lives in frame, the property bag in bag, the catalog in messages and
// the duplex exchange in session.
package protocol
