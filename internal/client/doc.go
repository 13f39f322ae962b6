// Package client owns the socket connection and message transfer.
//
// Ownership boundary:
// - TCP connect/close lifecycle and socket timeouts
// - length-prefixed message framing with partial-read carryover
// - out-of-band XML control message interception
//
// A Client is a resource object: it owns exactly one socket and is not safe
// for concurrent use without external locking. Interpreting message payloads
// belongs to internal/format.
package client
