// Package frame owns the wire message framing: a 4-byte big-endian length
// prefix followed by the payload.
//
// Ownership boundary: frame knows nothing about sockets or about what the
// payload means. It validates lengths and moves bytes; the client package
// decides when to read and write, and the format package interprets the
// payload.
package frame
