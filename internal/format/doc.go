// Package format owns the binary sample message layouts.
//
// Ownership boundary:
// - id + value-array record decoding for the four data services
// - per-service element views with named channel sub-ranges
// - quaternion to rotation matrix conversion
//
// The framing layer below (internal/client) hands this package one complete
// message payload at a time. A malformed payload decodes to an empty
// collection, never to a partial one.
package format
