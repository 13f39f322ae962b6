// Package bridge republishes decoded sample frames to websocket
// subscribers. It owns the subscriber set and the per-subscriber send
// queues; the stream reader stays decoupled and only calls Broadcast.
//
// Ownership boundary: the bridge never touches the service socket and
// never decodes messages. Slow subscribers are dropped rather than
// allowed to stall the stream.
package bridge
