package frame

import (
	"encoding/binary"
	"errors"
)

const (
	// HeaderSize is the fixed length-prefix header, network byte order.
	HeaderSize = 4

	// MaxPayloadLength caps a single message. The service never sends
	// anything close to this; a larger header value means the stream is
	// corrupt or we are not talking to a Motion Service at all.
	MaxPayloadLength = 65535
)

var (
	ErrShortHeader     = errors.New("frame: short length header")
	ErrInvalidLength   = errors.New("frame: header specifies invalid length")
	ErrEmptyPayload    = errors.New("frame: empty payload")
	ErrPayloadTooLarge = errors.New("frame: payload too large")
)

// ParseHeader decodes the 4-byte big-endian length prefix and returns the
// declared payload length in bytes.
func ParseHeader(b []byte) (int, error) {
	if len(b) < HeaderSize {
		return 0, ErrShortHeader
	}
	length := binary.BigEndian.Uint32(b[:HeaderSize])
	if length == 0 || length > MaxPayloadLength {
		return 0, ErrInvalidLength
	}
	return int(length), nil
}

// EncodeMessage builds one complete wire message, header followed by payload,
// in a single buffer. The payload must be 1..MaxPayloadLength bytes.
func EncodeMessage(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}
	if len(payload) > MaxPayloadLength {
		return nil, ErrPayloadTooLarge
	}
	buf := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf[:HeaderSize], uint32(len(payload)))
	copy(buf[HeaderSize:], payload)
	return buf, nil
}
