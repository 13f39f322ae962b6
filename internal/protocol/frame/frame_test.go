package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestEncodeMessageRoundTrip(t *testing.T) {
	payload := []byte("sample-bytes")
	buf, err := EncodeMessage(payload)
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}
	if len(buf) != HeaderSize+len(payload) {
		t.Fatalf("unexpected message size: %d", len(buf))
	}
	length, err := ParseHeader(buf)
	if err != nil {
		t.Fatalf("parse header: %v", err)
	}
	if length != len(payload) {
		t.Fatalf("length mismatch: got=%d want=%d", length, len(payload))
	}
	if !bytes.Equal(buf[HeaderSize:], payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestEncodeMessageBounds(t *testing.T) {
	if _, err := EncodeMessage(nil); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
	if _, err := EncodeMessage(make([]byte, MaxPayloadLength+1)); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if _, err := EncodeMessage(make([]byte, MaxPayloadLength)); err != nil {
		t.Fatalf("max payload should encode: %v", err)
	}
}

func TestParseHeaderRejectsBadLengths(t *testing.T) {
	if _, err := ParseHeader([]byte{0, 0, 0}); !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected ErrShortHeader, got %v", err)
	}

	var hdr [HeaderSize]byte
	if _, err := ParseHeader(hdr[:]); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength for zero, got %v", err)
	}

	binary.BigEndian.PutUint32(hdr[:], MaxPayloadLength+1)
	if _, err := ParseHeader(hdr[:]); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength for oversize, got %v", err)
	}

	binary.BigEndian.PutUint32(hdr[:], MaxPayloadLength)
	if length, err := ParseHeader(hdr[:]); err != nil || length != MaxPayloadLength {
		t.Fatalf("max length should parse: length=%d err=%v", length, err)
	}
}
