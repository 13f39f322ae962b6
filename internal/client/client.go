package client

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mocapkit/mocapctl/internal/protocol/frame"
)

const (
	// DefaultHost is used when Dial receives an empty host string.
	DefaultHost = "127.0.0.1"

	// Default receive time out for WaitForData. Matches the first-sample
	// latency of a service that is connected but idle.
	DefaultWaitTimeout = 5 * time.Second

	// Default receive time out for ReadData in the steady-state sample loop.
	DefaultReadTimeout = time.Second

	// Default send time out for WriteData.
	DefaultWriteTimeout = time.Second

	// dialTimeout bounds the TCP connect attempt.
	dialTimeout = 5 * time.Second

	// receiveBufferSize is the fixed scratch buffer for single socket reads.
	receiveBufferSize = 1024

	// socketBufferSize enlarges the OS send/receive buffers past their
	// defaults so a burst of sample messages does not stall the service.
	socketBufferSize = 65536
)

// xmlMagic marks an out-of-band control message in the data stream.
var xmlMagic = []byte("<?xml")

var (
	ErrBadAddress   = errors.New("client: host is not an IPv4 dotted-quad address")
	ErrRefused      = errors.New("client: connection refused by remote host")
	ErrConnect      = errors.New("client: failed to connect to remote host")
	ErrNotConnected = errors.New("client: not connected")
	ErrTimeout      = errors.New("client: timed out")
	ErrDisconnected = errors.New("client: connection closed by remote host")
	ErrProtocol     = errors.New("client: communication protocol error")
	ErrSocket       = errors.New("client: socket failure")
)

// outcome is the three-way result of one socket receive or send. The framer
// must keep timeout distinct from disconnect and hard failure: a timeout
// leaves the connection open, the other two tear it down.
type outcome int

const (
	outcomeOK outcome = iota
	outcomeTimeout
	outcomeClosed
	outcomeError
)

// Client is a connection to one Motion Service data or console stream. It
// owns a single TCP socket from Dial until Close. Methods block the calling
// goroutine for up to their configured time out; there is no internal
// locking, so share a Client between goroutines only with external mutual
// exclusion. Closing from another goroutine while a read blocks is tolerated
// and surfaces as a graceful disconnect.
type Client struct {
	conn net.Conn

	host        string
	port        int
	description string

	// Most recent intercepted XML control message, if any.
	xmlString    string
	interceptXML bool

	// Last error message from the public interface. Survives Close.
	errString string

	// Fixed scratch buffer for raw receives.
	scratch []byte

	// Bytes already read from the socket that belong to the next logical
	// message. Ownership moves into readMessage on each call.
	leftover []byte

	recvTimeout time.Duration
	sendTimeout time.Duration
}

// Dial opens a client connection to a remote Motion Service. An empty host
// selects the loopback address; the host must otherwise be an IPv4
// dotted-quad. On success the service greeting message is read with the
// default wait time out and kept as the connection description; a greeting
// failure is tolerated and leaves the description empty.
func Dial(host string, port int) (*Client, error) {
	addr := host
	if addr == "" {
		addr = DefaultHost
	}
	ip := net.ParseIP(addr)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("%w: %q", ErrBadAddress, host)
	}

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.Dial("tcp", net.JoinHostPort(ip.String(), strconv.Itoa(port)))
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return nil, fmt.Errorf("%w: %s:%d", ErrRefused, addr, port)
		}
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetReadBuffer(socketBufferSize)
		_ = tcp.SetWriteBuffer(socketBufferSize)
	}

	c := &Client{
		conn:         conn,
		host:         addr,
		port:         port,
		interceptXML: true,
		scratch:      make([]byte, receiveBufferSize),
	}

	// The first message from the service is a string description of the
	// remote stream. Optional; some services go straight to data.
	c.SetReceiveTimeout(DefaultWaitTimeout)
	if payload, err := c.readMessage(); err == nil {
		c.description = string(payload)
	}

	log.Debug().Str("host", addr).Int("port", port).
		Str("description", c.description).Msg("client: connected")
	return c, nil
}

// Close shuts down both directions of the socket and releases it. Closing an
// already-closed client is an error. All connection-scoped state resets
// except the last error message.
func (c *Client) Close() error {
	if !c.IsConnected() {
		c.errString = "failed to close client, not connected"
		return ErrNotConnected
	}
	c.closeSocket()
	return nil
}

// IsConnected reports whether this client holds a live socket.
func (c *Client) IsConnected() bool {
	return c.conn != nil
}

// Description returns the greeting string the service sent on connect, or
// empty if there was none.
func (c *Client) Description() string {
	return c.description
}

// XMLString returns the most recent XML control message intercepted by
// WaitForData or ReadData. The second result is false if none arrived yet.
func (c *Client) XMLString() (string, bool) {
	return c.xmlString, c.xmlString != ""
}

// ErrorString returns the most recent error message from the public
// interface. The second result is false if the message is empty.
func (c *Client) ErrorString() (string, bool) {
	return c.errString, c.errString != ""
}

// SetReceiveTimeout caches the receive time out applied to subsequent
// socket reads. Zero blocks indefinitely. The cached value is only touched
// when a caller requests a different one.
func (c *Client) SetReceiveTimeout(timeout time.Duration) {
	if timeout != c.recvTimeout {
		c.recvTimeout = timeout
	}
}

// SetSendTimeout caches the send time out applied to subsequent socket
// writes. Zero blocks indefinitely.
func (c *Client) SetSendTimeout(timeout time.Duration) {
	if timeout != c.sendTimeout {
		c.sendTimeout = timeout
	}
}

// WaitForData blocks until one incoming message arrives on this connection.
// A negative timeout selects the default of 5 seconds; zero waits forever.
// An XML control message satisfies the wait and is intercepted, not
// returned. ErrTimeout leaves the connection open; any other failure closes
// it.
func (c *Client) WaitForData(timeout time.Duration) error {
	if !c.IsConnected() {
		c.errString = "failed to wait for incoming data, client is not connected"
		return ErrNotConnected
	}
	if timeout < 0 {
		timeout = DefaultWaitTimeout
	}
	c.SetReceiveTimeout(timeout)

	payload, err := c.readMessage()
	if err != nil {
		return err
	}
	c.interceptIfXML(payload)
	return nil
}

// ReadData reads the next data sample message. A negative timeout selects
// the default of 1 second; zero waits forever. An intercepted XML control
// message is stored and one further message is read in its place, so
// control traffic never surfaces as sample data. The stream sends at most
// one control message between samples.
func (c *Client) ReadData(timeout time.Duration) ([]byte, error) {
	if !c.IsConnected() {
		c.errString = "failed to read data, client is not connected"
		return nil, ErrNotConnected
	}
	if timeout < 0 {
		timeout = DefaultReadTimeout
	}
	c.SetReceiveTimeout(timeout)

	payload, err := c.readMessage()
	if err != nil {
		return nil, err
	}
	if c.interceptIfXML(payload) {
		payload, err = c.readMessage()
		if err != nil {
			return nil, err
		}
	}
	return payload, nil
}

// WriteData writes one message to the socket link. A negative timeout
// selects the default of 1 second; zero blocks until the full message is
// written. The payload must be 1..65535 bytes; an invalid payload fails
// before any socket I/O and closes the connection.
func (c *Client) WriteData(payload []byte, timeout time.Duration) error {
	if !c.IsConnected() {
		c.errString = "failed to write data, client is not connected"
		return ErrNotConnected
	}
	if timeout < 0 {
		timeout = DefaultWriteTimeout
	}
	c.SetSendTimeout(timeout)

	return c.writeMessage(payload)
}

// readMessage assembles the next length-prefixed message. Bytes received
// past the end of the current message are kept for the next call.
func (c *Client) readMessage() ([]byte, error) {
	buf := c.leftover
	c.leftover = nil

	need := frame.HeaderSize
	if oc := c.fill(&buf, need); oc != outcomeOK {
		return nil, c.receiveFailure(oc, len(buf), "header")
	}

	length, err := frame.ParseHeader(buf)
	if err != nil {
		c.errString = "communication protocol error, message header specifies invalid length"
		log.Warn().Int("port", c.port).Msg("client: invalid message header")
		c.closeSocket()
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	need += length

	if oc := c.fill(&buf, need); oc != outcomeOK {
		return nil, c.receiveFailure(oc, len(buf), "payload")
	}

	payload := buf[frame.HeaderSize:need:need]
	if len(buf) > need {
		c.leftover = buf[need:]
	}
	return payload, nil
}

// fill accumulates socket reads into buf until it holds at least need bytes.
func (c *Client) fill(buf *[]byte, need int) outcome {
	for len(*buf) < need {
		n, oc := c.socketReceive(c.scratch)
		if oc != outcomeOK {
			return oc
		}
		*buf = append(*buf, c.scratch[:n]...)
	}
	return outcomeOK
}

// receiveFailure maps a failed accumulate to the caller-facing error. A
// timeout with nothing buffered is the one non-fatal case: the connection
// stays open and the caller may simply try again.
func (c *Client) receiveFailure(oc outcome, buffered int, stage string) error {
	switch {
	case oc == outcomeTimeout && buffered == 0:
		return ErrTimeout
	case oc == outcomeTimeout:
		c.errString = "communication protocol error, failed to read full message " + stage
		c.closeSocket()
		return fmt.Errorf("%w: timed out mid message", ErrProtocol)
	case oc == outcomeClosed:
		c.errString = "connection closed by remote host"
		c.closeSocket()
		return ErrDisconnected
	default:
		c.errString = "failed to read data from socket"
		c.closeSocket()
		return ErrSocket
	}
}

// writeMessage frames and sends one complete message, repeating the send
// until every byte is written. A short write is a protocol violation.
func (c *Client) writeMessage(payload []byte) error {
	buf, err := frame.EncodeMessage(payload)
	if err != nil {
		c.errString = "communication protocol error, invalid outgoing message"
		c.closeSocket()
		return fmt.Errorf("%w: %v", ErrProtocol, err)
	}

	sent := 0
	for sent < len(buf) {
		if c.sendTimeout > 0 {
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.sendTimeout))
		} else {
			_ = c.conn.SetWriteDeadline(time.Time{})
		}
		n, werr := c.conn.Write(buf[sent:])
		sent += n
		if werr != nil {
			break
		}
	}

	if sent != len(buf) {
		c.errString = "communication protocol error, failed to write complete message"
		c.closeSocket()
		return fmt.Errorf("%w: incomplete write", ErrProtocol)
	}
	return nil
}

// socketReceive performs one raw read with the cached receive time out
// applied. Returns the byte count and the three-way outcome.
func (c *Client) socketReceive(buf []byte) (int, outcome) {
	if c.recvTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.recvTimeout))
	} else {
		_ = c.conn.SetReadDeadline(time.Time{})
	}

	n, err := c.conn.Read(buf)
	if n > 0 {
		return n, outcomeOK
	}
	if err == nil {
		// A zero byte read with no error cause. Treat like the remote
		// host going away gracefully.
		return 0, outcomeClosed
	}

	var nerr net.Error
	switch {
	case errors.As(err, &nerr) && nerr.Timeout():
		return 0, outcomeTimeout
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		// net.ErrClosed means another goroutine closed us mid receive.
		// Best effort cancellation, counted as a graceful close.
		return 0, outcomeClosed
	default:
		return 0, outcomeError
	}
}

// interceptIfXML stores a control message payload and reports whether the
// payload was one. Only the most recent XML message is retained.
func (c *Client) interceptIfXML(payload []byte) bool {
	if !c.interceptXML || !bytes.HasPrefix(payload, xmlMagic) {
		return false
	}
	c.xmlString = string(payload)
	log.Debug().Int("bytes", len(payload)).Msg("client: intercepted xml message")
	return true
}

// closeSocket releases the socket and resets connection-scoped state. The
// error message is deliberately preserved for callers that inspect it after
// a failure. Safe to call more than once.
func (c *Client) closeSocket() {
	conn := c.conn
	if conn == nil {
		return
	}
	c.conn = nil
	c.host = ""
	c.port = 0
	c.description = ""
	c.xmlString = ""
	c.leftover = nil
	clear(c.scratch)

	// Disable sends and receives first so the remote side sees the
	// shutdown, then release the descriptor.
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.CloseWrite()
	}
	_ = conn.Close()
}
