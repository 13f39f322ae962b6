// Package console sends script chunks to the Motion Service console and
// interprets the single-message replies it returns.
package console

import (
	"errors"
	"fmt"
	"time"

	"github.com/mocapkit/mocapctl/internal/client"
)

// Port is the TCP service port of the remote console.
const Port = 32075

// Status is the first byte of every console reply.
type Status byte

const (
	// Success means the chunk parsed and executed.
	Success Status = 0
	// Failure means the chunk failed to parse or raised an error.
	Failure Status = 1
	// Continue means the chunk is an incomplete statement and the console
	// expects more input before it can execute.
	Continue Status = 2
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Continue:
		return "continue"
	default:
		return fmt.Sprintf("status(%d)", byte(s))
	}
}

var (
	ErrEmptyChunk = errors.New("console: empty script chunk")
	ErrEmptyReply = errors.New("console: empty reply message")
)

// SendChunk executes one script chunk on the remote console and returns the
// reply status together with any text the chunk printed. The timeout applies
// separately to the send and to the reply read; a negative value selects the
// client defaults.
func SendChunk(c *client.Client, chunk string, timeout time.Duration) (Status, string, error) {
	if chunk == "" {
		return Failure, "", ErrEmptyChunk
	}
	if err := c.WriteData([]byte(chunk), timeout); err != nil {
		return Failure, "", fmt.Errorf("console: send chunk: %w", err)
	}

	reply, err := c.ReadData(timeout)
	if err != nil {
		return Failure, "", fmt.Errorf("console: read reply: %w", err)
	}
	if len(reply) == 0 {
		return Failure, "", ErrEmptyReply
	}
	return Status(reply[0]), string(reply[1:]), nil
}
