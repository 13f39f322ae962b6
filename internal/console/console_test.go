package console

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/mocapkit/mocapctl/internal/client"
	"github.com/mocapkit/mocapctl/internal/protocol/frame"
	"github.com/mocapkit/mocapctl/internal/testutil/testlog"
)

// serveConsole runs a one-shot console endpoint: greet, read one framed
// chunk, answer with the configured reply payload.
func serveConsole(t *testing.T, reply []byte) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done := make(chan struct{})
	t.Cleanup(func() {
		close(done)
		_ = ln.Close()
	})
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		greeting, _ := frame.EncodeMessage([]byte("Console service"))
		if _, err := conn.Write(greeting); err != nil {
			return
		}

		header := make([]byte, frame.HeaderSize)
		if _, err := readFull(conn, header); err != nil {
			t.Errorf("read chunk header: %v", err)
			return
		}
		length, err := frame.ParseHeader(header)
		if err != nil {
			t.Errorf("parse chunk header: %v", err)
			return
		}
		chunk := make([]byte, length)
		if _, err := readFull(conn, chunk); err != nil {
			t.Errorf("read chunk: %v", err)
			return
		}

		framed, err := frame.EncodeMessage(reply)
		if err != nil {
			t.Errorf("encode reply: %v", err)
			return
		}
		if _, err := conn.Write(framed); err != nil {
			t.Errorf("write reply: %v", err)
			return
		}
		<-done
	}()
	return ln.Addr().(*net.TCPAddr).Port
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func dialConsole(t *testing.T, port int) *client.Client {
	t.Helper()
	c, err := client.Dial("127.0.0.1", port)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		if c.IsConnected() {
			_ = c.Close()
		}
	})
	return c
}

func TestSendChunkSuccess(t *testing.T) {
	testlog.Start(t)

	port := serveConsole(t, append([]byte{byte(Success)}, "1\t2\n"...))
	c := dialConsole(t, port)

	status, printed, err := SendChunk(c, "print(1, 2)", time.Second)
	if err != nil {
		t.Fatalf("send chunk: %v", err)
	}
	if status != Success {
		t.Fatalf("status = %v, want success", status)
	}
	if printed != "1\t2\n" {
		t.Fatalf("printed = %q, want %q", printed, "1\t2\n")
	}
}

func TestSendChunkFailure(t *testing.T) {
	testlog.Start(t)

	port := serveConsole(t, append([]byte{byte(Failure)}, "syntax error near 'end'"...))
	c := dialConsole(t, port)

	status, printed, err := SendChunk(c, "end", time.Second)
	if err != nil {
		t.Fatalf("send chunk: %v", err)
	}
	if status != Failure {
		t.Fatalf("status = %v, want failure", status)
	}
	if printed == "" {
		t.Fatal("expected an error description in the reply")
	}
}

func TestSendChunkContinue(t *testing.T) {
	testlog.Start(t)

	port := serveConsole(t, []byte{byte(Continue)})
	c := dialConsole(t, port)

	status, printed, err := SendChunk(c, "for i = 1, 10 do", time.Second)
	if err != nil {
		t.Fatalf("send chunk: %v", err)
	}
	if status != Continue {
		t.Fatalf("status = %v, want continue", status)
	}
	if printed != "" {
		t.Fatalf("printed = %q, want empty", printed)
	}
}

func TestSendChunkEmpty(t *testing.T) {
	testlog.Start(t)

	port := serveConsole(t, []byte{byte(Success)})
	c := dialConsole(t, port)

	if _, _, err := SendChunk(c, "", time.Second); !errors.Is(err, ErrEmptyChunk) {
		t.Fatalf("empty chunk = %v, want ErrEmptyChunk", err)
	}
}

func TestStatusString(t *testing.T) {
	cases := []struct {
		status Status
		want   string
	}{
		{Success, "success"},
		{Failure, "failure"},
		{Continue, "continue"},
		{Status(9), "status(9)"},
	}
	for _, tc := range cases {
		if got := tc.status.String(); got != tc.want {
			t.Fatalf("Status(%d).String() = %q, want %q", byte(tc.status), got, tc.want)
		}
	}
}
