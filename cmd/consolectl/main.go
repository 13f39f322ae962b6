// Command consolectl executes a script chunk on the remote service console
// and prints whatever the chunk printed. The exit code mirrors the reply
// status: 0 success, 1 failure, 2 incomplete chunk.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mocapkit/mocapctl/internal/client"
	"github.com/mocapkit/mocapctl/internal/console"
	"github.com/mocapkit/mocapctl/internal/logging"
)

func main() {
	logging.ConfigureRuntime()

	host := flag.String("host", "", "service host, IPv4 dotted-quad")
	timeout := flag.Duration("timeout", 5*time.Second, "send and reply timeout")
	flag.Parse()

	chunk := strings.Join(flag.Args(), " ")
	if chunk == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read chunk from stdin")
		}
		chunk = string(data)
	}

	c, err := client.Dial(*host, console.Port)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to console")
	}
	defer func() {
		if c.IsConnected() {
			_ = c.Close()
		}
	}()

	status, printed, err := console.SendChunk(c, chunk, *timeout)
	if err != nil {
		log.Fatal().Err(err).Msg("console request failed")
	}
	if printed != "" {
		fmt.Print(printed)
	}
	if status != console.Success {
		log.Warn().Str("status", status.String()).Msg("chunk did not complete")
	}
	os.Exit(int(status))
}
