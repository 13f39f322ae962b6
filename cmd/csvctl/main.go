// Command csvctl records configurable channel data to comma separated
// values, one row per sample message with a named column per channel
// component.
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/mocapkit/mocapctl/internal/client"
	"github.com/mocapkit/mocapctl/internal/format"
	"github.com/mocapkit/mocapctl/internal/logging"
	"github.com/mocapkit/mocapctl/internal/nodemap"
)

// channelWidth maps each known channel name to its component count.
var channelWidth = map[string]int{
	"Gq": 4, "Lq": 4, "Bq": 4, "q": 4, "c": 4,
	"r": 3, "la": 3, "aa": 3, "lt": 3, "at": 3,
	"g": 3, "a": 3, "m": 3, "A": 3, "M": 3, "G": 3,
}

func main() {
	logging.ConfigureRuntime()

	configPath := flag.String("config", "", "csv profile TOML path")
	host := flag.String("host", "", "service host, IPv4 dotted-quad")
	output := flag.String("output", "", "output file, stdout when empty")
	count := flag.Int("count", 0, "rows to record before exiting, 0 runs until the stream ends")
	flag.Parse()

	cfg := defaultCSVConfig()
	if *configPath != "" {
		loaded, err := loadCSVConfig(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load csv config")
		}
		cfg = loaded
	}
	if *host != "" {
		cfg.stream.Host = *host
	}
	if *output != "" {
		cfg.output = *output
	}
	if *count != 0 {
		cfg.count = *count
	}

	out := io.Writer(os.Stdout)
	if cfg.output != "" {
		f, err := os.Create(cfg.output)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create output file")
		}
		defer f.Close()
		out = f
	}

	if err := record(cfg, out); err != nil {
		log.Fatal().Err(err).Msg("recording stopped")
	}
}

func record(cfg csvConfig, out io.Writer) error {
	c, err := client.Dial(cfg.stream.Host, cfg.stream.Port)
	if err != nil {
		return err
	}
	defer func() {
		if c.IsConnected() {
			_ = c.Close()
		}
	}()

	request := cfg.stream.ChannelRequestXML()
	if err := c.WriteData([]byte(request), cfg.stream.WriteTimeout()); err != nil {
		return fmt.Errorf("send channel request: %w", err)
	}
	if err := c.WaitForData(cfg.stream.WaitTimeout()); err != nil {
		return fmt.Errorf("wait for first sample: %w", err)
	}

	names := map[uint32]string{}
	if document, ok := c.XMLString(); ok {
		if parsed, err := nodemap.Parse(document); err == nil {
			names = parsed
		}
	}

	writer := csv.NewWriter(out)
	defer writer.Flush()

	var keys []uint32
	rows := 0
	for cfg.count == 0 || rows < cfg.count {
		payload, err := c.ReadData(cfg.stream.ReadTimeout())
		if errors.Is(err, client.ErrTimeout) {
			log.Warn().Msg("read timed out, retrying")
			continue
		}
		if err != nil {
			if rows > 0 && errors.Is(err, client.ErrDisconnected) {
				return nil
			}
			return err
		}

		sample := format.Configurable(payload)
		if len(sample) == 0 {
			log.Warn().Int("bytes", len(payload)).Msg("undecodable sample, skipping")
			continue
		}

		if keys == nil {
			keys = sortedKeys(sample)
			if err := writer.Write(header(cfg.stream.Channels, keys, names)); err != nil {
				return err
			}
		}

		row, ok := renderRow(rows, sample, keys)
		if !ok {
			log.Warn().Msg("sample missing nodes, skipping")
			continue
		}
		if err := writer.Write(row); err != nil {
			return err
		}
		rows++
	}
	return nil
}

func sortedKeys(sample map[uint32]format.ConfigurableElement) []uint32 {
	keys := make([]uint32, 0, len(sample))
	for key := range sample {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// header names each column after its node and channel component, for
// example Hips.Lqw or Chest.cx.
func header(channels []string, keys []uint32, names map[uint32]string) []string {
	columns := []string{"sample"}
	for _, key := range keys {
		node := nodemap.Name(names, key)
		for _, ch := range channels {
			for _, suffix := range suffixes(ch) {
				columns = append(columns, node+"."+ch+suffix)
			}
		}
	}
	return columns
}

func suffixes(channel string) []string {
	switch channelWidth[channel] {
	case 4:
		return []string{"w", "x", "y", "z"}
	case 3:
		return []string{"x", "y", "z"}
	default:
		return []string{""}
	}
}

func renderRow(seq int, sample map[uint32]format.ConfigurableElement, keys []uint32) ([]string, bool) {
	row := []string{strconv.Itoa(seq)}
	for _, key := range keys {
		e, ok := sample[key]
		if !ok {
			return nil, false
		}
		for _, v := range e.Values() {
			row = append(row, strconv.FormatFloat(float64(v), 'g', -1, 32))
		}
	}
	return row, true
}
