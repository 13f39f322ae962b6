// Command streamctl connects to one Motion Service data stream and prints
// each decoded sample message.
package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mocapkit/mocapctl/internal/client"
	"github.com/mocapkit/mocapctl/internal/config"
	"github.com/mocapkit/mocapctl/internal/format"
	"github.com/mocapkit/mocapctl/internal/logging"
	"github.com/mocapkit/mocapctl/internal/nodemap"
)

func main() {
	logging.ConfigureRuntime()

	configPath := flag.String("config", "", "stream profile TOML path")
	host := flag.String("host", "", "service host, IPv4 dotted-quad")
	service := flag.String("service", "", "service name: preview|sensor|raw|configurable")
	port := flag.Int("port", 0, "service port, overrides the service default")
	channels := flag.String("channels", "", "comma separated channel names for the configurable service")
	count := flag.Int("count", 0, "samples to read before exiting, 0 runs until the stream ends")
	flag.Parse()

	cfg := config.DefaultStreamConfig()
	if *configPath != "" {
		loaded, err := config.LoadStreamConfig(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load stream config")
		}
		cfg = loaded
	}
	applyFlags(&cfg, *host, *service, *port, *channels)
	if err := config.ValidateStreamConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid stream config")
	}

	if err := run(cfg, *count); err != nil {
		log.Fatal().Err(err).Msg("stream stopped")
	}
}

func applyFlags(cfg *config.StreamConfig, host, service string, port int, channels string) {
	if host != "" {
		cfg.Host = host
	}
	if service != "" {
		cfg.Service = service
		if p, ok := config.ServicePort(service); ok {
			cfg.Port = p
		}
	}
	if port != 0 {
		cfg.Port = port
	}
	if channels != "" {
		cfg.Channels = nil
		for _, ch := range strings.Split(channels, ",") {
			if ch = strings.TrimSpace(ch); ch != "" {
				cfg.Channels = append(cfg.Channels, ch)
			}
		}
	}
}

func run(cfg config.StreamConfig, count int) error {
	c, err := client.Dial(cfg.Host, cfg.Port)
	if err != nil {
		return err
	}
	defer func() {
		if c.IsConnected() {
			_ = c.Close()
		}
	}()
	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).
		Str("description", c.Description()).Msg("connected")

	if cfg.Service == config.ServiceConfigurable {
		request := cfg.ChannelRequestXML()
		if err := c.WriteData([]byte(request), cfg.WriteTimeout()); err != nil {
			return fmt.Errorf("send channel request: %w", err)
		}
	}

	if err := c.WaitForData(cfg.WaitTimeout()); err != nil {
		return fmt.Errorf("wait for first sample: %w", err)
	}

	names := map[uint32]string{}
	if document, ok := c.XMLString(); ok {
		if parsed, err := nodemap.Parse(document); err == nil {
			names = parsed
		}
	}

	for read := 0; count == 0 || read < count; {
		payload, err := c.ReadData(cfg.ReadTimeout())
		if errors.Is(err, client.ErrTimeout) {
			log.Warn().Msg("read timed out, retrying")
			continue
		}
		if err != nil {
			return err
		}
		printSample(cfg.Service, payload, names)
		read++
	}
	return nil
}

func printSample(service string, payload []byte, names map[uint32]string) {
	switch service {
	case config.ServiceSensor:
		for _, e := range format.SensorList(payload) {
			fmt.Printf("%s a=%v m=%v g=%v\n", nodemap.Name(names, e.Key()),
				e.Accelerometer(), e.Magnetometer(), e.Gyroscope())
		}
	case config.ServiceRaw:
		for _, e := range format.RawList(payload) {
			fmt.Printf("%s a=%v m=%v g=%v\n", nodemap.Name(names, e.Key()),
				e.Accelerometer(), e.Magnetometer(), e.Gyroscope())
		}
	case config.ServiceConfigurable:
		for _, e := range format.ConfigurableList(payload) {
			fmt.Printf("%s %v\n", nodemap.Name(names, e.Key()), e.Values())
		}
	default:
		for _, e := range format.PreviewList(payload) {
			fmt.Printf("%s q=%v euler=%v accel=%v\n", nodemap.Name(names, e.Key()),
				e.Quaternion(false), e.Euler(), e.Accelerate())
		}
	}
}
