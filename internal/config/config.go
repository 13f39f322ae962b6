package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Known service names and their fixed TCP ports.
const (
	ServiceConsole      = "console"
	ServiceConfigurable = "configurable"
	ServiceRaw          = "raw"
	ServiceSensor       = "sensor"
	ServicePreview      = "preview"
)

const (
	PortConsole      = 32075
	PortConfigurable = 32076
	PortRaw          = 32077
	PortSensor       = 32078
	PortPreview      = 32079
)

// StreamConfig describes one connection to a Motion Service data stream.
// Timeouts are whole seconds; zero means use the default, a negative value
// means block without a deadline.
type StreamConfig struct {
	Host    string `toml:"host"`
	Service string `toml:"service"`
	Port    int    `toml:"port"`

	// Channel names requested from the configurable service, in the order
	// they should appear in each sample record.
	Channels []string `toml:"channels"`

	// Inactive requests channel values even from nodes the service deems
	// inactive, so every sample carries every node.
	Inactive bool `toml:"inactive"`

	WaitSeconds  int `toml:"wait_seconds"`
	ReadSeconds  int `toml:"read_seconds"`
	WriteSeconds int `toml:"write_seconds"`
}

// DefaultStreamConfig returns the preview stream on the loopback host.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Host:         "127.0.0.1",
		Service:      ServicePreview,
		Port:         PortPreview,
		Inactive:     true,
		WaitSeconds:  5,
		ReadSeconds:  1,
		WriteSeconds: 1,
	}
}

// ServicePort returns the fixed port for a known service name.
func ServicePort(service string) (int, bool) {
	switch strings.ToLower(strings.TrimSpace(service)) {
	case ServiceConsole:
		return PortConsole, true
	case ServiceConfigurable:
		return PortConfigurable, true
	case ServiceRaw:
		return PortRaw, true
	case ServiceSensor:
		return PortSensor, true
	case ServicePreview:
		return PortPreview, true
	default:
		return 0, false
	}
}

// LoadStreamConfig reads a stream profile from a TOML file, fills defaults
// for unset fields, and validates the result.
func LoadStreamConfig(path string) (StreamConfig, error) {
	var cfg StreamConfig
	if err := loadToml(path, &cfg); err != nil {
		return StreamConfig{}, err
	}
	applyDefaults(&cfg)
	if err := ValidateStreamConfig(cfg); err != nil {
		return StreamConfig{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *StreamConfig) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Service == "" && cfg.Port == 0 {
		cfg.Service = ServicePreview
	}
	if cfg.Port == 0 {
		if port, ok := ServicePort(cfg.Service); ok {
			cfg.Port = port
		}
	}
	if cfg.WaitSeconds == 0 {
		cfg.WaitSeconds = 5
	}
	if cfg.ReadSeconds == 0 {
		cfg.ReadSeconds = 1
	}
	if cfg.WriteSeconds == 0 {
		cfg.WriteSeconds = 1
	}
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateStreamConfig(cfg StreamConfig) error {
	if strings.TrimSpace(cfg.Host) == "" {
		return fmt.Errorf("stream config missing host")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("stream config port %d out of range", cfg.Port)
	}
	if cfg.Service != "" {
		if _, ok := ServicePort(cfg.Service); !ok {
			return fmt.Errorf("stream config unknown service %q", cfg.Service)
		}
	}
	if cfg.Service == ServiceConfigurable && len(cfg.Channels) == 0 {
		return fmt.Errorf("stream config configurable service requires channels")
	}
	for i, ch := range cfg.Channels {
		if strings.TrimSpace(ch) == "" {
			return fmt.Errorf("stream config channel[%d] is empty", i)
		}
	}
	return nil
}

// WaitTimeout converts the configured wait seconds to a duration. Zero after
// defaulting cannot occur; a negative setting disables the deadline.
func (cfg StreamConfig) WaitTimeout() time.Duration { return secondsToTimeout(cfg.WaitSeconds) }

// ReadTimeout converts the configured read seconds to a duration.
func (cfg StreamConfig) ReadTimeout() time.Duration { return secondsToTimeout(cfg.ReadSeconds) }

// WriteTimeout converts the configured write seconds to a duration.
func (cfg StreamConfig) WriteTimeout() time.Duration { return secondsToTimeout(cfg.WriteSeconds) }

func secondsToTimeout(seconds int) time.Duration {
	if seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// ChannelRequestXML renders the control message that selects the configured
// channels on the configurable service.
func (cfg StreamConfig) ChannelRequestXML() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><configurable`)
	if cfg.Inactive {
		b.WriteString(` inactive="1"`)
	}
	b.WriteString(">")
	for _, ch := range cfg.Channels {
		b.WriteString("<")
		b.WriteString(ch)
		b.WriteString("/>")
	}
	b.WriteString("</configurable>")
	return b.String()
}
