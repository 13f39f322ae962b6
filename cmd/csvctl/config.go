package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/mocapkit/mocapctl/internal/config"
)

type fileConfig struct {
	Host         string   `toml:"host"`
	Channels     []string `toml:"channels"`
	Inactive     bool     `toml:"inactive"`
	Output       string   `toml:"output"`
	Count        int      `toml:"count"`
	WaitSeconds  int      `toml:"wait_seconds"`
	ReadSeconds  int      `toml:"read_seconds"`
	WriteSeconds int      `toml:"write_seconds"`
}

type csvConfig struct {
	stream config.StreamConfig
	output string
	count  int
}

func defaultCSVConfig() csvConfig {
	stream := config.DefaultStreamConfig()
	stream.Service = config.ServiceConfigurable
	stream.Port = config.PortConfigurable
	stream.Channels = []string{"Lq", "c"}
	return csvConfig{stream: stream}
}

func loadCSVConfig(path string) (csvConfig, error) {
	cfg := defaultCSVConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return csvConfig{}, fmt.Errorf("load csv config: %w", err)
	}

	if meta.IsDefined("host") {
		host := strings.TrimSpace(raw.Host)
		if host != "" {
			cfg.stream.Host = host
		}
	}
	if meta.IsDefined("channels") {
		cfg.stream.Channels = normalizeChannels(raw.Channels)
	}
	if meta.IsDefined("inactive") {
		cfg.stream.Inactive = raw.Inactive
	}
	if meta.IsDefined("output") {
		cfg.output = strings.TrimSpace(raw.Output)
	}
	if meta.IsDefined("count") {
		cfg.count = raw.Count
	}
	if meta.IsDefined("wait_seconds") {
		cfg.stream.WaitSeconds = raw.WaitSeconds
	}
	if meta.IsDefined("read_seconds") {
		cfg.stream.ReadSeconds = raw.ReadSeconds
	}
	if meta.IsDefined("write_seconds") {
		cfg.stream.WriteSeconds = raw.WriteSeconds
	}

	if err := config.ValidateStreamConfig(cfg.stream); err != nil {
		return csvConfig{}, err
	}
	return cfg, nil
}

func normalizeChannels(in []string) []string {
	out := make([]string, 0, len(in))
	for _, ch := range in {
		if v := strings.TrimSpace(ch); v != "" {
			out = append(out, v)
		}
	}
	return out
}
