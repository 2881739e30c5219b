package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/veesix-networks/unicastdhcp/pkg/logger"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPuntSocketPath  = "/run/unicastdhcp/punt.sock"
	DefaultExporterAddress = ":9100"
	DefaultGatewayAddress  = "0.0.0.0:50051"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = logger.LogLevelInfo
	}
	if c.Punt.SocketPath == "" {
		c.Punt.SocketPath = DefaultPuntSocketPath
	}
	if c.Exporter.ListenAddress == "" {
		c.Exporter.ListenAddress = DefaultExporterAddress
	}
	if c.Gateway.Address == "" {
		c.Gateway.Address = DefaultGatewayAddress
	}
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format: unknown format '%s'", c.Logging.Format)
	}

	if err := validLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	for name, level := range c.Logging.Components {
		if err := validLevel(level); err != nil {
			return fmt.Errorf("logging.components.%s: %w", name, err)
		}
	}

	if c.NetCfg.Watch && c.NetCfg.File == "" {
		return fmt.Errorf("netcfg.watch requires netcfg.file")
	}

	if c.Exporter.Enabled {
		if _, _, err := net.SplitHostPort(c.Exporter.ListenAddress); err != nil {
			return fmt.Errorf("exporter.listen_address: %w", err)
		}
	}
	if c.Gateway.Enabled {
		if _, _, err := net.SplitHostPort(c.Gateway.Address); err != nil {
			return fmt.Errorf("gateway.address: %w", err)
		}
	}

	return nil
}

func validLevel(level logger.LogLevel) error {
	switch strings.ToLower(string(level)) {
	case "debug", "info", "warn", "warning", "error":
		return nil
	}
	return fmt.Errorf("unknown level '%s'", level)
}
