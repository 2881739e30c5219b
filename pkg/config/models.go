package config

import "github.com/veesix-networks/unicastdhcp/pkg/logger"

type Config struct {
	Logging  Logging  `yaml:"logging"`
	Punt     Punt     `yaml:"punt"`
	NetCfg   NetCfg   `yaml:"netcfg"`
	Exporter Exporter `yaml:"exporter,omitempty"`
	Gateway  Gateway  `yaml:"gateway,omitempty"`
}

type Logging struct {
	Format     string                     `yaml:"format"`
	Level      logger.LogLevel            `yaml:"level"`
	Components map[string]logger.LogLevel `yaml:"components,omitempty"`
}

// Punt is the unixgram socket the dataplane writes punted frames to.
type Punt struct {
	SocketPath string `yaml:"socket_path"`
}

// NetCfg points at the network configuration file holding per-app subjects.
// An empty File leaves network configuration to the API.
type NetCfg struct {
	File  string `yaml:"file,omitempty"`
	Watch bool   `yaml:"watch,omitempty"`
}

type Exporter struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listen_address,omitempty"`
}

type Gateway struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address,omitempty"`
}
