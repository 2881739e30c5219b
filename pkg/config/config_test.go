package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veesix-networks/unicastdhcp/pkg/logger"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("netcfg:\n  file: /etc/unicastdhcp/network.yaml\n"))
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, logger.LogLevelInfo, cfg.Logging.Level)
	assert.Equal(t, DefaultPuntSocketPath, cfg.Punt.SocketPath)
	assert.Equal(t, DefaultExporterAddress, cfg.Exporter.ListenAddress)
	assert.Equal(t, DefaultGatewayAddress, cfg.Gateway.Address)
	assert.False(t, cfg.Exporter.Enabled)
	assert.Equal(t, "/etc/unicastdhcp/network.yaml", cfg.NetCfg.File)
}

func TestParseFull(t *testing.T) {
	data := `
logging:
  format: json
  level: debug
  components:
    packet.punt: warn
punt:
  socket_path: /tmp/punt.sock
netcfg:
  file: network.yaml
  watch: true
exporter:
  enabled: true
  listen_address: 127.0.0.1:9200
gateway:
  enabled: true
  address: 127.0.0.1:50052
`
	cfg, err := Parse([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, logger.LogLevelDebug, cfg.Logging.Level)
	assert.Equal(t, logger.LogLevelWarn, cfg.Logging.Components["packet.punt"])
	assert.Equal(t, "/tmp/punt.sock", cfg.Punt.SocketPath)
	assert.True(t, cfg.NetCfg.Watch)
	assert.Equal(t, "127.0.0.1:9200", cfg.Exporter.ListenAddress)
	assert.Equal(t, "127.0.0.1:50052", cfg.Gateway.Address)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"bad format", "logging:\n  format: xml\n", "logging.format"},
		{"bad level", "logging:\n  level: loud\n", "logging.level"},
		{"bad component level", "logging:\n  components:\n    unicastdhcp: trace\n", "logging.components.unicastdhcp"},
		{"watch without file", "netcfg:\n  watch: true\n", "netcfg.watch"},
		{"bad exporter address", "exporter:\n  enabled: true\n  listen_address: nope\n", "exporter.listen_address"},
		{"bad gateway address", "gateway:\n  enabled: true\n  address: nope\n", "gateway.address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	_, err := Load(path)
	require.Error(t, err)

	cfg, err := Parse([]byte("punt:\n  socket_path: /tmp/a.sock\n"))
	require.NoError(t, err)
	require.NoError(t, Save(path, cfg))

	_, err = os.Stat(path)
	require.NoError(t, err)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
