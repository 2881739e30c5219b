package unicastdhcp

import (
	"github.com/veesix-networks/unicastdhcp/pkg/connectpoint"
	"github.com/veesix-networks/unicastdhcp/pkg/events"
	"github.com/veesix-networks/unicastdhcp/pkg/logger"
	"github.com/veesix-networks/unicastdhcp/pkg/metrics"
	"github.com/veesix-networks/unicastdhcp/pkg/netcfg"
)

const ConfigKey = "UnicastDhcpConfig"

// DhcpConfig is the application config node:
//
//	{"serverLocation": "of:0000000000000001/7"}
type DhcpConfig struct {
	netcfg.BaseConfig
	ServerLocation string `json:"serverLocation"`
}

func (c *DhcpConfig) Init(subject, key string, raw []byte) error {
	if err := c.BaseConfig.Init(subject, key, raw); err != nil {
		return err
	}
	return c.Decode(c)
}

// Location parses ServerLocation. Parsing happens on use, not on apply, so a
// malformed value is stored by the registry and rejected here.
func (c *DhcpConfig) Location() (connectpoint.ConnectPoint, error) {
	return connectpoint.Parse(c.ServerLocation)
}

func newConfigFactory() *netcfg.Factory {
	return &netcfg.Factory{
		SubjectClassKey: netcfg.SubjectClassApps,
		ConfigKey:       ConfigKey,
		Create:          func() netcfg.Config { return &DhcpConfig{} },
	}
}

type configListener struct {
	c *Component
}

func (l *configListener) Event(ev netcfg.Event) {
	if ev.Type != netcfg.ConfigAdded && ev.Type != netcfg.ConfigUpdated {
		return
	}
	if ev.SubjectClass != netcfg.SubjectClassApps || ev.ConfigKey != ConfigKey {
		return
	}
	l.c.resolveServer()
}

// resolveServer reads the current config and, when it parses, replaces the
// server location. A missing or malformed config leaves the previous
// location in effect.
func (c *Component) resolveServer() {
	cfg, ok := c.netcfg.GetConfig(netcfg.SubjectClassApps, c.appID.Name, ConfigKey)
	if !ok {
		c.logger.Debug("Config event without config", "key", ConfigKey)
		c.metrics.ConfigUpdate(metrics.ResultMissing)
		return
	}

	dhcpCfg, ok := cfg.(*DhcpConfig)
	if !ok {
		c.logger.Error("Unexpected config type", "key", ConfigKey)
		c.metrics.ConfigUpdate(metrics.ResultRejected)
		return
	}

	server, err := dhcpCfg.Location()
	if err != nil {
		c.logger.Error("Ignoring server location", "value", dhcpCfg.ServerLocation, "error", err)
		c.metrics.ConfigUpdate(metrics.ResultRejected)
		return
	}

	c.server.Store(server)
	c.metrics.SetServerLocation(server)
	c.metrics.ConfigUpdate(metrics.ResultApplied)
	c.publishLocation(server.String())

	c.logger.Info("DHCP server is connected", "device", server.DeviceID, "port", server.Port)
}

func (c *Component) publishLocation(location string) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(events.TopicServerLocation, events.Event{
		Source: logger.UnicastDHCP,
		Data: events.ServerLocationEvent{
			AppName:  c.appID.Name,
			Location: location,
		},
	})
}
