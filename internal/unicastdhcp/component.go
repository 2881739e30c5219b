package unicastdhcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/gopacket/layers"
	"github.com/veesix-networks/unicastdhcp/pkg/app"
	"github.com/veesix-networks/unicastdhcp/pkg/component"
	"github.com/veesix-networks/unicastdhcp/pkg/connectpoint"
	"github.com/veesix-networks/unicastdhcp/pkg/events"
	"github.com/veesix-networks/unicastdhcp/pkg/flow"
	"github.com/veesix-networks/unicastdhcp/pkg/intent"
	"github.com/veesix-networks/unicastdhcp/pkg/logger"
	"github.com/veesix-networks/unicastdhcp/pkg/metrics"
	"github.com/veesix-networks/unicastdhcp/pkg/netcfg"
	"github.com/veesix-networks/unicastdhcp/pkg/packet"
)

const (
	AppName = "nctu.winlab.unicastdhcp"

	processorPriority = 3
)

// Component redirects DHCP traffic between hosts and a single configured
// server attachment point.
type Component struct {
	*component.Base

	logger  *slog.Logger
	bus     events.Bus
	apps    *app.Registry
	netcfg  *netcfg.Registry
	packets *packet.Service
	intents intent.Service
	metrics *metrics.Metrics

	appID     app.ID
	server    ServerLocation
	factory   *netcfg.Factory
	listener  *configListener
	processor *processor
	request   *flow.TrafficSelector
}

func New(deps component.Dependencies) (*Component, error) {
	if deps.Apps == nil || deps.NetCfg == nil || deps.Packets == nil || deps.Intents == nil {
		return nil, fmt.Errorf("unicastdhcp: app, netcfg, packet and intent services are required")
	}

	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}

	c := &Component{
		Base:    component.NewBase("unicastdhcp"),
		logger:  logger.Get(logger.UnicastDHCP),
		bus:     deps.EventBus,
		apps:    deps.Apps,
		netcfg:  deps.NetCfg,
		packets: deps.Packets,
		intents: deps.Intents,
		metrics: m,
		factory: newConfigFactory(),
		request: flow.NewSelector().MatchEthType(layers.EthernetTypeIPv4).Build(),
	}
	c.listener = &configListener{c: c}
	c.processor = &processor{c: c}

	return c, nil
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)
	c.appID = c.apps.Register(AppName)

	c.netcfg.AddListener(c.listener)
	if err := c.netcfg.RegisterConfigFactory(c.factory); err != nil {
		c.netcfg.RemoveListener(c.listener)
		c.StopContext()
		return fmt.Errorf("register config factory: %w", err)
	}

	c.packets.AddProcessor(c.processor, packet.Director(processorPriority))
	c.packets.RequestPackets(c.request, packet.PriorityReactive, c.appID)

	c.logger.Info("Started", "app", c.appID.String())
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.netcfg.RemoveListener(c.listener)
	c.netcfg.UnregisterConfigFactory(c.factory)
	c.packets.RemoveProcessor(c.processor)
	c.packets.CancelPackets(c.request, packet.PriorityReactive, c.appID)

	c.server.Clear()
	c.metrics.SetServerLocation(connectpoint.ConnectPoint{})
	c.publishLocation("")

	c.StopContext()
	c.logger.Info("Stopped")
	return nil
}

// Server returns the DHCP server attachment point in effect, if any.
func (c *Component) Server() (connectpoint.ConnectPoint, bool) {
	return c.server.Load()
}

func (c *Component) AppID() app.ID {
	return c.appID
}
