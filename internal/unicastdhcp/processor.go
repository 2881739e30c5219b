package unicastdhcp

import (
	"net"

	"github.com/google/gopacket/layers"
	"github.com/veesix-networks/unicastdhcp/pkg/connectpoint"
	"github.com/veesix-networks/unicastdhcp/pkg/flow"
	"github.com/veesix-networks/unicastdhcp/pkg/metrics"
	"github.com/veesix-networks/unicastdhcp/pkg/packet"
)

type processor struct {
	c *Component
}

func (p *processor) Process(ctx *packet.Context) {
	in := ctx.InPacket()

	eth := in.Parsed()
	if eth == nil {
		p.c.metrics.PacketIgnored(metrics.ReasonUnparsable)
		return
	}
	if flow.EtherType(eth) != layers.EthernetTypeIPv4 {
		p.c.metrics.PacketIgnored(metrics.ReasonNotIPv4)
		return
	}

	server, ok := p.c.server.Load()
	if !ok {
		p.c.logger.Warn("DHCP server location not configured, dropping packet",
			"from", in.ReceivedFrom().String(),
			"src_mac", eth.SrcMAC.String(),
		)
		p.c.metrics.PacketIgnored(metrics.ReasonServerUnset)
		return
	}

	p.c.redirect(in.ReceivedFrom(), server, eth.SrcMAC)
}

// redirect submits the host to server path selected on the host's source MAC
// and the server to host path selected on it as destination.
func (c *Component) redirect(host, server connectpoint.ConnectPoint, mac net.HardwareAddr) {
	paths := []struct {
		ingress   connectpoint.ConnectPoint
		egress    connectpoint.ConnectPoint
		selector  *flow.TrafficSelector
		direction string
	}{
		{host, server, flow.NewSelector().MatchEthSrc(mac).Build(), metrics.DirectionToServer},
		{server, host, flow.NewSelector().MatchEthDst(mac).Build(), metrics.DirectionToHost},
	}

	for _, path := range paths {
		if err := c.submitPath(path.ingress, path.egress, path.selector); err != nil {
			c.logger.Warn("Failed to submit path", "direction", path.direction, "mac", mac.String(), "error", err)
			c.metrics.PacketIgnored(metrics.ReasonBuildFailure)
			continue
		}
		c.metrics.IntentSubmitted(path.direction)
	}
}
