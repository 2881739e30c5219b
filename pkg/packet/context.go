package packet

import (
	"sync"
	"sync/atomic"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/veesix-networks/unicastdhcp/pkg/connectpoint"
)

// InboundPacket is a frame punted to the controller together with the point
// it was received on.
type InboundPacket struct {
	receivedFrom connectpoint.ConnectPoint
	data         []byte

	once   sync.Once
	parsed *layers.Ethernet
}

func NewInboundPacket(from connectpoint.ConnectPoint, data []byte) *InboundPacket {
	return &InboundPacket{receivedFrom: from, data: data}
}

func (p *InboundPacket) ReceivedFrom() connectpoint.ConnectPoint {
	return p.receivedFrom
}

func (p *InboundPacket) Data() []byte {
	return p.data
}

// Parsed decodes the Ethernet header on first use. It returns nil when the
// data does not hold an Ethernet frame.
func (p *InboundPacket) Parsed() *layers.Ethernet {
	p.once.Do(func() {
		if len(p.data) == 0 {
			return
		}
		pkt := gopacket.NewPacket(p.data, layers.LayerTypeEthernet, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
		if ethLayer := pkt.Layer(layers.LayerTypeEthernet); ethLayer != nil {
			p.parsed = ethLayer.(*layers.Ethernet)
		}
	})
	return p.parsed
}

// Context is handed to each processor in turn for one inbound packet.
type Context struct {
	in      *InboundPacket
	blocked atomic.Bool
	handled atomic.Bool
}

func NewContext(in *InboundPacket) *Context {
	return &Context{in: in}
}

func (c *Context) InPacket() *InboundPacket {
	return c.in
}

// Block stops the packet from reaching lower precedence processors.
func (c *Context) Block() {
	c.blocked.Store(true)
}

func (c *Context) IsBlocked() bool {
	return c.blocked.Load()
}

// MarkHandled records that a processor acted on the packet. It does not
// affect delivery.
func (c *Context) MarkHandled() {
	c.handled.Store(true)
}

func (c *Context) IsHandled() bool {
	return c.handled.Load()
}
