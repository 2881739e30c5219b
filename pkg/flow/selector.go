package flow

import (
	"bytes"
	"fmt"
	"net"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// TrafficSelector is a conjunction of header criteria. Unset criteria match
// anything.
type TrafficSelector struct {
	ethType *layers.EthernetType
	ethSrc  net.HardwareAddr
	ethDst  net.HardwareAddr
}

type Builder struct {
	sel TrafficSelector
}

func NewSelector() *Builder {
	return &Builder{}
}

func (b *Builder) MatchEthType(t layers.EthernetType) *Builder {
	b.sel.ethType = &t
	return b
}

func (b *Builder) MatchEthSrc(mac net.HardwareAddr) *Builder {
	b.sel.ethSrc = cloneMAC(mac)
	return b
}

func (b *Builder) MatchEthDst(mac net.HardwareAddr) *Builder {
	b.sel.ethDst = cloneMAC(mac)
	return b
}

func (b *Builder) Build() *TrafficSelector {
	sel := b.sel
	sel.ethSrc = cloneMAC(b.sel.ethSrc)
	sel.ethDst = cloneMAC(b.sel.ethDst)
	return &sel
}

func (s *TrafficSelector) EthType() (layers.EthernetType, bool) {
	if s.ethType == nil {
		return 0, false
	}
	return *s.ethType, true
}

func (s *TrafficSelector) EthSrc() net.HardwareAddr {
	return s.ethSrc
}

func (s *TrafficSelector) EthDst() net.HardwareAddr {
	return s.ethDst
}

// Matches reports whether the Ethernet header satisfies every criterion.
func (s *TrafficSelector) Matches(eth *layers.Ethernet) bool {
	if eth == nil {
		return false
	}
	if s.ethType != nil && EtherType(eth) != *s.ethType {
		return false
	}
	if s.ethSrc != nil && !bytes.Equal(eth.SrcMAC, s.ethSrc) {
		return false
	}
	if s.ethDst != nil && !bytes.Equal(eth.DstMAC, s.ethDst) {
		return false
	}
	return true
}

// EtherType returns the type of the frame's payload past any 802.1Q or
// 802.1ad tags. A truncated tag leaves the tag type in place.
func EtherType(eth *layers.Ethernet) layers.EthernetType {
	t := eth.EthernetType
	payload := eth.Payload
	for t == layers.EthernetTypeDot1Q || t == layers.EthernetTypeQinQ {
		var tag layers.Dot1Q
		if err := tag.DecodeFromBytes(payload, gopacket.NilDecodeFeedback); err != nil {
			return t
		}
		t = tag.Type
		payload = tag.Payload
	}
	return t
}

func (s *TrafficSelector) Equal(o *TrafficSelector) bool {
	if s == nil || o == nil {
		return s == o
	}
	if (s.ethType == nil) != (o.ethType == nil) {
		return false
	}
	if s.ethType != nil && *s.ethType != *o.ethType {
		return false
	}
	return bytes.Equal(s.ethSrc, o.ethSrc) && bytes.Equal(s.ethDst, o.ethDst)
}

func (s *TrafficSelector) String() string {
	var parts []string
	if s.ethType != nil {
		parts = append(parts, fmt.Sprintf("ETH_TYPE:%s", *s.ethType))
	}
	if s.ethSrc != nil {
		parts = append(parts, "ETH_SRC:"+strings.ToUpper(s.ethSrc.String()))
	}
	if s.ethDst != nil {
		parts = append(parts, "ETH_DST:"+strings.ToUpper(s.ethDst.String()))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func cloneMAC(mac net.HardwareAddr) net.HardwareAddr {
	if mac == nil {
		return nil
	}
	out := make(net.HardwareAddr, len(mac))
	copy(out, mac)
	return out
}
