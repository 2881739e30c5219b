package flow

import (
	"net"
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
)

func mustMAC(t *testing.T, s string) net.HardwareAddr {
	t.Helper()
	mac, err := net.ParseMAC(s)
	if err != nil {
		t.Fatalf("ParseMAC(%q): %v", s, err)
	}
	return mac
}

func TestMatches(t *testing.T) {
	host := mustMAC(t, "aa:bb:cc:dd:ee:ff")
	other := mustMAC(t, "02:00:00:00:00:01")

	ipv4 := NewSelector().MatchEthType(layers.EthernetTypeIPv4).Build()
	src := NewSelector().MatchEthSrc(host).Build()
	dst := NewSelector().MatchEthDst(host).Build()

	tests := []struct {
		name string
		sel  *TrafficSelector
		eth  *layers.Ethernet
		want bool
	}{
		{"ipv4 type", ipv4, &layers.Ethernet{EthernetType: layers.EthernetTypeIPv4}, true},
		{"arp is not ipv4", ipv4, &layers.Ethernet{EthernetType: layers.EthernetTypeARP}, false},
		{"vlan tagged ipv4", ipv4, tagged(layers.EthernetTypeDot1Q, 0x00, 0x0a, 0x08, 0x00), true},
		{"vlan tagged arp", ipv4, tagged(layers.EthernetTypeDot1Q, 0x00, 0x0a, 0x08, 0x06), false},
		{"src match", src, &layers.Ethernet{SrcMAC: host, DstMAC: other}, true},
		{"src mismatch", src, &layers.Ethernet{SrcMAC: other, DstMAC: host}, false},
		{"dst match", dst, &layers.Ethernet{SrcMAC: other, DstMAC: host}, true},
		{"nil frame", ipv4, nil, false},
		{"empty selector", NewSelector().Build(), &layers.Ethernet{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sel.Matches(tt.eth))
		})
	}
}

func tagged(outer layers.EthernetType, payload ...byte) *layers.Ethernet {
	eth := &layers.Ethernet{EthernetType: outer}
	eth.Payload = payload
	return eth
}

func TestEtherType(t *testing.T) {
	tests := []struct {
		name string
		eth  *layers.Ethernet
		want layers.EthernetType
	}{
		{"untagged", &layers.Ethernet{EthernetType: layers.EthernetTypeIPv4}, layers.EthernetTypeIPv4},
		{"single tag", tagged(layers.EthernetTypeDot1Q, 0x00, 0x0a, 0x08, 0x00), layers.EthernetTypeIPv4},
		{"qinq", tagged(layers.EthernetTypeQinQ, 0x00, 0x64, 0x81, 0x00, 0x00, 0x0a, 0x08, 0x00), layers.EthernetTypeIPv4},
		{"truncated tag", tagged(layers.EthernetTypeDot1Q, 0x00), layers.EthernetTypeDot1Q},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EtherType(tt.eth))
		})
	}
}

func TestBuilderCopiesAddresses(t *testing.T) {
	mac := mustMAC(t, "aa:bb:cc:dd:ee:ff")
	sel := NewSelector().MatchEthSrc(mac).Build()

	mac[0] = 0x00

	assert.Equal(t, "aa:bb:cc:dd:ee:ff", sel.EthSrc().String())
	assert.Nil(t, sel.EthDst())
}

func TestEqualAndString(t *testing.T) {
	mac := mustMAC(t, "aa:bb:cc:dd:ee:ff")
	a := NewSelector().MatchEthDst(mac).Build()
	b := NewSelector().MatchEthDst(mustMAC(t, "AA:BB:CC:DD:EE:FF")).Build()
	c := NewSelector().MatchEthSrc(mac).Build()

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Equal(t, "[ETH_DST:AA:BB:CC:DD:EE:FF]", a.String())

	typed := NewSelector().MatchEthType(layers.EthernetTypeIPv4).Build()
	et, ok := typed.EthType()
	assert.True(t, ok)
	assert.Equal(t, layers.EthernetTypeIPv4, et)
	assert.Equal(t, "[ETH_TYPE:IPv4]", typed.String())
}
