package dataplane

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veesix-networks/unicastdhcp/pkg/app"
	"github.com/veesix-networks/unicastdhcp/pkg/component"
	"github.com/veesix-networks/unicastdhcp/pkg/config"
	"github.com/veesix-networks/unicastdhcp/pkg/connectpoint"
	"github.com/veesix-networks/unicastdhcp/pkg/flow"
	"github.com/veesix-networks/unicastdhcp/pkg/packet"
)

type capture chan *packet.Context

func (c capture) Process(ctx *packet.Context) { c <- ctx }

func ipv4Frame(t *testing.T) []byte {
	t.Helper()

	src, _ := net.ParseMAC("02:00:00:00:00:0a")
	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true},
		&layers.Ethernet{SrcMAC: src, DstMAC: layers.EthernetBroadcast, EthernetType: layers.EthernetTypeIPv4},
		&layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolUDP, SrcIP: net.IPv4zero.To4(), DstIP: net.IPv4bcast.To4()},
		gopacket.Payload([]byte{0x00}),
	)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(component.Dependencies{})
	assert.Error(t, err)

	_, err = New(component.Dependencies{Packets: packet.NewService()})
	assert.Error(t, err)
}

func TestPuntedFramesReachProcessors(t *testing.T) {
	svc := packet.NewService()
	svc.RequestPackets(flow.NewSelector().MatchEthType(layers.EthernetTypeIPv4).Build(), packet.PriorityReactive, app.ID{Num: 1, Name: "test"})

	got := make(capture, 1)
	svc.AddProcessor(got, packet.Director(3))

	path := filepath.Join(t.TempDir(), "punt.sock")
	c, err := New(component.Dependencies{
		Packets: svc,
		Config:  &config.Config{Punt: config.Punt{SocketPath: path}},
	})
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))

	conn, err := net.DialUnix("unixgram", nil, &net.UnixAddr{Name: c.SocketPath(), Net: "unixgram"})
	require.NoError(t, err)
	defer conn.Close()

	from := connectpoint.New("of:0000000000000002", 7)
	buf, err := packet.EncodePunt(from, ipv4Frame(t))
	require.NoError(t, err)
	_, err = conn.Write(buf)
	require.NoError(t, err)

	select {
	case ctx := <-got:
		assert.Equal(t, from, ctx.InPacket().ReceivedFrom())
		assert.Equal(t, "02:00:00:00:00:0a", ctx.InPacket().Parsed().SrcMAC.String())
	case <-time.After(2 * time.Second):
		t.Fatal("punted frame was not dispatched")
	}

	require.NoError(t, c.Stop(context.Background()))
	assert.NoFileExists(t, path)
}
