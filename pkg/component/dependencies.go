package component

import (
	"github.com/veesix-networks/unicastdhcp/pkg/app"
	"github.com/veesix-networks/unicastdhcp/pkg/config"
	"github.com/veesix-networks/unicastdhcp/pkg/events"
	"github.com/veesix-networks/unicastdhcp/pkg/intent"
	"github.com/veesix-networks/unicastdhcp/pkg/metrics"
	"github.com/veesix-networks/unicastdhcp/pkg/netcfg"
	"github.com/veesix-networks/unicastdhcp/pkg/packet"
)

type Dependencies struct {
	EventBus events.Bus
	Config   *config.Config
	Metrics  *metrics.Metrics

	Apps    *app.Registry
	NetCfg  *netcfg.Registry
	Packets *packet.Service
	Intents intent.Service
}
