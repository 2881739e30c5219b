package dataplane

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/veesix-networks/unicastdhcp/pkg/component"
	"github.com/veesix-networks/unicastdhcp/pkg/logger"
	"github.com/veesix-networks/unicastdhcp/pkg/packet"
)

const statsInterval = 10 * time.Second

// Component feeds frames punted by the dataplane into the packet service.
type Component struct {
	*component.Base

	logger   *slog.Logger
	packets  *packet.Service
	listener *packet.PuntListener
}

func New(deps component.Dependencies) (*Component, error) {
	if deps.Packets == nil {
		return nil, fmt.Errorf("dataplane: packet service is required")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("dataplane: config is required")
	}

	return &Component{
		Base:     component.NewBase("dataplane"),
		logger:   logger.Get(logger.Punt),
		packets:  deps.Packets,
		listener: packet.NewPuntListener(deps.Config.Punt.SocketPath, deps.Packets),
	}, nil
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)
	c.logger.Info("Starting dataplane component", "socket", c.listener.Path())

	if err := c.listener.Listen(); err != nil {
		c.StopContext()
		return fmt.Errorf("init punt socket: %w", err)
	}

	c.Go(func() {
		c.listener.Serve(c.Ctx)
	})
	c.Go(c.statsLoop)

	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.logger.Info("Stopping dataplane component")

	c.StopContext()
	if err := c.listener.Close(); err != nil {
		c.logger.Warn("Failed to close punt socket", "error", err)
	}
	return nil
}

func (c *Component) SocketPath() string {
	return c.listener.Path()
}

func (c *Component) statsLoop() {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	var last packet.Stats
	for {
		select {
		case <-c.Ctx.Done():
			return
		case <-ticker.C:
			stats := c.packets.Stats()
			if stats.Dispatched != last.Dispatched || stats.Filtered != last.Filtered {
				c.logger.Info("Punt stats",
					"dispatched", stats.Dispatched,
					"filtered", stats.Filtered,
					"dispatched_delta", stats.Dispatched-last.Dispatched,
					"filtered_delta", stats.Filtered-last.Filtered)
				last = stats
			}
		}
	}
}
