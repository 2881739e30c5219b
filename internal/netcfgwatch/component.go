package netcfgwatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/veesix-networks/unicastdhcp/pkg/component"
	"github.com/veesix-networks/unicastdhcp/pkg/logger"
	"github.com/veesix-networks/unicastdhcp/pkg/netcfg"
)

// Component loads the network config file into the registry at start and,
// when watching, reapplies it on every change.
type Component struct {
	*component.Base

	logger *slog.Logger
	source *netcfg.FileSource
	watch  bool
}

// New returns a nil component when no network config file is configured.
func New(deps component.Dependencies) (*Component, error) {
	if deps.Config == nil || deps.Config.NetCfg.File == "" {
		return nil, nil
	}
	if deps.NetCfg == nil {
		return nil, fmt.Errorf("netcfgwatch: netcfg registry is required")
	}

	return &Component{
		Base:   component.NewBase("netcfg.file"),
		logger: logger.Get(logger.NetCfg),
		source: netcfg.NewFileSource(deps.Config.NetCfg.File, deps.NetCfg),
		watch:  deps.Config.NetCfg.Watch,
	}, nil
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)

	if err := c.source.Load(); err != nil {
		c.StopContext()
		return err
	}

	if c.watch {
		c.logger.Info("Watching network config", "path", c.source.Path())
		c.Go(func() {
			if err := c.source.Watch(c.Ctx); err != nil {
				c.logger.Error("Network config watch stopped", "path", c.source.Path(), "error", err)
			}
		})
	}

	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.StopContext()
	return nil
}
