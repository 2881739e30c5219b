package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/veesix-networks/unicastdhcp/pkg/component"
	"github.com/veesix-networks/unicastdhcp/pkg/events"
	"github.com/veesix-networks/unicastdhcp/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service that tracks whether a DHCP server
// location is in effect.
const ServiceName = "unicastdhcp"

type Component struct {
	*component.Base

	logger   *slog.Logger
	bus      events.Bus
	bindAddr string
	server   *grpc.Server
	health   *health.Server
	sub      events.Subscription

	mu       sync.RWMutex
	listener net.Listener
	location string
}

func New(deps component.Dependencies, bindAddr string) (*Component, error) {
	if deps.EventBus == nil {
		return nil, fmt.Errorf("gateway: event bus is required")
	}

	return &Component{
		Base:     component.NewBase("gateway"),
		logger:   logger.Get(logger.Gateway),
		bus:      deps.EventBus,
		bindAddr: bindAddr,
		health:   health.NewServer(),
	}, nil
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)
	c.logger.Info("Starting gateway component", "addr", c.bindAddr)

	lis, err := net.Listen("tcp", c.bindAddr)
	if err != nil {
		c.StopContext()
		return fmt.Errorf("failed to listen: %w", err)
	}

	c.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	c.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	c.sub = c.bus.Subscribe(events.TopicServerLocation, c.handleServerLocation)

	c.server = grpc.NewServer()
	healthpb.RegisterHealthServer(c.server, c.health)
	reflection.Register(c.server)

	c.mu.Lock()
	c.listener = lis
	c.mu.Unlock()

	c.logger.Info("Gateway started", "addr", lis.Addr().String())

	c.Go(func() {
		if err := c.server.Serve(lis); err != nil {
			c.logger.Error("Gateway server error", "error", err)
		}
	})

	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.logger.Info("Stopping gateway component")

	if c.sub != nil {
		c.sub.Unsubscribe()
	}
	c.health.Shutdown()

	if c.server != nil {
		c.server.GracefulStop()
	}

	c.StopContext()
	return nil
}

// Addr returns the bound address once started, or the configured one.
func (c *Component) Addr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.listener != nil {
		return c.listener.Addr().String()
	}
	return c.bindAddr
}

// Location returns the last server location seen on the bus.
func (c *Component) Location() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.location
}

func (c *Component) handleServerLocation(ev events.Event) {
	data, ok := ev.Data.(events.ServerLocationEvent)
	if !ok {
		c.logger.Warn("Unexpected server location payload", "type", fmt.Sprintf("%T", ev.Data))
		return
	}

	c.mu.Lock()
	c.location = data.Location
	c.mu.Unlock()

	status := healthpb.HealthCheckResponse_SERVING
	if data.Location == "" {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	c.health.SetServingStatus(ServiceName, status)

	c.logger.Debug("Server location changed", "app", data.AppName, "location", data.Location, "status", status.String())
}
