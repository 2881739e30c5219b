package prometheus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/veesix-networks/unicastdhcp/pkg/component"
	"github.com/veesix-networks/unicastdhcp/pkg/logger"
	"github.com/veesix-networks/unicastdhcp/pkg/metrics"
)

const Namespace = "exporter.prometheus"

func init() {
	component.Register(Namespace, New)
}

type Component struct {
	*component.Base
	logger  *slog.Logger
	metrics *metrics.Metrics
	addr    string
	server  *http.Server

	mu       sync.RWMutex
	listener net.Listener
	running  bool
}

// New returns a nil component when the exporter is disabled.
func New(deps component.Dependencies) (component.Component, error) {
	if deps.Config == nil || !deps.Config.Exporter.Enabled {
		return nil, nil
	}
	if deps.Metrics == nil {
		return nil, fmt.Errorf("exporter enabled without a metrics registry")
	}

	return &Component{
		Base:    component.NewBase(Namespace),
		logger:  logger.Get(logger.Exporter),
		metrics: deps.Metrics,
		addr:    deps.Config.Exporter.ListenAddress,
	}, nil
}

// Addr returns the bound address once started, or the configured one.
func (c *Component) Addr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.listener != nil {
		return c.listener.Addr().String()
	}
	return c.addr
}

func (c *Component) Running() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)
	c.logger.Info("Starting Prometheus exporter", "addr", c.addr)

	lis, err := net.Listen("tcp", c.addr)
	if err != nil {
		c.StopContext()
		return fmt.Errorf("listen %s: %w", c.addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.metrics.Registry, promhttp.HandlerOpts{}))

	c.mu.Lock()
	c.listener = lis
	c.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	c.running = true
	c.mu.Unlock()

	c.Go(func() {
		c.serve(lis)
	})

	return nil
}

func (c *Component) serve(lis net.Listener) {
	c.logger.Info("Prometheus HTTP server listening", "addr", lis.Addr().String())
	if err := c.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		c.logger.Error("Prometheus HTTP server error", "error", err)
	}

	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
}

func (c *Component) Stop(ctx context.Context) error {
	c.logger.Info("Stopping Prometheus exporter")

	if c.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.server.Shutdown(shutdownCtx); err != nil {
			c.logger.Warn("Prometheus HTTP server shutdown", "error", err)
		}
	}

	c.StopContext()
	return nil
}
