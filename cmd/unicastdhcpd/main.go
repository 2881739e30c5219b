package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/veesix-networks/unicastdhcp/internal/dataplane"
	"github.com/veesix-networks/unicastdhcp/internal/gateway"
	"github.com/veesix-networks/unicastdhcp/internal/netcfgwatch"
	"github.com/veesix-networks/unicastdhcp/internal/unicastdhcp"
	"github.com/veesix-networks/unicastdhcp/pkg/app"
	"github.com/veesix-networks/unicastdhcp/pkg/component"
	"github.com/veesix-networks/unicastdhcp/pkg/config"
	"github.com/veesix-networks/unicastdhcp/pkg/events/local"
	"github.com/veesix-networks/unicastdhcp/pkg/intent"
	"github.com/veesix-networks/unicastdhcp/pkg/logger"
	"github.com/veesix-networks/unicastdhcp/pkg/metrics"
	"github.com/veesix-networks/unicastdhcp/pkg/netcfg"
	"github.com/veesix-networks/unicastdhcp/pkg/packet"
	"github.com/veesix-networks/unicastdhcp/pkg/version"
	_ "github.com/veesix-networks/unicastdhcp/plugins/all"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Full())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Configure(cfg.Logging.Format, cfg.Logging.Level, cfg.Logging.Components)

	mainLog := logger.Get(logger.Main)
	mainLog.Info("Starting unicastdhcp", "version", version.Version, "punt_socket", cfg.Punt.SocketPath, "netcfg", cfg.NetCfg.File)

	eventBus := local.NewBus()

	deps := component.Dependencies{
		EventBus: eventBus,
		Config:   cfg,
		Metrics:  metrics.New(),
		Apps:     app.NewRegistry(),
		NetCfg:   netcfg.NewRegistry(eventBus),
		Packets:  packet.NewService(),
		Intents:  intent.NewPublisher(eventBus),
	}

	orch := component.NewOrchestrator()

	if cfg.Gateway.Enabled {
		gatewayComp, err := gateway.New(deps, cfg.Gateway.Address)
		if err != nil {
			log.Fatalf("Failed to create gateway component: %v", err)
		}
		orch.Register(gatewayComp)
	}

	dhcpComp, err := unicastdhcp.New(deps)
	if err != nil {
		log.Fatalf("Failed to create unicastdhcp component: %v", err)
	}
	orch.Register(dhcpComp)

	netcfgComp, err := netcfgwatch.New(deps)
	if err != nil {
		log.Fatalf("Failed to create netcfg component: %v", err)
	}
	if netcfgComp != nil {
		orch.Register(netcfgComp)
	}

	dataplaneComp, err := dataplane.New(deps)
	if err != nil {
		log.Fatalf("Failed to create dataplane component: %v", err)
	}
	orch.Register(dataplaneComp)

	pluginComponents, err := component.LoadAll(deps)
	if err != nil {
		log.Fatalf("Failed to load plugin components: %v", err)
	}
	for _, comp := range pluginComponents {
		mainLog.Info("Loaded plugin component", "name", comp.Name())
		orch.Register(comp)
	}

	ctx := context.Background()
	if err := orch.Start(ctx); err != nil {
		log.Fatalf("Failed to start components: %v", err)
	}

	mainLog.Info("unicastdhcp started successfully", "components", orch.Names())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	mainLog.Info("Shutting down unicastdhcp...")

	if err := orch.Stop(ctx); err != nil {
		mainLog.Error("Error stopping components", "error", err)
	}

	if err := eventBus.Close(); err != nil {
		mainLog.Error("Error closing event bus", "error", err)
	}

	mainLog.Info("unicastdhcp stopped")
}
