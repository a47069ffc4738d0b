package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/winlab/netconflogger/internal/api"
	_ "github.com/winlab/netconflogger/internal/exporter"
	_ "github.com/winlab/netconflogger/internal/ingress"
	_ "github.com/winlab/netconflogger/internal/ingress/natsource"
	"github.com/winlab/netconflogger/internal/relay"
	"github.com/winlab/netconflogger/internal/watchdog"
	"github.com/winlab/netconflogger/internal/watchdog/targets"
	"github.com/winlab/netconflogger/pkg/component"
	"github.com/winlab/netconflogger/pkg/config"
	"github.com/winlab/netconflogger/pkg/events/local"
	"github.com/winlab/netconflogger/pkg/forwarder"
	"github.com/winlab/netconflogger/pkg/logger"
	"github.com/winlab/netconflogger/pkg/metrics"
	"github.com/winlab/netconflogger/pkg/version"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		os.Stdout.WriteString("netconfloggerd " + version.Full() + "\n")
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Configure(cfg.Logging.Format, cfg.Logging.Level, cfg.Logging.Components)

	mainLog := logger.Component(logger.Main)
	mainLog.Info("Starting netconflogger", "version", version.Short(), "config", *configPath)

	if err := cfg.CheckCollector(); err != nil {
		mainLog.Warn("Collector endpoint is not usable, events will fail with invalid_endpoint", "error", err)
	}

	eventBus := local.NewBusWithQueue(cfg.Events.QueueSize)
	if len(cfg.Events.DebugTopics) > 0 {
		eventBus.SetDebugTopics(cfg.Events.DebugTopics)
	}

	fwd, err := forwarder.New(forwarder.Config{
		Timeout: cfg.Collector.Timeout,
		TLS:     cfg.Collector.TLS,
	})
	if err != nil {
		log.Fatalf("Failed to create forwarder: %v", err)
	}

	deps := component.Dependencies{
		EventBus: eventBus,
		Config:   cfg,
		Metrics:  metrics.New(),
	}

	relayComp, err := relay.New(deps, fwd)
	if err != nil {
		log.Fatalf("Failed to create relay component: %v", err)
	}
	deps.Relay = relayComp

	orch := component.NewOrchestrator()
	orch.Register(relayComp)

	if cfg.Watchdog.Enabled {
		wd := watchdog.New()
		wd.Register(targets.NewCollectorTarget(relayComp.Endpoint, targets.CollectorCallbacks{
			OnDown: func() { deps.Metrics.CollectorUp(false) },
			OnUp:   func() { deps.Metrics.CollectorUp(true) },
		}, true), watchdog.RunnerConfig{
			CheckInterval:    cfg.Watchdog.CheckInterval,
			Timeout:          cfg.Watchdog.Timeout,
			FailureThreshold: cfg.Watchdog.FailureThreshold,
		})
		deps.Health = wd
		orch.Register(wd)
	}

	pluginComponents, err := component.LoadAll(deps)
	if err != nil {
		log.Fatalf("Failed to load components: %v", err)
	}
	for _, comp := range pluginComponents {
		orch.Register(comp)
	}
	for _, comp := range orch.Components() {
		mainLog.Info("Loaded component", "name", comp.Name())
	}

	ctx := context.Background()
	if err := orch.Start(ctx); err != nil {
		log.Fatalf("Failed to start components: %v", err)
	}

	mainLog.Info("netconflogger started", "endpoint", relayComp.Endpoint())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for sig := range sigCh {
		if sig == syscall.SIGHUP {
			reload(*configPath, relayComp)
			continue
		}
		break
	}

	mainLog.Info("Shutting down netconflogger...")

	stopCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := orch.Stop(stopCtx); err != nil {
		mainLog.Error("Error stopping components", "error", err)
	}

	if err := eventBus.Close(); err != nil {
		mainLog.Error("Error closing event bus", "error", err)
	}

	mainLog.Info("netconflogger stopped")
}

// reload applies the parts of the config that can change without a restart:
// log levels, the collector endpoint and catch-all forwarding.
func reload(path string, r *relay.Component) {
	mainLog := logger.Component(logger.Main)

	cfg, err := config.Load(path)
	if err != nil {
		mainLog.Error("Reload failed, keeping running config", "error", err)
		return
	}

	logger.Configure(cfg.Logging.Format, cfg.Logging.Level, cfg.Logging.Components)

	if err := cfg.CheckCollector(); err != nil {
		mainLog.Warn("Collector endpoint is not usable, events will fail with invalid_endpoint", "error", err)
	}
	r.SetEndpoint(cfg.CollectorEndpoint())
	r.SetForwardUnclassified(cfg.Relay.ForwardUnclassified)

	mainLog.Info("Configuration reloaded", "endpoint", r.Endpoint())
}
