package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"routecraft.dev/routecraft"
	rcconfig "routecraft.dev/routecraft/config"
	"routecraft.dev/routecraft/logging"
	"routecraft.dev/routecraft/metrics"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load the config file and run every declared route",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon(configFile)
	},
}

func runDaemon(path string) error {
	cfg, err := rcconfig.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slogger, err := logging.Init(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logger := logging.NewLogger(slogger)

	logger.Info("routecraftd starting", "config", path, "routes", len(cfg.Routes))

	rcCtx := routecraft.NewContext(logger)
	metrics.Wire(rcCtx)

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path, logger)
		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
	}

	reg := newAdapterRegistry(rcCtx)
	defs := make([]routecraft.RouteDefinition, 0, len(cfg.Routes))
	for _, spec := range cfg.Routes {
		def, err := buildRoute(reg, spec)
		if err != nil {
			return fmt.Errorf("build route: %w", err)
		}
		defs = append(defs, def)
	}

	if err := rcCtx.RegisterRoutes(defs...); err != nil {
		return fmt.Errorf("register routes: %w", err)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- rcCtx.Start(sigCtx) }()

	select {
	case <-sigCtx.Done():
		logger.Info("received shutdown signal")
		_ = rcCtx.Stop()
		<-done
	case err := <-done:
		if err != nil {
			logger.Error("context start failed", "error", err)
		}
	}

	if metricsServer != nil {
		if err := metricsServer.Stop(context.Background()); err != nil {
			logger.Error("metrics server shutdown failed", "error", err)
		}
	}

	logger.Info("routecraftd stopped")
	return nil
}
