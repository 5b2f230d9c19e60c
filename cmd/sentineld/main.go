package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sentinelx/internal/api"
	"sentinelx/internal/config"
	"sentinelx/internal/dispatch"
	"sentinelx/internal/engine"
	"sentinelx/internal/geoindex"
	"sentinelx/internal/jurisdiction"
	"sentinelx/internal/ledger"
	"sentinelx/internal/logging"
	"sentinelx/internal/model"
	"sentinelx/internal/plates"
	"sentinelx/internal/report"
	"sentinelx/internal/telemetry"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "sentinelx.yaml", "path to config file")
	flag.Parse()

	if err := run(config.ResolvePath(*configPath)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := config.Save(path, config.DefaultConfig()); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	mgr, err := config.NewManager(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := mgr.Get()
	logger := logging.NewLogger(cfg.LogLevel)
	logger.Info("sentineld starting", "version", version, "config", path)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	regions := geoindex.BuiltinRegions()
	if cfg.Geo.DatasetPath != "" {
		regions, err = geoindex.LoadCSV(cfg.Geo.DatasetPath)
		if err != nil {
			return fmt.Errorf("load geo dataset: %w", err)
		}
	}
	index := geoindex.New(regions, cfg.Geo.MaxRadiusKM)
	logger.Info("geo index built", "regions", len(regions), "max_radius_km", cfg.Geo.MaxRadiusKM)

	store, err := ledger.NewStore(cfg.Ledger)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}
	led := ledger.New(store, cfg.Ledger, logger)

	router := jurisdiction.NewRouter(index, plates.NewRegistry(), logger)
	dispatcher := dispatch.New(cfg.Dispatch, logger)
	defer dispatcher.Close()
	reports := report.NewStore(cfg.Reports.StoreLimit)

	eng := engine.New(router, led, reports, dispatcher, nil, logger)
	events := make(chan model.BrakingEvent, cfg.Telemetry.ChannelBuffer)
	engineDone := eng.Start(ctx, events)

	monitorDone := make(chan struct{})
	if cfg.Telemetry.UDP.Enabled {
		source, err := telemetry.StartUDP(ctx, mgr, logger)
		if err != nil {
			return fmt.Errorf("start udp sensor source: %w", err)
		}
		mon := telemetry.NewMonitor(mgr, source, events, logger)
		go func() {
			mon.Run(ctx)
			close(monitorDone)
		}()
	} else {
		logger.Warn("no sensor source enabled, running api only")
		close(monitorDone)
	}

	api.Start(ctx, mgr, reports, led, eng, logger, version)

	go mgr.Watch(3*time.Second,
		func(c *config.Config) {
			led.UpdateConfig(c.Ledger)
			logger.Info("config reloaded", "path", path)
		},
		func(err error) {
			logger.Warn("config reload failed", "err", err)
		},
		ctx.Done(),
	)

	<-ctx.Done()
	logger.Info("shutdown signal received")
	select {
	case <-monitorDone:
		// The monitor has flushed; closing the channel lets the engine
		// finish draining and stop.
		close(events)
	case <-time.After(3 * time.Second):
		logger.Warn("monitor did not stop in time")
	}
	select {
	case <-engineDone:
	case <-time.After(5 * time.Second):
		logger.Warn("engine did not finish draining in time")
	}
	return nil
}
