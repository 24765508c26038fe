// Command lostandfoundd runs the Lost and Found simulation core: it loads
// the world configuration, opens the records sink, and drives the
// application façade at a fixed tick rate until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lostandfound/server/internal/app"
	"lostandfound/server/internal/config"
	"lostandfound/server/internal/logging"
	"lostandfound/server/internal/records"
	"lostandfound/server/internal/simulation"
	"lostandfound/server/internal/worldmodel"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Sync()

	worldFile, err := os.Open(cfg.WorldConfigPath)
	if err != nil {
		return fmt.Errorf("open world configuration: %w", err)
	}
	worldCfg, err := worldmodel.LoadConfig(worldFile)
	worldFile.Close()
	if err != nil {
		return fmt.Errorf("parse world configuration: %w", err)
	}
	if cfg.DogRetirementTimeSet {
		worldCfg.DogRetirementTime = cfg.DogRetirementTime.Seconds()
	}
	world, err := worldmodel.NewWorld(worldCfg)
	if err != nil {
		return fmt.Errorf("build world: %w", err)
	}

	sink, err := records.OpenSQLiteSink(cfg.RecordsPath, cfg.RecordsPoolSize)
	if err != nil {
		return fmt.Errorf("open records sink: %w", err)
	}
	defer sink.Close()

	application := app.New(world, sink, cfg.RandomizeSpawn, cfg.RetiredRecordRetryCap, logger)
	application.SetRetirementCallback(func(name string, score float64, playTimeSeconds float64) {
		logger.Info("player retired",
			logging.String("name", name),
			logging.Int("score", int(score)),
			logging.Int("play_time_seconds", int(playTimeSeconds)))
	})

	monitor := simulation.NewTickMonitor()
	loop := simulation.NewLoop(cfg.TickHz, func(step time.Duration) {
		start := time.Now()
		application.Tick(step)
		monitor.Observe(time.Since(start))
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting simulation loop",
		logging.String("world_config", cfg.WorldConfigPath),
		logging.Int("tick_hz", int(cfg.TickHz)))
	loop.Start(ctx)
	<-ctx.Done()
	loop.Stop()

	snapshot := monitor.Snapshot()
	logger.Info("simulation loop stopped",
		logging.Int("samples", snapshot.Samples),
		logging.Int("average_fps", int(snapshot.AverageFPS())))
	return nil
}
