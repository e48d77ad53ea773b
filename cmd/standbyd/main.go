package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fairhaven/standbyd/internal/api"
	"github.com/fairhaven/standbyd/internal/checkpoint"
	"github.com/fairhaven/standbyd/internal/config"
	"github.com/fairhaven/standbyd/internal/ha"
	"github.com/fairhaven/standbyd/internal/logger"
	"github.com/fairhaven/standbyd/internal/probe"
	"github.com/fairhaven/standbyd/internal/remote"
)

func main() {
	configPath := flag.String("config", "", "path to yaml config (defaults + env if empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// No logger yet.
		_, _ = os.Stderr.WriteString("standbyd: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Server.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("standbyd: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	self := cfg.Node.Hostname
	if self == "" {
		if self, err = os.Hostname(); err != nil {
			log.Fatal("cannot determine local hostname", zap.Error(err))
		}
	}

	nodes, err := config.ReadNodeList(cfg.Node.NodeList)
	if err != nil {
		log.Fatal("cannot read node list", zap.Error(err))
	}
	ids := make([]ha.NodeID, len(nodes))
	for i, n := range nodes {
		ids[i] = ha.NodeID(n)
	}

	// The only fatal condition: the local node must appear exactly once in
	// the ordered node list.
	view, err := ha.NewClusterView(ha.NodeID(self), ids)
	if err != nil {
		log.Fatal("invalid cluster configuration", zap.Error(err))
	}

	holdback := false
	if cfg.Node.StandbyMarker != "" {
		if _, err := os.Stat(cfg.Node.StandbyMarker); err == nil {
			holdback = true
			log.Info("standby marker present, node will never self-promote",
				zap.String("marker", cfg.Node.StandbyMarker))
		}
	}

	runner, err := remote.NewRunner(cfg.Remote, log)
	if err != nil {
		log.Fatal("cannot build remote runner", zap.Error(err))
	}

	store := checkpoint.NewStore(cfg.Checkpoint, log)
	defer func() { _ = store.Close() }()

	syncer := checkpoint.NewSyncer(store, runner, cfg.Checkpoint, nil, log)
	activator := remote.NewActivator(runner, cfg.Remote, log)
	liveness := probe.New(cfg.Probe, log)
	resolver := ha.NewResolver(view.Self, syncer, log)

	coord := ha.NewCoordinator(view, liveness, resolver, activator, ha.CoordinatorConfig{
		Heartbeat:        cfg.HA.HeartbeatInterval,
		PriorityWaitUnit: cfg.HA.PriorityWaitUnit,
		Holdback:         holdback,
	}, ha.NewClock(), log)
	defer coord.Stop()

	server := api.NewServer(cfg.Server, coord, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("admin server shutdown error", zap.Error(err))
		}
		cancel()
	}()

	go func() {
		if err := server.Start(); err != nil {
			log.Error("admin server failed", zap.Error(err))
		}
	}()

	// Runs until the signal handler cancels ctx. Stopping the watchdog does
	// not stop the managed service.
	if err := coord.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("coordinator stopped", zap.Error(err))
	}
}
