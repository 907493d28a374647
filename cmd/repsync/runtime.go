package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jaronwright/repsync/internal/caches"
	"github.com/jaronwright/repsync/internal/config"
	"github.com/jaronwright/repsync/internal/executor"
	"github.com/jaronwright/repsync/internal/logging"
	"github.com/jaronwright/repsync/internal/netstate"
	"github.com/jaronwright/repsync/internal/notifications"
	"github.com/jaronwright/repsync/internal/queue"
	"github.com/jaronwright/repsync/internal/remote"
	"github.com/jaronwright/repsync/internal/scheduler"
	"github.com/jaronwright/repsync/internal/syncengine"
)

// runtime wires the full sync stack for the sync and watch commands.
type runtime struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *queue.Store
	monitor   *netstate.Monitor
	registry  *caches.Registry
	notify    notifications.Service
	scheduler *scheduler.Scheduler
}

func newRuntime(ctx context.Context, cmdCtx *commandContext) (*runtime, error) {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open queue store: %w", err)
	}
	if _, err := store.ResetStuckSyncing(ctx); err != nil {
		store.Close()
		return nil, err
	}

	ops := remote.NewHTTPClient(cfg)
	exec := executor.New(store, ops, logger)
	engine := syncengine.New(store, exec, logger)
	monitor := netstate.New(cfg, logger)
	registry := caches.New(logger)
	notify := notifications.NewService(cfg)

	return &runtime{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		monitor:   monitor,
		registry:  registry,
		notify:    notify,
		scheduler: scheduler.New(cfg, store, engine, monitor, registry, notify, logger),
	}, nil
}

func (r *runtime) Close() {
	if r.store != nil {
		r.store.Close()
	}
}
