package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/jaronwright/repsync/internal/caches"
	"github.com/jaronwright/repsync/internal/config"
	"github.com/jaronwright/repsync/internal/logging"
	"github.com/jaronwright/repsync/internal/notifications"
	"github.com/jaronwright/repsync/internal/queue"
	"github.com/jaronwright/repsync/internal/syncengine"
)

const (
	defaultSettle      = time.Second
	defaultPendingPoll = 5 * time.Second
)

// Engine is the drain pass the scheduler triggers. *syncengine.Engine
// satisfies it.
type Engine interface {
	ProcessQueue(ctx context.Context) syncengine.Result
}

// Connectivity is the slice of netstate.Monitor the scheduler consumes.
type Connectivity interface {
	Online() bool
	Check(ctx context.Context) bool
	Subscribe() (<-chan bool, func())
}

// Scheduler decides when to run a sync pass: online, work pending, and no
// pass already in flight. A settling delay absorbs flaky just-reconnected
// signals; the conditions are re-checked after settling so a pass never
// fires on stale state.
type Scheduler struct {
	cfg     *config.Config
	store   *queue.Store
	engine  Engine
	monitor Connectivity
	caches  *caches.Registry
	notify  notifications.Service
	logger  *slog.Logger

	settle time.Duration
	poll   time.Duration
}

func New(
	cfg *config.Config,
	store *queue.Store,
	engine Engine,
	monitor Connectivity,
	registry *caches.Registry,
	notify notifications.Service,
	logger *slog.Logger,
) *Scheduler {
	settle := time.Duration(cfg.Sync.SettleDelayMS) * time.Millisecond
	if cfg.Sync.SettleDelayMS < 0 {
		settle = defaultSettle
	}
	poll := time.Duration(cfg.Sync.PendingPoll) * time.Second
	if poll <= 0 {
		poll = defaultPendingPoll
	}
	return &Scheduler{
		cfg:     cfg,
		store:   store,
		engine:  engine,
		monitor: monitor,
		caches:  registry,
		notify:  notify,
		logger:  logging.NewComponentLogger(logger, "scheduler"),
		settle:  settle,
		poll:    poll,
	}
}

// Run reacts to connectivity transitions and polls the pending count until
// the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	changes, unsubscribe := s.monitor.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		s.maybeSync(ctx)

		select {
		case <-ctx.Done():
			return
		case online := <-changes:
			if !online {
				s.logger.Debug("went offline, waiting for connectivity")
			}
		case <-ticker.C:
		}
	}
}

// RunOnce probes connectivity and, when reachable, runs a single pass
// immediately without settling. Used by the one-shot sync command.
func (s *Scheduler) RunOnce(ctx context.Context) syncengine.Result {
	if !s.monitor.Check(ctx) {
		s.logger.Warn("remote API unreachable, skipping sync")
		return syncengine.Result{Interrupted: true}
	}
	res := s.engine.ProcessQueue(ctx)
	s.afterPass(ctx, res)
	return res
}

func (s *Scheduler) maybeSync(ctx context.Context) {
	if !s.shouldSync(ctx) {
		return
	}
	if !s.settleWait(ctx) {
		return
	}
	if !s.shouldSync(ctx) {
		s.logger.Debug("sync conditions changed while settling")
		return
	}
	res := s.engine.ProcessQueue(ctx)
	s.afterPass(ctx, res)
}

func (s *Scheduler) shouldSync(ctx context.Context) bool {
	if ctx.Err() != nil || !s.monitor.Online() || s.store.IsSyncing() {
		return false
	}
	count, err := s.store.PendingCount(ctx)
	if err != nil {
		s.logger.Error("reading pending count", logging.Error(err))
		return false
	}
	return count > 0
}

func (s *Scheduler) settleWait(ctx context.Context) bool {
	if s.settle <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(s.settle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// afterPass propagates a pass result: cache invalidation and one summary
// notification, both only when something actually synced.
func (s *Scheduler) afterPass(ctx context.Context, res syncengine.Result) {
	if res.Synced == 0 {
		return
	}

	s.caches.Invalidate(ctx, s.cfg.Sync.InvalidateBuckets...)
	s.logger.Info("sync summary", logging.String("result", notifications.Summary(res.Synced, res.Failed)))

	var err error
	if res.Interrupted {
		remaining, countErr := s.store.PendingCount(ctx)
		if countErr != nil {
			s.logger.Error("reading pending count", logging.Error(countErr))
		}
		err = s.notify.NotifySyncInterrupted(ctx, res.Synced, remaining)
	} else {
		err = s.notify.NotifySyncCompleted(ctx, res.Synced, res.Failed)
	}
	if err != nil {
		s.logger.Warn("sending sync notification", logging.Error(err))
	}
}
