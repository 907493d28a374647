package syncengine

import (
	"context"
	"log/slog"
	"time"

	"github.com/jaronwright/repsync/internal/logging"
	"github.com/jaronwright/repsync/internal/queue"
	"github.com/jaronwright/repsync/internal/remote"
)

// maxRetries bounds business-error retries per mutation. Once the count
// reaches the bound the mutation is terminally failed and left for manual
// maintenance.
const maxRetries = 3

// defaultBackoff delays are indexed by the retry count after increment.
var defaultBackoff = []time.Duration{time.Second, 5 * time.Second, 15 * time.Second}

// Runner replays a single queued mutation against the remote API.
// *executor.Executor satisfies it.
type Runner interface {
	Execute(ctx context.Context, m *queue.Mutation) error
}

// Result summarizes one drain pass. It is always valid: the engine never
// reports pass-level errors to callers, only logs them.
type Result struct {
	Synced      int
	Failed      int
	Interrupted bool
}

// Engine drains the mutation queue in FIFO order, one item at a time.
type Engine struct {
	store   *queue.Store
	runner  Runner
	logger  *slog.Logger
	online  func(ctx context.Context) bool
	backoff []time.Duration
	sleep   func(ctx context.Context, d time.Duration) bool
}

// Option adjusts engine behavior, mainly for tests.
type Option func(*Engine)

// WithOnline installs a connectivity probe consulted before each item.
func WithOnline(fn func(ctx context.Context) bool) Option {
	return func(e *Engine) { e.online = fn }
}

// WithBackoff overrides the business-error retry delays.
func WithBackoff(delays []time.Duration) Option {
	return func(e *Engine) { e.backoff = delays }
}

// WithSleep overrides the backoff wait. The function reports false when the
// context was cancelled before the delay elapsed.
func WithSleep(fn func(ctx context.Context, d time.Duration) bool) Option {
	return func(e *Engine) { e.sleep = fn }
}

func New(store *queue.Store, runner Runner, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		runner:  runner,
		logger:  logging.NewComponentLogger(logger, "syncengine"),
		online:  func(context.Context) bool { return true },
		backoff: defaultBackoff,
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessQueue runs at most one drain pass. A second caller arriving while a
// pass is in flight gets a zero Result immediately; nothing is processed
// twice. The pass walks a snapshot of pending and failed mutations in
// creation order and stops early when connectivity drops.
func (e *Engine) ProcessQueue(ctx context.Context) Result {
	if !e.store.TryBeginSync() {
		e.logger.Debug("sync pass already running, skipping")
		return Result{}
	}
	defer e.store.EndSync()

	items, err := e.store.ListForSync(ctx)
	if err != nil {
		e.logger.Error("listing queue for sync", logging.Error(err))
		return Result{}
	}
	if len(items) == 0 {
		return Result{}
	}
	e.logger.Info("starting sync pass", logging.Int("items", len(items)))

	// Creation mutations that already exhausted their retries keep blocking
	// dependents in every later pass, not just the one that failed them.
	blocked := make(map[string]struct{})
	for _, m := range items {
		if exhausted(m) && m.Type.CreatesSession() {
			blocked[m.ClientID] = struct{}{}
		}
	}

	var res Result
	for _, m := range items {
		if exhausted(m) {
			continue
		}
		if ctx.Err() != nil || !e.online(ctx) {
			e.logger.Info("connectivity lost, interrupting sync pass")
			res.Interrupted = true
			break
		}
		if ref := m.SessionRef(); ref != "" {
			if _, skip := blocked[ref]; skip {
				e.logger.Warn("skipping mutation whose session creation failed",
					logging.String(logging.FieldMutationID, m.ID),
					logging.String(logging.FieldClientID, ref))
				continue
			}
		}

		if err := e.store.UpdateStatus(ctx, m.ID, queue.StatusSyncing, ""); err != nil {
			e.logger.Error("marking mutation syncing", logging.String(logging.FieldMutationID, m.ID), logging.Error(err))
			continue
		}

		execErr := e.runner.Execute(ctx, m)
		switch {
		case execErr == nil:
			if _, err := e.store.Dequeue(ctx, m.ID); err != nil {
				e.logger.Error("removing synced mutation", logging.String(logging.FieldMutationID, m.ID), logging.Error(err))
			}
			res.Synced++

		case remote.IsNetworkError(execErr):
			// Connectivity is gone for every remaining item too. Leave this
			// one pending at the head of the queue for the next pass.
			if err := e.store.UpdateStatus(ctx, m.ID, queue.StatusPending, ""); err != nil {
				e.logger.Error("reverting mutation to pending", logging.String(logging.FieldMutationID, m.ID), logging.Error(err))
			}
			e.logger.Info("network error, interrupting sync pass",
				logging.String(logging.FieldMutationID, m.ID),
				logging.Error(execErr))
			res.Interrupted = true
			return res

		default:
			if e.handleBusinessError(ctx, m, execErr, blocked) {
				res.Failed++
			}
		}
	}

	e.logger.Info("sync pass complete",
		logging.Int("synced", res.Synced),
		logging.Int("failed", res.Failed),
		logging.Bool("interrupted", res.Interrupted))
	return res
}

// handleBusinessError applies the retry policy to one rejected mutation and
// reports whether the failure is terminal.
func (e *Engine) handleBusinessError(ctx context.Context, m *queue.Mutation, execErr error, blocked map[string]struct{}) bool {
	retries := m.RetryCount + 1
	if err := e.store.IncrementRetry(ctx, m.ID); err != nil {
		e.logger.Error("incrementing retry count", logging.String(logging.FieldMutationID, m.ID), logging.Error(err))
	}

	if retries >= maxRetries {
		if err := e.store.UpdateStatus(ctx, m.ID, queue.StatusFailed, execErr.Error()); err != nil {
			e.logger.Error("marking mutation failed", logging.String(logging.FieldMutationID, m.ID), logging.Error(err))
		}
		e.logger.Warn("mutation failed permanently",
			logging.String(logging.FieldMutationID, m.ID),
			logging.String(logging.FieldType, string(m.Type)),
			logging.Int("retries", retries),
			logging.Error(execErr))
		if m.Type.CreatesSession() {
			blocked[m.ClientID] = struct{}{}
		}
		return true
	}

	if err := e.store.UpdateStatus(ctx, m.ID, queue.StatusPending, ""); err != nil {
		e.logger.Error("reverting mutation to pending", logging.String(logging.FieldMutationID, m.ID), logging.Error(err))
	}
	delay := e.backoff[min(retries, len(e.backoff))-1]
	e.logger.Info("mutation rejected, backing off",
		logging.String(logging.FieldMutationID, m.ID),
		logging.Int("retries", retries),
		logging.Duration("delay", delay),
		logging.Error(execErr))
	e.sleep(ctx, delay)
	return false
}

func exhausted(m *queue.Mutation) bool {
	return m.Status == queue.StatusFailed && m.RetryCount >= maxRetries
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
