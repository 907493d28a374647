package caches

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/jaronwright/repsync/internal/logging"
)

// RefreshFunc re-derives a cached view after its bucket was invalidated.
type RefreshFunc func(ctx context.Context) error

// Registry tracks named cache buckets on behalf of the consuming
// application. The scheduler invalidates buckets after a pass that synced
// anything; a bucket stays stale until every registered refresh hook for it
// has run cleanly.
type Registry struct {
	logger *slog.Logger

	mu    sync.Mutex
	hooks map[string][]RefreshFunc
	stale map[string]bool
}

func New(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logging.NewComponentLogger(logger, "caches"),
		hooks:  make(map[string][]RefreshFunc),
		stale:  make(map[string]bool),
	}
}

// Register attaches a refresh hook to a bucket, creating the bucket if it is
// new.
func (r *Registry) Register(bucket string, fn RefreshFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[bucket] = append(r.hooks[bucket], fn)
	if _, ok := r.stale[bucket]; !ok {
		r.stale[bucket] = false
	}
}

// Invalidate marks the given buckets stale and runs their refresh hooks. A
// bucket with no hooks stays stale until one is registered and invalidated
// again; a failing hook leaves its bucket stale for the next round.
func (r *Registry) Invalidate(ctx context.Context, buckets ...string) {
	for _, bucket := range buckets {
		r.mu.Lock()
		r.stale[bucket] = true
		hooks := append([]RefreshFunc(nil), r.hooks[bucket]...)
		r.mu.Unlock()

		if len(hooks) == 0 {
			r.logger.Debug("invalidated bucket without refresh hooks", logging.String("bucket", bucket))
			continue
		}

		clean := true
		for _, fn := range hooks {
			if err := fn(ctx); err != nil {
				r.logger.Warn("cache refresh failed", logging.String("bucket", bucket), logging.Error(err))
				clean = false
			}
		}
		if clean {
			r.mu.Lock()
			r.stale[bucket] = false
			r.mu.Unlock()
			r.logger.Debug("bucket refreshed", logging.String("bucket", bucket))
		}
	}
}

// IsStale reports whether a bucket was invalidated and not yet refreshed.
func (r *Registry) IsStale(bucket string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stale[bucket]
}

// Buckets lists every known bucket in stable order.
func (r *Registry) Buckets() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.stale))
	for name := range r.stale {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
