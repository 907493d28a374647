package netstate

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jaronwright/repsync/internal/config"
	"github.com/jaronwright/repsync/internal/logging"
)

const (
	defaultInterval     = 15 * time.Second
	defaultProbeTimeout = 5 * time.Second
)

// Prober reports whether the remote API is currently reachable.
type Prober func(ctx context.Context) bool

// Monitor polls the API health endpoint and tracks an online/offline state.
// Subscribers are notified on every transition; reachability is judged at the
// transport level, so any HTTP response counts as online.
type Monitor struct {
	probe    Prober
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	online bool
	known  bool
	subs   map[int]chan bool
	nextID int
}

type Option func(*Monitor)

// WithProber replaces the HTTP health check.
func WithProber(p Prober) Option {
	return func(m *Monitor) { m.probe = p }
}

// WithInterval overrides the polling interval.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval = d }
}

func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		probe:    httpProber(cfg),
		interval: time.Duration(cfg.Sync.ProbeInterval) * time.Second,
		logger:   logging.NewComponentLogger(logger, "netstate"),
		subs:     make(map[int]chan bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.interval <= 0 {
		m.interval = defaultInterval
	}
	return m
}

func httpProber(cfg *config.Config) Prober {
	timeout := time.Duration(cfg.API.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	client := &http.Client{Timeout: timeout}
	url := cfg.API.BaseURL + cfg.API.HealthPath

	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return true
	}
}

// Online returns the last observed state. Before the first probe it reports
// false.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.known && m.online
}

// Check probes immediately, records the result, and returns it.
func (m *Monitor) Check(ctx context.Context) bool {
	online := m.probe(ctx)
	m.set(online)
	return online
}

// Subscribe registers for transition notifications. The channel carries the
// new state and holds at most the latest value. The returned function
// unsubscribes.
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan bool, 1)
	m.subs[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Run polls until the context is cancelled, starting with an immediate probe.
func (m *Monitor) Run(ctx context.Context) {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

func (m *Monitor) set(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.known && m.online == online {
		return
	}
	wasKnown := m.known
	m.known = true
	m.online = online

	if online {
		if wasKnown {
			m.logger.Info("connectivity restored")
		} else {
			m.logger.Debug("remote API reachable")
		}
	} else {
		m.logger.Warn("remote API unreachable, going offline")
	}

	for _, ch := range m.subs {
		// Keep only the latest state if the subscriber is slow.
		select {
		case <-ch:
		default:
		}
		ch <- online
	}
}
