package netstate_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jaronwright/repsync/internal/logging"
	"github.com/jaronwright/repsync/internal/netstate"
	"github.com/jaronwright/repsync/internal/testsupport"
)

func TestCheckAgainstHealthEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithBaseURL(server.URL))
	monitor := netstate.New(cfg, logging.NewNop())

	ctx := context.Background()
	if !monitor.Check(ctx) {
		t.Fatal("expected online against a live server")
	}
	if !monitor.Online() {
		t.Fatal("Online should report the last probe result")
	}

	server.Close()
	if monitor.Check(ctx) {
		t.Fatal("expected offline after server shutdown")
	}
	if monitor.Online() {
		t.Fatal("Online should track the transition to offline")
	}
}

func TestErrorStatusStillCountsAsOnline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithBaseURL(server.URL))
	monitor := netstate.New(cfg, logging.NewNop())

	if !monitor.Check(context.Background()) {
		t.Fatal("a 500 response still proves the network path works")
	}
}

func TestSubscribersSeeTransitionsOnly(t *testing.T) {
	var online atomic.Bool
	online.Store(true)

	cfg := testsupport.NewConfig(t)
	monitor := netstate.New(cfg, logging.NewNop(),
		netstate.WithProber(func(context.Context) bool { return online.Load() }))

	ch, cancel := monitor.Subscribe()
	defer cancel()

	ctx := context.Background()
	monitor.Check(ctx)
	select {
	case got := <-ch:
		if !got {
			t.Fatal("expected initial online notification")
		}
	default:
		t.Fatal("expected a notification for the first observation")
	}

	// Repeated identical probes do not notify.
	monitor.Check(ctx)
	select {
	case <-ch:
		t.Fatal("unchanged state must not notify")
	default:
	}

	online.Store(false)
	monitor.Check(ctx)
	select {
	case got := <-ch:
		if got {
			t.Fatal("expected offline notification")
		}
	default:
		t.Fatal("expected a notification for the offline transition")
	}
}

func TestSlowSubscriberKeepsLatestState(t *testing.T) {
	var online atomic.Bool

	cfg := testsupport.NewConfig(t)
	monitor := netstate.New(cfg, logging.NewNop(),
		netstate.WithProber(func(context.Context) bool { return online.Load() }))

	ch, cancel := monitor.Subscribe()
	defer cancel()

	ctx := context.Background()
	online.Store(true)
	monitor.Check(ctx)
	online.Store(false)
	monitor.Check(ctx)

	if got := <-ch; got {
		t.Fatal("expected the latest (offline) state, not the stale one")
	}
}

func TestRunPollsUntilCancelled(t *testing.T) {
	var probes atomic.Int32
	cfg := testsupport.NewConfig(t)
	monitor := netstate.New(cfg, logging.NewNop(),
		netstate.WithInterval(time.Millisecond),
		netstate.WithProber(func(context.Context) bool {
			probes.Add(1)
			return true
		}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		monitor.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for probes.Load() < 3 {
		select {
		case <-deadline:
			t.Fatal("monitor did not keep polling")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancellation")
	}
}
