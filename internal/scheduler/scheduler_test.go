package scheduler_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jaronwright/repsync/internal/caches"
	"github.com/jaronwright/repsync/internal/config"
	"github.com/jaronwright/repsync/internal/logging"
	"github.com/jaronwright/repsync/internal/queue"
	"github.com/jaronwright/repsync/internal/scheduler"
	"github.com/jaronwright/repsync/internal/syncengine"
	"github.com/jaronwright/repsync/internal/testsupport"
)

type fakeEngine struct {
	mu      sync.Mutex
	results []syncengine.Result
	calls   int
	onCall  func()
}

func (f *fakeEngine) ProcessQueue(context.Context) syncengine.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.onCall != nil {
		f.onCall()
	}
	if len(f.results) == 0 {
		return syncengine.Result{}
	}
	res := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return res
}

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeConn struct {
	online atomic.Bool

	mu   sync.Mutex
	subs []chan bool
}

func (f *fakeConn) Online() bool               { return f.online.Load() }
func (f *fakeConn) Check(context.Context) bool { return f.online.Load() }

func (f *fakeConn) Subscribe() (<-chan bool, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan bool, 1)
	f.subs = append(f.subs, ch)
	return ch, func() {}
}

func (f *fakeConn) set(online bool) {
	f.online.Store(online)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case <-ch:
		default:
		}
		ch <- online
	}
}

type fakeNotifier struct {
	mu          sync.Mutex
	completed   []int
	failed      []int
	interrupted int
}

func (f *fakeNotifier) NotifySyncCompleted(_ context.Context, synced, failed int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, synced)
	f.failed = append(f.failed, failed)
	return nil
}

func (f *fakeNotifier) NotifySyncInterrupted(context.Context, int, int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interrupted++
	return nil
}

func (f *fakeNotifier) NotifyError(context.Context, error, string) error { return nil }
func (f *fakeNotifier) TestNotification(context.Context) error           { return nil }

func newScheduler(t *testing.T, engine *fakeEngine, conn *fakeConn, notifier *fakeNotifier, opts ...testsupport.ConfigOption) (*scheduler.Scheduler, *queue.Store, *caches.Registry) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	registry := caches.New(logging.NewNop())
	sched := scheduler.New(cfg, store, engine, conn, registry, notifier, logging.NewNop())
	return sched, store, registry
}

func TestRunOnceInvalidatesCachesAndNotifies(t *testing.T) {
	engine := &fakeEngine{results: []syncengine.Result{{Synced: 3, Failed: 1}}}
	conn := &fakeConn{}
	conn.online.Store(true)
	notifier := &fakeNotifier{}
	sched, _, registry := newScheduler(t, engine, conn, notifier)

	res := sched.RunOnce(context.Background())
	if res.Synced != 3 || res.Failed != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !registry.IsStale("sessions") || !registry.IsStale("active-session") {
		t.Fatal("expected configured buckets invalidated")
	}
	if len(notifier.completed) != 1 || notifier.completed[0] != 3 || notifier.failed[0] != 1 {
		t.Fatalf("expected one completion notification, got %+v", notifier)
	}
}

func TestRunOnceSkipsSideEffectsWhenNothingSynced(t *testing.T) {
	engine := &fakeEngine{results: []syncengine.Result{{Synced: 0, Failed: 0}}}
	conn := &fakeConn{}
	conn.online.Store(true)
	notifier := &fakeNotifier{}
	sched, _, registry := newScheduler(t, engine, conn, notifier)

	sched.RunOnce(context.Background())
	if len(registry.Buckets()) != 0 {
		t.Fatal("no bucket should be invalidated for an empty pass")
	}
	if len(notifier.completed) != 0 || notifier.interrupted != 0 {
		t.Fatalf("no notification expected, got %+v", notifier)
	}
}

func TestRunOnceReportsInterruption(t *testing.T) {
	engine := &fakeEngine{results: []syncengine.Result{{Synced: 2, Interrupted: true}}}
	conn := &fakeConn{}
	conn.online.Store(true)
	notifier := &fakeNotifier{}
	sched, _, _ := newScheduler(t, engine, conn, notifier)

	sched.RunOnce(context.Background())
	if notifier.interrupted != 1 {
		t.Fatalf("expected interruption notification, got %+v", notifier)
	}
	if len(notifier.completed) != 0 {
		t.Fatal("completion notification must not fire for an interrupted pass")
	}
}

func TestRunOnceRefusesWhileUnreachable(t *testing.T) {
	engine := &fakeEngine{}
	conn := &fakeConn{}
	notifier := &fakeNotifier{}
	sched, _, _ := newScheduler(t, engine, conn, notifier)

	res := sched.RunOnce(context.Background())
	if !res.Interrupted {
		t.Fatalf("unreachable API should interrupt, got %+v", res)
	}
	if engine.callCount() != 0 {
		t.Fatal("engine must not run while unreachable")
	}
}

func TestRunFiresWhenOnlineWithPendingWork(t *testing.T) {
	engine := &fakeEngine{results: []syncengine.Result{{Synced: 1}}}
	conn := &fakeConn{}
	notifier := &fakeNotifier{}
	sched, store, _ := newScheduler(t, engine, conn, notifier)

	testsupport.Enqueue(t, store, queue.TypeCompleteSession, "", queue.CompleteSessionPayload{SessionID: "s1"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	conn.set(true)

	deadline := time.After(2 * time.Second)
	for engine.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("scheduler never triggered a pass")
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

func TestRunStaysIdleWithEmptyQueue(t *testing.T) {
	engine := &fakeEngine{}
	conn := &fakeConn{}
	conn.online.Store(true)
	notifier := &fakeNotifier{}
	sched, _, _ := newScheduler(t, engine, conn, notifier)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	sched.Run(ctx)

	if engine.callCount() != 0 {
		t.Fatalf("no pass expected for an empty queue, got %d", engine.callCount())
	}
}

func TestSettlingAbortsWhenConnectivityDrops(t *testing.T) {
	engine := &fakeEngine{}
	conn := &fakeConn{}
	conn.online.Store(true)
	notifier := &fakeNotifier{}
	sched, store, _ := newScheduler(t, engine, conn, notifier,
		func(c *config.Config) { c.Sync.SettleDelayMS = 150 })

	testsupport.Enqueue(t, store, queue.TypeCompleteSession, "", queue.CompleteSessionPayload{SessionID: "s1"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	// Drop connectivity well inside the settling window.
	time.Sleep(20 * time.Millisecond)
	conn.set(false)

	time.Sleep(300 * time.Millisecond)
	if engine.callCount() != 0 {
		t.Fatalf("pass must not fire after connectivity dropped, got %d calls", engine.callCount())
	}

	cancel()
	<-done
}
