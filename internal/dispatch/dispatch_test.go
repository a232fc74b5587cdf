package dispatch

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"crawlbroker.dev/internal/context"
	"crawlbroker.dev/internal/cooldown"
	"crawlbroker.dev/internal/queue"
)

func TestCooldownEnforcesMinimumInterval(t *testing.T) {
	r := queue.New()
	r.Append("a.com", "u1")
	r.Append("a.com", "u2")
	store := cooldown.NewFake(50 * time.Millisecond)
	out := make(chan Picked, 8)
	n := NewNotifier()
	l := &Loop{Registry: r, Store: store, Notifier: n, Out: out, TTL: 10 * time.Millisecond}

	ctx, cancel := context.Cancel(context.Bg())
	defer cancel()
	go l.Run(ctx)
	n.Notify()

	first := <-out
	t0 := time.Now()
	require.Equal(t, "u1", first.URL)

	second := <-out
	elapsed := time.Since(t0)
	require.Equal(t, "u2", second.URL)
	require.GreaterOrEqual(t, elapsed, 45*time.Millisecond, "second dispatch for the same domain must wait out the cooldown")
}

func TestStoreUnavailableRetriesWithoutDuplication(t *testing.T) {
	r := queue.New()
	r.Append("a.com", "u1")
	store := cooldown.NewFake(5 * time.Millisecond)
	store.FailNext(3)
	out := make(chan Picked, 8)
	n := NewNotifier()
	l := &Loop{Registry: r, Store: store, Notifier: n, Out: out, TTL: 5 * time.Millisecond}

	ctx, cancel := context.Cancel(context.Bg())
	defer cancel()
	go l.Run(ctx)
	n.Notify()

	select {
	case p := <-out:
		require.Equal(t, "u1", p.URL)
	case <-time.After(time.Second):
		t.Fatal("URL was never delivered once the store recovered")
	}

	select {
	case p := <-out:
		t.Fatalf("unexpected duplicate delivery: %s", p.URL)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSendFailureReinsertsURL(t *testing.T) {
	r := queue.New()
	r.Append("a.com", "u1")
	store := cooldown.NewFake(time.Second)
	out := make(chan Picked) // unbuffered and never drained: forces ctx cancellation to race the send
	n := NewNotifier()
	l := &Loop{Registry: r, Store: store, Notifier: n, Out: out, TTL: time.Hour}

	ctx, cancel := context.Cancel(context.Bg())
	done := make(chan struct{})
	go func() { l.Run(ctx); close(done) }()
	n.Notify()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not terminate after context cancellation")
	}
	require.Equal(t, map[queue.Domain]int{"a.com": 1}, r.Stats(), "the popped URL must be reinserted, not lost")
}

func TestIdleTicksDoNotLeakWaitGoroutines(t *testing.T) {
	r := queue.New()
	store := cooldown.NewFake(time.Second)
	out := make(chan Picked, 1)
	n := NewNotifier()
	l := &Loop{Registry: r, Store: store, Notifier: n, Out: out, TTL: time.Millisecond}

	ctx, cancel := context.Cancel(context.Bg())
	done := make(chan struct{})
	before := runtime.NumGoroutine()
	go func() { l.Run(ctx); close(done) }()

	// An empty registry means every tick is a no-op pick; many ticks must
	// still leave at most one goroutine blocked in Notifier.Wait, not one
	// per tick.
	time.Sleep(200 * time.Millisecond)
	after := runtime.NumGoroutine()
	require.LessOrEqual(t, after, before+2, "idle ticks must not accumulate one blocked wait goroutine per cycle")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not terminate after context cancellation")
	}
}
