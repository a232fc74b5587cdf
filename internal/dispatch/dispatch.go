// Package dispatch implements the broker's per-subscriber dispatch loop: the
// state machine that waits for a signal, picks an eligible domain, pops one
// URL, mutes the domain, and sends the URL downstream.
package dispatch

import (
	"time"

	"crawlbroker.dev/internal/chk"
	"crawlbroker.dev/internal/context"
	"crawlbroker.dev/internal/cooldown"
	"crawlbroker.dev/internal/log"
	"crawlbroker.dev/internal/queue"
)

// Picked is one URL popped from the registry together with the domain it
// came from. The pair travels together through Out so that a delivery
// failure downstream (the stream it was headed for is gone) can still
// reinsert it into the right domain's queue instead of discarding it.
type Picked struct {
	Domain queue.Domain
	URL    queue.URL
}

// Loop is one instance per subscriber. It owns no state of its own beyond
// what's needed to run; the registry and cooldown store are shared across
// every subscriber's Loop.
type Loop struct {
	Registry *queue.Registry
	Store    cooldown.Store
	Notifier *Notifier
	Out      chan<- Picked
	TTL      time.Duration
}

// Run blocks, driving the IDLE/PICKING state machine described in the
// broker's dispatch design, until ctx is done (the subscriber disconnected).
// A periodic tick at the configured cooldown TTL supplements the signal so
// throughput recovers once cooldowns expire even when publishes are sparse;
// this is an implementation choice the design explicitly permits, not a
// required behavior.
//
// Exactly one goroutine per Loop waits on l.Notifier at a time: it is started
// once before the loop begins and only restarted after it has actually
// fired, so a quiet subscriber sitting through many ticker cycles never
// accumulates one blocked goroutine per tick.
func (l *Loop) Run(ctx context.T) {
	ticker := time.NewTicker(l.TTL)
	defer ticker.Stop()

	woken := make(chan struct{}, 1)
	go l.waitOnce(ctx, woken)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-woken:
			if ctx.Err() != nil {
				return
			}
			go l.waitOnce(ctx, woken)
		}
		if !l.pick(ctx) {
			return
		}
	}
}

// waitOnce blocks on a single Notifier.Wait call and reports completion on
// done, which is always buffered by at least one slot so this goroutine
// never blocks trying to deliver its result.
func (l *Loop) waitOnce(ctx context.T, done chan<- struct{}) {
	_ = l.Notifier.Wait(ctx)
	done <- struct{}{}
}

// pick runs one PICKING cycle. It returns false only when the subscriber
// channel has been determined gone and the loop should terminate.
func (l *Loop) pick(ctx context.T) bool {
	domains := l.Registry.Domains()
	muted, err := l.Store.MutedDomains(ctx, domains)
	if err != nil {
		// StoreUnavailable: log and skip this cycle. The next signal (or
		// tick) retries; this is not fatal to the loop.
		chk.E(err)
		return true
	}
	domain, url, ok := l.Registry.PickEligible(muted)
	if !ok {
		// EmptyRegistry: not an error, return to IDLE.
		return true
	}
	// Pop-then-mute-then-send, per the broker's documented ordering: a failed
	// mute leaves the URL already emitted (preferred over a failed send after
	// a successful mute, which would silently drop the URL).
	if err = l.Store.Mute(ctx, domain); err != nil {
		log.W.F("mute %s failed, domain briefly unmuted: %s", domain, err)
	}
	select {
	case l.Out <- Picked{Domain: domain, URL: url}:
		return true
	case <-ctx.Done():
		// DeliveryFailure: reinsert and signal so another subscriber (if
		// any) can take it, then terminate this loop.
		l.Registry.Reinsert(domain, url)
		l.Notifier.Notify()
		return false
	}
}
