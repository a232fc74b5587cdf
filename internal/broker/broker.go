// Package broker implements the polite URL dispatch broker's RPC surface:
// PublishUrls, Subscribe, and the standard gRPC health service, wired on top
// of internal/queue, internal/cooldown and internal/dispatch.
package broker

import (
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"crawlbroker.dev/internal/chk"
	"crawlbroker.dev/internal/context"
	"crawlbroker.dev/internal/cooldown"
	"crawlbroker.dev/internal/dispatch"
	"crawlbroker.dev/internal/log"
	"crawlbroker.dev/internal/queue"
	"crawlbroker.dev/internal/rpc"
)

// subscriberChanSize is the bounded buffer between a dispatch loop and its
// outbound stream writer; backpressure on the stream translates to a
// blocking send here, serializing dispatch rate per subscriber.
const subscriberChanSize = 128

// subscription is the bookkeeping kept about one live Subscribe call, used
// only by the read-only /stats admin surface. It is deliberately separate
// from the registry mutex: it is metadata about subscribers, not queue
// state, and must never sit on the registry's critical path.
type subscription struct {
	openedAt time.Time
	lastSent atomic.Int64
}

// Broker implements rpc.BrokerServer.
type Broker struct {
	registry *queue.Registry
	store    cooldown.Store
	notifier *dispatch.Notifier
	ttl      time.Duration

	subs       *xsync.MapOf[uint64, *subscription]
	nextSubID  atomic.Uint64
	dispatched atomic.Int64
	ready      atomic.Bool
}

// New constructs a Broker backed by a fresh registry and store, using ttl as the
// periodic recovery tick interval for each subscriber's dispatch loop.
func New(store cooldown.Store, ttl time.Duration) *Broker {
	return &Broker{
		registry: queue.New(),
		store:    store,
		notifier: dispatch.NewNotifier(),
		ttl:      ttl,
		subs:     xsync.NewMapOf[uint64, *subscription](),
	}
}

// MarkReady flips the in-memory readiness flag consulted by both health
// surfaces, once the gRPC listener is bound.
func (b *Broker) MarkReady() { b.ready.Store(true) }

// Ready reports the broker's liveness: serving unconditionally once bound.
func (b *Broker) Ready() bool { return b.ready.Load() }

// PublishUrls appends each entry to its domain's queue in call-argument
// order, raising the dispatch signal after every append so any idle
// subscriber wakes promptly even when many domains are newly populated.
func (b *Broker) PublishUrls(
	ctx context.T, req *rpc.PublishRequest,
) (*rpc.PublishResponse, error) {
	log.D.F("publishing %d URLs", len(req.Entries))
	for _, e := range req.Entries {
		log.T.C(
			func() string {
				return "added " + e.Url + " to " + e.Domain
			},
		)
		b.registry.Append(e.Domain, e.Url)
		b.notifier.Notify()
	}
	return &rpc.PublishResponse{}, nil
}

// Subscribe allocates a bounded channel, spawns one dispatch.Loop bound to
// it, and drains that channel into the outbound gRPC stream until the stream
// context is done (peer disconnect) or a Send fails.
func (b *Broker) Subscribe(
	_ *rpc.SubscribeRequest, stream rpc.Broker_SubscribeServer,
) error {
	log.D.Ln("new subscription")
	out := make(chan dispatch.Picked, subscriberChanSize)
	loop := &dispatch.Loop{
		Registry: b.registry,
		Store:    b.store,
		Notifier: b.notifier,
		Out:      out,
		TTL:      b.ttl,
	}

	ctx, cancel := context.Cancel(stream.Context())
	defer cancel()

	id := b.register()
	defer b.subs.Delete(id)

	loopDone := make(chan struct{})
	go func() { loop.Run(ctx); close(loopDone) }()

	for {
		select {
		case <-stream.Context().Done():
			// The dispatch loop may have already popped and muted a URL and
			// be about to hand it to out at the moment the peer went away.
			// Cancel and wait for the loop to actually stop before draining,
			// so nothing it sends concurrently with the drain is missed.
			cancel()
			<-loopDone
			b.drainPending(out)
			return nil
		case p := <-out:
			if err := stream.Send(&rpc.UrlMessage{Url: p.URL}); chk.D(err) {
				// DeliveryFailure: this URL already left the registry and
				// the dispatch loop, so this is the last point that still
				// knows its domain — reinsert it here, then cancel the
				// loop, wait for it to stop, and drain anything else it
				// already buffered, before terminating this stream.
				b.registry.Reinsert(p.Domain, p.URL)
				b.notifier.Notify()
				cancel()
				<-loopDone
				b.drainPending(out)
				return err
			}
			b.touch(id)
		}
	}
}

// drainPending reinserts every URL still sitting in a subscriber's outbound
// buffer, called once its dispatch loop has been canceled and has stopped,
// so a disconnect or a failed send never loses URLs the loop had
// already popped and handed off but this stream never got to deliver.
func (b *Broker) drainPending(out <-chan dispatch.Picked) {
	any := false
	for {
		select {
		case p := <-out:
			b.registry.Reinsert(p.Domain, p.URL)
			any = true
		default:
			if any {
				b.notifier.Notify()
			}
			return
		}
	}
}

func (b *Broker) register() uint64 {
	id := b.nextSubID.Add(1)
	b.subs.Store(id, &subscription{openedAt: time.Now()})
	return id
}

func (b *Broker) touch(id uint64) {
	if s, ok := b.subs.Load(id); ok {
		s.lastSent.Store(time.Now().UnixNano())
	}
	b.dispatched.Add(1)
}

// SubscriberCount reports the number of currently open subscriptions, for
// the /stats admin endpoint.
func (b *Broker) SubscriberCount() int { return b.subs.Size() }

// QueueDepths reports the current per-domain queue depth, for /stats.
func (b *Broker) QueueDepths() map[queue.Domain]int { return b.registry.Stats() }

// Dispatched reports the total count of URLs successfully sent to any
// subscriber since the broker started. It is a monotonic diagnostic counter,
// not used in any control path.
func (b *Broker) Dispatched() int64 { return b.dispatched.Load() }
