// Package queue implements the broker's domain-keyed URL queue registry: a
// mutex-guarded map from domain to a FIFO of pending URLs.
package queue

import (
	"sync"

	"lukechampine.com/frand"
)

// Domain is a string identifier, opaque to the broker; case and
// normalization are the publisher's responsibility.
type Domain = string

// URL is an opaque string payload carried through unchanged.
type URL = string

// Queue is a FIFO sequence of URLs belonging to one domain. It is a plain
// slice-backed queue rather than a fixed-capacity ring buffer: queue depth is
// unbounded (bounded only by memory, per the broker's resource model), so
// there is no fixed capacity to wrap around.
type Queue struct {
	urls []URL
}

// PushBack appends a URL to the tail of the queue.
func (q *Queue) PushBack(u URL) {
	q.urls = append(q.urls, u)
}

// PopFront removes and returns the URL at the head of the queue. ok is false
// if the queue was empty.
func (q *Queue) PopFront() (u URL, ok bool) {
	if len(q.urls) == 0 {
		return "", false
	}
	u = q.urls[0]
	q.urls = q.urls[1:]
	return u, true
}

// Len reports the number of URLs currently queued.
func (q *Queue) Len() int { return len(q.urls) }

// Empty reports whether the queue holds no URLs.
func (q *Queue) Empty() bool { return len(q.urls) == 0 }

// Registry maps domain to Queue. All mutation happens under mu so that no
// partial read of the registry may interleave with a write (invariant I3 of
// the broker's data model).
type Registry struct {
	mu     sync.Mutex
	queues map[Domain]*Queue
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{queues: make(map[Domain]*Queue)}
}

// Append inserts url into the queue for domain, creating the queue if it was
// absent. Always succeeds.
func (r *Registry) Append(domain Domain, url URL) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.queues[domain]
	if !ok {
		q = &Queue{}
		r.queues[domain] = q
	}
	q.PushBack(url)
}

// Domains returns a snapshot of the domains currently present in the
// registry, for use as the key set of a cooldown store lookup. The snapshot
// may be stale by the time PickEligible runs; that race is acceptable per
// the broker's eligibility contract.
func (r *Registry) Domains() []Domain {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Domain, 0, len(r.queues))
	for d := range r.queues {
		out = append(out, d)
	}
	return out
}

// PickEligible selects uniformly at random one domain that is present in the
// registry, not named in muted, and has a non-empty queue; pops its head URL;
// removes the queue entry if it becomes empty as a result (preserving I1);
// and returns the (domain, url) pair. ok is false if no domain qualifies.
func (r *Registry) PickEligible(muted map[Domain]bool) (domain Domain, url URL, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var candidates []Domain
	for d, q := range r.queues {
		if muted[d] {
			continue
		}
		if q.Empty() {
			continue
		}
		candidates = append(candidates, d)
	}
	if len(candidates) == 0 {
		return "", "", false
	}
	domain = candidates[frand.Intn(len(candidates))]
	q := r.queues[domain]
	url, ok = q.PopFront()
	if !ok {
		// Can't happen given the Empty() filter above, but stay defensive
		// about the invariant rather than return a zero-value URL as real.
		return "", "", false
	}
	if q.Empty() {
		delete(r.queues, domain)
	}
	return domain, url, true
}

// Reinsert pushes url back onto domain's queue, recreating the queue if a
// concurrent pop already emptied and removed it. Used on delivery failure so
// the URL is not lost (I2).
func (r *Registry) Reinsert(domain Domain, url URL) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.queues[domain]
	if !ok {
		q = &Queue{}
		r.queues[domain] = q
	}
	q.PushBack(url)
}

// Stats returns the current per-domain queue depth, for the admin /stats
// surface. It is a diagnostic snapshot only.
func (r *Registry) Stats() map[Domain]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[Domain]int, len(r.queues))
	for d, q := range r.queues {
		out[d] = q.Len()
	}
	return out
}
