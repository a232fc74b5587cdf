package dispatch

import "crawlbroker.dev/internal/context"

// Notifier is a level-less, coalescing wake primitive: publishers call
// Notify, subscriber loops call Wait. Multiple Notify calls while no loop is
// waiting collapse into a single wake, the Go-idiomatic rendering of
// tokio::sync::Notify used by the broker this was ported from.
type Notifier struct {
	ch chan struct{}
}

// NewNotifier returns a ready-to-use Notifier.
func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan struct{}, 1)}
}

// Notify wakes one waiter, or leaves a pending wake for the next Wait call if
// none is currently waiting. It never blocks.
func (n *Notifier) Notify() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// Wait blocks until Notify has been called (possibly before Wait was even
// entered) or ctx is done.
func (n *Notifier) Wait(ctx context.T) error {
	select {
	case <-n.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
