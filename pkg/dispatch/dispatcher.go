package dispatch

import (
	"context"

	"github.com/ish-xyz/roster-photocache/pkg/fetch"
	"github.com/ish-xyz/roster-photocache/pkg/metrics"
	"github.com/ish-xyz/roster-photocache/pkg/worker"
	"github.com/sirupsen/logrus"
)

func NewDispatcher(pending *PendingSet, bufferSize int, deliver DeliverFunc) *Dispatcher {
	if bufferSize < 1 {
		bufferSize = DEFAULT_BUFFER_SIZE
	}
	if deliver == nil {
		deliver = func(ConsumerID, Delivery) {}
	}
	return &Dispatcher{
		pending: pending,
		results: make(chan worker.Completion, bufferSize),
		deliver: deliver,
		log:     logrus.WithField("name", "dispatcher"),
	}
}

// Submit hands a completion over from the worker goroutine.
func (d *Dispatcher) Submit(ctx context.Context, c worker.Completion) bool {
	if d.closed.Load() {
		return false
	}
	select {
	case d.results <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

func (d *Dispatcher) Register(locator string, consumer ConsumerID) bool {
	return d.pending.Register(locator, consumer)
}

// Results exposes completions to a select-based control loop, which must pass each one to Dispatch.
func (d *Dispatcher) Results() <-chan worker.Completion {
	return d.results
}

// Dispatch notifies every consumer waiting on c.Locator, once each, on the calling goroutine.
func (d *Dispatcher) Dispatch(c worker.Completion) int {
	if d.closed.Load() {
		return 0
	}

	consumers := d.pending.Take(c.Locator)
	if len(consumers) == 0 {
		metrics.DiscardedCompletions.Inc()
		d.log.Debugf("no consumer left for %s, discarding", c.Locator)
		return 0
	}

	result := fetch.Reason(c.Err)
	delivery := Delivery{Locator: c.Locator, Image: c.Image, Err: c.Err}
	for _, id := range consumers {
		d.deliver(id, delivery)
		metrics.Deliveries.WithLabelValues(result).Inc()
	}

	d.log.Tracef("%s delivered to %d consumers (%s)", c.Locator, len(consumers), result)
	return len(consumers)
}

// Poll dispatches every completion already available without blocking.
func (d *Dispatcher) Poll() int {
	n := 0
	for {
		select {
		case c := <-d.results:
			n += d.Dispatch(c)
		default:
			return n
		}
	}
}

// Run dispatches completions until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-d.results:
			d.Dispatch(c)
		}
	}
}

// Close abandons every waiting consumer and drops buffered completions.
func (d *Dispatcher) Close() {
	if d.closed.Swap(true) {
		return
	}

	abandoned := d.pending.Reset()
	dropped := 0
	for {
		select {
		case <-d.results:
			dropped++
		default:
			d.log.Debugf("closed: %d pending locators abandoned, %d completions dropped", abandoned, dropped)
			return
		}
	}
}

func (d *Dispatcher) Pending() *PendingSet {
	return d.pending
}
