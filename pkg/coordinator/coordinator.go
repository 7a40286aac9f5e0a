package coordinator

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/ish-xyz/roster-photocache/pkg/cache"
	"github.com/ish-xyz/roster-photocache/pkg/dispatch"
	"github.com/ish-xyz/roster-photocache/pkg/metrics"
	"github.com/ish-xyz/roster-photocache/pkg/worker"
	"github.com/sirupsen/logrus"
)

// NewCoordinator wires a cache, a work queue, one worker and a dispatcher for a single view.
// deliver runs on whichever goroutine drives Poll, Run or Dispatch.
func NewCoordinator(cfg Config, f worker.Fetcher, deliver dispatch.DeliverFunc) *Coordinator {

	id := uuid.NewString()
	ch := cache.NewBitmapCache(cfg.MaxSize)
	q := worker.NewQueue()
	d := dispatch.NewDispatcher(dispatch.NewPendingSet(), cfg.BufferSize, deliver)

	return &Coordinator{
		id:         id,
		cache:      ch,
		queue:      q,
		worker:     worker.NewWorker(ch, q, f, d),
		dispatcher: d,
		log:        logrus.WithFields(logrus.Fields{"name": "coordinator", "view": id}),
	}
}

func (c *Coordinator) Start(ctx context.Context) {
	c.log.Infoln("starting photo worker")
	c.worker.Start(ctx)
}

// Request never blocks. A miss returns STATE_LOADING and consumer is notified later,
// exactly once, through the dispatcher.
func (c *Coordinator) Request(locator string, consumer dispatch.ConsumerID) Result {

	if strings.TrimSpace(locator) == "" {
		return Result{State: STATE_NO_PHOTO}
	}

	if img, ok := c.cache.Get(locator); ok {
		return Result{State: STATE_READY, Image: img}
	}

	if c.stopped.Load() {
		c.log.Debugf("request for %s after shutdown, nothing scheduled", locator)
		return Result{State: STATE_LOADING}
	}

	if c.dispatcher.Register(locator, consumer) {
		c.queue.Push(locator)
		c.log.Debugf("%s queued for %s", locator, consumer)
	} else {
		metrics.CoalescedRequests.Inc()
		c.log.Debugf("%s already pending, %s added to waiters", locator, consumer)
	}

	return Result{State: STATE_LOADING}
}

// Refresh drops every cached bitmap. Pending fetches are unaffected.
func (c *Coordinator) Refresh() {
	c.log.Infoln("refreshing photo cache")
	c.cache.Clear()
}

// Shutdown stops and joins the worker, then abandons waiting consumers.
// Once it returns there are no more cache writes or deliveries.
func (c *Coordinator) Shutdown() {
	if c.stopped.Swap(true) {
		return
	}

	c.log.Infoln("shutting down photo worker...")
	c.worker.Stop()
	c.dispatcher.Close()
	c.log.Infoln("shutting down photo worker: done")
}

func (c *Coordinator) Results() <-chan worker.Completion {
	return c.dispatcher.Results()
}

func (c *Coordinator) Dispatch(comp worker.Completion) int {
	return c.dispatcher.Dispatch(comp)
}

func (c *Coordinator) Poll() int {
	return c.dispatcher.Poll()
}

// Pending returns the number of locators still waiting for an outcome.
func (c *Coordinator) Pending() int {
	return c.dispatcher.Pending().Len()
}

// PendingLocators lists the locators still waiting for an outcome, sorted.
func (c *Coordinator) PendingLocators() []string {
	return c.dispatcher.Pending().Locators()
}

func (c *Coordinator) Queued() int {
	return c.queue.Len()
}

func (c *Coordinator) Cache() cache.Cache {
	return c.cache
}

func (c *Coordinator) ID() string {
	return c.id
}
