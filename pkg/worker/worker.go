package worker

import (
	"context"

	"github.com/ish-xyz/roster-photocache/pkg/cache"
	"github.com/sirupsen/logrus"
)

func NewWorker(ch cache.Cache, q *Queue, f Fetcher, s Sink) *Worker {
	return &Worker{
		cache:   ch,
		queue:   q,
		fetcher: f,
		sink:    s,
		log:     logrus.WithField("name", "worker"),
	}
}

// Start launches the worker goroutine. It is a no-op once started or stopped.
func (w *Worker) Start(parent context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started || w.stopped {
		return
	}
	w.started = true

	ctx, cancel := context.WithCancel(parent)
	w.cancel = cancel

	w.wg.Add(1)
	go w.run(ctx)
}

// Stop signals the worker and waits for it to exit.
// An in-flight fetch finishes or times out first; its outcome is dropped.
func (w *Worker) Stop() {
	w.mu.Lock()
	w.stopped = true
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	w.log.Infoln("start worker")
	for {
		locator, ok := w.queue.Pop(ctx)
		if !ok {
			w.log.Infoln("worker stopped")
			return
		}
		w.process(ctx, locator)
	}
}

func (w *Worker) process(ctx context.Context, locator string) {

	// another request may have filled the cache while this one was queued
	if img, ok := w.cache.Get(locator); ok {
		w.log.Debugf("%s already cached, skipping fetch", locator)
		w.emit(ctx, Completion{Locator: locator, Image: img})
		return
	}

	w.log.Tracef("fetching %s", locator)
	img, err := w.fetcher.Fetch(context.WithoutCancel(ctx), locator)

	if ctx.Err() != nil {
		w.log.Debugf("stopped while fetching %s, outcome discarded", locator)
		return
	}

	if err != nil {
		w.log.Warnf("failed to fetch %s: %v", locator, err)
	} else {
		w.cache.Put(locator, img)
	}

	w.emit(ctx, Completion{Locator: locator, Image: img, Err: err})
}

func (w *Worker) emit(ctx context.Context, c Completion) {
	if !w.sink.Submit(ctx, c) {
		w.log.Debugf("completion for %s dropped on shutdown", c.Locator)
	}
}
