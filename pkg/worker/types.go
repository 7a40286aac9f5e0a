package worker

import (
	"context"
	"image"
	"sync"

	"github.com/ish-xyz/roster-photocache/pkg/cache"
	"github.com/sirupsen/logrus"
)

// Interfaces

type Fetcher interface {
	Fetch(ctx context.Context, locator string) (image.Image, error)
}

// Sink receives completions on the worker goroutine.
// Submit returns false when the completion was dropped because ctx ended.
type Sink interface {
	Submit(ctx context.Context, c Completion) bool
}

// Types

// Completion is the only value handed from the worker to the control side.
type Completion struct {
	Locator string
	Image   image.Image
	Err     error
}

// Queue is an ordered set of locators waiting for a fetch.
type Queue struct {
	items  []string
	queued map[string]struct{}
	notify chan struct{}
	mu     sync.Mutex
}

type Worker struct {
	cache   cache.Cache
	queue   *Queue
	fetcher Fetcher
	sink    Sink
	log     *logrus.Entry

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}
