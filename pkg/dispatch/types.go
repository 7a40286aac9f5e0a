package dispatch

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/ish-xyz/roster-photocache/pkg/worker"
	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_BUFFER_SIZE = 64
)

// ConsumerID identifies whoever asked for a photo, e.g. a table cell.
type ConsumerID string

// Delivery is what a consumer receives once its locator resolves.
type Delivery struct {
	Locator string
	Image   image.Image
	Err     error
}

// DeliverFunc is always invoked on the goroutine that drives the Dispatcher.
type DeliverFunc func(consumer ConsumerID, d Delivery)

// PendingSet maps a locator to the consumers waiting on it.
type PendingSet struct {
	waiting map[string]*consumerSet
	mu      sync.Mutex
}

type consumerSet struct {
	order   []ConsumerID
	members map[ConsumerID]struct{}
}

type Dispatcher struct {
	pending *PendingSet
	results chan worker.Completion
	deliver DeliverFunc
	closed  atomic.Bool
	log     *logrus.Entry
}
