package coordinator

import (
	"image"
	"sync/atomic"

	"github.com/ish-xyz/roster-photocache/pkg/cache"
	"github.com/ish-xyz/roster-photocache/pkg/dispatch"
	"github.com/ish-xyz/roster-photocache/pkg/worker"
	"github.com/sirupsen/logrus"
)

type State int

const (
	STATE_NO_PHOTO State = iota
	STATE_LOADING
	STATE_READY
)

func (s State) String() string {
	switch s {
	case STATE_NO_PHOTO:
		return "no-photo"
	case STATE_LOADING:
		return "loading"
	case STATE_READY:
		return "ready"
	}
	return "unknown"
}

// Result is what Request returns synchronously: a bitmap or a placeholder state.
type Result struct {
	State State
	Image image.Image
}

type Config struct {
	MaxSize    int
	BufferSize int
}

type Coordinator struct {
	id         string
	cache      cache.Cache
	queue      *worker.Queue
	worker     *worker.Worker
	dispatcher *dispatch.Dispatcher
	stopped    atomic.Bool
	log        *logrus.Entry
}
