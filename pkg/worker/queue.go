package worker

import (
	"context"
)

func NewQueue() *Queue {
	return &Queue{
		items:  make([]string, 0),
		queued: make(map[string]struct{}),
		notify: make(chan struct{}, 1),
	}
}

// Push appends locator unless it is already queued.
func (q *Queue) Push(locator string) bool {
	q.mu.Lock()
	if _, ok := q.queued[locator]; ok {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, locator)
	q.queued[locator] = struct{}{}
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// Pop blocks until a locator is available or ctx is done.
func (q *Queue) Pop(ctx context.Context) (string, bool) {
	for {
		if ctx.Err() != nil {
			return "", false
		}
		if locator, ok := q.tryPop(); ok {
			return locator, true
		}
		select {
		case <-ctx.Done():
			return "", false
		case <-q.notify:
		}
	}
}

func (q *Queue) tryPop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return "", false
	}
	locator := q.items[0]
	q.items[0] = ""
	q.items = q.items[1:]
	delete(q.queued, locator)
	return locator, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}
