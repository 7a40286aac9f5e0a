package dispatch

import (
	"github.com/ish-xyz/roster-photocache/pkg/metrics"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

func NewPendingSet() *PendingSet {
	return &PendingSet{
		waiting: make(map[string]*consumerSet),
	}
}

// Register adds consumer to the waiters of locator.
// It returns true when locator had no waiters, i.e. a fetch must be scheduled.
func (p *PendingSet) Register(locator string, consumer ConsumerID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.waiting[locator]
	if !ok {
		set = &consumerSet{members: make(map[ConsumerID]struct{})}
		p.waiting[locator] = set
		metrics.PendingLocators.Set(float64(len(p.waiting)))
	}
	if _, dup := set.members[consumer]; !dup {
		set.members[consumer] = struct{}{}
		set.order = append(set.order, consumer)
	}
	return !ok
}

// Take removes locator and returns its waiters in registration order.
func (p *PendingSet) Take(locator string) []ConsumerID {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.waiting[locator]
	if !ok {
		return nil
	}
	delete(p.waiting, locator)
	metrics.PendingLocators.Set(float64(len(p.waiting)))
	return set.order
}

func (p *PendingSet) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.waiting)
}

// Locators returns the pending locators, sorted.
func (p *PendingSet) Locators() []string {
	p.mu.Lock()
	keys := maps.Keys(p.waiting)
	p.mu.Unlock()

	slices.Sort(keys)
	return keys
}

// Reset forgets every waiter and returns how many locators were dropped.
func (p *PendingSet) Reset() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.waiting)
	p.waiting = make(map[string]*consumerSet)
	metrics.PendingLocators.Set(0)
	return n
}
