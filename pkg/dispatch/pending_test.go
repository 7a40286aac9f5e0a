package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterReportsFirstWaiter(t *testing.T) {
	p := NewPendingSet()

	assert.True(t, p.Register("a", "row-3"))
	assert.False(t, p.Register("a", "row-7"))
	assert.True(t, p.Register("b", "row-3"))
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, []ConsumerID{"row-3", "row-7"}, p.Take("a"))
}

func TestRegisterSameConsumerTwice(t *testing.T) {
	p := NewPendingSet()
	p.Register("a", "row-1")
	p.Register("a", "row-1")

	assert.Equal(t, []ConsumerID{"row-1"}, p.Take("a"))
}

func TestTakeClearsLocator(t *testing.T) {
	p := NewPendingSet()
	p.Register("a", "row-1")

	assert.Equal(t, []ConsumerID{"row-1"}, p.Take("a"))
	assert.Nil(t, p.Take("a"))
	assert.Equal(t, 0, p.Len())
	assert.True(t, p.Register("a", "row-2"))
}

func TestLocatorsAndReset(t *testing.T) {
	p := NewPendingSet()
	p.Register("c", "row-1")
	p.Register("a", "row-2")
	p.Register("b", "row-3")

	assert.Equal(t, []string{"a", "b", "c"}, p.Locators())
	assert.Equal(t, 3, p.Reset())
	assert.Empty(t, p.Locators())
}
