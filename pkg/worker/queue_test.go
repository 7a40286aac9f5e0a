package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueueDeduplicates(t *testing.T) {
	q := NewQueue()

	assert.True(t, q.Push("a"))
	assert.True(t, q.Push("b"))
	assert.False(t, q.Push("a"))
	assert.Equal(t, 2, q.Len())
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	q.Push("a")
	q.Push("b")
	q.Push("c")

	ctx := context.Background()
	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.Pop(ctx)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 0, q.Len())

	// popped locators can be queued again
	assert.True(t, q.Push("a"))
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := NewQueue()
	got := make(chan string, 1)

	go func() {
		locator, _ := q.Pop(context.Background())
		got <- locator
	}()

	select {
	case <-got:
		t.Fatal("pop returned on an empty queue")
	case <-time.After(50 * time.Millisecond):
	}

	q.Push("late")
	select {
	case locator := <-got:
		assert.Equal(t, "late", locator)
	case <-time.After(time.Second):
		t.Fatal("pop did not wake up after push")
	}
}

func TestQueuePopCancelled(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, ok := q.Pop(ctx)
	assert.False(t, ok)

	// cancellation wins over pending items
	q.Push("a")
	_, ok = q.Pop(ctx)
	assert.False(t, ok)
	assert.Equal(t, 1, q.Len())
}
