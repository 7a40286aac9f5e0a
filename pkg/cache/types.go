package cache

import (
	"container/list"
	"image"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_MAX_SIZE = 150
)

// Interfaces

type Cache interface {
	Get(key string) (image.Image, bool)
	Put(key string, img image.Image)
	Clear()
	Len() int
	Keys() []string
}

// Types

// BitmapCache holds decoded thumbnails keyed by locator.
// Eviction is FIFO over current membership: reads never reorder entries.
type BitmapCache struct {
	maxSize int
	entries map[string]*list.Element
	order   *list.List // front is the oldest resident entry
	mu      sync.Mutex
	log     *logrus.Entry
}

type cacheEntry struct {
	key string
	img image.Image
}
