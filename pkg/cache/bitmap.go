package cache

import (
	"container/list"
	"image"

	"github.com/ish-xyz/roster-photocache/pkg/metrics"
	"github.com/sirupsen/logrus"
)

func NewBitmapCache(maxSize int) *BitmapCache {
	if maxSize < 1 {
		maxSize = DEFAULT_MAX_SIZE
	}
	return &BitmapCache{
		maxSize: maxSize,
		entries: make(map[string]*list.Element, maxSize),
		order:   list.New(),
		log:     logrus.WithField("name", "cache"),
	}
}

func (c *BitmapCache) Get(key string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		metrics.CacheLookups.WithLabelValues(metrics.LOOKUP_MISS).Inc()
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues(metrics.LOOKUP_HIT).Inc()
	return el.Value.(*cacheEntry).img, true
}

// Put inserts or overwrites the entry for key.
// An overwrite keeps the original insertion position.
func (c *BitmapCache) Put(key string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).img = img
		return
	}

	if c.order.Len() >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = c.order.PushBack(&cacheEntry{key: key, img: img})
	metrics.CacheEntries.Set(float64(c.order.Len()))
}

// must be called with c.mu held
func (c *BitmapCache) evictOldest() {
	el := c.order.Front()
	if el == nil {
		return
	}
	ent := c.order.Remove(el).(*cacheEntry)
	delete(c.entries, ent.key)
	metrics.CacheEvictions.Inc()
	c.log.Tracef("evicted %s", ent.key)
}

func (c *BitmapCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element, c.maxSize)
	c.order.Init()
	metrics.CacheEntries.Set(0)
	c.log.Debugln("cache cleared")
}

func (c *BitmapCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}

// Keys returns resident keys, oldest first.
func (c *BitmapCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*cacheEntry).key)
	}
	return keys
}
