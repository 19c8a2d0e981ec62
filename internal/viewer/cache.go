package viewer

import "sync"

// fifoCache is a bounded map; the oldest key is evicted first. Ebooks are
// immutable once created, so entries never go stale.
type fifoCache[V any] struct {
	mu    sync.Mutex
	max   int
	items map[string]V
	order []string
}

func newFIFOCache[V any](max int) *fifoCache[V] {
	return &fifoCache[V]{max: max, items: make(map[string]V)}
}

func (c *fifoCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *fifoCache[V]) Put(key string, v V) {
	if c.max <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; !ok {
		c.order = append(c.order, key)
	}
	c.items[key] = v

	for len(c.order) > c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
}

func (c *fifoCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
