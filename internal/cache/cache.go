package cache

import (
	"sync"
	"time"
)

// Cache is a small in-process TTL cache. The list handlers keep their
// responses here and drop them on every create.
type Cache[V any] struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]entry[V]
	now func() time.Time

	// bumped by every Delete; SetIfCurrent refuses values read before it
	gen uint64
}

type entry[V any] struct {
	val V
	exp time.Time
}

func New[V any](ttl time.Duration) *Cache[V] {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache[V]{
		ttl: ttl,
		m:   make(map[string]entry[V]),
		now: time.Now,
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		// only drop it if nobody refreshed the entry meanwhile
		if cur, ok := c.m[key]; ok && cur.exp.Equal(e.exp) {
			delete(c.m, key)
		}
		c.mu.Unlock()
		var zero V
		return zero, false
	}

	return e.val, true
}

func (c *Cache[V]) Set(key string, val V) {
	c.mu.Lock()
	c.m[key] = entry[V]{val: val, exp: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Delete drops key and invalidates any value still being built from data read
// before this call.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.gen++
	c.mu.Unlock()
}

// Generation is read before loading a value that will go through
// SetIfCurrent.
func (c *Cache[V]) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// SetIfCurrent stores val only if no Delete happened since gen was read.
func (c *Cache[V]) SetIfCurrent(key string, val V, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return false
	}
	c.m[key] = entry[V]{val: val, exp: c.now().Add(c.ttl)}
	return true
}
