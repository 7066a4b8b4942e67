// Package cache provides an in-memory caching layer with TTL and LRU
// eviction, used by API-backed modules to avoid burning request quotas on
// repeated lookups.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache is the interface API modules depend on.
type Cache interface {
	// Get retrieves a value; the boolean reports whether it was found and
	// not expired.
	Get(key string) (any, bool)

	// Set stores a value with a TTL. A zero ttl means the item never expires.
	Set(key string, value any, ttl time.Duration)

	// Delete removes a value.
	Delete(key string)

	// Clear removes all values.
	Clear()

	// Size returns the current number of items.
	Size() int
}

type entry struct {
	key       string
	value     any
	expiresAt time.Time
	element   *list.Element
}

// MemoryCache implements Cache with LRU eviction at a fixed capacity.
type MemoryCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*entry
	lru      *list.List
}

// NewMemoryCache creates a cache that holds at most capacity items; when
// full, the least recently used item is evicted.
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = 100
	}
	return &MemoryCache{
		capacity: capacity,
		items:    make(map[string]*entry),
		lru:      list.New(),
	}
}

func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.remove(e)
		return nil, false
	}

	c.lru.MoveToFront(e.element)
	return e.value, true
}

func (c *MemoryCache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	if e, ok := c.items[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.lru.MoveToFront(e.element)
		return
	}

	if len(c.items) >= c.capacity {
		if back := c.lru.Back(); back != nil {
			c.remove(back.Value.(*entry))
		}
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	e.element = c.lru.PushFront(e)
	c.items[key] = e
}

func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		c.remove(e)
	}
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*entry)
	c.lru.Init()
}

func (c *MemoryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Capacity returns the maximum number of items the cache can hold.
func (c *MemoryCache) Capacity() int {
	return c.capacity
}

// remove expects c.mu held.
func (c *MemoryCache) remove(e *entry) {
	c.lru.Remove(e.element)
	delete(c.items, e.key)
}
