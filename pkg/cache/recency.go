package cache

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/c360/inferencecache/errors"
)

// EvictCallback is called when an entry is evicted from the cache.
type EvictCallback[K comparable, V any] func(key K, value V)

type entry[K comparable, V any] struct {
	key   K
	value V
}

// RecencyCache is a thread-safe, capacity-bounded LRU cache.
// Get and Put both promote the key to most recently used.
type RecencyCache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]*list.Element
	order    *list.List // front = most recent, back = next eviction
	stats    *Statistics
	metrics  *cacheMetrics
	evictFn  EvictCallback[K, V]
}

// New creates a cache holding at most capacity entries.
// A capacity below 1 is an invalid configuration.
func New[K comparable, V any](capacity int, options ...Option[K, V]) (*RecencyCache[K, V], error) {
	if capacity < 1 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "New",
			fmt.Sprintf("capacity must be at least 1, got %d", capacity))
	}

	opts := applyOptions(options...)

	var metrics *cacheMetrics
	if opts.metricsReg != nil {
		var err error
		metrics, err = newCacheMetrics(opts.metricsReg, opts.metricsComponent)
		if err != nil {
			return nil, errors.WrapTransient(err, "cache", "New", "metrics registration")
		}
	}

	return &RecencyCache[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
		stats:    NewStatistics(),
		metrics:  metrics,
		evictFn:  opts.evictCallback,
	}, nil
}

// Get returns the value for key and marks it most recently used.
// A miss returns the zero value and false and leaves the cache untouched.
func (c *RecencyCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, exists := c.items[key]
	if !exists {
		c.stats.Miss()
		if c.metrics != nil {
			c.metrics.recordMiss()
		}
		var zero V
		return zero, false
	}

	c.promote(element)
	c.stats.Hit()
	if c.metrics != nil {
		c.metrics.recordHit()
	}

	return element.Value.(*entry[K, V]).value, true
}

// Put stores value under key and marks it most recently used.
// Replacing an existing key never evicts. Inserting a new key into a full
// cache evicts exactly one entry, the least recently used.
func (c *RecencyCache[K, V]) Put(key K, value V) {
	c.mu.Lock()

	if element, exists := c.items[key]; exists {
		element.Value.(*entry[K, V]).value = value
		c.promote(element)
		c.stats.Update()
		if c.metrics != nil {
			c.metrics.recordPut()
		}
		c.mu.Unlock()
		return
	}

	var evicted *entry[K, V]
	if len(c.items) >= c.capacity {
		evicted = c.removeOldest()
	}

	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, value: value})
	size := len(c.items)

	c.stats.Put()
	c.stats.UpdateSize(int64(size))
	if c.metrics != nil {
		c.metrics.recordPut()
		c.metrics.updateSize(size)
	}
	c.mu.Unlock()

	// Callback runs outside the lock so it may call back into the cache.
	if evicted != nil && c.evictFn != nil {
		c.evictFn(evicted.key, evicted.value)
	}
}

// Peek returns the value for key without changing its recency.
func (c *RecencyCache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, exists := c.items[key]; exists {
		return element.Value.(*entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Len returns the current number of entries.
func (c *RecencyCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Cap returns the fixed capacity set at construction.
func (c *RecencyCache[K, V]) Cap() int {
	return c.capacity
}

// Keys returns the keys ordered from most to least recently used.
// It does not promote anything.
func (c *RecencyCache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, len(c.items))
	for element := c.order.Front(); element != nil; element = element.Next() {
		keys = append(keys, element.Value.(*entry[K, V]).key)
	}
	return keys
}

// Stats returns the always-on statistics for this cache.
func (c *RecencyCache[K, V]) Stats() *Statistics {
	return c.stats
}

// promote moves element to the front. Must be called with mutex held.
func (c *RecencyCache[K, V]) promote(element *list.Element) {
	if c.order.Front() == element {
		return
	}
	c.order.MoveToFront(element)
	c.stats.Promotion()
}

// removeOldest drops the back element and returns its entry.
// Must be called with mutex held.
func (c *RecencyCache[K, V]) removeOldest() *entry[K, V] {
	element := c.order.Back()
	if element == nil {
		return nil
	}

	evicted := c.order.Remove(element).(*entry[K, V])
	delete(c.items, evicted.key)

	c.stats.Eviction()
	if c.metrics != nil {
		c.metrics.recordEviction()
	}
	return evicted
}
