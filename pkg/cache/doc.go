// Package cache provides RecencyCache, a capacity-bounded key/value store with
// least-recently-used eviction.
//
// # Overview
//
// RecencyCache keeps at most Cap() entries. Every successful Get or Put moves
// the key to the most-recently-used position; a Put of a new key into a full
// cache evicts exactly one entry, the least recently used one, before
// inserting. Get on a missing key changes nothing.
//
// The cache never computes values. Callers use the hit/miss signal of Get to
// decide whether to run an expensive computation and then store its result
// with Put:
//
//	c, err := cache.New[string, Result](500)
//	if err != nil {
//		return err
//	}
//
//	if result, ok := c.Get(text); ok {
//		return result, nil
//	}
//	result, err := classify(ctx, text)
//	if err != nil {
//		return nil, err // nothing is cached
//	}
//	c.Put(text, result)
//
// # Ordering
//
// Recency is a strict total order by insertion or promotion time. Entries are
// never tied, so identical operation sequences always evict the same keys.
// Keys are compared with ==; string keys are matched byte for byte with no
// normalization.
//
// # Complexity
//
// Get and Put are O(1): a map locates the list element and a doubly-linked
// list (container/list) maintains the order. Front is most recent, back is the
// next eviction candidate.
//
// # Thread Safety
//
// A single mutex guards each whole Get or Put, so promotion and eviction are
// atomic with respect to other callers. There are no background goroutines.
// Eviction callbacks run after the lock is released.
//
// # Observability
//
// Statistics are always collected with atomic counters and available through
// Stats(). WithMetrics additionally exports hits, misses, puts, evictions and
// size to Prometheus.
package cache
