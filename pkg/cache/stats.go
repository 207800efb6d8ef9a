package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks cache performance counters.
type Statistics struct {
	hits       atomic.Int64
	misses     atomic.Int64
	puts       atomic.Int64
	updates    atomic.Int64
	promotions atomic.Int64
	evictions  atomic.Int64

	mu          sync.RWMutex
	startTime   time.Time
	currentSize int64
	maxSize     int64 // high-water mark
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		startTime: time.Now(),
	}
}

// Hit records a cache hit.
func (s *Statistics) Hit() { s.hits.Add(1) }

// Miss records a cache miss.
func (s *Statistics) Miss() { s.misses.Add(1) }

// Put records an insert of a new key.
func (s *Statistics) Put() { s.puts.Add(1) }

// Update records a Put that replaced an existing value.
func (s *Statistics) Update() { s.updates.Add(1) }

// Promotion records a reorder to the most-recent position.
func (s *Statistics) Promotion() { s.promotions.Add(1) }

// Eviction records a cache eviction.
func (s *Statistics) Eviction() { s.evictions.Add(1) }

// UpdateSize updates the current cache size.
func (s *Statistics) UpdateSize(size int64) {
	s.mu.Lock()
	s.currentSize = size
	if size > s.maxSize {
		s.maxSize = size
	}
	s.mu.Unlock()
}

// Hits returns the total number of cache hits.
func (s *Statistics) Hits() int64 { return s.hits.Load() }

// Misses returns the total number of cache misses.
func (s *Statistics) Misses() int64 { return s.misses.Load() }

// Puts returns the number of new keys inserted.
func (s *Statistics) Puts() int64 { return s.puts.Load() }

// Updates returns the number of in-place value replacements.
func (s *Statistics) Updates() int64 { return s.updates.Load() }

// Promotions returns how many times an entry was moved to the front.
func (s *Statistics) Promotions() int64 { return s.promotions.Load() }

// Evictions returns the total number of evictions.
func (s *Statistics) Evictions() int64 { return s.evictions.Load() }

// CurrentSize returns the entry count as of the last insert.
func (s *Statistics) CurrentSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentSize
}

// MaxSize returns the largest number of entries the cache has held.
func (s *Statistics) MaxSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxSize
}

// HitRatio returns hits / (hits + misses), or 0 before any lookup.
func (s *Statistics) HitRatio() float64 {
	hits := s.Hits()
	total := hits + s.Misses()
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

// RequestsPerSecond returns the average number of lookups per second.
func (s *Statistics) RequestsPerSecond() float64 {
	elapsed := s.Uptime()
	if elapsed <= 0 {
		return 0.0
	}
	return float64(s.Hits()+s.Misses()) / elapsed.Seconds()
}

// Uptime returns how long the statistics have been collected.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}

// Reset zeroes all counters. Size tracking restarts at the current size.
func (s *Statistics) Reset() {
	s.hits.Store(0)
	s.misses.Store(0)
	s.puts.Store(0)
	s.updates.Store(0)
	s.promotions.Store(0)
	s.evictions.Store(0)

	s.mu.Lock()
	s.startTime = time.Now()
	s.maxSize = s.currentSize
	s.mu.Unlock()
}

// StatsSummary is a point-in-time snapshot of Statistics.
type StatsSummary struct {
	Hits              int64         `json:"hits"`
	Misses            int64         `json:"misses"`
	Puts              int64         `json:"puts"`
	Updates           int64         `json:"updates"`
	Promotions        int64         `json:"promotions"`
	Evictions         int64         `json:"evictions"`
	CurrentSize       int64         `json:"current_size"`
	MaxSize           int64         `json:"max_size"`
	HitRatio          float64       `json:"hit_ratio"`
	RequestsPerSecond float64       `json:"requests_per_second"`
	Uptime            time.Duration `json:"uptime"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Hits:              s.Hits(),
		Misses:            s.Misses(),
		Puts:              s.Puts(),
		Updates:           s.Updates(),
		Promotions:        s.Promotions(),
		Evictions:         s.Evictions(),
		CurrentSize:       s.CurrentSize(),
		MaxSize:           s.MaxSize(),
		HitRatio:          s.HitRatio(),
		RequestsPerSecond: s.RequestsPerSecond(),
		Uptime:            s.Uptime(),
	}
}
