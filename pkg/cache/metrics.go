package cache

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/inferencecache/metric"
)

// cacheMetrics holds Prometheus metrics for cache operations.
type cacheMetrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	puts      prometheus.Counter
	evictions prometheus.Counter
	size      prometheus.Gauge
}

func newCacheCounter(component, name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   metric.Namespace,
		Subsystem:   "cache",
		Name:        name,
		ConstLabels: prometheus.Labels{"component": component},
		Help:        help,
	})
}

// newCacheMetrics creates and registers cache metrics with the provided registry.
func newCacheMetrics(registry metric.MetricsRegistrar, component string) (*cacheMetrics, error) {
	m := &cacheMetrics{
		hits:      newCacheCounter(component, "hits_total", "Total number of cache hits"),
		misses:    newCacheCounter(component, "misses_total", "Total number of cache misses"),
		puts:      newCacheCounter(component, "puts_total", "Total number of cache put operations"),
		evictions: newCacheCounter(component, "evictions_total", "Total number of cache evictions"),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "cache",
			Name:        "size",
			ConstLabels: prometheus.Labels{"component": component},
			Help:        "Current number of entries in cache",
		}),
	}

	counters := []struct {
		name    string
		counter prometheus.Counter
	}{
		{"cache_hits", m.hits},
		{"cache_misses", m.misses},
		{"cache_puts", m.puts},
		{"cache_evictions", m.evictions},
	}
	for _, c := range counters {
		if err := registry.RegisterCounter(component, c.name, c.counter); err != nil {
			return nil, err
		}
	}
	if err := registry.RegisterGauge(component, "cache_size", m.size); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *cacheMetrics) recordHit()      { m.hits.Inc() }
func (m *cacheMetrics) recordMiss()     { m.misses.Inc() }
func (m *cacheMetrics) recordPut()      { m.puts.Inc() }
func (m *cacheMetrics) recordEviction() { m.evictions.Inc() }

func (m *cacheMetrics) updateSize(size int) {
	m.size.Set(float64(size))
}
