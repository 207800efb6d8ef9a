package cache

import (
	"github.com/c360/inferencecache/metric"
)

// Option configures cache behavior using the functional options pattern.
type Option[K comparable, V any] func(*cacheOptions[K, V])

type cacheOptions[K comparable, V any] struct {
	// metricsReg is optional; when set, stats are also exported to Prometheus
	metricsReg       metric.MetricsRegistrar
	metricsComponent string

	evictCallback EvictCallback[K, V]
}

// WithMetrics enables Prometheus export under the given component label.
// A nil registry or empty component leaves metrics disabled.
func WithMetrics[K comparable, V any](registry metric.MetricsRegistrar, component string) Option[K, V] {
	return func(opts *cacheOptions[K, V]) {
		if registry != nil && component != "" {
			opts.metricsReg = registry
			opts.metricsComponent = component
		}
	}
}

// WithEvictionCallback sets a function called with each evicted entry.
func WithEvictionCallback[K comparable, V any](callback EvictCallback[K, V]) Option[K, V] {
	return func(opts *cacheOptions[K, V]) {
		opts.evictCallback = callback
	}
}

func applyOptions[K comparable, V any](options ...Option[K, V]) *cacheOptions[K, V] {
	opts := &cacheOptions[K, V]{}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	return opts
}
