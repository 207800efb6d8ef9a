package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric exported by the service.
const Namespace = "inferencecache"

// Metrics contains service-level metrics for the analyze API.
// Cache internals register their own counters through MetricsRegistry.
type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	InferenceDuration prometheus.Histogram
	InferenceErrors   *prometheus.CounterVec
	CoalescedMisses   prometheus.Counter
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),

		InferenceDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "inference",
				Name:      "duration_seconds",
				Help:      "Upstream classification latency in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),

		InferenceErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "inference",
				Name:      "errors_total",
				Help:      "Total number of failed classifications by error class",
			},
			[]string{"class"},
		),

		CoalescedMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "inference",
				Name:      "coalesced_total",
				Help:      "Cache misses that shared an in-flight classification",
			},
		),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RequestsTotal,
		m.RequestDuration,
		m.InferenceDuration,
		m.InferenceErrors,
		m.CoalescedMisses,
	}
}

// RecordRequest counts one request and observes its duration
func (m *Metrics) RecordRequest(route, code string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(route, code).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordInference observes one upstream classification
func (m *Metrics) RecordInference(duration time.Duration) {
	m.InferenceDuration.Observe(duration.Seconds())
}

// RecordInferenceError increments the error counter for the given class
func (m *Metrics) RecordInferenceError(class string) {
	m.InferenceErrors.WithLabelValues(class).Inc()
}

// RecordCoalesced counts a miss that was served by another caller's computation
func (m *Metrics) RecordCoalesced() {
	m.CoalescedMisses.Inc()
}
