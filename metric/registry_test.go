package metric

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/inferencecache/errors"
)

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()

	assert.NotNil(t, registry)
	assert.NotNil(t, registry.PrometheusRegistry())
	assert.Same(t, registry.Metrics, registry.CoreMetrics())
}

func TestMetricsRegistry_RegisterCounter(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_counter",
		Help: "A test counter",
	})

	require.NoError(t, registry.RegisterCounter("test-component", "test_counter", counter))
	counter.Inc()

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range metricFamilies {
		if mf.GetName() == "test_counter" {
			found = true
			break
		}
	}
	assert.True(t, found, "counter should be registered in Prometheus registry")
}

func TestMetricsRegistry_DuplicateRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "dup_gauge", Help: "dup"})
	require.NoError(t, registry.RegisterGauge("svc", "dup_gauge", gauge))

	err := registry.RegisterGauge("svc", "dup_gauge", gauge)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	// Same collector under a different key collides inside Prometheus.
	err = registry.RegisterGauge("other", "dup_gauge", gauge)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestMetricsRegistry_Unregister(t *testing.T) {
	registry := NewMetricsRegistry()

	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "h", Help: "h"})
	require.NoError(t, registry.RegisterHistogram("svc", "h", histogram))

	assert.True(t, registry.Unregister("svc", "h"))
	assert.False(t, registry.Unregister("svc", "h"))

	// Key is free again after unregistering.
	require.NoError(t, registry.RegisterHistogram("svc", "h", histogram))
}

func TestMetrics_Record(t *testing.T) {
	registry := NewMetricsRegistry()
	m := registry.CoreMetrics()

	m.RecordRequest("/analyze", "200", 10*time.Millisecond)
	m.RecordRequest("/analyze", "200", 20*time.Millisecond)
	m.RecordRequest("/analyze", "400", time.Millisecond)
	m.RecordInferenceError("transient")
	m.RecordCoalesced()
	m.RecordInference(50 * time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/analyze", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/analyze", "400")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.InferenceErrors.WithLabelValues("transient")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CoalescedMisses))
	assert.Equal(t, 1, testutil.CollectAndCount(m.InferenceDuration))
}

func TestServer_Handler(t *testing.T) {
	registry := NewMetricsRegistry()
	registry.CoreMetrics().RecordCoalesced()

	srv := NewServer(0, "", registry)
	assert.Equal(t, "http://localhost:9090/metrics", srv.Address())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "inferencecache_inference_coalesced_total 1"))
}

func TestServer_StopWithoutStart(t *testing.T) {
	srv := NewServer(0, "", NewMetricsRegistry())
	assert.NoError(t, srv.Stop(t.Context()))
}

func TestServer_StartAfterStopReturns(t *testing.T) {
	srv := NewServer(0, "", NewMetricsRegistry())
	require.NoError(t, srv.Stop(t.Context()))

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		require.NoError(t, srv.Stop(context.Background()))
		t.Fatal("Start kept serving after Stop")
	}
}
