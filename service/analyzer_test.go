package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/inferencecache/classifier"
	"github.com/c360/inferencecache/errors"
	"github.com/c360/inferencecache/health"
	"github.com/c360/inferencecache/metric"
	"github.com/c360/inferencecache/pkg/cache"
)

var positive = classifier.Result{
	{Label: "POSITIVE", Score: 0.98},
	{Label: "NEGATIVE", Score: 0.02},
}

// countingClassifier returns positive for every text and counts calls.
type countingClassifier struct {
	calls atomic.Int64
	err   error
	gate  chan struct{}
}

func (c *countingClassifier) Classify(ctx context.Context, _ string) (classifier.Result, error) {
	c.calls.Add(1)
	if c.gate != nil {
		select {
		case <-c.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	return positive, nil
}

func newTestAnalyzer(t *testing.T, capacity int, cl classifier.Classifier, opts ...AnalyzerOption) (*Analyzer, *cache.RecencyCache[string, classifier.Result]) {
	t.Helper()
	c, err := cache.New[string, classifier.Result](capacity)
	require.NoError(t, err)
	a, err := NewAnalyzer(c, cl, opts...)
	require.NoError(t, err)
	return a, c
}

func TestNewAnalyzer_RequiresDependencies(t *testing.T) {
	c, err := cache.New[string, classifier.Result](1)
	require.NoError(t, err)

	_, err = NewAnalyzer(nil, &countingClassifier{})
	assert.True(t, errors.IsFatal(err))

	_, err = NewAnalyzer(c, nil)
	assert.True(t, errors.IsFatal(err))
}

func TestAnalyze_MissThenHit(t *testing.T) {
	cl := &countingClassifier{}
	a, c := newTestAnalyzer(t, 10, cl)

	first, err := a.Analyze(t.Context(), "I love this")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, positive, first.Labels)
	assert.Equal(t, "I love this", first.Text)

	second, err := a.Analyze(t.Context(), "I love this")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, positive, second.Labels)

	assert.Equal(t, int64(1), cl.calls.Load())
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(1), c.Stats().Hits())
	assert.Equal(t, int64(1), c.Stats().Misses())
}

func TestAnalyze_EmptyText(t *testing.T) {
	cl := &countingClassifier{}
	a, _ := newTestAnalyzer(t, 10, cl)

	_, err := a.Analyze(t.Context(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMissingInput))
	assert.Zero(t, cl.calls.Load())
}

func TestAnalyze_ErrorsAreNotCached(t *testing.T) {
	upstream := errors.WrapTransient(errors.ErrUpstreamUnavailable, "test", "Classify", "call model")
	cl := &countingClassifier{err: upstream}
	monitor := health.NewMonitor()
	a, c := newTestAnalyzer(t, 10, cl, WithHealthMonitor(monitor))

	_, err := a.Analyze(t.Context(), "flaky")
	require.Error(t, err)
	assert.Same(t, upstream, err)
	assert.Zero(t, c.Len())

	status, ok := monitor.Get(HealthClassifier)
	require.True(t, ok)
	assert.True(t, status.IsDegraded())

	cl.err = nil
	got, err := a.Analyze(t.Context(), "flaky")
	require.NoError(t, err)
	assert.False(t, got.Cached)
	assert.Equal(t, int64(2), cl.calls.Load())

	status, _ = monitor.Get(HealthClassifier)
	assert.True(t, status.IsHealthy())
}

func TestAnalyze_EmptyResultNotCached(t *testing.T) {
	cl := classifier.Func(func(context.Context, string) (classifier.Result, error) {
		return classifier.Result{}, nil
	})
	a, c := newTestAnalyzer(t, 10, cl)

	_, err := a.Analyze(t.Context(), "nothing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInferenceFailed))
	assert.Zero(t, c.Len())
}

func TestAnalyze_CoalescesConcurrentMisses(t *testing.T) {
	cl := &countingClassifier{gate: make(chan struct{})}
	metrics := metric.NewMetrics()
	a, _ := newTestAnalyzer(t, 10, cl, WithAnalyzerMetrics(metrics))

	const callers = 8
	var wg sync.WaitGroup
	results := make([]Analysis, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = a.Analyze(context.Background(), "same text")
		}(i)
	}

	require.Eventually(t, func() bool { return cl.calls.Load() == 1 }, time.Second, time.Millisecond)
	// Let the other callers join the in-flight call before releasing it.
	time.Sleep(20 * time.Millisecond)
	close(cl.gate)
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, positive, results[i].Labels)
	}
	assert.Equal(t, int64(1), cl.calls.Load())
	assert.Positive(t, testutil.ToFloat64(metrics.CoalescedMisses))
}

func TestAnalyze_CallerCancellationKeepsComputation(t *testing.T) {
	cl := &countingClassifier{gate: make(chan struct{})}
	a, c := newTestAnalyzer(t, 10, cl)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := a.Analyze(ctx, "slow text")
		done <- err
	}()

	require.Eventually(t, func() bool { return cl.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()

	err := <-done
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.ErrorIs(t, err, context.Canceled)

	close(cl.gate)
	require.Eventually(t, func() bool {
		_, ok := c.Peek("slow text")
		return ok
	}, time.Second, time.Millisecond)

	got, err := a.Analyze(t.Context(), "slow text")
	require.NoError(t, err)
	assert.True(t, got.Cached)
	assert.Equal(t, int64(1), cl.calls.Load())
}

func TestAnalyze_EvictsLeastRecentlyAnalyzed(t *testing.T) {
	cl := &countingClassifier{}
	a, c := newTestAnalyzer(t, 2, cl)

	for _, text := range []string{"a", "b", "a", "c"} {
		_, err := a.Analyze(t.Context(), text)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"c", "a"}, c.Keys())
	assert.Equal(t, int64(3), cl.calls.Load())
}

func TestAnalyzer_CacheHealthAndStats(t *testing.T) {
	a, _ := newTestAnalyzer(t, 4, &countingClassifier{})
	_, err := a.Analyze(t.Context(), "x")
	require.NoError(t, err)

	status := a.CacheHealth()
	assert.Equal(t, HealthCache, status.Component)
	assert.True(t, status.IsHealthy())
	assert.Contains(t, status.Message, "1/4 entries")

	summary := a.CacheStats()
	assert.Equal(t, int64(1), summary.Misses)
	assert.Equal(t, int64(1), summary.Puts)
}
