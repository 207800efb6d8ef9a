// Package service implements the analyze API: a get-or-compute layer that
// consults a RecencyCache before calling the text classifier.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/c360/inferencecache/classifier"
	"github.com/c360/inferencecache/errors"
	"github.com/c360/inferencecache/health"
	"github.com/c360/inferencecache/metric"
	"github.com/c360/inferencecache/pkg/cache"
)

// Component names reported to the health monitor.
const (
	HealthCache      = "cache"
	HealthClassifier = "classifier"
)

// Analysis is the outcome of one Analyze call.
type Analysis struct {
	Text   string            `json:"text"`
	Labels classifier.Result `json:"labels"`
	Cached bool              `json:"cached"`
}

// Analyzer serves classifications from the cache and computes misses.
type Analyzer struct {
	cache      *cache.RecencyCache[string, classifier.Result]
	classifier classifier.Classifier
	group      singleflight.Group
	metrics    *metric.Metrics
	health     *health.Monitor
	logger     *slog.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithAnalyzerMetrics records inference latency and failures.
func WithAnalyzerMetrics(m *metric.Metrics) AnalyzerOption {
	return func(a *Analyzer) { a.metrics = m }
}

// WithHealthMonitor reports classifier outcomes to m.
func WithHealthMonitor(m *health.Monitor) AnalyzerOption {
	return func(a *Analyzer) { a.health = m }
}

// WithAnalyzerLogger sets the logger.
func WithAnalyzerLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAnalyzer wires a cache to a classifier.
func NewAnalyzer(
	c *cache.RecencyCache[string, classifier.Result],
	cl classifier.Classifier,
	opts ...AnalyzerOption,
) (*Analyzer, error) {
	if c == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Analyzer", "NewAnalyzer", "cache is required")
	}
	if cl == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Analyzer", "NewAnalyzer", "classifier is required")
	}

	a := &Analyzer{
		cache:      c,
		classifier: cl,
		logger:     slog.Default().With("component", "analyzer"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Analyze returns the labels for text. A cached result is returned without
// calling the classifier. On a miss, concurrent requests for the same text
// share one classification; the result is cached only if it succeeded.
// Classifier errors are returned unchanged.
func (a *Analyzer) Analyze(ctx context.Context, text string) (Analysis, error) {
	if text == "" {
		return Analysis{}, errors.WrapInvalid(errors.ErrMissingInput, "Analyzer", "Analyze", "text is required")
	}

	if labels, ok := a.cache.Get(text); ok {
		return Analysis{Text: text, Labels: labels, Cached: true}, nil
	}

	// The shared computation must outlive any single caller's cancellation.
	computeCtx := context.WithoutCancel(ctx)
	ch := a.group.DoChan(text, func() (any, error) {
		return a.compute(computeCtx, text)
	})

	select {
	case <-ctx.Done():
		return Analysis{}, errors.WrapTransient(ctx.Err(), "Analyzer", "Analyze", "wait for classification")
	case res := <-ch:
		if res.Shared && a.metrics != nil {
			a.metrics.RecordCoalesced()
		}
		if res.Err != nil {
			return Analysis{}, res.Err
		}
		return Analysis{Text: text, Labels: res.Val.(classifier.Result)}, nil
	}
}

func (a *Analyzer) compute(ctx context.Context, text string) (classifier.Result, error) {
	start := time.Now()
	labels, err := a.classifier.Classify(ctx, text)
	elapsed := time.Since(start)

	if a.metrics != nil {
		a.metrics.RecordInference(elapsed)
	}

	if err == nil && len(labels) == 0 {
		err = errors.WrapInvalid(errors.ErrInferenceFailed, "Analyzer", "compute", "classifier returned no labels")
	}
	if err != nil {
		class := errors.Classify(err)
		if a.metrics != nil {
			a.metrics.RecordInferenceError(class.String())
		}
		if a.health != nil {
			a.health.UpdateDegraded(HealthClassifier, fmt.Sprintf("last classification failed (%s)", class))
		}
		a.logger.Warn("Classification failed", "error", err, "class", class.String(), "duration", elapsed)
		return nil, err
	}

	a.cache.Put(text, labels)
	if a.health != nil {
		a.health.UpdateHealthy(HealthClassifier, fmt.Sprintf("last classification took %s", elapsed.Round(time.Millisecond)))
	}
	a.logger.Debug("Classified text", "text_bytes", len(text), "duration", elapsed)
	return labels, nil
}

// CacheStats returns the cache statistics summary.
func (a *Analyzer) CacheStats() cache.StatsSummary {
	return a.cache.Stats().Summary()
}

// CacheHealth describes the cache fill level as a health status.
func (a *Analyzer) CacheHealth() health.Status {
	stats := a.cache.Stats()
	return health.NewHealthy(HealthCache, fmt.Sprintf("%d/%d entries, hit ratio %.2f",
		a.cache.Len(), a.cache.Cap(), stats.HitRatio()))
}
