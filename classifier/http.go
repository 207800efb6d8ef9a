package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/c360/inferencecache/errors"
	"github.com/c360/inferencecache/pkg/retry"
)

const maxResponseBytes = 1 << 20

// Config configures an HTTPClient.
type Config struct {
	// Endpoint receives POST {"inputs": text}.
	Endpoint string
	// Token is sent as a bearer token when set.
	Token string
	// Timeout bounds each attempt.
	Timeout time.Duration
	// RateLimit is the maximum requests per second to the endpoint. Zero disables limiting.
	RateLimit float64
	Burst     int
	Retry     retry.Config
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Classifier", "Validate", "endpoint is required")
	}
	if c.Timeout < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Classifier", "Validate",
			fmt.Sprintf("timeout cannot be negative, got %v", c.Timeout))
	}
	if c.RateLimit < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Classifier", "Validate",
			fmt.Sprintf("rate_limit cannot be negative, got %v", c.RateLimit))
	}
	return nil
}

// HTTPClient classifies text with a remote inference endpoint that follows
// the Hugging Face text-classification response shape.
type HTTPClient struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *HTTPClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewHTTPClient creates a client for cfg.Endpoint.
func NewHTTPClient(cfg Config, opts ...Option) (*HTTPClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.DefaultConfig()
	}
	cfg.Retry.Retryable = errors.IsTransient

	c := &HTTPClient{
		config:     cfg,
		httpClient: &http.Client{},
		logger:     slog.Default().With("component", "classifier"),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Classify sends text to the endpoint, retrying transient failures.
func (c *HTTPClient) Classify(ctx context.Context, text string) (Result, error) {
	body, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return nil, errors.WrapInvalid(err, "Classifier", "Classify", "encode request")
	}

	attempt := 0
	result, err := retry.DoWithResult(ctx, c.config.Retry, func() (Result, error) {
		attempt++
		res, err := c.classifyOnce(ctx, body)
		if err != nil && errors.IsTransient(err) {
			c.logger.Debug("Classification attempt failed", "attempt", attempt, "error", err)
		}
		return res, err
	})
	if err != nil {
		var nre *retry.NonRetryableError
		if errors.As(err, &nre) {
			return nil, nre.Err
		}
		return nil, err
	}
	return result, nil
}

func (c *HTTPClient) classifyOnce(ctx context.Context, body []byte) (Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.WrapTransient(fmt.Errorf("%w: %v", errors.ErrRateLimited, err),
				"Classifier", "Classify", "wait for rate limiter")
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, retry.NonRetryable(errors.WrapInvalid(err, "Classifier", "Classify", "build request"))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WrapTransient(fmt.Errorf("%w: %v", errors.ErrUpstreamUnavailable, err),
			"Classifier", "Classify", "send request")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.WrapTransient(err, "Classifier", "Classify", "read response")
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.WrapTransient(errors.ErrRateLimited, "Classifier", "Classify",
			"upstream returned 429")
	case resp.StatusCode >= 500:
		return nil, errors.WrapTransient(errors.ErrUpstreamUnavailable, "Classifier", "Classify",
			fmt.Sprintf("upstream returned %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return nil, retry.NonRetryable(errors.WrapInvalid(errors.ErrUpstreamRejected, "Classifier", "Classify",
			fmt.Sprintf("upstream returned %d: %s", resp.StatusCode, truncate(payload, 200))))
	}

	result, err := decodeResult(payload)
	if err != nil {
		return nil, retry.NonRetryable(errors.WrapInvalid(err, "Classifier", "Classify", "decode response"))
	}
	return result, nil
}

// decodeResult accepts [[{label,score}...]] (batched) or [{label,score}...].
func decodeResult(payload []byte) (Result, error) {
	var batched []Result
	if err := json.Unmarshal(payload, &batched); err == nil {
		if len(batched) == 0 || len(batched[0]) == 0 {
			return nil, fmt.Errorf("%w: empty prediction", errors.ErrInferenceFailed)
		}
		return batched[0], nil
	}

	var flat Result
	if err := json.Unmarshal(payload, &flat); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidData, err)
	}
	if len(flat) == 0 {
		return nil, fmt.Errorf("%w: empty prediction", errors.ErrInferenceFailed)
	}
	return flat, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
