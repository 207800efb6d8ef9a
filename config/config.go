// Package config loads and validates inferencecache configuration from JSON
// or YAML files with environment variable overrides.
package config

import (
	"fmt"
	"time"

	"github.com/c360/inferencecache/classifier"
	"github.com/c360/inferencecache/errors"
	"github.com/c360/inferencecache/pkg/cache"
	"github.com/c360/inferencecache/pkg/retry"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `json:"server" yaml:"server"`
	Cache      cache.Config     `json:"cache" yaml:"cache"`
	Classifier ClassifierConfig `json:"classifier" yaml:"classifier"`
	Metrics    MetricsConfig    `json:"metrics" yaml:"metrics"`
}

// ServerConfig configures the analyze HTTP API
type ServerConfig struct {
	Port         int      `json:"port" yaml:"port"`
	ReadTimeout  Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout Duration `json:"write_timeout" yaml:"write_timeout"`
	// MaxTextBytes rejects longer request texts before they reach the cache.
	MaxTextBytes int `json:"max_text_bytes" yaml:"max_text_bytes"`
}

// ClassifierConfig configures the upstream inference endpoint
type ClassifierConfig struct {
	Endpoint       string   `json:"endpoint" yaml:"endpoint"`
	Token          string   `json:"token,omitempty" yaml:"token,omitempty"`
	Timeout        Duration `json:"timeout" yaml:"timeout"`
	RateLimit      float64  `json:"rate_limit" yaml:"rate_limit"`
	Burst          int      `json:"burst" yaml:"burst"`
	MaxAttempts    int      `json:"max_attempts" yaml:"max_attempts"`
	InitialBackoff Duration `json:"initial_backoff" yaml:"initial_backoff"`
	MaxBackoff     Duration `json:"max_backoff" yaml:"max_backoff"`
}

// MetricsConfig configures Prometheus exposition
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Port    int    `json:"port" yaml:"port"`
	Path    string `json:"path" yaml:"path"`
}

// Default returns the configuration used when a file omits a field.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8081,
			ReadTimeout:  Duration(10 * time.Second),
			WriteTimeout: Duration(60 * time.Second),
			MaxTextBytes: 16 << 10,
		},
		Cache: cache.DefaultConfig(),
		Classifier: ClassifierConfig{
			Endpoint:       "http://localhost:8080/predict",
			Timeout:        Duration(30 * time.Second),
			MaxAttempts:    3,
			InitialBackoff: Duration(100 * time.Millisecond),
			MaxBackoff:     Duration(2 * time.Second),
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("server.port out of range: %d", c.Server.Port))
	}
	if c.Server.MaxTextBytes < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("server.max_text_bytes cannot be negative: %d", c.Server.MaxTextBytes))
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Classifier.ClientConfig().Validate(); err != nil {
		return err
	}
	if c.Classifier.MaxBackoff < c.Classifier.InitialBackoff {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"classifier.max_backoff must be >= classifier.initial_backoff")
	}
	if c.Metrics.Enabled {
		if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				fmt.Sprintf("metrics.port out of range: %d", c.Metrics.Port))
		}
		if c.Metrics.Port == c.Server.Port {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				"metrics.port must differ from server.port")
		}
	}
	return nil
}

// ClientConfig converts the file representation to classifier.Config.
func (c ClassifierConfig) ClientConfig() classifier.Config {
	return classifier.Config{
		Endpoint:  c.Endpoint,
		Token:     c.Token,
		Timeout:   c.Timeout.Std(),
		RateLimit: c.RateLimit,
		Burst:     c.Burst,
		Retry: retry.Config{
			MaxAttempts:  c.MaxAttempts,
			InitialDelay: c.InitialBackoff.Std(),
			MaxDelay:     c.MaxBackoff.Std(),
			Multiplier:   2.0,
			AddJitter:    true,
		},
	}
}
