package cache

import (
	"fmt"

	"github.com/c360/inferencecache/errors"
)

// DefaultCapacity is the number of entries kept when no capacity is configured.
const DefaultCapacity = 500

// Config contains configuration for cache creation.
type Config struct {
	// Capacity is the maximum number of entries. Must be at least 1.
	Capacity int `json:"capacity" yaml:"capacity"`

	// MetricsComponent labels exported cache metrics. Empty disables export.
	MetricsComponent string `json:"metrics_component,omitempty" yaml:"metrics_component,omitempty"`
}

// DefaultConfig returns a default cache configuration.
func DefaultConfig() Config {
	return Config{
		Capacity:         DefaultCapacity,
		MetricsComponent: "analyze",
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.Capacity < 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate",
			fmt.Sprintf("capacity must be at least 1, got %d", c.Capacity))
	}
	return nil
}

// NewFromConfig creates a cache from a validated configuration.
func NewFromConfig[K comparable, V any](config Config, options ...Option[K, V]) (*RecencyCache[K, V], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return New[K, V](config.Capacity, options...)
}
