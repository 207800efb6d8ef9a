package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360/inferencecache/errors"
)

// DefaultEnvPrefix prefixes environment overrides, e.g. INFERENCECACHE_CACHE_CAPACITY.
const DefaultEnvPrefix = "INFERENCECACHE"

// Loader handles configuration loading with layers and overrides
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
	getenv     func(string) string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		validation: true,
		envPrefix:  DefaultEnvPrefix,
		getenv:     os.Getenv,
	}
}

// AddLayer adds a configuration file; later layers override earlier ones.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation toggles validation after loading
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads a single configuration file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load applies defaults, each layer in order, then environment overrides.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	for _, path := range l.layers {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// decodeFile decodes path onto cfg, keeping fields the file omits.
func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapFatal(err, "Loader", "Load", fmt.Sprintf("read %s", path))
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return errors.WrapInvalid(err, "Loader", "Load", fmt.Sprintf("parse YAML %s", path))
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return errors.WrapInvalid(err, "Loader", "Load", fmt.Sprintf("parse JSON %s", path))
		}
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	intVar := func(name string, dst *int) error {
		val := l.getenv(l.envPrefix + "_" + name)
		if val == "" {
			return nil
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return errors.WrapInvalid(err, "Loader", "applyEnvOverrides",
				fmt.Sprintf("parse %s_%s", l.envPrefix, name))
		}
		*dst = n
		return nil
	}

	if err := intVar("SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if err := intVar("CACHE_CAPACITY", &cfg.Cache.Capacity); err != nil {
		return err
	}
	if err := intVar("METRICS_PORT", &cfg.Metrics.Port); err != nil {
		return err
	}
	if val := l.getenv(l.envPrefix + "_CLASSIFIER_ENDPOINT"); val != "" {
		cfg.Classifier.Endpoint = val
	}
	if val := l.getenv(l.envPrefix + "_CLASSIFIER_TOKEN"); val != "" {
		cfg.Classifier.Token = val
	}
	return nil
}
