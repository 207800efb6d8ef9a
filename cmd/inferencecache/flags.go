package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath      string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	DrainDelay      time.Duration
	ShowVersion     bool
	Validate        bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*CLIConfig, error) {
	cfg := &CLIConfig{}

	fs.StringVar(&cfg.ConfigPath, "config",
		getEnv("INFERENCECACHE_CONFIG", ""),
		"Path to a JSON or YAML configuration file; defaults apply when empty (env: INFERENCECACHE_CONFIG)")

	fs.StringVar(&cfg.LogLevel, "log-level",
		getEnv("INFERENCECACHE_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: INFERENCECACHE_LOG_LEVEL)")

	fs.StringVar(&cfg.LogFormat, "log-format",
		getEnv("INFERENCECACHE_LOG_FORMAT", "json"),
		"Log format: json, text (env: INFERENCECACHE_LOG_FORMAT)")

	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("INFERENCECACHE_SHUTDOWN_TIMEOUT", 15*time.Second),
		"Graceful shutdown timeout (env: INFERENCECACHE_SHUTDOWN_TIMEOUT)")

	fs.DurationVar(&cfg.DrainDelay, "drain-delay",
		getEnvDuration("INFERENCECACHE_DRAIN_DELAY", 5*time.Second),
		"Time /ready reports NotReady before the servers stop (env: INFERENCECACHE_DRAIN_DELAY)")

	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), "%s - cached text classification API\n\nUsage: %s [options]\n\nOptions:\n",
			appName, fs.Name())
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion {
		return nil
	}

	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	if !slices.Contains([]string{"json", "text"}, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid shutdown timeout: %s", cfg.ShutdownTimeout)
	}

	if cfg.DrainDelay < 0 || cfg.DrainDelay >= cfg.ShutdownTimeout {
		return fmt.Errorf("invalid drain delay: %s must be in [0, %s)", cfg.DrainDelay, cfg.ShutdownTimeout)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
