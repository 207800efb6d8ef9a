// Package main runs the inferencecache API: a text classification endpoint
// fronted by a bounded recency cache.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/inferencecache/classifier"
	"github.com/c360/inferencecache/config"
	"github.com/c360/inferencecache/health"
	"github.com/c360/inferencecache/metric"
	"github.com/c360/inferencecache/pkg/cache"
	"github.com/c360/inferencecache/service"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "inferencecache"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(os.Args[1:]); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run(args []string) error {
	cliCfg, err := parseFlags(flag.NewFlagSet(appName, flag.ContinueOnError), args)
	if err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return fmt.Errorf("parse flags: %w", err)
	}
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s (%s)\n", appName, Version, BuildTime)
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := loadConfig(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid", "config_path", cliCfg.ConfigPath)
		return nil
	}

	slog.Info("Starting inferencecache",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath,
		"cache_capacity", cfg.Cache.Capacity,
		"classifier_endpoint", cfg.Classifier.Endpoint)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		// Restore default signal handling so a second signal kills the process.
		<-ctx.Done()
		stop()
	}()

	return serve(ctx, cfg, cliCfg, logger)
}

func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader()
	if path != "" {
		loader.AddLayer(path)
	}
	return loader.Load()
}

// app holds the wired components for one process.
type app struct {
	registry *metric.MetricsRegistry
	analyzer *service.Analyzer
	api      *service.Server
	metrics  *metric.Server
}

func buildApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	registry := metric.NewMetricsRegistry()
	monitor := health.NewMonitor()

	var cacheOpts []cache.Option[string, classifier.Result]
	if cfg.Metrics.Enabled {
		cacheOpts = append(cacheOpts, cache.WithMetrics[string, classifier.Result](registry, cfg.Cache.MetricsComponent))
	}
	cacheOpts = append(cacheOpts, cache.WithEvictionCallback[string, classifier.Result](func(text string, _ classifier.Result) {
		logger.Debug("Evicted cached classification", "text_bytes", len(text))
	}))

	results, err := cache.NewFromConfig[string, classifier.Result](cfg.Cache, cacheOpts...)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	client, err := classifier.NewHTTPClient(cfg.Classifier.ClientConfig(),
		classifier.WithLogger(logger.With("component", "classifier")))
	if err != nil {
		return nil, fmt.Errorf("create classifier: %w", err)
	}

	analyzer, err := service.NewAnalyzer(results, client,
		service.WithAnalyzerMetrics(registry.CoreMetrics()),
		service.WithHealthMonitor(monitor),
		service.WithAnalyzerLogger(logger.With("component", "analyzer")))
	if err != nil {
		return nil, fmt.Errorf("create analyzer: %w", err)
	}
	monitor.UpdateHealthy(service.HealthClassifier, "no classifications yet")

	api, err := service.NewServer(service.ServerConfig{
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		MaxTextBytes: cfg.Server.MaxTextBytes,
	}, analyzer,
		service.WithServerMetrics(registry.CoreMetrics()),
		service.WithServerHealth(monitor),
		service.WithServerLogger(logger.With("component", "server")))
	if err != nil {
		return nil, fmt.Errorf("create server: %w", err)
	}

	a := &app{registry: registry, analyzer: analyzer, api: api}
	if cfg.Metrics.Enabled {
		a.metrics = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
	}
	return a, nil
}

func serve(ctx context.Context, cfg *config.Config, cliCfg *CLIConfig, logger *slog.Logger) error {
	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(a.api.Start)
	if a.metrics != nil {
		slog.Info("Metrics server listening", "address", a.metrics.Address())
		g.Go(a.metrics.Start)
	}

	g.Go(func() error {
		<-gctx.Done()
		return drainAndStop(a, cliCfg.DrainDelay, cliCfg.ShutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	summary := a.analyzer.CacheStats()
	slog.Info("Shutdown complete",
		"cache_hits", summary.Hits,
		"cache_misses", summary.Misses,
		"cache_evictions", summary.Evictions)
	return nil
}

// drainAndStop reports NotReady for drainDelay while requests keep being
// served, then stops both servers within timeout.
func drainAndStop(a *app, drainDelay, timeout time.Duration) error {
	slog.Info("Shutting down", "drain_delay", drainDelay, "timeout", timeout)
	a.api.MarkNotReady()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if drainDelay > 0 {
		timer := time.NewTimer(drainDelay)
		select {
		case <-timer.C:
		case <-shutdownCtx.Done():
			timer.Stop()
		}
	}

	apiErr := a.api.Stop(shutdownCtx)
	var metricsErr error
	if a.metrics != nil {
		metricsErr = a.metrics.Stop(shutdownCtx)
	}
	if apiErr != nil {
		return apiErr
	}
	return metricsErr
}
