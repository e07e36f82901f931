// Package main is the entry point for the triscan arbitrage detector.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fd1az/triscan/business/arbitrage"
	arbitrageDI "github.com/fd1az/triscan/business/arbitrage/di"
	"github.com/fd1az/triscan/business/market"
	marketDI "github.com/fd1az/triscan/business/market/di"
	"github.com/fd1az/triscan/internal/apm"
	"github.com/fd1az/triscan/internal/config"
	"github.com/fd1az/triscan/internal/health"
	"github.com/fd1az/triscan/internal/logger"
	"github.com/fd1az/triscan/internal/metrics"
	"github.com/fd1az/triscan/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("triscan %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	log := logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
	log.Info(ctx, "starting triscan",
		"version", version,
		"environment", cfg.App.Environment,
	)

	// Initialize observability if enabled
	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.OTLPProvider, log))
		log.Info(ctx, "tracing initialized", "provider", "otlp", "endpoint", cfg.Telemetry.OTLPEndpoint)

		metricOpts := []metrics.OptionFn{
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			// Push to the collector as well as serving the scrape endpoint.
			metricOpts = append(metricOpts,
				metrics.WithProviderConfig(metrics.NewCollectorConfigFromEnv()))
		}
		metrics.NewMetricProvider(metricOpts...)

		// Start Prometheus metrics server in background
		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	// Start health check server on port 8081
	healthServer := health.NewServer(8081, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", 8081)
	}
	defer healthServer.Stop(ctx)

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}

	// Define modules in dependency order
	modules := []monolith.Module{
		&market.Module{},    // Must be first - owns the rate graph and price feed
		&arbitrage.Module{}, // Scans the graph and reports opportunities
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	// Expose feed liveness through the health endpoint.
	sink := marketDI.GetUpdateSink(mono.Services())
	staleAfter := cfg.Market.FeedStaleAfter
	healthServer.RegisterCheck("feed", func(ctx context.Context) (bool, string) {
		last := sink.LastAcceptedAt()
		if last.IsZero() {
			return true, "no updates accepted yet"
		}
		age := time.Since(last)
		stats := sink.Stats()
		msg := fmt.Sprintf("last update %s ago (applied=%d malformed=%d stale=%d)",
			age.Round(time.Millisecond), stats.Applied, stats.Malformed, stats.Stale)
		if staleAfter > 0 && age > staleAfter {
			return false, msg
		}
		return true, msg
	})

	log.Info(ctx, "all modules started, watching for arbitrage")

	// Wait for shutdown
	<-ctx.Done()

	log.Info(ctx, "shutting down")

	// Stop detector gracefully (flushes pending opportunities)
	detector := arbitrageDI.GetDetector(mono.Services())
	if err := detector.Stop(); err != nil {
		log.Error(ctx, "error stopping detector", "error", err)
	}

	return nil
}
