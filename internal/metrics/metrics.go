// Package metrics installs the global OTEL meter provider and serves the
// Prometheus scrape endpoint.
package metrics

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

// MetricProvider hands out meters and owns exporter shutdown.
type MetricProvider interface {
	Meter(name string, options ...metric.MeterOption) metric.Meter
	Shutdown(ctx context.Context) error
}

// NewMetricProvider builds a meter provider from the configured exporters
// and installs it globally. Counters created through otel.Meter anywhere in
// the process flow to every configured reader. Exporter construction
// failures panic; metrics misconfiguration should stop startup.
func NewMetricProvider(options ...OptionFn) MetricProvider {
	ctx := context.Background()

	var cfg Config
	for _, opt := range options {
		cfg = opt(cfg)
	}

	opts := make([]sdkmetric.Option, 0, len(cfg.Providers)+1)
	for _, reader := range buildReaders(ctx, cfg) {
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = os.Getenv("OTEL_SERVICE_NAME")
	}
	opts = append(opts, sdkmetric.WithResource(
		resource.NewSchemaless(semconv.ServiceNameKey.String(serviceName)),
	))

	provider := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(provider)

	return provider
}

// buildReaders constructs one reader per configured provider, defaulting to
// an environment-configured OTLP push when nothing was selected.
func buildReaders(ctx context.Context, cfg Config) []sdkmetric.Reader {
	providers := cfg.Providers
	if len(providers) == 0 {
		providers = []ProviderCfg{{Provider: OTLPProvider}}
	}

	var readers []sdkmetric.Reader
	for _, p := range providers {
		switch p.Provider {
		case PrometheusProvider:
			exp, err := prometheus.New()
			if err != nil {
				panic(err)
			}
			readers = append(readers, exp)

		case OTLPProvider:
			grpcOpts := []otlpmetricgrpc.Option{}
			if p.Endpoint != "" {
				grpcOpts = append(grpcOpts, otlpmetricgrpc.WithEndpointURL(p.Endpoint))
			}
			if len(p.Headers) > 0 {
				grpcOpts = append(grpcOpts, otlpmetricgrpc.WithHeaders(p.Headers))
			}
			if p.Insecure {
				grpcOpts = append(grpcOpts, otlpmetricgrpc.WithInsecure())
			}

			exp, err := otlpmetricgrpc.New(ctx, grpcOpts...)
			if err != nil {
				panic(err)
			}
			readers = append(readers, sdkmetric.NewPeriodicReader(exp))
		}
	}
	return readers
}

// ServePrometheusMetrics blocks serving /metrics for Prometheus scrapes.
// Run it in its own goroutine.
func ServePrometheusMetrics(opt ...PromOptionFn) {
	var cfg PromServerConfig
	for _, o := range opt {
		cfg = o(cfg)
	}

	port := cfg.port
	if port == "" {
		port = "9464"
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("serving metrics at localhost:%s/metrics", port)
	if err := server.ListenAndServe(); err != nil {
		log.Printf("metrics server stopped: %v", err)
	}
}
