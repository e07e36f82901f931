package apm

import (
	"context"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/triscan/internal/logger"
)

// Provider selects a span exporter backend.
type Provider string

const (
	OTLPProvider    Provider = "OTLP_PROVIDER"
	ZipkinProvider  Provider = "ZIPKIN_PROVIDER"
	ConsoleProvider Provider = "CONSOLE_PROVIDER"
	EmptyProvider   Provider = "EMPTY_PROVIDER"
)

const shutdownTimeout = 5 * time.Second

// TraceProvider owns an installed tracer provider. Stop flushes and shuts
// it down.
type TraceProvider interface {
	Stop() error
}

// noopTraceProvider stands in when tracing is disabled or misconfigured.
type noopTraceProvider struct{}

// NewEmptyTraceProvider returns a provider that exports nothing.
func NewEmptyTraceProvider() TraceProvider {
	return noopTraceProvider{}
}

func (noopTraceProvider) Stop() error { return nil }

type exporterFactory func(ctx context.Context, log logger.LoggerInterface) (sdktrace.SpanExporter, error)

type tracerOptions struct {
	provider Provider
	factory  exporterFactory
}

// TracerOption configures NewTraceProvider.
type TracerOption func(*tracerOptions)

// WithProvider selects the exporter backend. Unknown providers disable
// tracing rather than failing startup.
func WithProvider(provider Provider, log logger.LoggerInterface) TracerOption {
	return func(o *tracerOptions) {
		switch provider {
		case OTLPProvider:
			o.provider, o.factory = OTLPProvider, newOTLPExporter
		case ZipkinProvider:
			o.provider, o.factory = ZipkinProvider, newZipkinExporter
		case ConsoleProvider:
			o.provider, o.factory = ConsoleProvider, newConsoleExporter
		case EmptyProvider:
			o.provider, o.factory = EmptyProvider, nil
		default:
			log.Warn(context.Background(), "unknown trace provider, tracing disabled",
				"provider", string(provider))
			o.provider, o.factory = EmptyProvider, nil
		}
	}
}

// newOTLPExporter builds an OTLP exporter from the standard OTEL
// environment variables. OTEL_EXPORTER_OTLP_PROTOCOL selects between
// http/protobuf and gRPC transport.
func newOTLPExporter(ctx context.Context, log logger.LoggerInterface) (sdktrace.SpanExporter, error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	headers := parseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))

	if os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL") == "http/protobuf" {
		log.Info(ctx, "initializing OTLP HTTP trace exporter", "endpoint", endpoint)
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(endpoint),
			otlptracehttp.WithHeaders(headers),
		)
	}

	log.Info(ctx, "initializing OTLP gRPC trace exporter", "endpoint", endpoint)
	return otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpointURL(endpoint),
		otlptracegrpc.WithHeaders(headers),
	)
}

func newZipkinExporter(ctx context.Context, log logger.LoggerInterface) (sdktrace.SpanExporter, error) {
	endpoint := os.Getenv("OTEL_EXPORTER_ZIPKIN_ENDPOINT")
	log.Info(ctx, "initializing Zipkin trace exporter", "endpoint", endpoint)
	return zipkin.New(endpoint)
}

func newConsoleExporter(_ context.Context, _ logger.LoggerInterface) (sdktrace.SpanExporter, error) {
	return stdouttrace.New(stdouttrace.WithPrettyPrint())
}

// parseOTLPHeaders parses the "k1=v1,k2=v2" form used by
// OTEL_EXPORTER_OTLP_HEADERS. Malformed entries are skipped.
func parseOTLPHeaders(raw string) map[string]string {
	headers := map[string]string{}
	for _, entry := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			continue
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return headers
}

// NewTraceProvider installs a global tracer provider exporting through the
// selected backend. OTLP is the default when no option is given. Exporter
// failures disable tracing instead of aborting startup; the scanner keeps
// running without spans.
func NewTraceProvider(log logger.LoggerInterface, options ...TracerOption) TraceProvider {
	opts := &tracerOptions{provider: OTLPProvider, factory: newOTLPExporter}
	for _, opt := range options {
		opt(opts)
	}
	if opts.factory == nil {
		return NewEmptyTraceProvider()
	}

	ctx := context.Background()

	exporter, err := opts.factory(ctx, log)
	if err != nil {
		log.Error(ctx, "trace exporter init failed, tracing disabled",
			"provider", string(opts.provider), "error", err)
		return NewEmptyTraceProvider()
	}

	rsrc, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(os.Getenv("OTEL_SERVICE_NAME")),
			attribute.String("otel.provider", string(opts.provider)),
		))
	if err != nil {
		log.Warn(ctx, "building trace resource failed, using default", "error", err)
		rsrc = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &traceProvider{tp: tp}
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

// Stop flushes buffered spans and shuts the provider down.
func (p *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return p.tp.Shutdown(ctx)
}
