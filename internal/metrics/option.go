package metrics

import "os"

// Provider selects a metrics exporter kind.
type Provider string

const (
	// PrometheusProvider registers a pull-based exporter scraped via
	// ServePrometheusMetrics.
	PrometheusProvider Provider = "prometheus"
	// OTLPProvider pushes metrics to a collector over gRPC.
	OTLPProvider Provider = "otlp"
)

// Config accumulates provider options.
type Config struct {
	ServiceName string
	Providers   []ProviderCfg
}

// ProviderCfg configures one exporter.
type ProviderCfg struct {
	Provider Provider
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

// NewCollectorConfigFromEnv builds an OTLP provider config from the
// standard OTEL_EXPORTER_OTLP_ENDPOINT variable.
func NewCollectorConfigFromEnv() ProviderCfg {
	return ProviderCfg{
		Provider: OTLPProvider,
		Endpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

// OptionFn customizes the metric provider configuration.
type OptionFn func(config Config) Config

// WithServiceName tags exported metrics with the service name resource.
func WithServiceName(serviceName string) OptionFn {
	return func(config Config) Config {
		config.ServiceName = serviceName
		return config
	}
}

// WithProviderConfig adds one exporter. May be given more than once to
// export through several readers at the same time.
func WithProviderConfig(provider ProviderCfg) OptionFn {
	return func(config Config) Config {
		config.Providers = append(config.Providers, provider)
		return config
	}
}

// PromServerConfig configures the Prometheus scrape endpoint.
type PromServerConfig struct {
	port string
}

// PromOptionFn customizes the scrape endpoint.
type PromOptionFn func(config PromServerConfig) PromServerConfig

// WithPort sets the scrape port.
func WithPort(port string) PromOptionFn {
	return func(config PromServerConfig) PromServerConfig {
		config.port = port
		return config
	}
}
