// Package httpclient provides an instrumented HTTP client for outbound
// deliveries. Every request is traced through otelhttp and counted per
// provider, so a misbehaving downstream shows up in metrics immediately.
package httpclient

import (
	"context"
	"maps"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultRequestTimeout  = 10 * time.Second
	defaultDialKeepAlive   = 10 * time.Second
	defaultMaxConnsPerHost = 5
	defaultIdleConnTimeout = 2 * time.Minute

	instrumentationName = "httpclient"
)

// Client issues instrumented requests. Create one per downstream provider
// so metrics and traces carry that provider's name.
type Client struct {
	http     *http.Client
	provider string
	headers  map[string]string
	requests metric.Int64Counter
	tracer   trace.Tracer
}

// NewInstrumentedClient builds a client from the given options.
func NewInstrumentedClient(opts ...ClientOption) (*Client, error) {
	options := newClientOptions(opts...)

	httpClient := &http.Client{Timeout: defaultRequestTimeout}
	if options.timeout > 0 {
		httpClient.Timeout = options.timeout
	}

	httpClient.Transport = options.transport
	if httpClient.Transport == nil {
		httpClient.Transport = &http.Transport{
			DialContext: (&net.Dialer{
				KeepAlive: defaultDialKeepAlive,
			}).DialContext,
			MaxConnsPerHost: defaultMaxConnsPerHost,
			IdleConnTimeout: defaultIdleConnTimeout,
		}
	}

	// Per-connection tracing (DNS, connect, TLS) rides on the transport.
	httpClient.Transport = otelhttp.NewTransport(
		httpClient.Transport,
		otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
			return otelhttptrace.NewClientTrace(ctx)
		}),
	)

	provider := options.provider
	if provider == "" {
		provider = "default"
	}

	requests, err := otel.Meter(instrumentationName).Int64Counter(
		"http_client_requests_total",
		metric.WithDescription("Outbound HTTP requests by provider and outcome"),
	)
	if err != nil {
		return nil, err
	}

	return &Client{
		http:     httpClient,
		provider: provider,
		headers:  options.headers,
		requests: requests,
		tracer:   otel.Tracer(instrumentationName),
	}, nil
}

// NewRequest starts a request builder carrying the client's default headers.
func (c *Client) NewRequest() *Request {
	headers := maps.Clone(c.headers)
	if headers == nil {
		headers = make(map[string]string)
	}
	return &Request{client: c, headers: headers}
}
