package httpclient

import (
	"net/http"
	"time"
)

type clientOptions struct {
	transport http.RoundTripper
	provider  string
	timeout   time.Duration
	headers   map[string]string
}

// ClientOption configures the client at construction time.
type ClientOption func(*clientOptions)

func newClientOptions(opts ...ClientOption) *clientOptions {
	options := &clientOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithTransport sets a custom transport, replacing the default one. The
// transport is still wrapped for tracing.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(o *clientOptions) {
		o.transport = rt
	}
}

// WithProviderName names the downstream this client talks to. The name
// appears on every span and metric the client emits.
func WithProviderName(name string) ClientOption {
	return func(o *clientOptions) {
		o.provider = name
	}
}

// WithRequestTimeout caps the total time for a single request, response
// body included.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.timeout = timeout
	}
}

// WithHeaders sets default headers applied to every request.
func WithHeaders(headers map[string]string) ClientOption {
	return func(o *clientOptions) {
		o.headers = headers
	}
}
