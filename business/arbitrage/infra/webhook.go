package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/triscan/business/arbitrage/domain"
	"github.com/fd1az/triscan/internal/apperror"
	"github.com/fd1az/triscan/internal/circuitbreaker"
	"github.com/fd1az/triscan/internal/httpclient"
	"github.com/fd1az/triscan/internal/logger"
	"github.com/fd1az/triscan/internal/ratelimit"
)

const defaultWebhookTimeout = 5 * time.Second

// WebhookConfig holds settings for the webhook consumer.
type WebhookConfig struct {
	URL          string
	Timeout      time.Duration
	MaxPerMinute int
}

// WebhookConsumer POSTs each opportunity as JSON to a configured endpoint.
// A circuit breaker stops hammering a dead endpoint and a client-side rate
// limit caps outbound traffic.
type WebhookConsumer struct {
	url     string
	client  *httpclient.Client
	breaker *circuitbreaker.CircuitBreaker[*httpclient.Response]
	limiter *ratelimit.Limiter
	logger  logger.LoggerInterface
}

// NewWebhookConsumer creates a webhook consumer.
func NewWebhookConsumer(cfg WebhookConfig, log logger.LoggerInterface) (*WebhookConsumer, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("webhook"),
		httpclient.WithRequestTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	bcfg := circuitbreaker.DefaultConfig("webhook")
	bcfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit state changed",
			"breaker", name, "from", from.String(), "to", to.String())
	}

	var limiter *ratelimit.Limiter
	if cfg.MaxPerMinute > 0 {
		limiter = ratelimit.New(cfg.MaxPerMinute)
	}

	return &WebhookConsumer{
		url:     cfg.URL,
		client:  client,
		breaker: circuitbreaker.New[*httpclient.Response](bcfg),
		limiter: limiter,
		logger:  log,
	}, nil
}

// Name implements app.Consumer.
func (w *WebhookConsumer) Name() string { return "webhook" }

// Deliver posts one opportunity. A breaker-open or rate-limited delivery
// returns an error and the opportunity is not retried.
func (w *WebhookConsumer) Deliver(ctx context.Context, opp domain.Opportunity) error {
	if w.limiter != nil && !w.limiter.Allow() {
		return apperror.New(apperror.CodeRateLimitExceeded,
			apperror.WithContext("webhook delivery budget exhausted"))
	}

	msg := newOpportunityMessage(opp)

	_, err := w.breaker.Execute(func() (*httpclient.Response, error) {
		resp, err := w.client.NewRequest().
			SetBody(msg).
			Post(ctx, w.url)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return resp, fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		code := apperror.CodeWebhookDeliveryFailed
		if errors.Is(err, gobreaker.ErrOpenState) {
			code = apperror.CodeCircuitOpen
		}
		return apperror.New(code,
			apperror.WithCause(err),
			apperror.WithContext("POST "+w.url))
	}
	return nil
}

// Close implements app.Consumer.
func (w *WebhookConsumer) Close() error {
	return nil
}
