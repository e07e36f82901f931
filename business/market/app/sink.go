package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/triscan/business/market/domain"
	"github.com/fd1az/triscan/internal/apperror"
	"github.com/fd1az/triscan/internal/logger"
)

const meterName = "market"

// defaultWorkers bounds how many events are validated and applied in
// parallel. Per-pair ordering is enforced by sequence numbers, not by
// arrival order, so fan-out is safe.
const defaultWorkers = 4

const rawLogLimit = 200

// sinkMetrics holds OTEL metric instruments.
type sinkMetrics struct {
	updatesApplied   metric.Int64Counter
	updatesMalformed metric.Int64Counter
	updatesStale     metric.Int64Counter
}

// Stats is a point-in-time copy of the sink's counters.
type Stats struct {
	Applied   uint64
	Malformed uint64
	Stale     uint64
}

// UpdateSink drains price events from a feed into the rate graph. Malformed
// and stale events are discarded with a diagnostic; nothing stops the
// stream.
type UpdateSink struct {
	graph   *domain.RateGraph
	logger  logger.LoggerInterface
	metrics *sinkMetrics
	workers int

	// updates coalesces "something changed" signals for reactive scanning.
	updates chan struct{}

	applied      atomic.Uint64
	malformed    atomic.Uint64
	stale        atomic.Uint64
	lastAccepted atomic.Int64 // unix nanos of the last accepted update
}

// NewUpdateSink creates a sink writing into the given graph.
func NewUpdateSink(graph *domain.RateGraph, log logger.LoggerInterface) (*UpdateSink, error) {
	s := &UpdateSink{
		graph:   graph,
		logger:  log,
		workers: defaultWorkers,
		updates: make(chan struct{}, 1),
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return s, nil
}

func (s *UpdateSink) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &sinkMetrics{}

	s.metrics.updatesApplied, err = meter.Int64Counter(
		"market_updates_applied_total",
		metric.WithDescription("Price updates accepted into the rate graph"),
	)
	if err != nil {
		return err
	}

	s.metrics.updatesMalformed, err = meter.Int64Counter(
		"market_updates_malformed_total",
		metric.WithDescription("Price updates discarded as malformed"),
	)
	if err != nil {
		return err
	}

	s.metrics.updatesStale, err = meter.Int64Counter(
		"market_updates_stale_total",
		metric.WithDescription("Price updates discarded for stale sequence numbers"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Run consumes the feed until the context is cancelled or the feed closes
// its channel. Events are fanned out across a small worker pool.
func (s *UpdateSink) Run(ctx context.Context, feed FeedSource) error {
	events, err := feed.Subscribe(ctx)
	if err != nil {
		return apperror.New(apperror.CodeFeedSourceError,
			apperror.WithCause(err),
			apperror.WithContext("subscribing to price feed"))
	}

	// The staleness clock starts at run start, not at the first event, so a
	// feed that never produces anything still trips the watchdog.
	s.lastAccepted.Store(time.Now().UnixNano())

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < s.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-events:
					if !ok {
						return nil
					}
					s.Apply(ctx, ev)
				}
			}
		})
	}
	return g.Wait()
}

// Apply validates a single event and stores it in the graph. Safe for
// concurrent use. Rejected events are counted and logged, never returned as
// errors; the stream must outlive any single bad tick.
func (s *UpdateSink) Apply(ctx context.Context, ev domain.PriceEvent) {
	if ev.Pair == "" {
		s.rejectMalformed(ctx, ev, "unparseable")
		return
	}

	pair, ok := s.graph.Lookup(ev.Pair)
	if !ok {
		s.malformed.Add(1)
		s.metrics.updatesMalformed.Add(ctx, 1,
			metric.WithAttributes(attribute.String("reason", "unknown_pair")))
		diag := apperror.New(apperror.CodeUnknownPair,
			apperror.WithContext(fmt.Sprintf("pair=%q", ev.Pair)))
		s.logger.Warn(ctx, "update for unconfigured pair discarded",
			"error", diag, "pair", ev.Pair)
		return
	}

	q := domain.Quote{
		Pair: pair,
		Bid:  ev.Bid,
		Ask:  ev.Ask,
		Seq:  ev.Seq,
		Time: ev.Time,
	}

	if err := s.graph.ApplyQuote(q); err != nil {
		switch {
		case errors.Is(err, domain.ErrStaleQuote):
			s.stale.Add(1)
			s.metrics.updatesStale.Add(ctx, 1)
			diag := apperror.New(apperror.CodeStaleUpdate,
				apperror.WithCause(err),
				apperror.WithContext(fmt.Sprintf("pair=%s seq=%d", ev.Pair, ev.Seq)))
			s.logger.Debug(ctx, "stale update discarded",
				"error", diag, "pair", ev.Pair, "seq", ev.Seq)
		case errors.Is(err, domain.ErrInvalidQuote):
			s.rejectMalformed(ctx, ev, "invalid_price")
		default:
			s.rejectMalformed(ctx, ev, "rejected")
		}
		return
	}

	s.applied.Add(1)
	s.lastAccepted.Store(time.Now().UnixNano())
	s.metrics.updatesApplied.Add(ctx, 1)
	s.notify()
}

func (s *UpdateSink) rejectMalformed(ctx context.Context, ev domain.PriceEvent, reason string) {
	s.malformed.Add(1)
	s.metrics.updatesMalformed.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)))

	diag := apperror.New(apperror.CodeMalformedUpdate,
		apperror.WithContext(fmt.Sprintf("pair=%q reason=%s", ev.Pair, reason)))
	s.logger.Warn(ctx, "malformed update discarded",
		"error", diag, "pair", ev.Pair, "reason", reason, "raw", truncate(ev.Raw, rawLogLimit))
}

// notify signals a state change without ever blocking the update path.
func (s *UpdateSink) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

// Updates returns a coalesced signal channel that receives after accepted
// updates. Used by reactive scan scheduling.
func (s *UpdateSink) Updates() <-chan struct{} {
	return s.updates
}

// LastAcceptedAt returns when the sink last accepted an update.
func (s *UpdateSink) LastAcceptedAt() time.Time {
	n := s.lastAccepted.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Stats returns a copy of the sink's counters.
func (s *UpdateSink) Stats() Stats {
	return Stats{
		Applied:   s.applied.Load(),
		Malformed: s.malformed.Load(),
		Stale:     s.stale.Load(),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
