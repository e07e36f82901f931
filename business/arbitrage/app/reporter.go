package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/triscan/business/arbitrage/domain"
	"github.com/fd1az/triscan/internal/apperror"
	"github.com/fd1az/triscan/internal/logger"
)

const deliveryTimeout = 5 * time.Second

// reporterMetrics holds OTEL metric instruments.
type reporterMetrics struct {
	reported         metric.Int64Counter
	deduped          metric.Int64Counter
	dropped          metric.Int64Counter
	overflowEpisodes metric.Int64Counter
	deliveries       metric.Int64Counter
	deliveryErrors   metric.Int64Counter
}

// ReporterConfig holds reporter settings.
type ReporterConfig struct {
	// DedupWindow suppresses repeat reports of the same asset triple.
	DedupWindow time.Duration
	// QueueSize bounds the delivery queue. On overflow the oldest queued
	// opportunity is dropped, never the scan path blocked.
	QueueSize int
}

// ReporterStats is a point-in-time copy of the reporter's counters.
type ReporterStats struct {
	Reported         uint64
	Deduped          uint64
	Dropped          uint64
	OverflowEpisodes uint64
}

// Reporter decouples opportunity delivery from the scan path. Scans submit
// into a bounded queue; a single delivery goroutine fans each opportunity
// out to the registered consumers. A persistently profitable cycle is
// reported once per dedup window, keyed by its asset triple so both
// rotations share one slot.
type Reporter struct {
	consumers []Consumer
	config    ReporterConfig
	logger    logger.LoggerInterface
	metrics   *reporterMetrics

	queue   chan domain.Opportunity
	closing chan struct{}
	wg      sync.WaitGroup

	mu           sync.Mutex
	lastReported map[string]time.Time
	now          func() time.Time

	// overflowing marks an open overflow episode; the diagnostic fires once
	// when it opens, not per dropped item.
	overflowing atomic.Bool

	reportedCount atomic.Uint64
	dedupedCount  atomic.Uint64
	droppedCount  atomic.Uint64
	overflowCount atomic.Uint64

	stopOnce sync.Once
	stopErr  error
}

// NewReporter creates a reporter delivering to the given consumers.
func NewReporter(consumers []Consumer, config ReporterConfig, log logger.LoggerInterface) (*Reporter, error) {
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}
	if config.DedupWindow <= 0 {
		config.DedupWindow = 10 * time.Second
	}

	r := &Reporter{
		consumers:    consumers,
		config:       config,
		logger:       log,
		queue:        make(chan domain.Opportunity, config.QueueSize),
		closing:      make(chan struct{}),
		lastReported: make(map[string]time.Time),
		now:          time.Now,
	}

	if err := r.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return r, nil
}

func (r *Reporter) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	r.metrics = &reporterMetrics{}

	r.metrics.reported, err = meter.Int64Counter(
		"arbitrage_opportunities_reported_total",
		metric.WithDescription("Opportunities enqueued for delivery"),
	)
	if err != nil {
		return err
	}

	r.metrics.deduped, err = meter.Int64Counter(
		"arbitrage_opportunities_deduped_total",
		metric.WithDescription("Opportunities suppressed by the dedup window"),
	)
	if err != nil {
		return err
	}

	r.metrics.dropped, err = meter.Int64Counter(
		"arbitrage_queue_dropped_total",
		metric.WithDescription("Queued opportunities dropped on overflow"),
	)
	if err != nil {
		return err
	}

	r.metrics.overflowEpisodes, err = meter.Int64Counter(
		"arbitrage_overflow_episodes_total",
		metric.WithDescription("Times the delivery queue entered overflow"),
	)
	if err != nil {
		return err
	}

	r.metrics.deliveries, err = meter.Int64Counter(
		"arbitrage_deliveries_total",
		metric.WithDescription("Successful deliveries per consumer"),
	)
	if err != nil {
		return err
	}

	r.metrics.deliveryErrors, err = meter.Int64Counter(
		"arbitrage_delivery_errors_total",
		metric.WithDescription("Failed deliveries per consumer"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Start launches the delivery goroutine. Deliveries survive cancellation of
// the passed context; shutdown is driven by Stop so queued opportunities
// flush before exit.
func (r *Reporter) Start(ctx context.Context) error {
	r.wg.Add(1)
	go r.deliver(context.WithoutCancel(ctx))
	return nil
}

// Submit offers one opportunity for delivery. It never blocks: when the
// queue is full the oldest queued item is dropped to make room.
func (r *Reporter) Submit(ctx context.Context, opp domain.Opportunity) {
	if r.withinDedupWindow(opp) {
		r.dedupedCount.Add(1)
		r.metrics.deduped.Add(ctx, 1)
		return
	}

	droppedHere := false
	for {
		select {
		case r.queue <- opp:
			r.reportedCount.Add(1)
			r.metrics.reported.Add(ctx, 1)
			if !droppedHere && r.overflowing.CompareAndSwap(true, false) {
				r.logger.Info(ctx, "opportunity queue recovered")
			}
			return
		default:
		}

		select {
		case dropped := <-r.queue:
			r.droppedCount.Add(1)
			r.metrics.dropped.Add(ctx, 1)
			droppedHere = true
			if r.overflowing.CompareAndSwap(false, true) {
				r.overflowCount.Add(1)
				r.metrics.overflowEpisodes.Add(ctx, 1)

				diag := apperror.New(apperror.CodeQueueOverflow,
					apperror.WithContext(fmt.Sprintf("queue size %d", cap(r.queue))))
				r.logger.Warn(ctx, "opportunity queue overflow, dropping oldest",
					"error", diag, "dropped", dropped.ID, "cycle", dropped.Cycle.String())
			}
		default:
			// Deliverer drained the queue between the two selects; retry.
		}
	}
}

// withinDedupWindow records the submission time per asset triple and
// reports whether the previous one is still inside the window.
func (r *Reporter) withinDedupWindow(opp domain.Opportunity) bool {
	key := opp.Cycle.TripleKey()
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if last, ok := r.lastReported[key]; ok && now.Sub(last) < r.config.DedupWindow {
		return true
	}
	r.lastReported[key] = now
	return false
}

func (r *Reporter) deliver(ctx context.Context) {
	defer r.wg.Done()

	for {
		select {
		case opp := <-r.queue:
			r.dispatch(ctx, opp)
		case <-r.closing:
			return
		}
	}
}

func (r *Reporter) dispatch(ctx context.Context, opp domain.Opportunity) {
	for _, c := range r.consumers {
		dctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
		err := c.Deliver(dctx, opp)
		cancel()

		if err != nil {
			r.metrics.deliveryErrors.Add(ctx, 1,
				metric.WithAttributes(attribute.String("consumer", c.Name())))

			diag := apperror.New(apperror.CodeConsumerDeliveryFailed,
				apperror.WithCause(err),
				apperror.WithContext("consumer "+c.Name()))
			r.logger.Warn(ctx, "opportunity delivery failed",
				"consumer", c.Name(), "opportunity", opp.ID, "error", diag)
			continue
		}
		r.metrics.deliveries.Add(ctx, 1,
			metric.WithAttributes(attribute.String("consumer", c.Name())))
	}
}

// Stop halts the deliverer, flushes everything still queued, and closes all
// consumers. It is safe to call more than once.
func (r *Reporter) Stop() error {
	r.stopOnce.Do(func() {
		close(r.closing)
		r.wg.Wait()

		ctx := context.Background()
	drain:
		for {
			select {
			case opp := <-r.queue:
				r.dispatch(ctx, opp)
			default:
				break drain
			}
		}

		for _, c := range r.consumers {
			if err := c.Close(); err != nil && r.stopErr == nil {
				r.stopErr = err
			}
		}
	})
	return r.stopErr
}

// Stats returns a copy of the reporter's counters.
func (r *Reporter) Stats() ReporterStats {
	return ReporterStats{
		Reported:         r.reportedCount.Load(),
		Deduped:          r.dedupedCount.Load(),
		Dropped:          r.droppedCount.Load(),
		OverflowEpisodes: r.overflowCount.Load(),
	}
}
