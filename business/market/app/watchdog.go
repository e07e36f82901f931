package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/triscan/internal/apperror"
	"github.com/fd1az/triscan/internal/logger"
)

const minWatchdogTick = 250 * time.Millisecond

// Watchdog raises a feed-stale diagnostic when no update has been accepted
// within the configured window. The condition is reported once per episode
// and cleared when updates resume; it is never fatal.
type Watchdog struct {
	sink       *UpdateSink
	staleAfter time.Duration
	logger     logger.LoggerInterface

	staleEpisodes metric.Int64Counter

	// inEpisode is only touched from the Run goroutine.
	inEpisode bool
	episodes  atomic.Uint64
}

// NewWatchdog creates a watchdog over the sink's update clock.
func NewWatchdog(sink *UpdateSink, staleAfter time.Duration, log logger.LoggerInterface) (*Watchdog, error) {
	w := &Watchdog{
		sink:       sink,
		staleAfter: staleAfter,
		logger:     log,
	}

	meter := otel.Meter(meterName)
	var err error
	w.staleEpisodes, err = meter.Int64Counter(
		"market_feed_stale_episodes_total",
		metric.WithDescription("Times the feed went silent past the stale window"),
	)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return w, nil
}

// Run checks the feed clock until the context ends.
func (w *Watchdog) Run(ctx context.Context) {
	tick := w.staleAfter / 4
	if tick < minWatchdogTick {
		tick = minWatchdogTick
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

func (w *Watchdog) check(ctx context.Context) {
	last := w.sink.LastAcceptedAt()
	if last.IsZero() {
		// Sink has not started consuming yet.
		return
	}

	silent := time.Since(last)
	if silent > w.staleAfter {
		if !w.inEpisode {
			w.inEpisode = true
			w.episodes.Add(1)
			w.staleEpisodes.Add(ctx, 1)

			diag := apperror.New(apperror.CodeFeedStale,
				apperror.WithContext(fmt.Sprintf("no update for %s", silent.Round(time.Millisecond))))
			w.logger.Warn(ctx, "price feed stale",
				"error", diag, "silent_for", silent.Round(time.Millisecond), "stale_after", w.staleAfter)
		}
		return
	}

	if w.inEpisode {
		w.inEpisode = false
		w.logger.Info(ctx, "price feed recovered", "last_update", last)
	}
}

// Episodes returns how many stale episodes have been observed.
func (w *Watchdog) Episodes() uint64 {
	return w.episodes.Load()
}
