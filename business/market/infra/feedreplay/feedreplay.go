// Package feedreplay replays recorded price events from a JSONL file, one
// event per line. Lines that do not parse are forwarded as malformed events
// so the sink can account for them; the replay itself never stops on bad
// input.
package feedreplay

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/triscan/business/market/domain"
	"github.com/fd1az/triscan/internal/logger"
)

// maxGap caps the pacing delay between two recorded events, so a recording
// with a long quiet stretch replays without stalling for the full gap.
const maxGap = 5 * time.Second

const scanBufferSize = 1024 * 1024

// Config holds replay settings.
type Config struct {
	Path string
	// Speed compresses recorded time. 2 replays twice as fast; <= 0 replays
	// with no pacing at all.
	Speed  float64
	Buffer int
}

// record is the on-disk event shape.
type record struct {
	Pair string          `json:"pair"`
	Bid  decimal.Decimal `json:"bid"`
	Ask  decimal.Decimal `json:"ask"`
	Seq  uint64          `json:"seq"`
	Time time.Time       `json:"ts"`
}

// Source replays a recorded feed, implementing the market FeedSource port.
type Source struct {
	config Config
	logger logger.LoggerInterface

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewSource creates a replay source for the given config.
func NewSource(config Config, log logger.LoggerInterface) *Source {
	if config.Buffer <= 0 {
		config.Buffer = 256
	}
	return &Source{config: config, logger: log}
}

// Subscribe opens the recording and starts replaying it. The returned
// channel closes at end of file or when the context is cancelled.
func (s *Source) Subscribe(ctx context.Context) (<-chan domain.PriceEvent, error) {
	f, err := os.Open(s.config.Path)
	if err != nil {
		return nil, fmt.Errorf("open replay file: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	events := make(chan domain.PriceEvent, s.config.Buffer)
	go s.replay(ctx, f, events)

	s.logger.Info(ctx, "replay feed started", "file", s.config.Path, "speed", s.config.Speed)
	return events, nil
}

// Close stops the replay.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

func (s *Source) replay(ctx context.Context, f *os.File, events chan<- domain.PriceEvent) {
	defer close(events)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), scanBufferSize)

	var prev time.Time
	lines := 0

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines++

		var rec record
		if err := json.Unmarshal([]byte(line), &rec); err != nil || rec.Pair == "" {
			// Forward as-is; the sink owns malformed accounting.
			if !s.emit(ctx, events, domain.PriceEvent{Raw: line}) {
				return
			}
			continue
		}

		if s.config.Speed > 0 && !prev.IsZero() && rec.Time.After(prev) {
			gap := time.Duration(float64(rec.Time.Sub(prev)) / s.config.Speed)
			if gap > maxGap {
				gap = maxGap
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(gap):
			}
		}
		prev = rec.Time

		ev := domain.PriceEvent{
			Pair: rec.Pair,
			Bid:  rec.Bid,
			Ask:  rec.Ask,
			Seq:  rec.Seq,
			Time: rec.Time,
			Raw:  line,
		}
		if !s.emit(ctx, events, ev) {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		s.logger.Warn(ctx, "replay read failed", "file", s.config.Path, "error", err)
		return
	}
	s.logger.Info(ctx, "replay finished", "file", s.config.Path, "lines", lines)
}

func (s *Source) emit(ctx context.Context, events chan<- domain.PriceEvent, ev domain.PriceEvent) bool {
	select {
	case <-ctx.Done():
		return false
	case events <- ev:
		return true
	}
}
