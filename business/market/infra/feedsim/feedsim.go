// Package feedsim provides a seeded, simulated price feed for development
// and load testing. It emits random-walk quotes over a configured pair
// universe and can optionally inject the malformed and out-of-order events
// a real feed produces.
package feedsim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/triscan/business/market/domain"
	"github.com/fd1az/triscan/internal/logger"
)

const priceScale = 8

// Config holds simulator settings.
type Config struct {
	Pairs      []domain.Pair
	Interval   time.Duration // delay between consecutive events
	Volatility float64       // max fractional mid-price move per tick
	Spread     float64       // half-spread as a fraction of mid
	Faults     bool          // inject malformed and stale events
	Seed       int64
	Buffer     int
}

// DefaultConfig returns simulator defaults for the given universe.
func DefaultConfig(pairs []domain.Pair) Config {
	return Config{
		Pairs:      pairs,
		Interval:   50 * time.Millisecond,
		Volatility: 0.002,
		Spread:     0.0005,
		Seed:       time.Now().UnixNano(),
		Buffer:     256,
	}
}

// pairState tracks the walk for one pair.
type pairState struct {
	pair domain.Pair
	mid  float64
	seq  uint64
}

// Source is a simulated feed implementing the market FeedSource port.
type Source struct {
	config Config
	logger logger.LoggerInterface

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewSource creates a simulator over the given config.
func NewSource(config Config, log logger.LoggerInterface) *Source {
	if config.Interval <= 0 {
		config.Interval = time.Millisecond
	}
	if config.Buffer <= 0 {
		config.Buffer = DefaultConfig(nil).Buffer
	}
	return &Source{config: config, logger: log}
}

// Subscribe starts event generation. The returned channel closes when the
// context is cancelled or Close is called.
func (s *Source) Subscribe(ctx context.Context) (<-chan domain.PriceEvent, error) {
	if len(s.config.Pairs) == 0 {
		return nil, fmt.Errorf("feedsim: no pairs configured")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	events := make(chan domain.PriceEvent, s.config.Buffer)
	go s.generate(ctx, events)

	s.logger.Info(ctx, "simulated feed started",
		"pairs", len(s.config.Pairs), "interval", s.config.Interval, "faults", s.config.Faults)
	return events, nil
}

// Close stops event generation.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

func (s *Source) generate(ctx context.Context, events chan<- domain.PriceEvent) {
	defer close(events)

	rng := rand.New(rand.NewSource(s.config.Seed))

	states := make([]*pairState, len(s.config.Pairs))
	for i, p := range s.config.Pairs {
		states[i] = &pairState{
			pair: p,
			// Anchor each walk somewhere plausible.
			mid: 0.1 + rng.Float64()*999.9,
		}
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		st := states[rng.Intn(len(states))]
		ev := s.nextEvent(rng, st)

		select {
		case <-ctx.Done():
			return
		case events <- ev:
		}
	}
}

func (s *Source) nextEvent(rng *rand.Rand, st *pairState) domain.PriceEvent {
	st.mid *= 1 + s.config.Volatility*(rng.Float64()*2-1)
	st.seq++

	bid := decimal.NewFromFloat(st.mid * (1 - s.config.Spread)).Round(priceScale)
	ask := decimal.NewFromFloat(st.mid * (1 + s.config.Spread)).Round(priceScale)

	ev := domain.PriceEvent{
		Pair: st.pair.String(),
		Bid:  bid,
		Ask:  ask,
		Seq:  st.seq,
		Time: time.Now(),
	}

	if s.config.Faults && rng.Intn(40) == 0 {
		switch rng.Intn(3) {
		case 0:
			ev.Bid = decimal.NewFromInt(-1)
		case 1:
			ev.Pair = "FAKE-PAIR"
		case 2:
			// Re-send an already consumed sequence number.
			if st.seq > 1 {
				ev.Seq = st.seq - 1
				st.seq--
			}
		}
	}

	return ev
}
