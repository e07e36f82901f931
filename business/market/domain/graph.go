package domain

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// pairSlot holds the mutable quote state for one pair. Each slot has its own
// lock so updates to unrelated pairs never contend.
type pairSlot struct {
	pair Pair

	mu        sync.Mutex
	quote     Quote
	hasQuote  bool
	appliedAt time.Time
}

// edgeRef points a directed conversion at its backing slot.
type edgeRef struct {
	slot     *pairSlot
	sellBase bool // rate = bid when selling base, 1/ask when buying base
}

type edgeKey struct {
	from string
	to   string
}

// RateGraph holds the latest quote per configured pair and derives the two
// directed conversion rates each pair implies. The pair universe is fixed at
// construction; only quote state mutates afterwards, so no global lock is
// needed on the read or write path.
//
// Selling the base asset converts base to quote at the bid. Buying the base
// asset converts quote to base at the reciprocal of the ask. A flat cycle of
// consistent bid=ask quotes therefore multiplies out to exactly 1 with zero
// fees.
type RateGraph struct {
	pairs     []Pair
	slots     map[string]*pairSlot
	edges     map[edgeKey]edgeRef
	freshness time.Duration
	now       func() time.Time
}

// NewRateGraph builds a graph over the given pair universe. freshness bounds
// how old an applied quote may be before its edges are treated as absent;
// 0 disables the check. A universe containing both a pair and its inverse is
// rejected since the two would define conflicting rates for the same edge.
func NewRateGraph(pairs []Pair, freshness time.Duration) (*RateGraph, error) {
	g := &RateGraph{
		pairs:     make([]Pair, 0, len(pairs)),
		slots:     make(map[string]*pairSlot, len(pairs)),
		edges:     make(map[edgeKey]edgeRef, 2*len(pairs)),
		freshness: freshness,
		now:       time.Now,
	}

	for _, p := range pairs {
		symbol := p.String()
		if _, dup := g.slots[symbol]; dup {
			return nil, fmt.Errorf("duplicate pair %s", symbol)
		}

		slot := &pairSlot{pair: p}

		sell := edgeKey{from: p.Base.Symbol(), to: p.Quote.Symbol()}
		buy := edgeKey{from: p.Quote.Symbol(), to: p.Base.Symbol()}
		if _, clash := g.edges[sell]; clash {
			return nil, fmt.Errorf("pair %s conflicts with inverse pair already configured", symbol)
		}

		g.slots[symbol] = slot
		g.edges[sell] = edgeRef{slot: slot, sellBase: true}
		g.edges[buy] = edgeRef{slot: slot, sellBase: false}
		g.pairs = append(g.pairs, p)
	}

	return g, nil
}

// Pairs returns the configured pair universe.
func (g *RateGraph) Pairs() []Pair {
	return g.pairs
}

// Lookup resolves a pair symbol against the universe.
func (g *RateGraph) Lookup(symbol string) (Pair, bool) {
	slot, ok := g.slots[symbol]
	if !ok {
		return Pair{}, false
	}
	return slot.pair, true
}

// ApplyQuote stores a quote if it advances the pair's sequence number.
// It is safe for concurrent use; calls for different pairs do not contend.
func (g *RateGraph) ApplyQuote(q Quote) error {
	slot, ok := g.slots[q.Pair.String()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPair, q.Pair)
	}
	if err := q.Validate(); err != nil {
		return err
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.hasQuote && q.Seq <= slot.quote.Seq {
		return fmt.Errorf("%w: seq %d does not advance stored %d for %s",
			ErrStaleQuote, q.Seq, slot.quote.Seq, q.Pair)
	}

	slot.quote = q
	slot.hasQuote = true
	slot.appliedAt = g.now()
	return nil
}

// Quote returns the stored quote for a pair symbol, if one has been applied.
func (g *RateGraph) Quote(symbol string) (Quote, bool) {
	slot, ok := g.slots[symbol]
	if !ok {
		return Quote{}, false
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()
	if !slot.hasQuote {
		return Quote{}, false
	}
	return slot.quote, true
}

// Rate returns the live conversion rate from one asset symbol to another, or
// false if that edge has never been quoted, is outside the universe, or has
// gone stale.
func (g *RateGraph) Rate(from, to string) (decimal.Decimal, bool) {
	ref, ok := g.edges[edgeKey{from: from, to: to}]
	if !ok {
		return decimal.Zero, false
	}

	ref.slot.mu.Lock()
	q, has, at := ref.slot.quote, ref.slot.hasQuote, ref.slot.appliedAt
	ref.slot.mu.Unlock()

	if !has {
		return decimal.Zero, false
	}
	if g.freshness > 0 && g.now().Sub(at) > g.freshness {
		return decimal.Zero, false
	}
	if ref.sellBase {
		return q.Bid, true
	}
	return one.Div(q.Ask), true
}

// Snapshot captures a point-in-time consistent view of all fresh edges.
// Each slot is locked only long enough to copy its quote, so snapshotting
// never stalls the update path.
func (g *RateGraph) Snapshot() *Snapshot {
	now := g.now()
	s := &Snapshot{
		takenAt:   now,
		rates:     make(map[edgeKey]EdgeRate, 2*len(g.pairs)),
		pairCount: len(g.pairs),
	}

	for _, p := range g.pairs {
		slot := g.slots[p.String()]

		slot.mu.Lock()
		q, has, at := slot.quote, slot.hasQuote, slot.appliedAt
		slot.mu.Unlock()

		if !has {
			continue
		}
		if g.freshness > 0 && now.Sub(at) > g.freshness {
			s.staleCount++
			continue
		}

		s.rates[edgeKey{from: p.Base.Symbol(), to: p.Quote.Symbol()}] = EdgeRate{
			Rate: q.Bid,
			Seq:  q.Seq,
		}
		s.rates[edgeKey{from: p.Quote.Symbol(), to: p.Base.Symbol()}] = EdgeRate{
			Rate: one.Div(q.Ask),
			Seq:  q.Seq,
		}
		s.quotedPairs++
	}

	return s
}
