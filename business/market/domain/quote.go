package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownPair is returned when a quote references a pair outside the
	// configured universe.
	ErrUnknownPair = errors.New("market: unknown pair")

	// ErrStaleQuote is returned when a quote's sequence number does not
	// advance past the stored one.
	ErrStaleQuote = errors.New("market: stale quote sequence")

	// ErrInvalidQuote is returned when a quote carries unusable prices.
	ErrInvalidQuote = errors.New("market: invalid quote")
)

// Quote is the current best bid and ask for a pair. It is overwritten
// wholesale on each accepted update, never partially patched.
type Quote struct {
	Pair Pair
	Bid  decimal.Decimal
	Ask  decimal.Decimal
	Seq  uint64
	Time time.Time // feed-reported time, informational
}

// Validate checks that both prices are present and positive.
func (q Quote) Validate() error {
	if q.Bid.Sign() <= 0 {
		return fmt.Errorf("%w: bid %s for %s", ErrInvalidQuote, q.Bid, q.Pair)
	}
	if q.Ask.Sign() <= 0 {
		return fmt.Errorf("%w: ask %s for %s", ErrInvalidQuote, q.Ask, q.Pair)
	}
	return nil
}

// Mid returns the mid-market price.
func (q Quote) Mid() decimal.Decimal {
	return q.Bid.Add(q.Ask).Div(decimal.NewFromInt(2))
}

// SpreadPct returns the bid/ask spread as a fraction of the mid price.
func (q Quote) SpreadPct() decimal.Decimal {
	mid := q.Mid()
	if mid.IsZero() {
		return decimal.Zero
	}
	return q.Ask.Sub(q.Bid).Div(mid)
}
