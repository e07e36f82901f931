package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceEvent is a raw price update as produced by a feed adapter, before
// validation. Pair is the plain "BASE-QUOTE" symbol; an empty symbol marks
// an event the adapter could not parse at all.
type PriceEvent struct {
	Pair string
	Bid  decimal.Decimal
	Ask  decimal.Decimal
	Seq  uint64
	Time time.Time

	// Raw preserves the original payload for diagnostics on malformed events.
	Raw string
}
