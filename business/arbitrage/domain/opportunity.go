package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Opportunity is a detected arbitrage cycle. Immutable once emitted; it is
// reported once and then only expires from the dedup window.
type Opportunity struct {
	ID          string
	Cycle       Cycle
	GrossRate   decimal.Decimal // compounded rate before fees
	NetRate     decimal.Decimal // compounded rate after per-leg fees
	ProfitRatio decimal.Decimal // NetRate - 1
	LegRates    [3]decimal.Decimal
	Seqs        [3]uint64 // contributing quote sequence numbers, by leg
	DetectedAt  time.Time
}

// NewOpportunity assembles an opportunity with a fresh id and timestamp.
func NewOpportunity(cycle Cycle, gross, net decimal.Decimal, legRates [3]decimal.Decimal, seqs [3]uint64) Opportunity {
	return Opportunity{
		ID:          uuid.NewString(),
		Cycle:       cycle,
		GrossRate:   gross,
		NetRate:     net,
		ProfitRatio: net.Sub(decimal.NewFromInt(1)),
		LegRates:    legRates,
		Seqs:        seqs,
		DetectedAt:  time.Now(),
	}
}

// ProfitPct returns the profit ratio as a percentage.
func (o Opportunity) ProfitPct() decimal.Decimal {
	return o.ProfitRatio.Mul(decimal.NewFromInt(100))
}
