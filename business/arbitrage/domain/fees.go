package domain

import (
	"github.com/shopspring/decimal"
)

// FeeSchedule maps pairs to the taker fee charged per conversion leg.
type FeeSchedule struct {
	Default decimal.Decimal
	PerPair map[string]decimal.Decimal
}

// NewFeeSchedule creates a schedule with a global default and optional
// per-pair overrides.
func NewFeeSchedule(def decimal.Decimal, perPair map[string]decimal.Decimal) FeeSchedule {
	return FeeSchedule{Default: def, PerPair: perPair}
}

// For returns the fee rate for a pair symbol.
func (f FeeSchedule) For(pair string) decimal.Decimal {
	if rate, ok := f.PerPair[pair]; ok {
		return rate
	}
	return f.Default
}

// RetainedAfterFee returns the fraction kept after one leg's fee,
// i.e. 1 - fee.
func (f FeeSchedule) RetainedAfterFee(pair string) decimal.Decimal {
	return decimal.NewFromInt(1).Sub(f.For(pair))
}
