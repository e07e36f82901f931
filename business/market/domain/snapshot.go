package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EdgeRate is one directed conversion rate inside a snapshot, together with
// the sequence number of the quote it was derived from.
type EdgeRate struct {
	Rate decimal.Decimal
	Seq  uint64
}

// Snapshot is an immutable view of the rate graph's fresh edges, taken at a
// single point in time. Scanners read it without further synchronization.
type Snapshot struct {
	takenAt     time.Time
	rates       map[edgeKey]EdgeRate
	pairCount   int
	quotedPairs int
	staleCount  int
}

// Rate returns the directed conversion rate from one asset symbol to
// another, or false if the edge was absent or stale when the snapshot was
// taken.
func (s *Snapshot) Rate(from, to string) (EdgeRate, bool) {
	er, ok := s.rates[edgeKey{from: from, to: to}]
	return er, ok
}

// TakenAt returns when the snapshot was captured.
func (s *Snapshot) TakenAt() time.Time {
	return s.takenAt
}

// EdgeCount returns the number of directed edges present.
func (s *Snapshot) EdgeCount() int {
	return len(s.rates)
}

// QuotedPairs returns how many pairs contributed fresh quotes.
func (s *Snapshot) QuotedPairs() int {
	return s.quotedPairs
}

// StalePairs returns how many quoted pairs were excluded for staleness.
func (s *Snapshot) StalePairs() int {
	return s.staleCount
}

// PairCount returns the size of the configured universe.
func (s *Snapshot) PairCount() int {
	return s.pairCount
}
