package app

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/triscan/business/arbitrage/domain"
	marketDomain "github.com/fd1az/triscan/business/market/domain"
	"github.com/fd1az/triscan/internal/asset"
	"github.com/fd1az/triscan/internal/logger"
)

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelInfo, "arbitrage-test", nil)
}

var fxSymbols = []string{"USD-EUR", "EUR-JPY", "JPY-USD"}

// fxQuotes is a triangle whose sell-around product 0.90 * 160 * 0.0070
// compounds to exactly 1.008 before fees.
var fxQuotes = map[string][2]string{
	"USD-EUR": {"0.90", "0.91"},
	"EUR-JPY": {"160", "161"},
	"JPY-USD": {"0.0070", "0.0071"},
}

func testPairs(t *testing.T, symbols []string) []marketDomain.Pair {
	t.Helper()
	pairs, err := marketDomain.ParsePairs(symbols, asset.NewRegistry())
	if err != nil {
		t.Fatalf("ParsePairs: %v", err)
	}
	return pairs
}

// quotedGraph seeds a fresh graph with the given quotes at seq 1. Pairs
// missing from quotes stay unquoted.
func quotedGraph(t *testing.T, pairs []marketDomain.Pair, quotes map[string][2]string) *marketDomain.RateGraph {
	t.Helper()
	graph, err := marketDomain.NewRateGraph(pairs, time.Minute)
	if err != nil {
		t.Fatalf("NewRateGraph: %v", err)
	}
	for _, p := range pairs {
		ba, ok := quotes[p.String()]
		if !ok {
			continue
		}
		q := marketDomain.Quote{
			Pair: p,
			Bid:  decimal.RequireFromString(ba[0]),
			Ask:  decimal.RequireFromString(ba[1]),
			Seq:  1,
			Time: time.Now(),
		}
		if err := graph.ApplyQuote(q); err != nil {
			t.Fatalf("ApplyQuote(%s): %v", p, err)
		}
	}
	return graph
}

func quotedSnapshot(t *testing.T, pairs []marketDomain.Pair, quotes map[string][2]string) *marketDomain.Snapshot {
	t.Helper()
	return quotedGraph(t, pairs, quotes).Snapshot()
}

func newTestScanner(t *testing.T, pairs []marketDomain.Pair, fees domain.FeeSchedule, threshold string) *Scanner {
	t.Helper()
	s, err := NewScanner(pairs, fees, decimal.RequireFromString(threshold), testLogger())
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	return s
}

func TestScanReportsProfitableRotation(t *testing.T) {
	pairs := testPairs(t, fxSymbols)
	snap := quotedSnapshot(t, pairs, fxQuotes)
	scanner := newTestScanner(t, pairs, domain.NewFeeSchedule(decimal.Zero, nil), "0.008")

	result := scanner.Scan(context.Background(), snap)

	if result.Evaluated != 2 {
		t.Fatalf("evaluated %d cycles, want 2", result.Evaluated)
	}
	if result.Skipped != 0 {
		t.Fatalf("skipped %d cycles, want 0", result.Skipped)
	}
	if len(result.Found) != 1 {
		t.Fatalf("found %d opportunities, want 1", len(result.Found))
	}

	opp := result.Found[0]
	if got := opp.NetRate.String(); got != "1.008" {
		t.Errorf("net rate = %s, want 1.008", got)
	}
	if got := opp.GrossRate.String(); got != "1.008" {
		t.Errorf("gross rate = %s, want 1.008", got)
	}
	if got := opp.ProfitRatio.String(); got != "0.008" {
		t.Errorf("profit ratio = %s, want 0.008", got)
	}
	if opp.ID == "" {
		t.Error("opportunity id is empty")
	}

	// Only the rotation selling the base on every leg clears 1. It is
	// anchored at EUR, the smallest asset symbol.
	leg := opp.Cycle.Legs[0]
	if leg.From != "EUR" || leg.To != "JPY" || leg.Pair != "EUR-JPY" {
		t.Errorf("first leg = %s->%s via %s, want EUR->JPY via EUR-JPY", leg.From, leg.To, leg.Pair)
	}
	for i, seq := range opp.Seqs {
		if seq != 1 {
			t.Errorf("leg %d seq = %d, want 1", i, seq)
		}
	}
}

func TestScanThresholdBoundary(t *testing.T) {
	pairs := testPairs(t, fxSymbols)
	snap := quotedSnapshot(t, pairs, fxQuotes)
	fees := domain.NewFeeSchedule(decimal.Zero, nil)

	tests := []struct {
		name      string
		threshold string
		wantFound int
	}{
		{name: "below_profit", threshold: "0.001", wantFound: 1},
		{name: "exactly_at_profit", threshold: "0.008", wantFound: 1},
		{name: "above_profit", threshold: "0.0081", wantFound: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := newTestScanner(t, pairs, fees, tt.threshold)
			result := scanner.Scan(context.Background(), snap)
			if len(result.Found) != tt.wantFound {
				t.Errorf("found %d opportunities, want %d", len(result.Found), tt.wantFound)
			}
		})
	}
}

func TestScanAppliesPerLegFees(t *testing.T) {
	pairs := testPairs(t, fxSymbols)
	snap := quotedSnapshot(t, pairs, fxQuotes)

	tests := []struct {
		name      string
		fees      domain.FeeSchedule
		wantFound int
	}{
		{
			name:      "zero_fees_keep_edge",
			fees:      domain.NewFeeSchedule(decimal.Zero, nil),
			wantFound: 1,
		},
		{
			// 0.3% per leg compounds to ~0.9% and erases the 0.8% edge.
			name:      "flat_fee_erases_edge",
			fees:      domain.NewFeeSchedule(decimal.RequireFromString("0.003"), nil),
			wantFound: 0,
		},
		{
			name: "per_pair_override_erases_edge",
			fees: domain.NewFeeSchedule(decimal.Zero, map[string]decimal.Decimal{
				"EUR-JPY": decimal.RequireFromString("0.008"),
			}),
			wantFound: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := newTestScanner(t, pairs, tt.fees, "0.0001")
			result := scanner.Scan(context.Background(), snap)
			if len(result.Found) != tt.wantFound {
				t.Errorf("found %d opportunities, want %d", len(result.Found), tt.wantFound)
			}
		})
	}
}

func TestScanSkipsUnquotedCycles(t *testing.T) {
	pairs := testPairs(t, fxSymbols)
	partial := map[string][2]string{
		"USD-EUR": fxQuotes["USD-EUR"],
		"EUR-JPY": fxQuotes["EUR-JPY"],
	}
	snap := quotedSnapshot(t, pairs, partial)
	scanner := newTestScanner(t, pairs, domain.NewFeeSchedule(decimal.Zero, nil), "0.001")

	result := scanner.Scan(context.Background(), snap)

	if result.Skipped != 2 {
		t.Errorf("skipped %d cycles, want 2", result.Skipped)
	}
	if result.Evaluated != 0 {
		t.Errorf("evaluated %d cycles, want 0", result.Evaluated)
	}
	if len(result.Found) != 0 {
		t.Errorf("found %d opportunities, want 0", len(result.Found))
	}
}

func TestNewScannerRejectsBadThreshold(t *testing.T) {
	pairs := testPairs(t, fxSymbols)
	fees := domain.NewFeeSchedule(decimal.Zero, nil)

	for _, threshold := range []string{"0", "-0.01"} {
		if _, err := NewScanner(pairs, fees, decimal.RequireFromString(threshold), testLogger()); err == nil {
			t.Errorf("NewScanner accepted threshold %s", threshold)
		}
	}
}

func BenchmarkScan(b *testing.B) {
	names := []string{"AUD", "CAD", "CHF", "EUR", "GBP", "JPY", "NZD", "USD"}
	var symbols []string
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			symbols = append(symbols, names[i]+"-"+names[j])
		}
	}

	pairs, err := marketDomain.ParsePairs(symbols, asset.NewRegistry())
	if err != nil {
		b.Fatalf("ParsePairs: %v", err)
	}
	graph, err := marketDomain.NewRateGraph(pairs, time.Minute)
	if err != nil {
		b.Fatalf("NewRateGraph: %v", err)
	}

	one := decimal.NewFromInt(1)
	for _, p := range pairs {
		q := marketDomain.Quote{Pair: p, Bid: one, Ask: one, Seq: 1, Time: time.Now()}
		if err := graph.ApplyQuote(q); err != nil {
			b.Fatalf("ApplyQuote(%s): %v", p, err)
		}
	}
	snap := graph.Snapshot()

	scanner, err := NewScanner(pairs, domain.NewFeeSchedule(decimal.Zero, nil), decimal.RequireFromString("0.001"), testLogger())
	if err != nil {
		b.Fatalf("NewScanner: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		scanner.Scan(context.Background(), snap)
	}
}
