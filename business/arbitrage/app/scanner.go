package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/triscan/business/arbitrage/domain"
	marketDomain "github.com/fd1az/triscan/business/market/domain"
	"github.com/fd1az/triscan/internal/logger"
)

const meterName = "arbitrage"

// scannerMetrics holds OTEL metric instruments.
type scannerMetrics struct {
	scans         metric.Int64Counter
	evaluated     metric.Int64Counter
	skipped       metric.Int64Counter
	opportunities metric.Int64Counter
	scanDuration  metric.Float64Histogram
}

// ScanResult summarizes one pass over the candidate set.
type ScanResult struct {
	Evaluated int
	Skipped   int
	Found     []domain.Opportunity
	Duration  time.Duration
}

// Scanner evaluates the precomputed cycle candidates against rate graph
// snapshots. It is read-only and holds no mutable state between scans, so a
// scan may run fully in parallel with ongoing price updates.
type Scanner struct {
	candidates []domain.Cycle
	fees       domain.FeeSchedule
	minNet     decimal.Decimal // 1 + configured profit threshold
	logger     logger.LoggerInterface
	metrics    *scannerMetrics
}

// NewScanner precomputes the candidate set for the given pair universe.
func NewScanner(pairs []marketDomain.Pair, fees domain.FeeSchedule, minProfitRatio decimal.Decimal, log logger.LoggerInterface) (*Scanner, error) {
	if minProfitRatio.Sign() <= 0 {
		return nil, fmt.Errorf("profit threshold must be positive, got %s", minProfitRatio)
	}

	s := &Scanner{
		candidates: domain.BuildCandidates(pairs),
		fees:       fees,
		minNet:     decimal.NewFromInt(1).Add(minProfitRatio),
		logger:     log,
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	log.Info(context.Background(), "cycle candidates prepared",
		"pairs", len(pairs), "candidates", len(s.candidates))
	return s, nil
}

func (s *Scanner) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &scannerMetrics{}

	s.metrics.scans, err = meter.Int64Counter(
		"arbitrage_scans_total",
		metric.WithDescription("Scan passes over the candidate set"),
	)
	if err != nil {
		return err
	}

	s.metrics.evaluated, err = meter.Int64Counter(
		"arbitrage_cycles_evaluated_total",
		metric.WithDescription("Cycles with all three edges present"),
	)
	if err != nil {
		return err
	}

	s.metrics.skipped, err = meter.Int64Counter(
		"arbitrage_cycles_skipped_total",
		metric.WithDescription("Cycles skipped for missing or stale edges"),
	)
	if err != nil {
		return err
	}

	s.metrics.opportunities, err = meter.Int64Counter(
		"arbitrage_opportunities_found_total",
		metric.WithDescription("Cycles whose net rate cleared the threshold"),
	)
	if err != nil {
		return err
	}

	s.metrics.scanDuration, err = meter.Float64Histogram(
		"arbitrage_scan_duration_seconds",
		metric.WithDescription("Wall time of one scan pass"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Candidates returns the size of the precomputed candidate set.
func (s *Scanner) Candidates() int {
	return len(s.candidates)
}

// Scan evaluates every candidate cycle against the snapshot. Cycles with a
// missing or stale edge are skipped, never errors; a pair may simply not
// have received a quote yet.
func (s *Scanner) Scan(ctx context.Context, snap *marketDomain.Snapshot) ScanResult {
	start := time.Now()
	var result ScanResult

	for _, cycle := range s.candidates {
		ev, ok := s.evaluate(cycle, snap)
		if !ok {
			result.Skipped++
			continue
		}
		result.Evaluated++

		if ev.net.Cmp(s.minNet) >= 0 {
			result.Found = append(result.Found,
				domain.NewOpportunity(cycle, ev.gross, ev.net, ev.legRates, ev.seqs))
		}
	}

	result.Duration = time.Since(start)

	s.metrics.scans.Add(ctx, 1)
	s.metrics.evaluated.Add(ctx, int64(result.Evaluated))
	s.metrics.skipped.Add(ctx, int64(result.Skipped))
	s.metrics.opportunities.Add(ctx, int64(len(result.Found)))
	s.metrics.scanDuration.Record(ctx, result.Duration.Seconds())

	return result
}

// cycleEval carries the intermediate rate math for one evaluable cycle.
type cycleEval struct {
	gross    decimal.Decimal
	net      decimal.Decimal
	legRates [3]decimal.Decimal
	seqs     [3]uint64
}

// evaluate compounds the three leg rates and applies per-leg fees.
func (s *Scanner) evaluate(cycle domain.Cycle, snap *marketDomain.Snapshot) (cycleEval, bool) {
	var ev cycleEval

	ev.gross = decimal.NewFromInt(1)
	ev.net = decimal.NewFromInt(1)

	for i, leg := range cycle.Legs {
		er, ok := snap.Rate(leg.From, leg.To)
		if !ok {
			return cycleEval{}, false
		}
		ev.legRates[i] = er.Rate
		ev.seqs[i] = er.Seq
		ev.gross = ev.gross.Mul(er.Rate)
		ev.net = ev.net.Mul(er.Rate).Mul(s.fees.RetainedAfterFee(leg.Pair))
	}

	return ev, true
}
