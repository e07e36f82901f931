// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	marketDomain "github.com/fd1az/triscan/business/market/domain"
	"github.com/fd1az/triscan/internal/apm"
	"github.com/fd1az/triscan/internal/logger"
	"github.com/fd1az/triscan/internal/ratelimit"
)

// DetectorConfig holds configuration for the scan loop.
type DetectorConfig struct {
	// Interval paces the periodic scan.
	Interval time.Duration
	// Reactive adds a scan trigger whenever the sink signals freshly
	// applied updates, still subject to MaxScansPerMinute.
	Reactive bool
	// MaxScansPerMinute caps total scan frequency. Zero means uncapped.
	MaxScansPerMinute int
}

// Detector orchestrates arbitrage detection: on every trigger it snapshots
// the rate graph, scans all candidate cycles against it, and submits any
// findings to the reporter.
type Detector struct {
	graph    *marketDomain.RateGraph
	updates  <-chan struct{}
	scanner  *Scanner
	reporter *Reporter
	limiter  *ratelimit.Limiter
	config   DetectorConfig
	logger   logger.LoggerInterface
	tracer   apm.Tracer

	cancel context.CancelFunc
	wg     sync.WaitGroup
	scans  atomic.Uint64
}

// NewDetector creates a new Detector. The updates channel may be nil when
// reactive scanning is disabled.
func NewDetector(
	graph *marketDomain.RateGraph,
	updates <-chan struct{},
	scanner *Scanner,
	reporter *Reporter,
	config DetectorConfig,
	log logger.LoggerInterface,
) (*Detector, error) {
	if config.Interval <= 0 {
		return nil, fmt.Errorf("scan interval must be positive, got %s", config.Interval)
	}

	var limiter *ratelimit.Limiter
	if config.MaxScansPerMinute > 0 {
		limiter = ratelimit.New(config.MaxScansPerMinute)
	}

	return &Detector{
		graph:    graph,
		updates:  updates,
		scanner:  scanner,
		reporter: reporter,
		limiter:  limiter,
		config:   config,
		logger:   log,
		tracer:   apm.NewTracer("arbitrage.detector"),
	}, nil
}

// Start launches the reporter and the scan loop.
func (d *Detector) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.reporter.Start(runCtx); err != nil {
		cancel()
		return fmt.Errorf("start reporter: %w", err)
	}

	d.wg.Add(1)
	go d.run(runCtx)

	d.logger.Info(ctx, "detector started",
		"interval", d.config.Interval.String(),
		"reactive", d.config.Reactive,
		"candidates", d.scanner.Candidates())
	return nil
}

func (d *Detector) run(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.Interval)
	defer ticker.Stop()

	// A nil channel never fires, so disabled reactive mode costs nothing.
	updates := d.updates
	if !d.config.Reactive {
		updates = nil
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.scanOnce(ctx)
		case <-updates:
			d.scanOnce(ctx)
		}
	}
}

func (d *Detector) scanOnce(ctx context.Context) {
	if d.limiter != nil && !d.limiter.Allow() {
		return
	}

	ctx, span := d.tracer.Start(ctx, "arbitrage.scan")
	defer span.End()

	snap := d.graph.Snapshot()
	result := d.scanner.Scan(ctx, snap)
	d.scans.Add(1)

	span.SetAttributes(
		attribute.Int("scan.evaluated", result.Evaluated),
		attribute.Int("scan.skipped", result.Skipped),
		attribute.Int("scan.found", len(result.Found)),
	)

	if len(result.Found) > 0 {
		d.logger.Debug(ctx, "scan found opportunities",
			"found", len(result.Found),
			"evaluated", result.Evaluated,
			"duration", result.Duration.String())
	}

	for _, opp := range result.Found {
		d.reporter.Submit(ctx, opp)
	}
}

// Stop halts the scan loop, lets an in-flight scan finish, and flushes the
// reporter before closing its consumers.
func (d *Detector) Stop() error {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	return d.reporter.Stop()
}

// Scans returns how many scans have completed.
func (d *Detector) Scans() uint64 {
	return d.scans.Load()
}
