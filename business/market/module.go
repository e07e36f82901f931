// Package market implements the market bounded context: the live rate graph
// and the price feed pipeline that keeps it current.
package market

import (
	"context"

	"github.com/fd1az/triscan/business/market/app"
	marketDI "github.com/fd1az/triscan/business/market/di"
	"github.com/fd1az/triscan/business/market/domain"
	"github.com/fd1az/triscan/business/market/infra/feedreplay"
	"github.com/fd1az/triscan/business/market/infra/feedsim"
	"github.com/fd1az/triscan/internal/asset"
	"github.com/fd1az/triscan/internal/config"
	"github.com/fd1az/triscan/internal/di"
	"github.com/fd1az/triscan/internal/logger"
	"github.com/fd1az/triscan/internal/monolith"
)

// Module implements the market bounded context.
type Module struct{}

// RegisterServices registers all market services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register RateGraph (public - the arbitrage module scans it)
	di.RegisterToken(c, marketDI.RateGraph, func(sr di.ServiceRegistry) *domain.RateGraph {
		cfg := sr.Get("config").(*config.Config)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		pairs, err := domain.ParsePairs(cfg.Market.Pairs, registry)
		if err != nil {
			panic("failed to parse pair universe: " + err.Error())
		}

		graph, err := domain.NewRateGraph(pairs, cfg.Market.FreshnessWindow)
		if err != nil {
			panic("failed to create rate graph: " + err.Error())
		}
		return graph
	})

	// Register UpdateSink (public - exposes feed staleness to health checks)
	di.RegisterToken(c, marketDI.UpdateSink, func(sr di.ServiceRegistry) *app.UpdateSink {
		log := sr.Get("logger").(logger.LoggerInterface)
		graph := marketDI.GetRateGraph(sr)

		sink, err := app.NewUpdateSink(graph, log)
		if err != nil {
			panic("failed to create update sink: " + err.Error())
		}
		return sink
	})

	// Register FeedSource - private dependency
	di.RegisterToken(c, marketDI.FeedSource, func(sr di.ServiceRegistry) app.FeedSource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		graph := marketDI.GetRateGraph(sr)

		switch cfg.Feed.Source {
		case config.FeedSourceReplay:
			return feedreplay.NewSource(feedreplay.Config{
				Path:  cfg.Feed.Replay.File,
				Speed: cfg.Feed.Replay.Speed,
			}, log)
		default:
			simCfg := feedsim.DefaultConfig(graph.Pairs())
			if cfg.Feed.Sim.Interval > 0 {
				simCfg.Interval = cfg.Feed.Sim.Interval
			}
			if cfg.Feed.Sim.Volatility > 0 {
				simCfg.Volatility = cfg.Feed.Sim.Volatility
			}
			if cfg.Feed.Sim.Spread > 0 {
				simCfg.Spread = cfg.Feed.Sim.Spread
			}
			if cfg.Feed.Sim.Seed != 0 {
				simCfg.Seed = cfg.Feed.Sim.Seed
			}
			simCfg.Faults = cfg.Feed.Sim.Faults
			return feedsim.NewSource(simCfg, log)
		}
	})

	// Register Watchdog - private dependency
	di.RegisterToken(c, marketDI.Watchdog, func(sr di.ServiceRegistry) *app.Watchdog {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		sink := marketDI.GetUpdateSink(sr)

		watchdog, err := app.NewWatchdog(sink, cfg.Market.FeedStaleAfter, log)
		if err != nil {
			panic("failed to create feed watchdog: " + err.Error())
		}
		return watchdog
	})

	return nil
}

// Startup starts the feed pipeline and the staleness watchdog.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	sink := marketDI.GetUpdateSink(mono.Services())
	feed := marketDI.GetFeedSource(mono.Services())
	watchdog := marketDI.GetWatchdog(mono.Services())

	go func() {
		if err := sink.Run(ctx, feed); err != nil {
			log.Error(ctx, "price feed pipeline stopped", "error", err)
			return
		}
		log.Info(ctx, "price feed pipeline finished")
	}()

	go watchdog.Run(ctx)

	log.Info(ctx, "market module started",
		"pairs", len(cfg.Market.Pairs), "feed", cfg.Feed.Source)
	return nil
}
