// Package arbitrage implements the arbitrage bounded context: cycle
// candidates, the scan loop, and opportunity delivery.
package arbitrage

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/triscan/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/triscan/business/arbitrage/di"
	"github.com/fd1az/triscan/business/arbitrage/domain"
	"github.com/fd1az/triscan/business/arbitrage/infra"
	marketDI "github.com/fd1az/triscan/business/market/di"
	"github.com/fd1az/triscan/internal/config"
	"github.com/fd1az/triscan/internal/di"
	"github.com/fd1az/triscan/internal/logger"
	"github.com/fd1az/triscan/internal/monolith"
)

// Module implements the arbitrage bounded context.
type Module struct{}

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Consumers - private; assembled from the enabled consumer configs
	di.RegisterToken(c, arbitrageDI.Consumers, func(sr di.ServiceRegistry) []app.Consumer {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		consumers, err := buildConsumers(cfg, log)
		if err != nil {
			panic("failed to build consumers: " + err.Error())
		}
		return consumers
	})

	// Scanner - private; candidates derive from the rate graph's universe
	di.RegisterToken(c, arbitrageDI.Scanner, func(sr di.ServiceRegistry) *app.Scanner {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		graph := marketDI.GetRateGraph(sr)

		fees := domain.NewFeeSchedule(cfg.Scanner.FeeRateDecimal(), pairFees(&cfg.Scanner))

		scanner, err := app.NewScanner(graph.Pairs(), fees, cfg.Scanner.MinProfitRatioDecimal(), log)
		if err != nil {
			panic("failed to create scanner: " + err.Error())
		}
		return scanner
	})

	// Reporter - private
	di.RegisterToken(c, arbitrageDI.Reporter, func(sr di.ServiceRegistry) *app.Reporter {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		consumers := arbitrageDI.GetConsumers(sr)

		reporter, err := app.NewReporter(consumers, app.ReporterConfig{
			DedupWindow: cfg.Reporter.DedupWindow,
			QueueSize:   cfg.Reporter.QueueSize,
		}, log)
		if err != nil {
			panic("failed to create reporter: " + err.Error())
		}
		return reporter
	})

	// Detector (public - owns the scan loop lifecycle)
	di.RegisterToken(c, arbitrageDI.Detector, func(sr di.ServiceRegistry) *app.Detector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		graph := marketDI.GetRateGraph(sr)
		sink := marketDI.GetUpdateSink(sr)
		scanner := arbitrageDI.GetScanner(sr)
		reporter := arbitrageDI.GetReporter(sr)

		detector, err := app.NewDetector(graph, sink.Updates(), scanner, reporter, app.DetectorConfig{
			Interval:          cfg.Scanner.Interval,
			Reactive:          cfg.Scanner.Reactive,
			MaxScansPerMinute: cfg.Scanner.MaxScansPerMinute,
		}, log)
		if err != nil {
			panic("failed to create detector: " + err.Error())
		}
		return detector
	})

	return nil
}

// Startup launches the detector and its reporter.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	detector := arbitrageDI.GetDetector(mono.Services())
	if err := detector.Start(ctx); err != nil {
		return fmt.Errorf("start detector: %w", err)
	}

	log.Info(ctx, "arbitrage module started",
		"interval", cfg.Scanner.Interval.String(),
		"min_profit_ratio", cfg.Scanner.MinProfitRatio)
	return nil
}

// pairFees converts the configured per-pair overrides to decimals.
func pairFees(cfg *config.ScannerConfig) map[string]decimal.Decimal {
	if len(cfg.PairFees) == 0 {
		return nil
	}
	fees := make(map[string]decimal.Decimal, len(cfg.PairFees))
	for pair := range cfg.PairFees {
		fees[pair] = cfg.PairFeeDecimal(pair)
	}
	return fees
}

// buildConsumers assembles the enabled delivery consumers.
func buildConsumers(cfg *config.Config, log logger.LoggerInterface) ([]app.Consumer, error) {
	var consumers []app.Consumer

	if cfg.Consumers.Console.Enabled {
		consumers = append(consumers, infra.NewConsoleConsumer())
	}

	if cfg.Consumers.Webhook.Enabled {
		webhook, err := infra.NewWebhookConsumer(infra.WebhookConfig{
			URL:          cfg.Consumers.Webhook.URL,
			Timeout:      cfg.Consumers.Webhook.Timeout,
			MaxPerMinute: cfg.Consumers.Webhook.MaxPerMinute,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("webhook consumer: %w", err)
		}
		consumers = append(consumers, webhook)
	}

	if cfg.Consumers.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		redis, err := infra.NewRedisConsumer(ctx, infra.RedisConfig{
			Addr:     cfg.Consumers.Redis.Addr,
			Password: cfg.Consumers.Redis.Password,
			DB:       cfg.Consumers.Redis.DB,
			Channel:  cfg.Consumers.Redis.Channel,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("redis consumer: %w", err)
		}
		consumers = append(consumers, redis)
	}

	if cfg.Consumers.WSHub.Enabled {
		ws, err := infra.NewWSPushConsumer(infra.WSPushConfig{
			Port: cfg.Consumers.WSHub.Port,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("websocket consumer: %w", err)
		}
		consumers = append(consumers, ws)
	}

	return consumers, nil
}
