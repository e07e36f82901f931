// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Feed source kinds accepted by feed.source.
const (
	FeedSourceSim    = "sim"
	FeedSourceReplay = "replay"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Market    MarketConfig    `mapstructure:"market"`
	Scanner   ScannerConfig   `mapstructure:"scanner"`
	Reporter  ReporterConfig  `mapstructure:"reporter"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Consumers ConsumersConfig `mapstructure:"consumers"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// MarketConfig holds the monitored pair universe and freshness settings.
type MarketConfig struct {
	Pairs           []string      `mapstructure:"pairs"` // "BASE-QUOTE", e.g. "ETH-BTC"
	FreshnessWindow time.Duration `mapstructure:"freshness_window"`
	FeedStaleAfter  time.Duration `mapstructure:"feed_stale_after"`
}

// ScannerConfig holds cycle scanning configuration.
type ScannerConfig struct {
	Interval          time.Duration      `mapstructure:"interval"`
	Reactive          bool               `mapstructure:"reactive"`
	MaxScansPerMinute int                `mapstructure:"max_scans_per_minute"`
	FeeRate           float64            `mapstructure:"fee_rate"` // per leg, e.g. 0.001 = 0.1%
	PairFees          map[string]float64 `mapstructure:"pair_fees"`
	MinProfitRatio    float64            `mapstructure:"min_profit_ratio"` // threshold above break-even
}

// FeeRateDecimal returns the global per-leg fee rate as decimal.Decimal.
func (c *ScannerConfig) FeeRateDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.FeeRate)
}

// PairFeeDecimal returns the fee rate for a pair, falling back to the global rate.
// Pair keys in pair_fees use the canonical "BASE-QUOTE" form.
func (c *ScannerConfig) PairFeeDecimal(pair string) decimal.Decimal {
	if fee, ok := c.PairFees[pair]; ok {
		return decimal.NewFromFloat(fee)
	}
	return c.FeeRateDecimal()
}

// MinProfitRatioDecimal returns the minimum profit threshold as decimal.Decimal.
func (c *ScannerConfig) MinProfitRatioDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitRatio)
}

// ReporterConfig holds opportunity reporting configuration.
type ReporterConfig struct {
	DedupWindow time.Duration `mapstructure:"dedup_window"`
	QueueSize   int           `mapstructure:"queue_size"`
}

// FeedConfig selects and tunes the price feed adapter.
type FeedConfig struct {
	Source string           `mapstructure:"source"` // "sim" or "replay"
	Sim    FeedSimConfig    `mapstructure:"sim"`
	Replay FeedReplayConfig `mapstructure:"replay"`
}

// FeedSimConfig tunes the synthetic quote generator.
type FeedSimConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	Volatility float64       `mapstructure:"volatility"` // max relative mid move per tick
	Spread     float64       `mapstructure:"spread"`     // relative bid/ask half-spread
	Faults     bool          `mapstructure:"faults"`     // inject occasional malformed events
	Seed       int64         `mapstructure:"seed"`       // 0 = time-seeded
}

// FeedReplayConfig tunes the JSONL replay reader.
type FeedReplayConfig struct {
	File  string  `mapstructure:"file"`
	Speed float64 `mapstructure:"speed"` // 1.0 = recorded pace, 0 = as fast as possible
}

// ConsumersConfig enables and tunes opportunity consumers.
type ConsumersConfig struct {
	Console ConsoleConsumerConfig `mapstructure:"console"`
	Webhook WebhookConsumerConfig `mapstructure:"webhook"`
	Redis   RedisConsumerConfig   `mapstructure:"redis"`
	WSHub   WSHubConsumerConfig   `mapstructure:"wshub"`
}

// ConsoleConsumerConfig tunes the console consumer.
type ConsoleConsumerConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// WebhookConsumerConfig tunes the webhook consumer.
type WebhookConsumerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	URL          string        `mapstructure:"url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxPerMinute int           `mapstructure:"max_per_minute"`
}

// RedisConsumerConfig tunes the Redis publish consumer.
type RedisConsumerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// WSHubConsumerConfig tunes the WebSocket broadcast consumer.
type WSHubConsumerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("TRISCAN")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "TRISCAN_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "TRISCAN_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "TRISCAN_LOG_LEVEL", "LOG_LEVEL")

	// Market
	v.BindEnv("market.pairs", "TRISCAN_PAIRS")
	v.BindEnv("market.freshness_window", "TRISCAN_FRESHNESS_WINDOW")

	// Scanner
	v.BindEnv("scanner.interval", "TRISCAN_SCAN_INTERVAL")
	v.BindEnv("scanner.reactive", "TRISCAN_SCAN_REACTIVE")
	v.BindEnv("scanner.fee_rate", "TRISCAN_FEE_RATE")
	v.BindEnv("scanner.min_profit_ratio", "TRISCAN_MIN_PROFIT_RATIO")

	// Reporter
	v.BindEnv("reporter.dedup_window", "TRISCAN_DEDUP_WINDOW")
	v.BindEnv("reporter.queue_size", "TRISCAN_QUEUE_SIZE")

	// Feed
	v.BindEnv("feed.source", "TRISCAN_FEED_SOURCE")
	v.BindEnv("feed.replay.file", "TRISCAN_REPLAY_FILE")

	// Consumers
	v.BindEnv("consumers.webhook.url", "TRISCAN_WEBHOOK_URL")
	v.BindEnv("consumers.redis.addr", "TRISCAN_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("consumers.redis.password", "TRISCAN_REDIS_PASSWORD", "REDIS_PASSWORD")

	// Telemetry
	v.BindEnv("telemetry.enabled", "TRISCAN_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "TRISCAN_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "TRISCAN_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "triscan")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Market defaults: majors crossed against USDT, BTC and ETH so the
	// universe contains plenty of closed triangles out of the box.
	v.SetDefault("market.pairs", []string{
		"BTC-USDT",
		"ETH-USDT", "ETH-BTC",
		"BNB-USDT", "BNB-BTC", "BNB-ETH",
		"SOL-USDT", "SOL-BTC", "SOL-ETH",
		"XRP-USDT", "XRP-BTC",
		"ADA-USDT", "ADA-BTC",
		"DOT-USDT", "DOT-BTC",
		"DOGE-USDT", "DOGE-BTC",
		"LTC-USDT", "LTC-BTC",
		"LINK-USDT", "LINK-BTC", "LINK-ETH",
	})
	v.SetDefault("market.freshness_window", "5s")
	v.SetDefault("market.feed_stale_after", "10s")

	// Scanner defaults
	v.SetDefault("scanner.interval", "200ms")
	v.SetDefault("scanner.reactive", false)
	v.SetDefault("scanner.max_scans_per_minute", 600)
	v.SetDefault("scanner.fee_rate", 0.001) // 0.1% taker fee per leg
	v.SetDefault("scanner.min_profit_ratio", 0.001)

	// Reporter defaults
	v.SetDefault("reporter.dedup_window", "10s")
	v.SetDefault("reporter.queue_size", 256)

	// Feed defaults
	v.SetDefault("feed.source", FeedSourceSim)
	v.SetDefault("feed.sim.interval", "100ms")
	v.SetDefault("feed.sim.volatility", 0.002)
	v.SetDefault("feed.sim.spread", 0.0005)
	v.SetDefault("feed.sim.faults", false)
	v.SetDefault("feed.sim.seed", 0)
	v.SetDefault("feed.replay.speed", 1.0)

	// Consumer defaults
	v.SetDefault("consumers.console.enabled", true)
	v.SetDefault("consumers.webhook.enabled", false)
	v.SetDefault("consumers.webhook.timeout", "5s")
	v.SetDefault("consumers.webhook.max_per_minute", 120)
	v.SetDefault("consumers.redis.enabled", false)
	v.SetDefault("consumers.redis.addr", "localhost:6379")
	v.SetDefault("consumers.redis.db", 0)
	v.SetDefault("consumers.redis.channel", "triscan.opportunities")
	v.SetDefault("consumers.wshub.enabled", false)
	v.SetDefault("consumers.wshub.port", 8090)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "triscan")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Market.Pairs) == 0 {
		return fmt.Errorf("market.pairs cannot be empty")
	}
	seen := make(map[string]struct{}, len(c.Market.Pairs))
	for _, p := range c.Market.Pairs {
		base, quote, ok := SplitPair(p)
		if !ok {
			return fmt.Errorf("malformed pair %q, want BASE-QUOTE", p)
		}
		if base == quote {
			return fmt.Errorf("pair %q quotes an asset against itself", p)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("duplicate pair %q", p)
		}
		if _, dup := seen[quote+"-"+base]; dup {
			return fmt.Errorf("pair %q duplicates the inverse of an earlier pair", p)
		}
		seen[p] = struct{}{}
	}
	if c.Market.FreshnessWindow <= 0 {
		return fmt.Errorf("market.freshness_window must be positive")
	}
	if c.Scanner.Interval <= 0 {
		return fmt.Errorf("scanner.interval must be positive")
	}
	if c.Scanner.FeeRate < 0 || c.Scanner.FeeRate >= 1 {
		return fmt.Errorf("scanner.fee_rate %v out of range [0, 1)", c.Scanner.FeeRate)
	}
	for pair, fee := range c.Scanner.PairFees {
		if _, known := seen[pair]; !known {
			return fmt.Errorf("scanner.pair_fees references unknown pair %q", pair)
		}
		if fee < 0 || fee >= 1 {
			return fmt.Errorf("scanner.pair_fees[%q] = %v out of range [0, 1)", pair, fee)
		}
	}
	if c.Scanner.MinProfitRatio <= 0 {
		return fmt.Errorf("scanner.min_profit_ratio must be positive")
	}
	if c.Reporter.DedupWindow <= 0 {
		return fmt.Errorf("reporter.dedup_window must be positive")
	}
	if c.Reporter.QueueSize <= 0 {
		return fmt.Errorf("reporter.queue_size must be positive")
	}
	switch c.Feed.Source {
	case FeedSourceSim:
	case FeedSourceReplay:
		if c.Feed.Replay.File == "" {
			return fmt.Errorf("feed.replay.file is required when feed.source is replay")
		}
	default:
		return fmt.Errorf("unknown feed.source %q", c.Feed.Source)
	}
	if c.Consumers.Webhook.Enabled && c.Consumers.Webhook.URL == "" {
		return fmt.Errorf("consumers.webhook.url is required when the webhook consumer is enabled")
	}
	if c.Consumers.Redis.Enabled && c.Consumers.Redis.Addr == "" {
		return fmt.Errorf("consumers.redis.addr is required when the redis consumer is enabled")
	}
	if c.Consumers.WSHub.Enabled && c.Consumers.WSHub.Port <= 0 {
		return fmt.Errorf("consumers.wshub.port must be positive")
	}
	return nil
}

// SplitPair splits a "BASE-QUOTE" pair string into its symbols.
func SplitPair(s string) (base, quote string, ok bool) {
	base, quote, found := strings.Cut(s, "-")
	if !found || base == "" || quote == "" {
		return "", "", false
	}
	return base, quote, true
}
