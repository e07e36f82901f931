package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/fd1az/triscan/business/arbitrage/domain"
	"github.com/fd1az/triscan/internal/apperror"
	"github.com/fd1az/triscan/internal/logger"
)

const defaultRedisChannel = "ch:opportunity"

// RedisConfig holds connection settings for the redis publisher.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// RedisConsumer publishes each opportunity to a Redis Pub/Sub channel so
// downstream processes can subscribe without touching the detector.
type RedisConsumer struct {
	rdb     *redis.Client
	channel string
	logger  logger.LoggerInterface
}

// NewRedisConsumer connects to Redis and verifies connectivity with a ping.
func NewRedisConsumer(ctx context.Context, cfg RedisConfig, log logger.LoggerInterface) (*RedisConsumer, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis addr is required")
	}
	channel := cfg.Channel
	if channel == "" {
		channel = defaultRedisChannel
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisConsumer{rdb: rdb, channel: channel, logger: log}, nil
}

// Name implements app.Consumer.
func (r *RedisConsumer) Name() string { return "redis" }

// Deliver publishes one opportunity to the configured channel.
func (r *RedisConsumer) Deliver(ctx context.Context, opp domain.Opportunity) error {
	payload, err := json.Marshal(newOpportunityMessage(opp))
	if err != nil {
		return fmt.Errorf("marshal opportunity: %w", err)
	}
	if err := r.rdb.Publish(ctx, r.channel, payload).Err(); err != nil {
		return apperror.New(apperror.CodeRedisPublishFailed,
			apperror.WithCause(err),
			apperror.WithContext("channel "+r.channel))
	}
	return nil
}

// Close closes the underlying connection.
func (r *RedisConsumer) Close() error {
	return r.rdb.Close()
}
