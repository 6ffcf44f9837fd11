package events

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/fin-ledger/internal/config"
	"github.com/sheikh-saqib/fin-ledger/internal/events/kafka"
	"github.com/sheikh-saqib/fin-ledger/internal/events/redis"
	interfaces "github.com/sheikh-saqib/fin-ledger/internal/interfaces"
)

// NewPublisher builds the publisher selected by cfg.Driver.
func NewPublisher(ctx context.Context, cfg config.EventsConfig, logger *zap.Logger) (interfaces.EventPublisher, error) {
	switch cfg.Driver {
	case config.EventsKafka:
		logger.Info("publishing events to kafka", zap.Strings("brokers", cfg.KafkaBrokers))
		return kafka.NewPublisher(cfg.KafkaBrokers, logger.Named("kafka")), nil

	case config.EventsRedis:
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       0,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("publishing events to redis", zap.String("addr", cfg.RedisAddr))
		return redis.NewPublisher(rdb, logger.Named("redis")), nil

	case config.EventsNone, "":
		return NewLogPublisher(logger), nil
	}
	return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
}
