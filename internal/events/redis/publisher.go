package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher fans events out over Redis Pub/Sub, one channel per topic.
type Publisher struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

func NewPublisher(rdb *goredis.Client, logger *zap.Logger) *Publisher {
	return &Publisher{rdb: rdb, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	receivers, err := p.rdb.Publish(ctx, topic, payload).Result()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("event published",
		zap.String("channel", topic),
		zap.Int64("receivers", receivers))
	return nil
}

func (p *Publisher) Close() error {
	return p.rdb.Close()
}
