package events

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/fin-ledger/internal/config"
	"github.com/sheikh-saqib/fin-ledger/internal/events/kafka"
	"github.com/sheikh-saqib/fin-ledger/internal/events/redis"
)

func TestNewPublisher(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	p, err := NewPublisher(ctx, config.EventsConfig{Driver: config.EventsNone}, logger)
	require.NoError(t, err)
	assert.IsType(t, &LogPublisher{}, p)
	assert.NoError(t, p.Publish(ctx, "statement_created", struct{}{}))

	p, err = NewPublisher(ctx, config.EventsConfig{Driver: config.EventsKafka, KafkaBrokers: []string{"localhost:9092"}}, logger)
	require.NoError(t, err)
	assert.IsType(t, &kafka.Publisher{}, p)
	assert.NoError(t, p.Close())

	mr := miniredis.RunT(t)
	p, err = NewPublisher(ctx, config.EventsConfig{Driver: config.EventsRedis, RedisAddr: mr.Addr()}, logger)
	require.NoError(t, err)
	assert.IsType(t, &redis.Publisher{}, p)
	assert.NoError(t, p.Close())

	_, err = NewPublisher(ctx, config.EventsConfig{Driver: "nats"}, logger)
	assert.Error(t, err)
}
