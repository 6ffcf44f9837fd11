package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/fin-ledger/internal/models"
	"github.com/sheikh-saqib/fin-ledger/internal/models/events"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	p := NewPublisher(rdb, zap.NewNop())
	t.Cleanup(func() { p.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := rdb.Subscribe(ctx, events.StatementCreatedTopic)
	defer sub.Close()
	_, err := sub.Receive(ctx) // subscription confirmation
	require.NoError(t, err)

	s := models.Statement{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Type:      models.Deposit,
		Amount:    decimal.NewFromInt(300),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, p.Publish(ctx, events.StatementCreatedTopic, events.NewStatementCreated(s)))

	select {
	case msg := <-sub.Channel():
		var got events.StatementCreated
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, s.ID.String(), got.StatementID)
		assert.Equal(t, "deposit", got.Type)
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}

func TestPublishFailsWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	p := NewPublisher(rdb, zap.NewNop())
	t.Cleanup(func() { p.Close() })

	mr.Close()

	err := p.Publish(context.Background(), "statement_created", map[string]string{"k": "v"})
	assert.Error(t, err)
}
