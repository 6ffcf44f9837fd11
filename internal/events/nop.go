package events

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher stands in for a broker when events are disabled. It only
// records that an event would have been sent.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, topic string, event any) error {
	p.logger.Debug("event dropped, no broker configured", zap.String("topic", topic), zap.Any("event", event))
	return nil
}

func (p *LogPublisher) Close() error { return nil }
