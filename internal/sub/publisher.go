package sub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher pushes change events onto the Redis channels after a
// mutation commits. Publish failures are logged and swallowed: the
// mutation already committed and must not be failed retroactively.
type Publisher struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewPublisher(rdb *redis.Client, logger *zap.Logger) *Publisher {
	return &Publisher{rdb: rdb, logger: logger}
}

func (p *Publisher) WalletChanged(ctx context.Context, eventType, userID, gameName string) {
	p.publish(ctx, WalletEventsChannel, eventType, userID, gameName)
}

func (p *Publisher) ProfileChanged(ctx context.Context, eventType, userID, gameName string) {
	p.publish(ctx, GameProfileEventsChannel, eventType, userID, gameName)
}

func (p *Publisher) publish(ctx context.Context, channel, eventType, userID, gameName string) {
	event := ChangeEvent{
		EventType: eventType,
		UserID:    userID,
		GameName:  gameName,
		Timestamp: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal change event", zap.Error(err))
		return
	}

	if err := p.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		p.logger.Error("failed to publish change event",
			zap.String("channel", channel),
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}
