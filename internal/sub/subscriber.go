package sub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const resubscribeBackoff = 5 * time.Second

// EventHandler receives decoded change events from the subscriber.
type EventHandler interface {
	HandleWalletEvent(ctx context.Context, event *ChangeEvent)
	HandleProfileEvent(ctx context.Context, event *ChangeEvent)
}

// ChangeEventSubscriber is the watch side of the change pipeline: it
// subscribes to both change channels and forwards every event to the
// handler. When the subscription dies it re-establishes itself after a
// fixed backoff, forever; request handling never depends on it.
type ChangeEventSubscriber struct {
	rdb     *redis.Client
	handler EventHandler
	logger  *zap.Logger
}

func NewChangeEventSubscriber(rdb *redis.Client, handler EventHandler, logger *zap.Logger) *ChangeEventSubscriber {
	return &ChangeEventSubscriber{rdb: rdb, handler: handler, logger: logger}
}

// Start runs the subscribe loop until ctx is cancelled.
func (s *ChangeEventSubscriber) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *ChangeEventSubscriber) run(ctx context.Context) {
	for {
		if err := s.listen(ctx); err != nil {
			s.logger.Error("change event subscription lost, re-establishing",
				zap.Duration("backoff", resubscribeBackoff),
				zap.Error(err))
		}

		select {
		case <-ctx.Done():
			s.logger.Info("change event subscriber stopped")
			return
		case <-time.After(resubscribeBackoff):
		}
	}
}

func (s *ChangeEventSubscriber) listen(ctx context.Context) error {
	pubsub := s.rdb.Subscribe(ctx, WalletEventsChannel, GameProfileEventsChannel)
	defer pubsub.Close()

	// Wait for confirmation that the subscription is created.
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	s.logger.Info("subscribed to change event channels",
		zap.Strings("channels", []string{WalletEventsChannel, GameProfileEventsChannel}))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return context.Canceled
			}
			s.dispatch(ctx, msg)
		}
	}
}

func (s *ChangeEventSubscriber) dispatch(ctx context.Context, msg *redis.Message) {
	var event ChangeEvent
	if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
		s.logger.Warn("failed to parse change event",
			zap.String("channel", msg.Channel),
			zap.Error(err))
		return
	}

	switch msg.Channel {
	case WalletEventsChannel:
		s.handler.HandleWalletEvent(ctx, &event)
	case GameProfileEventsChannel:
		s.handler.HandleProfileEvent(ctx, &event)
	}
}
