package eventhandler

import (
	"context"
	"time"

	"github.com/Silver7Surfer/adminbackend/internal/handler"
	"github.com/Silver7Surfer/adminbackend/internal/metrics"
	"github.com/Silver7Surfer/adminbackend/internal/sub"
	"github.com/Silver7Surfer/adminbackend/internal/usecase/games"
	"github.com/Silver7Surfer/adminbackend/internal/usecase/withdrawals"

	"go.uber.org/zap"
)

const snapshotTimeout = 10 * time.Second

// Broadcaster turns change events into fresh snapshots. Every push is
// computed per client against that client's own scope, so an admin
// only ever sees the users assigned to them regardless of which user
// triggered the event.
type Broadcaster struct {
	hub         *handler.Hub
	games       *games.Service
	withdrawals *withdrawals.Service
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewBroadcaster(hub *handler.Hub, g *games.Service, w *withdrawals.Service, m *metrics.Metrics, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		hub:         hub,
		games:       g,
		withdrawals: w,
		metrics:     m,
		logger:      logger,
	}
}

var _ sub.EventHandler = (*Broadcaster)(nil)
var _ handler.Broadcaster = (*Broadcaster)(nil)

func (b *Broadcaster) HandleWalletEvent(ctx context.Context, ev *sub.ChangeEvent) {
	b.logger.Debug("wallet change event",
		zap.String("event", ev.EventType),
		zap.String("user_id", ev.UserID))

	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	for _, client := range b.hub.Clients() {
		b.SendPendingWithdrawals(ctx, client)
	}
	b.countBroadcast()
}

func (b *Broadcaster) HandleProfileEvent(ctx context.Context, ev *sub.ChangeEvent) {
	b.logger.Debug("game profile change event",
		zap.String("event", ev.EventType),
		zap.String("user_id", ev.UserID),
		zap.String("game", ev.GameName))

	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	for _, client := range b.hub.Clients() {
		b.SendGameProfiles(ctx, client)
		b.SendGameStatistics(ctx, client)
	}
	b.countBroadcast()
}

func (b *Broadcaster) SendPendingWithdrawals(ctx context.Context, c *handler.WSClient) {
	pending, err := b.withdrawals.PendingWithdrawals(ctx, c.Admin)
	if err != nil {
		b.logger.Error("failed to build pending withdrawals snapshot",
			zap.String("admin", c.Admin.Username),
			zap.Error(err))
		c.SendError("failed to load pending withdrawals")
		return
	}
	c.SendMessage("pendingWithdrawals", pending)
}

func (b *Broadcaster) SendGameProfiles(ctx context.Context, c *handler.WSClient) {
	profiles, err := b.games.ListGameProfiles(ctx, c.Admin)
	if err != nil {
		b.logger.Error("failed to build game profiles snapshot",
			zap.String("admin", c.Admin.Username),
			zap.Error(err))
		c.SendError("failed to load game profiles")
		return
	}
	c.SendMessage("gameProfiles", profiles)
}

func (b *Broadcaster) SendGameStatistics(ctx context.Context, c *handler.WSClient) {
	stats, err := b.games.GameStatistics(ctx, c.Admin)
	if err != nil {
		b.logger.Error("failed to build game statistics snapshot",
			zap.String("admin", c.Admin.Username),
			zap.Error(err))
		c.SendError("failed to load game statistics")
		return
	}
	c.SendMessage("gameStatistics", stats)
}

func (b *Broadcaster) countBroadcast() {
	if b.metrics != nil {
		b.metrics.BroadcastsTotal.Inc()
	}
}
