package sub

import "time"

// Redis channels carrying persisted-mutation events. Anything touching a
// wallet row lands on WalletEventsChannel, anything touching a game
// profile on GameProfileEventsChannel. The filter is intentionally broad:
// an extra recompute+broadcast is harmless, a missed one is not.
const (
	WalletEventsChannel      = "wallet_events"
	GameProfileEventsChannel = "game_profile_events"
)

type ChangeEvent struct {
	EventType string    `json:"event_type"` // e.g. "credit.approved", "withdrawal.rejected"
	UserID    string    `json:"user_id"`
	GameName  string    `json:"game_name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
