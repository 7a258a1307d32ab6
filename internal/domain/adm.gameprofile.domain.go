package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Game profile statuses. A profile activates exactly once, when an admin
// assigns a game id, and never reverts to pending.
const (
	ProfileStatusPending = "pending"
	ProfileStatusActive  = "active"
)

// Credit request states on a game profile.
const (
	CreditStatusNone          = "none"
	CreditStatusPending       = "pending"
	CreditStatusPendingRedeem = "pending_redeem"
	CreditStatusSuccess       = "success"
)

type GameProfile struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	GameName        string          `json:"gameName"`
	GameID          *string         `json:"gameId,omitempty"`
	GamePassword    *string         `json:"gamePassword,omitempty"`
	ProfileStatus   string          `json:"profileStatus"`
	CreditAmount    decimal.Decimal `json:"creditAmount"`
	CreditStatus    string          `json:"creditStatus"`
	CreditRequested decimal.Decimal `json:"creditRequested"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
