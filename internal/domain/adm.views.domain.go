package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// View models pushed to admin clients and returned by the query service.

type UserInfo struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	IsActive bool   `json:"isActive"`
}

type GameProfileView struct {
	GameProfile
	UserData UserInfo `json:"userData"`
}

type PendingWithdrawal struct {
	WithdrawalID string          `json:"withdrawalId"`
	UserID       string          `json:"userId"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	Asset        string          `json:"asset"`
	Network      string          `json:"network"`
	Amount       decimal.Decimal `json:"amount"` // absolute value
	Timestamp    time.Time       `json:"timestamp"`
	Status       string          `json:"status"`
	Address      string          `json:"address"`
	WalletID     string          `json:"walletId"`
}

type PendingProfileRequest struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	GameName  string    `json:"gameName"`
	CreatedAt time.Time `json:"createdAt"`
}

type PendingCreditRequest struct {
	UserID    string          `json:"userId"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	GameName  string          `json:"gameName"`
	GameID    *string         `json:"gameId,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type PendingRequests struct {
	Profiles       []PendingProfileRequest `json:"profiles"`
	CreditRequests []PendingCreditRequest  `json:"creditRequests"`
	RedeemRequests []PendingCreditRequest  `json:"redeemRequests"`
}

type GameBreakdown struct {
	Total                 int             `json:"total"`
	Active                int             `json:"active"`
	Pending               int             `json:"pending"`
	TotalCredit           decimal.Decimal `json:"totalCredit"`
	PendingCreditRequests int             `json:"pendingCreditRequests"`
	PendingRedeemRequests int             `json:"pendingRedeemRequests"`
}

type GameStatistics struct {
	TotalProfiles         int                       `json:"totalProfiles"`
	TotalActiveProfiles   int                       `json:"totalActiveProfiles"`
	TotalPendingProfiles  int                       `json:"totalPendingProfiles"`
	PendingCreditRequests int                       `json:"pendingCreditRequests"`
	PendingRedeemRequests int                       `json:"pendingRedeemRequests"`
	GameBreakdown         map[string]*GameBreakdown `json:"gameBreakdown"`
}

func NewGameStatistics() *GameStatistics {
	return &GameStatistics{GameBreakdown: make(map[string]*GameBreakdown)}
}
