package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types.
const (
	TxTypeGameCredit      = "game_credit"
	TxTypeGameWithdrawal  = "game_withdrawal"
	TxTypeWithdrawal      = "withdrawal"
	TxTypeAdminAdjustment = "admin_adjustment"
)

// Transaction statuses. A transaction moves from pending to exactly one
// terminal state, together with any wallet balance adjustment.
const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusRejected  = "rejected"
)

type Wallet struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	TotalBalanceUSD decimal.Decimal `json:"totalBalanceUSD"`
	Transactions    []*Transaction  `json:"transactions,omitempty"`
	LastUpdated     time.Time       `json:"lastUpdated"`
}

type Transaction struct {
	ID                string          `json:"id"`
	WalletID          string          `json:"wallet_id"`
	UserID            string          `json:"user_id"`
	Type              string          `json:"type"`
	GameName          *string         `json:"gameName,omitempty"`
	Asset             *string         `json:"asset,omitempty"`
	Network           *string         `json:"network,omitempty"`
	Amount            decimal.Decimal `json:"amount"` // negative = debit/hold
	RequestedAmount   decimal.Decimal `json:"requestedAmount"`
	Tips              decimal.Decimal `json:"tips"`
	Status            string          `json:"status"`
	WithdrawalAddress *string         `json:"withdrawalAddress,omitempty"`
	TxHash            *string         `json:"txHash,omitempty"`
	CreatedAt         time.Time       `json:"timestamp"`
}
