package xerrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

func ParsePGErrorCode(err error) string {
	if pgErr, ok := err.(*pgconn.PgError); ok {
		return pgErr.Code // e.g. 23505 for unique_violation
	}
	return "unknown"
}

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input provided")
)

// Users / wallets
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrWalletNotFound = errors.New("wallet not found")
	ErrNoChanges      = errors.New("no changes made")
)

// Game profiles
var (
	ErrProfileNotFound     = errors.New("user profile not found")
	ErrGameProfileNotFound = errors.New("game profile not found")
	ErrNoPendingCredit     = errors.New("no pending credit request found")
	ErrNoPendingRedeem     = errors.New("no pending redeem request found")
)

// Withdrawals
var (
	ErrWithdrawalNotFound = errors.New("pending withdrawal not found")
)

// Token
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

// ProfileActiveError is returned when a game id is assigned to a profile
// that is already active. It carries the previously assigned game id so
// callers can treat the call as an idempotency check.
type ProfileActiveError struct {
	GameName       string
	ExistingGameID string
}

func (e *ProfileActiveError) Error() string {
	return "game profile is already active with an assigned game id"
}
