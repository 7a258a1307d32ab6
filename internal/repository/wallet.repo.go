package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Silver7Surfer/adminbackend/internal/domain"
	xerrors "github.com/Silver7Surfer/adminbackend/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// WalletRepository covers wallet reads plus the transaction-scoped
// mutations the approval engine runs. Methods taking a pgx.Tx must be
// called inside one; row locks are taken with FOR UPDATE so concurrent
// approvals on the same request serialize at the database.
type WalletRepository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)

	GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error)
	ListAll(ctx context.Context) ([]*domain.Wallet, error)
	ListByUserIDs(ctx context.Context, userIDs []string) ([]*domain.Wallet, error)

	// ListPendingWithdrawals returns pending withdrawal transactions,
	// newest first. A nil userIDs slice means unscoped (superadmin).
	ListPendingWithdrawals(ctx context.Context, userIDs []string) ([]*domain.Transaction, error)

	GetWalletForUpdate(ctx context.Context, tx pgx.Tx, userID string) (*domain.Wallet, error)
	FindPendingGameTx(ctx context.Context, tx pgx.Tx, userID, gameName, txType string) (*domain.Transaction, error)
	FindPendingWithdrawalTx(ctx context.Context, tx pgx.Tx, userID, withdrawalID string) (*domain.Transaction, error)
	SetTransactionStatus(ctx context.Context, tx pgx.Tx, transactionID, status string, txHash *string) error
	AddToBalance(ctx context.Context, tx pgx.Tx, walletID string, delta decimal.Decimal) error
	InsertTransaction(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error
}

type walletRepo struct {
	db *pgxpool.Pool
}

func NewWalletRepository(db *pgxpool.Pool) WalletRepository {
	return &walletRepo{db: db}
}

func (r *walletRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.db.Begin(ctx)
}

const txColumns = `id, wallet_id, user_id, type, game_name, asset, network,
		amount, requested_amount, tips, status, withdrawal_address, tx_hash, created_at`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(
		&t.ID, &t.WalletID, &t.UserID, &t.Type, &t.GameName, &t.Asset, &t.Network,
		&t.Amount, &t.RequestedAmount, &t.Tips, &t.Status, &t.WithdrawalAddress,
		&t.TxHash, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *walletRepo) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	query := `
		SELECT id, user_id, total_balance_usd, last_updated
		FROM wallets
		WHERE user_id = $1
	`
	var w domain.Wallet
	err := r.db.QueryRow(ctx, query, userID).Scan(&w.ID, &w.UserID, &w.TotalBalanceUSD, &w.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrWalletNotFound
		}
		return nil, err
	}

	txQuery := `
		SELECT ` + txColumns + `
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, txQuery, w.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		w.Transactions = append(w.Transactions, t)
	}
	return &w, rows.Err()
}

func (r *walletRepo) ListAll(ctx context.Context) ([]*domain.Wallet, error) {
	return r.list(ctx, `SELECT id, user_id, total_balance_usd, last_updated FROM wallets ORDER BY last_updated DESC`)
}

func (r *walletRepo) ListByUserIDs(ctx context.Context, userIDs []string) ([]*domain.Wallet, error) {
	query := `
		SELECT id, user_id, total_balance_usd, last_updated
		FROM wallets
		WHERE user_id = ANY($1)
		ORDER BY last_updated DESC
	`
	return r.list(ctx, query, userIDs)
}

func (r *walletRepo) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Wallet, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []*domain.Wallet
	for rows.Next() {
		var w domain.Wallet
		if err := rows.Scan(&w.ID, &w.UserID, &w.TotalBalanceUSD, &w.LastUpdated); err != nil {
			return nil, err
		}
		wallets = append(wallets, &w)
	}
	return wallets, rows.Err()
}

func (r *walletRepo) ListPendingWithdrawals(ctx context.Context, userIDs []string) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + txColumns + `
		FROM wallet_transactions
		WHERE type = $1 AND status = $2
	`
	args := []interface{}{domain.TxTypeWithdrawal, domain.TxStatusPending}
	if userIDs != nil {
		query += ` AND user_id = ANY($3)`
		args = append(args, userIDs)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (r *walletRepo) GetWalletForUpdate(ctx context.Context, tx pgx.Tx, userID string) (*domain.Wallet, error) {
	query := `
		SELECT id, user_id, total_balance_usd, last_updated
		FROM wallets
		WHERE user_id = $1
		FOR UPDATE
	`
	var w domain.Wallet
	err := tx.QueryRow(ctx, query, userID).Scan(&w.ID, &w.UserID, &w.TotalBalanceUSD, &w.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrWalletNotFound
		}
		return nil, err
	}
	return &w, nil
}

// FindPendingGameTx selects the earliest pending transaction for a
// user+game+type. Stored order is creation order; at-most-one pending row
// per (user, game, type) is additionally enforced by a partial unique
// index at write time.
func (r *walletRepo) FindPendingGameTx(ctx context.Context, tx pgx.Tx, userID, gameName, txType string) (*domain.Transaction, error) {
	query := `
		SELECT ` + txColumns + `
		FROM wallet_transactions
		WHERE user_id = $1 AND game_name = $2 AND type = $3 AND status = $4
		ORDER BY created_at ASC, id ASC
		LIMIT 1
		FOR UPDATE
	`
	t, err := scanTransaction(tx.QueryRow(ctx, query, userID, gameName, txType, domain.TxStatusPending))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *walletRepo) FindPendingWithdrawalTx(ctx context.Context, tx pgx.Tx, userID, withdrawalID string) (*domain.Transaction, error) {
	query := `
		SELECT ` + txColumns + `
		FROM wallet_transactions
		WHERE id = $1 AND user_id = $2 AND type = $3 AND status = $4
		FOR UPDATE
	`
	t, err := scanTransaction(tx.QueryRow(ctx, query, withdrawalID, userID, domain.TxTypeWithdrawal, domain.TxStatusPending))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrWithdrawalNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *walletRepo) SetTransactionStatus(ctx context.Context, tx pgx.Tx, transactionID, status string, txHash *string) error {
	query := `
		UPDATE wallet_transactions
		SET status = $2, tx_hash = COALESCE($3, tx_hash)
		WHERE id = $1 AND status = $4
	`
	tag, err := tx.Exec(ctx, query, transactionID, status, txHash, domain.TxStatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *walletRepo) InsertTransaction(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `
		INSERT INTO wallet_transactions (` + txColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := tx.Exec(ctx, query,
		t.ID, t.WalletID, t.UserID, t.Type, t.GameName, t.Asset, t.Network,
		t.Amount, t.RequestedAmount, t.Tips, t.Status, t.WithdrawalAddress,
		t.TxHash, t.CreatedAt,
	)
	return err
}

func (r *walletRepo) AddToBalance(ctx context.Context, tx pgx.Tx, walletID string, delta decimal.Decimal) error {
	query := `
		UPDATE wallets
		SET total_balance_usd = total_balance_usd + $2, last_updated = $3
		WHERE id = $1
	`
	tag, err := tx.Exec(ctx, query, walletID, delta, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrWalletNotFound
	}
	return nil
}
