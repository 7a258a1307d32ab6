package withdrawals

import (
	"context"
	"fmt"

	"github.com/Silver7Surfer/adminbackend/internal/domain"
	"github.com/Silver7Surfer/adminbackend/internal/metrics"
	"github.com/Silver7Surfer/adminbackend/internal/repository"
	"github.com/Silver7Surfer/adminbackend/internal/usecase/scope"
	xerrors "github.com/Silver7Surfer/adminbackend/pkg/xerrors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ChangePublisher interface {
	WalletChanged(ctx context.Context, eventType, userID, gameName string)
}

type Service struct {
	wallets repository.WalletRepository
	users   repository.UserRepository
	scope   *scope.Resolver
	pub     ChangePublisher
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewService(
	wallets repository.WalletRepository,
	users repository.UserRepository,
	resolver *scope.Resolver,
	pub ChangePublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		wallets: wallets,
		users:   users,
		scope:   resolver,
		pub:     pub,
		metrics: m,
		logger:  logger,
	}
}

// PendingWithdrawals lists pending withdrawal transactions in the
// caller's scope, newest first, decorated with the owning user's data.
func (s *Service) PendingWithdrawals(ctx context.Context, admin domain.AdminIdentity) ([]domain.PendingWithdrawal, error) {
	userIDs, err := s.scope.VisibleUserIDs(ctx, admin)
	if err != nil {
		return nil, err
	}
	if userIDs != nil && len(userIDs) == 0 {
		return []domain.PendingWithdrawal{}, nil
	}

	txs, err := s.wallets.ListPendingWithdrawals(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	ownerIDs := make([]string, 0, len(txs))
	seen := make(map[string]struct{}, len(txs))
	for _, t := range txs {
		if _, ok := seen[t.UserID]; !ok {
			seen[t.UserID] = struct{}{}
			ownerIDs = append(ownerIDs, t.UserID)
		}
	}

	userMap := make(map[string]*domain.User, len(ownerIDs))
	if len(ownerIDs) > 0 {
		users, err := s.users.ListByIDs(ctx, ownerIDs)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			userMap[u.ID] = u
		}
	}

	pending := make([]domain.PendingWithdrawal, 0, len(txs))
	for _, t := range txs {
		username, email := "Unknown", "Unknown"
		if u, ok := userMap[t.UserID]; ok {
			username, email = u.Username, u.Email
		}
		pending = append(pending, domain.PendingWithdrawal{
			WithdrawalID: t.ID,
			UserID:       t.UserID,
			Username:     username,
			Email:        email,
			Asset:        deref(t.Asset),
			Network:      deref(t.Network),
			Amount:       t.Amount.Abs(),
			Timestamp:    t.CreatedAt,
			Status:       t.Status,
			Address:      deref(t.WithdrawalAddress),
			WalletID:     t.WalletID,
		})
	}
	return pending, nil
}

// Approve marks a pending withdrawal completed and records the on-chain
// transaction hash the admin paid it out with.
func (s *Service) Approve(ctx context.Context, admin domain.AdminIdentity, userID, withdrawalID string, txHash *string) error {
	if userID == "" || withdrawalID == "" {
		return xerrors.ErrInvalidInput
	}
	if _, err := s.scope.Authorize(ctx, admin, userID); err != nil {
		s.count("approve_withdrawal", "denied")
		return err
	}

	tx, err := s.wallets.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	wtx, err := s.wallets.FindPendingWithdrawalTx(ctx, tx, userID, withdrawalID)
	if err != nil {
		s.count("approve_withdrawal", "not_found")
		return err
	}
	if err := s.wallets.SetTransactionStatus(ctx, tx, wtx.ID, domain.TxStatusCompleted, txHash); err != nil {
		s.count("approve_withdrawal", "error")
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		s.count("approve_withdrawal", "aborted")
		return fmt.Errorf("withdrawal approval aborted: %w", err)
	}

	s.count("approve_withdrawal", "ok")
	s.pub.WalletChanged(ctx, "withdrawal.approved", userID, "")

	s.logger.Info("withdrawal approved",
		zap.String("user_id", userID),
		zap.String("withdrawal_id", withdrawalID),
		zap.String("admin", admin.Username))
	return nil
}

// Disapprove rejects a pending withdrawal and returns the held funds to
// the wallet balance, atomically with the status flip.
func (s *Service) Disapprove(ctx context.Context, admin domain.AdminIdentity, userID, withdrawalID string) (decimal.Decimal, error) {
	if userID == "" || withdrawalID == "" {
		return decimal.Zero, xerrors.ErrInvalidInput
	}
	if _, err := s.scope.Authorize(ctx, admin, userID); err != nil {
		s.count("disapprove_withdrawal", "denied")
		return decimal.Zero, err
	}

	tx, err := s.wallets.BeginTx(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback(ctx)

	wallet, err := s.wallets.GetWalletForUpdate(ctx, tx, userID)
	if err != nil {
		s.count("disapprove_withdrawal", "not_found")
		return decimal.Zero, err
	}
	wtx, err := s.wallets.FindPendingWithdrawalTx(ctx, tx, userID, withdrawalID)
	if err != nil {
		s.count("disapprove_withdrawal", "not_found")
		return decimal.Zero, err
	}

	// Withdrawal holds are stored negative; refund the absolute value.
	refund := wtx.Amount.Abs()

	if err := s.wallets.SetTransactionStatus(ctx, tx, wtx.ID, domain.TxStatusRejected, nil); err != nil {
		s.count("disapprove_withdrawal", "error")
		return decimal.Zero, err
	}
	if err := s.wallets.AddToBalance(ctx, tx, wallet.ID, refund); err != nil {
		s.count("disapprove_withdrawal", "error")
		return decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		s.count("disapprove_withdrawal", "aborted")
		return decimal.Zero, fmt.Errorf("withdrawal disapproval aborted: %w", err)
	}

	s.count("disapprove_withdrawal", "ok")
	s.pub.WalletChanged(ctx, "withdrawal.rejected", userID, "")

	s.logger.Info("withdrawal disapproved",
		zap.String("user_id", userID),
		zap.String("withdrawal_id", withdrawalID),
		zap.String("refunded", refund.String()),
		zap.String("admin", admin.Username))
	return refund, nil
}

func (s *Service) count(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.ApprovalOps.WithLabelValues(operation, outcome).Inc()
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
