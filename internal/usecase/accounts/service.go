package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/Silver7Surfer/adminbackend/internal/domain"
	"github.com/Silver7Surfer/adminbackend/internal/repository"
	"github.com/Silver7Surfer/adminbackend/internal/usecase/scope"
	xerrors "github.com/Silver7Surfer/adminbackend/pkg/xerrors"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ChangePublisher interface {
	WalletChanged(ctx context.Context, eventType, userID, gameName string)
}

// Service covers the plain user and wallet administration surface. Every
// operation is scope-checked the same way as the approval engine.
type Service struct {
	users   repository.UserRepository
	wallets repository.WalletRepository
	scope   *scope.Resolver
	pub     ChangePublisher
	logger  *zap.Logger
}

func NewService(
	users repository.UserRepository,
	wallets repository.WalletRepository,
	resolver *scope.Resolver,
	pub ChangePublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		users:   users,
		wallets: wallets,
		scope:   resolver,
		pub:     pub,
		logger:  logger,
	}
}

func (s *Service) ListUsers(ctx context.Context, admin domain.AdminIdentity) ([]*domain.User, error) {
	if admin.IsSuperAdmin() {
		return s.users.ListAll(ctx)
	}
	return s.users.ListByAssignedAdmin(ctx, admin.Username)
}

func (s *Service) GetUser(ctx context.Context, admin domain.AdminIdentity, userID string) (*domain.User, error) {
	return s.scope.Authorize(ctx, admin, userID)
}

// UpdateUser patches the mutable user fields. Role changes are silently
// ignored unless the caller is a superadmin.
func (s *Service) UpdateUser(ctx context.Context, admin domain.AdminIdentity, userID string, upd domain.UserUpdate) (*domain.User, error) {
	if _, err := s.scope.Authorize(ctx, admin, userID); err != nil {
		return nil, err
	}
	if upd.Username == nil && upd.Email == nil && upd.Role == nil && upd.IsActive == nil {
		return nil, xerrors.ErrNoChanges
	}

	user, err := s.users.Update(ctx, userID, upd, admin.IsSuperAdmin())
	if err != nil {
		return nil, err
	}
	s.logger.Info("user updated",
		zap.String("user_id", userID),
		zap.String("admin", admin.Username))
	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, admin domain.AdminIdentity, userID string) error {
	if _, err := s.scope.Authorize(ctx, admin, userID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("user deleted",
		zap.String("user_id", userID),
		zap.String("admin", admin.Username))
	return nil
}

func (s *Service) ListWallets(ctx context.Context, admin domain.AdminIdentity) ([]*domain.Wallet, error) {
	if admin.IsSuperAdmin() {
		return s.wallets.ListAll(ctx)
	}
	userIDs, err := s.scope.VisibleUserIDs(ctx, admin)
	if err != nil {
		return nil, err
	}
	if len(userIDs) == 0 {
		return []*domain.Wallet{}, nil
	}
	return s.wallets.ListByUserIDs(ctx, userIDs)
}

func (s *Service) GetWallet(ctx context.Context, admin domain.AdminIdentity, userID string) (*domain.Wallet, error) {
	if _, err := s.scope.Authorize(ctx, admin, userID); err != nil {
		return nil, err
	}
	return s.wallets.GetByUserID(ctx, userID)
}

// UpdateWalletBalance sets the balance to an exact value and records
// the difference as a completed admin_adjustment transaction, so manual
// corrections stay visible in the transaction history.
func (s *Service) UpdateWalletBalance(ctx context.Context, admin domain.AdminIdentity, userID string, balance decimal.Decimal) (*domain.Wallet, error) {
	if _, err := s.scope.Authorize(ctx, admin, userID); err != nil {
		return nil, err
	}

	tx, err := s.wallets.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	wallet, err := s.wallets.GetWalletForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	delta := balance.Sub(wallet.TotalBalanceUSD)
	if delta.IsZero() {
		return wallet, nil
	}

	if err := s.wallets.AddToBalance(ctx, tx, wallet.ID, delta); err != nil {
		return nil, err
	}
	if err := s.wallets.InsertTransaction(ctx, tx, &domain.Transaction{
		ID:        ulid.Make().String(),
		WalletID:  wallet.ID,
		UserID:    userID,
		Type:      domain.TxTypeAdminAdjustment,
		Amount:    delta,
		Status:    domain.TxStatusCompleted,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("balance update aborted: %w", err)
	}

	s.pub.WalletChanged(ctx, "balance.updated", userID, "")
	s.logger.Info("wallet balance updated",
		zap.String("user_id", userID),
		zap.String("balance", balance.String()),
		zap.String("delta", delta.String()),
		zap.String("admin", admin.Username))

	wallet.TotalBalanceUSD = balance
	return wallet, nil
}
