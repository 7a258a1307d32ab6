package games

import (
	"context"
	"fmt"

	"github.com/Silver7Surfer/adminbackend/internal/domain"
	"github.com/Silver7Surfer/adminbackend/internal/metrics"
	"github.com/Silver7Surfer/adminbackend/internal/repository"
	"github.com/Silver7Surfer/adminbackend/internal/service/email"
	"github.com/Silver7Surfer/adminbackend/internal/usecase/scope"
	xerrors "github.com/Silver7Surfer/adminbackend/pkg/xerrors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ChangePublisher announces committed mutations to the broadcast
// pipeline. Implementations must be non-blocking for the caller's
// success path.
type ChangePublisher interface {
	WalletChanged(ctx context.Context, eventType, userID, gameName string)
	ProfileChanged(ctx context.Context, eventType, userID, gameName string)
}

// EmailSender delivers the game credentials mail. Best effort only.
type EmailSender interface {
	Send(to, subject, body string) error
}

type Service struct {
	profiles repository.GameProfileRepository
	wallets  repository.WalletRepository
	users    repository.UserRepository
	scope    *scope.Resolver
	pub      ChangePublisher
	mailer   EmailSender
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewService(
	profiles repository.GameProfileRepository,
	wallets repository.WalletRepository,
	users repository.UserRepository,
	resolver *scope.Resolver,
	pub ChangePublisher,
	mailer EmailSender,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		profiles: profiles,
		wallets:  wallets,
		users:    users,
		scope:    resolver,
		pub:      pub,
		mailer:   mailer,
		metrics:  m,
		logger:   logger,
	}
}

// AssignGameID activates a pending game profile with admin-issued
// credentials. The credentials email is dispatched after the update on
// its own goroutine; a delivery failure never rolls the activation back.
func (s *Service) AssignGameID(ctx context.Context, admin domain.AdminIdentity, userID, gameName, gameID string, gamePassword *string) (*domain.GameProfile, error) {
	if userID == "" || gameName == "" || gameID == "" {
		return nil, xerrors.ErrInvalidInput
	}

	user, err := s.scope.Authorize(ctx, admin, userID)
	if err != nil {
		s.count("assign_game_id", "denied")
		return nil, err
	}

	current, err := s.profiles.GetByUserAndGame(ctx, userID, gameName)
	if err != nil {
		s.count("assign_game_id", "not_found")
		return nil, err
	}
	if current.ProfileStatus == domain.ProfileStatusActive {
		s.count("assign_game_id", "conflict")
		existing := ""
		if current.GameID != nil {
			existing = *current.GameID
		}
		return nil, &xerrors.ProfileActiveError{GameName: gameName, ExistingGameID: existing}
	}

	updated, err := s.profiles.AssignGameID(ctx, userID, gameName, gameID, gamePassword)
	if err != nil {
		s.count("assign_game_id", "error")
		return nil, err
	}

	s.count("assign_game_id", "ok")
	s.pub.ProfileChanged(ctx, "profile.activated", userID, gameName)

	if user.Email != "" {
		go s.sendCredentialsEmail(user, gameName, gameID, gamePassword)
	}

	s.logger.Info("game id assigned",
		zap.String("user_id", userID),
		zap.String("game_name", gameName),
		zap.String("admin", admin.Username))
	return updated, nil
}

func (s *Service) sendCredentialsEmail(user *domain.User, gameName, gameID string, gamePassword *string) {
	password := ""
	if gamePassword != nil {
		password = *gamePassword
	}
	body, err := email.GenerateGameCredentialsEmail(email.CredentialsData{
		Username:     user.Username,
		GameName:     gameName,
		GameID:       gameID,
		GamePassword: password,
	})
	if err != nil {
		s.logger.Error("failed to render credentials email", zap.Error(err))
		return
	}

	subject := fmt.Sprintf("Your %s Game Credentials", gameName)
	if err := s.mailer.Send(user.Email, subject, body); err != nil {
		s.logger.Error("failed to send credentials email",
			zap.String("to", user.Email),
			zap.String("game_name", gameName),
			zap.Error(err))
		return
	}
	s.logger.Info("credentials email sent",
		zap.String("to", user.Email),
		zap.String("game_name", gameName))
}

// ApproveCredit completes a pending credit request: the reserved
// game_credit transaction flips to completed and the profile's credit
// block becomes the requested amount. The wallet balance is untouched —
// the hold was taken when the request was made.
func (s *Service) ApproveCredit(ctx context.Context, admin domain.AdminIdentity, userID, gameName string) (*domain.GameProfile, *domain.Transaction, error) {
	if userID == "" || gameName == "" {
		return nil, nil, xerrors.ErrInvalidInput
	}
	if _, err := s.scope.Authorize(ctx, admin, userID); err != nil {
		s.count("approve_credit", "denied")
		return nil, nil, err
	}

	tx, err := s.wallets.BeginTx(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	profile, err := s.profiles.GetForUpdate(ctx, tx, userID, gameName)
	if err != nil {
		s.count("approve_credit", "not_found")
		return nil, nil, err
	}
	if profile.CreditStatus != domain.CreditStatusPending {
		s.count("approve_credit", "not_found")
		return nil, nil, xerrors.ErrNoPendingCredit
	}

	wtx, err := s.wallets.FindPendingGameTx(ctx, tx, userID, gameName, domain.TxTypeGameCredit)
	if err != nil {
		s.count("approve_credit", "not_found")
		return nil, nil, xerrors.ErrNoPendingCredit
	}

	if err := s.wallets.SetTransactionStatus(ctx, tx, wtx.ID, domain.TxStatusCompleted, nil); err != nil {
		s.count("approve_credit", "error")
		return nil, nil, err
	}
	if err := s.profiles.SetCreditState(ctx, tx, userID, gameName, profile.CreditRequested, decimal.Zero, domain.CreditStatusSuccess); err != nil {
		s.count("approve_credit", "error")
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		s.count("approve_credit", "aborted")
		return nil, nil, fmt.Errorf("credit approval aborted: %w", err)
	}

	s.count("approve_credit", "ok")
	s.pub.WalletChanged(ctx, "credit.approved", userID, gameName)
	s.pub.ProfileChanged(ctx, "credit.approved", userID, gameName)

	profile.CreditAmount = profile.CreditRequested
	profile.CreditRequested = decimal.Zero
	profile.CreditStatus = domain.CreditStatusSuccess
	wtx.Status = domain.TxStatusCompleted

	s.logger.Info("credit request approved",
		zap.String("user_id", userID),
		zap.String("game_name", gameName),
		zap.String("amount", profile.CreditAmount.String()),
		zap.String("admin", admin.Username))
	return profile, wtx, nil
}

// DisapproveCredit rejects a pending credit request and refunds the
// held amount back into the wallet balance, atomically.
func (s *Service) DisapproveCredit(ctx context.Context, admin domain.AdminIdentity, userID, gameName string) (*domain.GameProfile, decimal.Decimal, error) {
	if userID == "" || gameName == "" {
		return nil, decimal.Zero, xerrors.ErrInvalidInput
	}
	if _, err := s.scope.Authorize(ctx, admin, userID); err != nil {
		s.count("disapprove_credit", "denied")
		return nil, decimal.Zero, err
	}

	tx, err := s.wallets.BeginTx(ctx)
	if err != nil {
		return nil, decimal.Zero, err
	}
	defer tx.Rollback(ctx)

	profile, err := s.profiles.GetForUpdate(ctx, tx, userID, gameName)
	if err != nil {
		s.count("disapprove_credit", "not_found")
		return nil, decimal.Zero, err
	}
	if profile.CreditStatus != domain.CreditStatusPending {
		s.count("disapprove_credit", "not_found")
		return nil, decimal.Zero, xerrors.ErrNoPendingCredit
	}

	wallet, err := s.wallets.GetWalletForUpdate(ctx, tx, userID)
	if err != nil {
		s.count("disapprove_credit", "not_found")
		return nil, decimal.Zero, err
	}
	wtx, err := s.wallets.FindPendingGameTx(ctx, tx, userID, gameName, domain.TxTypeGameCredit)
	if err != nil {
		s.count("disapprove_credit", "not_found")
		return nil, decimal.Zero, xerrors.ErrNoPendingCredit
	}

	// The hold is stored negative; refund its absolute value.
	refund := wtx.Amount.Abs()

	if err := s.wallets.SetTransactionStatus(ctx, tx, wtx.ID, domain.TxStatusRejected, nil); err != nil {
		s.count("disapprove_credit", "error")
		return nil, decimal.Zero, err
	}
	if err := s.wallets.AddToBalance(ctx, tx, wallet.ID, refund); err != nil {
		s.count("disapprove_credit", "error")
		return nil, decimal.Zero, err
	}
	if err := s.profiles.SetCreditState(ctx, tx, userID, gameName, profile.CreditAmount, decimal.Zero, domain.CreditStatusNone); err != nil {
		s.count("disapprove_credit", "error")
		return nil, decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		s.count("disapprove_credit", "aborted")
		return nil, decimal.Zero, fmt.Errorf("credit disapproval aborted: %w", err)
	}

	s.count("disapprove_credit", "ok")
	s.pub.WalletChanged(ctx, "credit.rejected", userID, gameName)
	s.pub.ProfileChanged(ctx, "credit.rejected", userID, gameName)

	profile.CreditRequested = decimal.Zero
	profile.CreditStatus = domain.CreditStatusNone

	s.logger.Info("credit request disapproved",
		zap.String("user_id", userID),
		zap.String("game_name", gameName),
		zap.String("refunded", refund.String()),
		zap.String("admin", admin.Username))
	return profile, refund, nil
}

// ApproveRedeem completes a pending redeem: the game_withdrawal
// transaction flips to completed and amount minus tips is credited to
// the wallet balance, atomically with the profile reset.
func (s *Service) ApproveRedeem(ctx context.Context, admin domain.AdminIdentity, userID, gameName string) (*domain.GameProfile, *domain.Transaction, error) {
	if userID == "" || gameName == "" {
		return nil, nil, xerrors.ErrInvalidInput
	}
	if _, err := s.scope.Authorize(ctx, admin, userID); err != nil {
		s.count("approve_redeem", "denied")
		return nil, nil, err
	}

	tx, err := s.wallets.BeginTx(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	profile, err := s.profiles.GetForUpdate(ctx, tx, userID, gameName)
	if err != nil {
		s.count("approve_redeem", "not_found")
		return nil, nil, err
	}
	if profile.CreditStatus != domain.CreditStatusPendingRedeem {
		s.count("approve_redeem", "not_found")
		return nil, nil, xerrors.ErrNoPendingRedeem
	}

	wallet, err := s.wallets.GetWalletForUpdate(ctx, tx, userID)
	if err != nil {
		s.count("approve_redeem", "not_found")
		return nil, nil, err
	}
	wtx, err := s.wallets.FindPendingGameTx(ctx, tx, userID, gameName, domain.TxTypeGameWithdrawal)
	if err != nil {
		s.count("approve_redeem", "not_found")
		return nil, nil, xerrors.ErrNoPendingRedeem
	}

	finalAmount := wtx.Amount.Sub(wtx.Tips)

	if err := s.wallets.SetTransactionStatus(ctx, tx, wtx.ID, domain.TxStatusCompleted, nil); err != nil {
		s.count("approve_redeem", "error")
		return nil, nil, err
	}
	if err := s.wallets.AddToBalance(ctx, tx, wallet.ID, finalAmount); err != nil {
		s.count("approve_redeem", "error")
		return nil, nil, err
	}
	if err := s.profiles.SetCreditState(ctx, tx, userID, gameName, decimal.Zero, decimal.Zero, domain.CreditStatusNone); err != nil {
		s.count("approve_redeem", "error")
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		s.count("approve_redeem", "aborted")
		return nil, nil, fmt.Errorf("redeem approval aborted: %w", err)
	}

	s.count("approve_redeem", "ok")
	s.pub.WalletChanged(ctx, "redeem.approved", userID, gameName)
	s.pub.ProfileChanged(ctx, "redeem.approved", userID, gameName)

	profile.CreditAmount = decimal.Zero
	profile.CreditRequested = decimal.Zero
	profile.CreditStatus = domain.CreditStatusNone
	wtx.Status = domain.TxStatusCompleted

	s.logger.Info("redeem request approved",
		zap.String("user_id", userID),
		zap.String("game_name", gameName),
		zap.String("credited", finalAmount.String()),
		zap.String("admin", admin.Username))
	return profile, wtx, nil
}

// DisapproveRedeem rejects a pending redeem. Funds were never debited
// for a redeem request, so no balance change happens.
func (s *Service) DisapproveRedeem(ctx context.Context, admin domain.AdminIdentity, userID, gameName string) (*domain.GameProfile, error) {
	if userID == "" || gameName == "" {
		return nil, xerrors.ErrInvalidInput
	}
	if _, err := s.scope.Authorize(ctx, admin, userID); err != nil {
		s.count("disapprove_redeem", "denied")
		return nil, err
	}

	tx, err := s.wallets.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	profile, err := s.profiles.GetForUpdate(ctx, tx, userID, gameName)
	if err != nil {
		s.count("disapprove_redeem", "not_found")
		return nil, err
	}
	if profile.CreditStatus != domain.CreditStatusPendingRedeem {
		s.count("disapprove_redeem", "not_found")
		return nil, xerrors.ErrNoPendingRedeem
	}

	wtx, err := s.wallets.FindPendingGameTx(ctx, tx, userID, gameName, domain.TxTypeGameWithdrawal)
	if err != nil {
		s.count("disapprove_redeem", "not_found")
		return nil, xerrors.ErrNoPendingRedeem
	}

	if err := s.wallets.SetTransactionStatus(ctx, tx, wtx.ID, domain.TxStatusRejected, nil); err != nil {
		s.count("disapprove_redeem", "error")
		return nil, err
	}
	if err := s.profiles.SetCreditState(ctx, tx, userID, gameName, profile.CreditAmount, decimal.Zero, domain.CreditStatusNone); err != nil {
		s.count("disapprove_redeem", "error")
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		s.count("disapprove_redeem", "aborted")
		return nil, fmt.Errorf("redeem disapproval aborted: %w", err)
	}

	s.count("disapprove_redeem", "ok")
	s.pub.WalletChanged(ctx, "redeem.rejected", userID, gameName)
	s.pub.ProfileChanged(ctx, "redeem.rejected", userID, gameName)

	profile.CreditRequested = decimal.Zero
	profile.CreditStatus = domain.CreditStatusNone

	s.logger.Info("redeem request disapproved",
		zap.String("user_id", userID),
		zap.String("game_name", gameName),
		zap.String("admin", admin.Username))
	return profile, nil
}

func (s *Service) count(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.ApprovalOps.WithLabelValues(operation, outcome).Inc()
	}
}
