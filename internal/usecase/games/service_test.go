package games

import (
	"context"
	"testing"
	"time"

	"github.com/Silver7Surfer/adminbackend/internal/domain"
	"github.com/Silver7Surfer/adminbackend/internal/usecase/scope"
	xerrors "github.com/Silver7Surfer/adminbackend/pkg/xerrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	superadmin = domain.AdminIdentity{ID: "sa-1", Username: "root", Role: domain.RoleSuperAdmin}
	admin      = domain.AdminIdentity{ID: "a-1", Username: "alice", Role: domain.RoleAdmin}
)

func strPtr(s string) *string { return &s }

type fixture struct {
	svc      *Service
	profiles *fakeProfileRepo
	wallets  *fakeWalletRepo
	users    *fakeUserRepo
	pub      *fakePublisher
	mailer   *fakeMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := &fakeUserRepo{users: map[string]*domain.User{
		"u-1": {ID: "u-1", Username: "player1", Email: "player1@example.com", AssignedAdmin: strPtr("alice"), IsActive: true, Role: "user"},
		"u-2": {ID: "u-2", Username: "player2", Email: "player2@example.com", AssignedAdmin: strPtr("bob"), IsActive: true, Role: "user"},
	}}
	wallets := &fakeWalletRepo{
		wallet: &domain.Wallet{ID: "w-1", UserID: "u-1", TotalBalanceUSD: decimal.NewFromInt(500)},
	}
	profiles := &fakeProfileRepo{}
	pub := &fakePublisher{}
	mailer := newFakeMailer()

	svc := NewService(profiles, wallets, users, scope.NewResolver(users), pub, mailer, nil, zap.NewNop())
	return &fixture{svc: svc, profiles: profiles, wallets: wallets, users: users, pub: pub, mailer: mailer}
}

func (f *fixture) addProfile(p domain.GameProfile) *domain.GameProfile {
	cp := p
	f.profiles.profiles = append(f.profiles.profiles, &cp)
	return &cp
}

func (f *fixture) addTx(tx domain.Transaction) *domain.Transaction {
	cp := tx
	f.wallets.txs = append(f.wallets.txs, &cp)
	return &cp
}

func TestApproveCredit(t *testing.T) {
	f := newFixture(t)
	f.addProfile(domain.GameProfile{
		ID: "p-1", UserID: "u-1", GameName: "FireKirin",
		ProfileStatus:   domain.ProfileStatusActive,
		CreditStatus:    domain.CreditStatusPending,
		CreditRequested: decimal.NewFromInt(100),
	})
	f.addTx(domain.Transaction{
		ID: "t-1", WalletID: "w-1", UserID: "u-1",
		Type: domain.TxTypeGameCredit, GameName: strPtr("FireKirin"),
		Amount: decimal.NewFromInt(-100), RequestedAmount: decimal.NewFromInt(100),
		Status: domain.TxStatusPending,
	})

	profile, wtx, err := f.svc.ApproveCredit(context.Background(), admin, "u-1", "FireKirin")
	require.NoError(t, err)

	assert.Equal(t, domain.CreditStatusSuccess, profile.CreditStatus)
	assert.True(t, profile.CreditAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, profile.CreditRequested.IsZero())
	assert.Equal(t, domain.TxStatusCompleted, wtx.Status)

	// Funds were held when the request was made; approval must not touch
	// the balance again.
	assert.True(t, f.wallets.wallet.TotalBalanceUSD.Equal(decimal.NewFromInt(500)))
	assert.True(t, f.wallets.lastTx.committed)

	stored := f.profiles.find("u-1", "FireKirin")
	assert.Equal(t, domain.CreditStatusSuccess, stored.CreditStatus)
	assert.True(t, stored.CreditAmount.Equal(decimal.NewFromInt(100)))

	events := f.pub.all()
	require.Len(t, events, 2)
	assert.Equal(t, "credit.approved", events[0].EventType)
	assert.Equal(t, "credit.approved", events[1].EventType)
}

func TestApproveCreditNoPendingRequest(t *testing.T) {
	f := newFixture(t)
	f.addProfile(domain.GameProfile{
		ID: "p-1", UserID: "u-1", GameName: "FireKirin",
		ProfileStatus: domain.ProfileStatusActive,
		CreditStatus:  domain.CreditStatusNone,
	})

	_, _, err := f.svc.ApproveCredit(context.Background(), admin, "u-1", "FireKirin")
	assert.ErrorIs(t, err, xerrors.ErrNoPendingCredit)
	assert.Empty(t, f.pub.all())
}

func TestApproveCreditIsIdempotentPerRequest(t *testing.T) {
	f := newFixture(t)
	f.addProfile(domain.GameProfile{
		ID: "p-1", UserID: "u-1", GameName: "FireKirin",
		ProfileStatus:   domain.ProfileStatusActive,
		CreditStatus:    domain.CreditStatusPending,
		CreditRequested: decimal.NewFromInt(100),
	})
	f.addTx(domain.Transaction{
		ID: "t-1", WalletID: "w-1", UserID: "u-1",
		Type: domain.TxTypeGameCredit, GameName: strPtr("FireKirin"),
		Amount: decimal.NewFromInt(-100), Status: domain.TxStatusPending,
	})

	_, _, err := f.svc.ApproveCredit(context.Background(), admin, "u-1", "FireKirin")
	require.NoError(t, err)

	// A second approval of the same request finds no pending state.
	_, _, err = f.svc.ApproveCredit(context.Background(), admin, "u-1", "FireKirin")
	assert.ErrorIs(t, err, xerrors.ErrNoPendingCredit)
	assert.True(t, f.wallets.wallet.TotalBalanceUSD.Equal(decimal.NewFromInt(500)))
}

func TestDisapproveCreditRefundsHold(t *testing.T) {
	f := newFixture(t)
	f.addProfile(domain.GameProfile{
		ID: "p-1", UserID: "u-1", GameName: "FireKirin",
		ProfileStatus:   domain.ProfileStatusActive,
		CreditAmount:    decimal.NewFromInt(20),
		CreditStatus:    domain.CreditStatusPending,
		CreditRequested: decimal.NewFromInt(100),
	})
	f.addTx(domain.Transaction{
		ID: "t-1", WalletID: "w-1", UserID: "u-1",
		Type: domain.TxTypeGameCredit, GameName: strPtr("FireKirin"),
		Amount: decimal.NewFromInt(-100), Status: domain.TxStatusPending,
	})

	profile, refunded, err := f.svc.DisapproveCredit(context.Background(), admin, "u-1", "FireKirin")
	require.NoError(t, err)

	assert.True(t, refunded.Equal(decimal.NewFromInt(100)))
	assert.True(t, f.wallets.wallet.TotalBalanceUSD.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, domain.CreditStatusNone, profile.CreditStatus)
	assert.True(t, profile.CreditRequested.IsZero())
	// The previously approved credit amount survives a rejection.
	assert.True(t, profile.CreditAmount.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, domain.TxStatusRejected, f.wallets.txs[0].Status)
}

func TestRejectedCreditCanBeReRequestedAndApproved(t *testing.T) {
	newRequest := func(f *fixture) {
		f.addProfile(domain.GameProfile{
			ID: "p-1", UserID: "u-1", GameName: "FireKirin",
			ProfileStatus:   domain.ProfileStatusActive,
			CreditStatus:    domain.CreditStatusPending,
			CreditRequested: decimal.NewFromInt(100),
		})
		f.addTx(domain.Transaction{
			ID: "t-1", WalletID: "w-1", UserID: "u-1",
			Type: domain.TxTypeGameCredit, GameName: strPtr("FireKirin"),
			Amount: decimal.NewFromInt(-100), RequestedAmount: decimal.NewFromInt(100),
			Status: domain.TxStatusPending,
		})
	}

	direct := newFixture(t)
	newRequest(direct)
	_, _, err := direct.svc.ApproveCredit(context.Background(), admin, "u-1", "FireKirin")
	require.NoError(t, err)

	retried := newFixture(t)
	newRequest(retried)
	_, refunded, err := retried.svc.DisapproveCredit(context.Background(), admin, "u-1", "FireKirin")
	require.NoError(t, err)
	require.True(t, refunded.Equal(decimal.NewFromInt(100)))

	// The player requests the same credit again: funds are held and a
	// fresh pending transaction is recorded.
	retried.wallets.wallet.TotalBalanceUSD = retried.wallets.wallet.TotalBalanceUSD.Sub(decimal.NewFromInt(100))
	stored := retried.profiles.find("u-1", "FireKirin")
	stored.CreditStatus = domain.CreditStatusPending
	stored.CreditRequested = decimal.NewFromInt(100)
	retried.addTx(domain.Transaction{
		ID: "t-2", WalletID: "w-1", UserID: "u-1",
		Type: domain.TxTypeGameCredit, GameName: strPtr("FireKirin"),
		Amount: decimal.NewFromInt(-100), RequestedAmount: decimal.NewFromInt(100),
		Status: domain.TxStatusPending,
	})

	retriedProfile, _, err := retried.svc.ApproveCredit(context.Background(), admin, "u-1", "FireKirin")
	require.NoError(t, err)

	// Rejection plus retry lands on the same state as a direct approval.
	directWallet := direct.wallets.wallet.TotalBalanceUSD
	assert.True(t, retried.wallets.wallet.TotalBalanceUSD.Equal(directWallet))
	directProfile := direct.profiles.find("u-1", "FireKirin")
	assert.Equal(t, directProfile.CreditStatus, retriedProfile.CreditStatus)
	assert.True(t, retriedProfile.CreditAmount.Equal(directProfile.CreditAmount))
	assert.True(t, retriedProfile.CreditRequested.Equal(directProfile.CreditRequested))
}

func TestApproveRedeemCreditsNetOfTips(t *testing.T) {
	f := newFixture(t)
	f.addProfile(domain.GameProfile{
		ID: "p-1", UserID: "u-1", GameName: "FireKirin",
		ProfileStatus:   domain.ProfileStatusActive,
		CreditAmount:    decimal.NewFromInt(100),
		CreditStatus:    domain.CreditStatusPendingRedeem,
		CreditRequested: decimal.NewFromInt(50),
	})
	f.addTx(domain.Transaction{
		ID: "t-1", WalletID: "w-1", UserID: "u-1",
		Type: domain.TxTypeGameWithdrawal, GameName: strPtr("FireKirin"),
		Amount: decimal.NewFromInt(50), Tips: decimal.NewFromInt(5),
		Status: domain.TxStatusPending,
	})

	profile, wtx, err := f.svc.ApproveRedeem(context.Background(), admin, "u-1", "FireKirin")
	require.NoError(t, err)

	assert.True(t, f.wallets.wallet.TotalBalanceUSD.Equal(decimal.NewFromInt(545)))
	assert.Equal(t, domain.TxStatusCompleted, wtx.Status)
	assert.Equal(t, domain.CreditStatusNone, profile.CreditStatus)
	assert.True(t, profile.CreditAmount.IsZero())
	assert.True(t, profile.CreditRequested.IsZero())

	events := f.pub.all()
	require.Len(t, events, 2)
	assert.Equal(t, "redeem.approved", events[0].EventType)
}

func TestDisapproveRedeemKeepsBalance(t *testing.T) {
	f := newFixture(t)
	f.addProfile(domain.GameProfile{
		ID: "p-1", UserID: "u-1", GameName: "FireKirin",
		ProfileStatus:   domain.ProfileStatusActive,
		CreditAmount:    decimal.NewFromInt(100),
		CreditStatus:    domain.CreditStatusPendingRedeem,
		CreditRequested: decimal.NewFromInt(50),
	})
	f.addTx(domain.Transaction{
		ID: "t-1", WalletID: "w-1", UserID: "u-1",
		Type: domain.TxTypeGameWithdrawal, GameName: strPtr("FireKirin"),
		Amount: decimal.NewFromInt(50), Status: domain.TxStatusPending,
	})

	profile, err := f.svc.DisapproveRedeem(context.Background(), admin, "u-1", "FireKirin")
	require.NoError(t, err)

	// No funds move for a rejected redeem.
	assert.True(t, f.wallets.wallet.TotalBalanceUSD.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, domain.CreditStatusNone, profile.CreditStatus)
	assert.True(t, profile.CreditAmount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, domain.TxStatusRejected, f.wallets.txs[0].Status)
}

func TestApprovalDeniedOutsideScope(t *testing.T) {
	f := newFixture(t)
	f.addProfile(domain.GameProfile{
		ID: "p-2", UserID: "u-2", GameName: "FireKirin",
		ProfileStatus:   domain.ProfileStatusActive,
		CreditStatus:    domain.CreditStatusPending,
		CreditRequested: decimal.NewFromInt(100),
	})

	// u-2 is assigned to bob, not alice.
	_, _, err := f.svc.ApproveCredit(context.Background(), admin, "u-2", "FireKirin")
	assert.ErrorIs(t, err, xerrors.ErrForbidden)

	stored := f.profiles.find("u-2", "FireKirin")
	assert.Equal(t, domain.CreditStatusPending, stored.CreditStatus)
	assert.Empty(t, f.pub.all())
}

func TestSuperadminBypassesScope(t *testing.T) {
	f := newFixture(t)
	f.addProfile(domain.GameProfile{
		ID: "p-2", UserID: "u-2", GameName: "FireKirin",
		ProfileStatus: domain.ProfileStatusPending,
	})

	_, err := f.svc.AssignGameID(context.Background(), superadmin, "u-2", "FireKirin", "fk-900", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ProfileStatusActive, f.profiles.find("u-2", "FireKirin").ProfileStatus)
}

func TestAssignGameID(t *testing.T) {
	f := newFixture(t)
	f.addProfile(domain.GameProfile{
		ID: "p-1", UserID: "u-1", GameName: "FireKirin",
		ProfileStatus: domain.ProfileStatusPending,
	})

	profile, err := f.svc.AssignGameID(context.Background(), admin, "u-1", "FireKirin", "fk-123", strPtr("secret"))
	require.NoError(t, err)

	assert.Equal(t, domain.ProfileStatusActive, profile.ProfileStatus)
	require.NotNil(t, profile.GameID)
	assert.Equal(t, "fk-123", *profile.GameID)

	events := f.pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, "profile.activated", events[0].EventType)
	assert.Equal(t, "u-1", events[0].UserID)

	select {
	case mail := <-f.mailer.sent:
		assert.Equal(t, "player1@example.com", mail.To)
		assert.Contains(t, mail.Subject, "FireKirin")
		assert.Contains(t, mail.Body, "fk-123")
		assert.Contains(t, mail.Body, "secret")
	case <-time.After(2 * time.Second):
		t.Fatal("credentials email was not sent")
	}
}

func TestAssignGameIDActiveConflict(t *testing.T) {
	f := newFixture(t)
	f.addProfile(domain.GameProfile{
		ID: "p-1", UserID: "u-1", GameName: "FireKirin",
		GameID:        strPtr("fk-old"),
		ProfileStatus: domain.ProfileStatusActive,
	})

	_, err := f.svc.AssignGameID(context.Background(), admin, "u-1", "FireKirin", "fk-new", nil)

	var activeErr *xerrors.ProfileActiveError
	require.ErrorAs(t, err, &activeErr)
	assert.Equal(t, "fk-old", activeErr.ExistingGameID)
	assert.Equal(t, "fk-old", *f.profiles.find("u-1", "FireKirin").GameID)
	assert.Empty(t, f.pub.all())
}

func TestAssignGameIDSkipsEmailWithoutAddress(t *testing.T) {
	f := newFixture(t)
	f.users.users["u-1"].Email = ""
	f.addProfile(domain.GameProfile{
		ID: "p-1", UserID: "u-1", GameName: "FireKirin",
		ProfileStatus: domain.ProfileStatusPending,
	})

	_, err := f.svc.AssignGameID(context.Background(), admin, "u-1", "FireKirin", "fk-123", nil)
	require.NoError(t, err)

	select {
	case <-f.mailer.sent:
		t.Fatal("no email expected for a user without an address")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestApprovalValidatesInput(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.ApproveCredit(context.Background(), admin, "", "FireKirin")
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, _, err = f.svc.ApproveRedeem(context.Background(), admin, "u-1", "")
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, err = f.svc.AssignGameID(context.Background(), admin, "u-1", "FireKirin", "", nil)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}
