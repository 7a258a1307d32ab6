package games

import (
	"context"
	"sync"

	"github.com/Silver7Surfer/adminbackend/internal/domain"
	xerrors "github.com/Silver7Surfer/adminbackend/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *fakeTx) Commit(ctx context.Context) error          { t.committed = true; return nil }
func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}
func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *fakeTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *fakeTx) Conn() *pgx.Conn                                              { return nil }

type fakeWalletRepo struct {
	wallet *domain.Wallet
	txs    []*domain.Transaction
	lastTx *fakeTx
}

func (r *fakeWalletRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	r.lastTx = &fakeTx{}
	return r.lastTx, nil
}

func (r *fakeWalletRepo) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	if r.wallet == nil || r.wallet.UserID != userID {
		return nil, xerrors.ErrWalletNotFound
	}
	w := *r.wallet
	w.Transactions = r.txs
	return &w, nil
}

func (r *fakeWalletRepo) ListAll(ctx context.Context) ([]*domain.Wallet, error) {
	if r.wallet == nil {
		return nil, nil
	}
	return []*domain.Wallet{r.wallet}, nil
}

func (r *fakeWalletRepo) ListByUserIDs(ctx context.Context, userIDs []string) ([]*domain.Wallet, error) {
	if r.wallet == nil {
		return nil, nil
	}
	for _, id := range userIDs {
		if id == r.wallet.UserID {
			return []*domain.Wallet{r.wallet}, nil
		}
	}
	return nil, nil
}

func (r *fakeWalletRepo) ListPendingWithdrawals(ctx context.Context, userIDs []string) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	for _, t := range r.txs {
		if t.Type != domain.TxTypeWithdrawal || t.Status != domain.TxStatusPending {
			continue
		}
		if userIDs != nil && !contains(userIDs, t.UserID) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeWalletRepo) GetWalletForUpdate(ctx context.Context, tx pgx.Tx, userID string) (*domain.Wallet, error) {
	if r.wallet == nil || r.wallet.UserID != userID {
		return nil, xerrors.ErrWalletNotFound
	}
	w := *r.wallet
	return &w, nil
}

func (r *fakeWalletRepo) FindPendingGameTx(ctx context.Context, tx pgx.Tx, userID, gameName, txType string) (*domain.Transaction, error) {
	for _, t := range r.txs {
		if t.UserID == userID && t.GameName != nil && *t.GameName == gameName &&
			t.Type == txType && t.Status == domain.TxStatusPending {
			return t, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (r *fakeWalletRepo) FindPendingWithdrawalTx(ctx context.Context, tx pgx.Tx, userID, withdrawalID string) (*domain.Transaction, error) {
	for _, t := range r.txs {
		if t.ID == withdrawalID && t.UserID == userID &&
			t.Type == domain.TxTypeWithdrawal && t.Status == domain.TxStatusPending {
			return t, nil
		}
	}
	return nil, xerrors.ErrWithdrawalNotFound
}

func (r *fakeWalletRepo) SetTransactionStatus(ctx context.Context, tx pgx.Tx, transactionID, status string, txHash *string) error {
	for _, t := range r.txs {
		if t.ID == transactionID && t.Status == domain.TxStatusPending {
			t.Status = status
			if txHash != nil {
				t.TxHash = txHash
			}
			return nil
		}
	}
	return xerrors.ErrNotFound
}

func (r *fakeWalletRepo) InsertTransaction(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.txs = append(r.txs, t)
	return nil
}

func (r *fakeWalletRepo) AddToBalance(ctx context.Context, tx pgx.Tx, walletID string, delta decimal.Decimal) error {
	if r.wallet == nil || r.wallet.ID != walletID {
		return xerrors.ErrWalletNotFound
	}
	r.wallet.TotalBalanceUSD = r.wallet.TotalBalanceUSD.Add(delta)
	return nil
}

type fakeProfileRepo struct {
	profiles []*domain.GameProfile
}

func (r *fakeProfileRepo) find(userID, gameName string) *domain.GameProfile {
	for _, p := range r.profiles {
		if p.UserID == userID && p.GameName == gameName {
			return p
		}
	}
	return nil
}

func (r *fakeProfileRepo) GetByUserAndGame(ctx context.Context, userID, gameName string) (*domain.GameProfile, error) {
	p := r.find(userID, gameName)
	if p == nil {
		return nil, xerrors.ErrGameProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) ListByUserIDs(ctx context.Context, userIDs []string) ([]*domain.GameProfile, error) {
	var out []*domain.GameProfile
	for _, p := range r.profiles {
		if userIDs == nil || contains(userIDs, p.UserID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProfileRepo) AssignGameID(ctx context.Context, userID, gameName, gameID string, gamePassword *string) (*domain.GameProfile, error) {
	p := r.find(userID, gameName)
	if p == nil || p.ProfileStatus == domain.ProfileStatusActive {
		return nil, xerrors.ErrGameProfileNotFound
	}
	p.GameID = &gameID
	if gamePassword != nil {
		p.GamePassword = gamePassword
	}
	p.ProfileStatus = domain.ProfileStatusActive
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, userID, gameName string) (*domain.GameProfile, error) {
	return r.GetByUserAndGame(ctx, userID, gameName)
}

func (r *fakeProfileRepo) SetCreditState(ctx context.Context, tx pgx.Tx, userID, gameName string, amount, requested decimal.Decimal, status string) error {
	p := r.find(userID, gameName)
	if p == nil {
		return xerrors.ErrGameProfileNotFound
	}
	p.CreditAmount = amount
	p.CreditRequested = requested
	p.CreditStatus = status
	return nil
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, xerrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) ListAll(ctx context.Context) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) ListByAssignedAdmin(ctx context.Context, adminUsername string) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range r.users {
		if u.AssignedAdmin != nil && *u.AssignedAdmin == adminUsername {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	var out []*domain.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListIDsByAssignedAdmin(ctx context.Context, adminUsername string) ([]string, error) {
	var ids []string
	for _, u := range r.users {
		if u.AssignedAdmin != nil && *u.AssignedAdmin == adminUsername {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, id string, upd domain.UserUpdate, allowRoleChange bool) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, xerrors.ErrUserNotFound
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Role != nil && allowRoleChange {
		u.Role = *upd.Role
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return xerrors.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type publishedEvent struct {
	Channel   string
	EventType string
	UserID    string
	GameName  string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) WalletChanged(ctx context.Context, eventType, userID, gameName string) {
	p.record("wallet", eventType, userID, gameName)
}

func (p *fakePublisher) ProfileChanged(ctx context.Context, eventType, userID, gameName string) {
	p.record("profile", eventType, userID, gameName)
}

func (p *fakePublisher) record(channel, eventType, userID, gameName string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{channel, eventType, userID, gameName})
}

func (p *fakePublisher) all() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	sent chan sentMail
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{sent: make(chan sentMail, 4)}
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.sent <- sentMail{To: to, Subject: subject, Body: body}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
