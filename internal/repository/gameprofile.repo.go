package repository

import (
	"context"
	"errors"

	"github.com/Silver7Surfer/adminbackend/internal/domain"
	xerrors "github.com/Silver7Surfer/adminbackend/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type GameProfileRepository interface {
	GetByUserAndGame(ctx context.Context, userID, gameName string) (*domain.GameProfile, error)

	// ListByUserIDs returns game profiles for the given users, or every
	// profile when userIDs is nil (superadmin scope).
	ListByUserIDs(ctx context.Context, userIDs []string) ([]*domain.GameProfile, error)

	AssignGameID(ctx context.Context, userID, gameName, gameID string, gamePassword *string) (*domain.GameProfile, error)

	GetForUpdate(ctx context.Context, tx pgx.Tx, userID, gameName string) (*domain.GameProfile, error)
	SetCreditState(ctx context.Context, tx pgx.Tx, userID, gameName string, amount, requested decimal.Decimal, status string) error
}

type gameProfileRepo struct {
	db *pgxpool.Pool
}

func NewGameProfileRepository(db *pgxpool.Pool) GameProfileRepository {
	return &gameProfileRepo{db: db}
}

const profileColumns = `id, user_id, game_name, game_id, game_password, profile_status,
		credit_amount, credit_status, credit_requested, created_at, updated_at`

func scanProfile(row pgx.Row) (*domain.GameProfile, error) {
	var p domain.GameProfile
	err := row.Scan(
		&p.ID, &p.UserID, &p.GameName, &p.GameID, &p.GamePassword, &p.ProfileStatus,
		&p.CreditAmount, &p.CreditStatus, &p.CreditRequested, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gameProfileRepo) GetByUserAndGame(ctx context.Context, userID, gameName string) (*domain.GameProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM game_profiles WHERE user_id = $1 AND game_name = $2`
	p, err := scanProfile(r.db.QueryRow(ctx, query, userID, gameName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrGameProfileNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *gameProfileRepo) ListByUserIDs(ctx context.Context, userIDs []string) ([]*domain.GameProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM game_profiles`
	var args []interface{}
	if userIDs != nil {
		query += ` WHERE user_id = ANY($1)`
		args = append(args, userIDs)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*domain.GameProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// AssignGameID activates a pending profile. The status guard in the WHERE
// clause keeps the pending→active transition one-way.
func (r *gameProfileRepo) AssignGameID(ctx context.Context, userID, gameName, gameID string, gamePassword *string) (*domain.GameProfile, error) {
	query := `
		UPDATE game_profiles
		SET game_id       = $3,
			game_password = COALESCE($4, game_password),
			profile_status = $5,
			updated_at    = NOW()
		WHERE user_id = $1 AND game_name = $2 AND profile_status <> $5
		RETURNING ` + profileColumns

	p, err := scanProfile(r.db.QueryRow(ctx, query, userID, gameName, gameID, gamePassword, domain.ProfileStatusActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrGameProfileNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *gameProfileRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, userID, gameName string) (*domain.GameProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM game_profiles WHERE user_id = $1 AND game_name = $2 FOR UPDATE`
	p, err := scanProfile(tx.QueryRow(ctx, query, userID, gameName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrGameProfileNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *gameProfileRepo) SetCreditState(ctx context.Context, tx pgx.Tx, userID, gameName string, amount, requested decimal.Decimal, status string) error {
	query := `
		UPDATE game_profiles
		SET credit_amount = $3, credit_requested = $4, credit_status = $5, updated_at = NOW()
		WHERE user_id = $1 AND game_name = $2
	`
	tag, err := tx.Exec(ctx, query, userID, gameName, amount, requested, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrGameProfileNotFound
	}
	return nil
}
