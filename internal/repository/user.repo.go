package repository

import (
	"context"
	"errors"

	"github.com/Silver7Surfer/adminbackend/internal/domain"
	xerrors "github.com/Silver7Surfer/adminbackend/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	ListAll(ctx context.Context) ([]*domain.User, error)
	ListByAssignedAdmin(ctx context.Context, adminUsername string) ([]*domain.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]*domain.User, error)
	ListIDsByAssignedAdmin(ctx context.Context, adminUsername string) ([]string, error)
	Update(ctx context.Context, id string, upd domain.UserUpdate, allowRoleChange bool) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

type userRepo struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `id, username, email, assigned_admin, is_active, role, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.AssignedAdmin,
		&u.IsActive, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *userRepo) ListAll(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *userRepo) ListByAssignedAdmin(ctx context.Context, adminUsername string) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE assigned_admin = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, adminUsername)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *userRepo) ListByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *userRepo) ListIDsByAssignedAdmin(ctx context.Context, adminUsername string) ([]string, error) {
	query := `SELECT id FROM users WHERE assigned_admin = $1`
	rows, err := r.db.Query(ctx, query, adminUsername)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *userRepo) Update(ctx context.Context, id string, upd domain.UserUpdate, allowRoleChange bool) (*domain.User, error) {
	query := `
		UPDATE users SET
			username   = COALESCE($2, username),
			email      = COALESCE($3, email),
			role       = COALESCE($4, role),
			is_active  = COALESCE($5, is_active),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	role := upd.Role
	if !allowRoleChange {
		role = nil
	}
	return scanUser(r.db.QueryRow(ctx, query, id, upd.Username, upd.Email, role, upd.IsActive))
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrUserNotFound
	}
	return nil
}

func collectUsers(rows pgx.Rows) ([]*domain.User, error) {
	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
