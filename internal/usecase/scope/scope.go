package scope

import (
	"context"

	"github.com/Silver7Surfer/adminbackend/internal/domain"
	"github.com/Silver7Surfer/adminbackend/internal/repository"
	xerrors "github.com/Silver7Surfer/adminbackend/pkg/xerrors"
)

// Resolver decides which users an admin may see or act on. Superadmins
// are unrestricted; a regular admin only reaches users whose
// assigned_admin matches their username.
type Resolver struct {
	users repository.UserRepository
}

func NewResolver(users repository.UserRepository) *Resolver {
	return &Resolver{users: users}
}

// Authorize loads the target user and checks the caller may act on it.
func (r *Resolver) Authorize(ctx context.Context, admin domain.AdminIdentity, userID string) (*domain.User, error) {
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if admin.IsSuperAdmin() {
		return user, nil
	}
	if user.AssignedAdmin == nil || *user.AssignedAdmin != admin.Username {
		return nil, xerrors.ErrForbidden
	}
	return user, nil
}

// VisibleUserIDs returns the user-id set the caller may read. A nil
// slice means unrestricted (superadmin); an empty non-nil slice means an
// admin with no assigned users, for which scoped reads must return empty
// results rather than an error.
func (r *Resolver) VisibleUserIDs(ctx context.Context, admin domain.AdminIdentity) ([]string, error) {
	if admin.IsSuperAdmin() {
		return nil, nil
	}
	ids, err := r.users.ListIDsByAssignedAdmin(ctx, admin.Username)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
