package domain

import "time"

// Admin roles carried in the JWT and checked by the scope resolver.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	AssignedAdmin *string   `json:"assigned_admin,omitempty"`
	IsActive      bool      `json:"is_active"`
	Role          string    `json:"role"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AdminIdentity is the authenticated caller, resolved by the auth
// middleware from the bearer token.
type AdminIdentity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (a AdminIdentity) IsSuperAdmin() bool {
	return a.Role == RoleSuperAdmin
}

// UserUpdate carries the patchable user fields. Role changes are only
// honored for superadmin callers.
type UserUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}
