package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Silver7Surfer/adminbackend/internal/domain"
	"github.com/Silver7Surfer/adminbackend/pkg/response"
	"github.com/Silver7Surfer/adminbackend/pkg/xerrors"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const adminCtxKey ctxKey = "admin_identity"

type AdminClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type Auth struct {
	secret []byte
}

func NewAuth(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

// ParseToken validates an HS256 token and resolves the admin identity
// embedded in its claims. Used by both the HTTP middleware and the
// websocket authenticate handshake.
func (a *Auth) ParseToken(tokenStr string) (domain.AdminIdentity, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, xerrors.ErrInvalidToken
		}
		return a.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.AdminIdentity{}, xerrors.ErrExpiredToken
		}
		return domain.AdminIdentity{}, xerrors.ErrInvalidToken
	}
	if !token.Valid {
		return domain.AdminIdentity{}, xerrors.ErrInvalidToken
	}
	if claims.Role != domain.RoleAdmin && claims.Role != domain.RoleSuperAdmin {
		return domain.AdminIdentity{}, xerrors.ErrForbidden
	}

	return domain.AdminIdentity{
		ID:       claims.Subject,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     claims.Role,
	}, nil
}

// RequireAdmin rejects requests without a valid bearer token for an
// admin or superadmin and stores the identity in the request context.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			response.Error(w, http.StatusUnauthorized, "missing or malformed authorization header")
			return
		}

		admin, err := a.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			switch err {
			case xerrors.ErrExpiredToken:
				response.Error(w, http.StatusUnauthorized, "token expired")
			case xerrors.ErrForbidden:
				response.Error(w, http.StatusForbidden, "admin access required")
			default:
				response.Error(w, http.StatusUnauthorized, "invalid token")
			}
			return
		}

		ctx := context.WithValue(r.Context(), adminCtxKey, admin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSuperAdmin must be mounted after RequireAdmin.
func (a *Auth) RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, ok := AdminFromContext(r.Context())
		if !ok || !admin.IsSuperAdmin() {
			response.Error(w, http.StatusForbidden, "superadmin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func AdminFromContext(ctx context.Context) (domain.AdminIdentity, bool) {
	admin, ok := ctx.Value(adminCtxKey).(domain.AdminIdentity)
	return admin, ok
}
