package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/core/permission"
	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleEmployee   Role = "EMPLOYEE"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
	UserStatusPending  UserStatus = "PENDING"
)

// Principal is the authenticated caller attached to every protected request.
type Principal struct {
	UserID      string            `json:"id"`
	Email       string            `json:"email"`
	Name        string            `json:"name"`
	Username    string            `json:"username"`
	Role        Role              `json:"role"`
	Status      UserStatus        `json:"status"`
	EmployeeID  string            `json:"employeeId,omitempty"`
	AdminID     string            `json:"adminId"`
	Permissions permission.Matrix `json:"permissions"`
}

func (p *Principal) IsAdmin() bool {
	return p.Role == RoleAdmin || p.Role == RoleSuperAdmin
}

func (p *Principal) IsEmployee() bool {
	return p.Role == RoleEmployee
}

// TenantID is the admin that owns the data the principal works on.
func (p *Principal) TenantID() string {
	if p.IsAdmin() {
		return p.UserID
	}
	return p.AdminID
}

// Can is the matrix check; admins hold every permission.
func (p *Principal) Can(resource permission.Resource, action permission.Action) bool {
	if p.IsAdmin() {
		return true
	}
	return p.Permissions.Allows(resource, action)
}

type ctxKey string

const ContextUserKey ctxKey = "principal"

func UserFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ContextUserKey).(*Principal)
	return p, ok && p != nil
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ContextUserKey, p)
}

// Credentials is what login needs to check a password.
type Credentials struct {
	UserID       string
	PasswordHash string
	Status       UserStatus
}

type RefreshTokenRecord struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	Revoked   bool
}

type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type LoginResult struct {
	AuthTokens
	User *Principal `json:"user"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}
