package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"golang.org/x/crypto/bcrypt"
)

// Repository is the persistence the auth flows need.
type Repository interface {
	FindCredentials(ctx context.Context, login string) (*Credentials, error)
	LoadPrincipal(ctx context.Context, userID string) (*Principal, error)
	CreateRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	FindRefreshToken(ctx context.Context, tokenHash string) (*RefreshTokenRecord, error)
	RotateRefreshToken(ctx context.Context, oldID, userID, newHash string, expiresAt time.Time) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}

var ErrNotFound = errors.New("record not found")

type Service struct {
	repo           Repository
	tokenGenerator TokenGenerator
	bcryptCost     int
	logger         *slog.Logger
	now            func() time.Time
}

func NewService(repo Repository, tokenGen TokenGenerator, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		bcryptCost:     bcryptCost,
		logger:         logger,
		now:            time.Now,
	}
}

// Authenticate checks credentials and issues a token pair. The login may be an email or a username.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (*LoginResult, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	creds, err := s.repo.FindCredentials(ctx, dto.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrInvalidCredentials
		}
		return nil, internal.NewInternalError("failed to load credentials", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(dto.Password)); err != nil {
		s.logger.WarnContext(ctx, "login rejected: wrong password", "user_id", creds.UserID)
		return nil, internal.ErrInvalidCredentials
	}

	if creds.Status != UserStatusActive {
		return nil, internal.ErrUserInactive
	}

	principal, err := s.repo.LoadPrincipal(ctx, creds.UserID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}

	tokens, err := s.issue(ctx, principal)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", principal.UserID, "role", principal.Role)
	return &LoginResult{AuthTokens: *tokens, User: principal}, nil
}

// RefreshTokens rotates a refresh token. Presenting an already revoked token
// revokes every token of that user.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.FindRefreshToken(ctx, HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrInvalidToken
		}
		return nil, internal.NewInternalError("failed to load refresh token", err)
	}

	if record.UserID != claims.UserID {
		return nil, internal.ErrInvalidToken
	}

	if record.Revoked {
		s.logger.WarnContext(ctx, "refresh token reuse detected, revoking all sessions", "user_id", record.UserID)
		if err := s.repo.RevokeAllRefreshTokens(ctx, record.UserID); err != nil {
			s.logger.ErrorContext(ctx, "failed to revoke refresh tokens", "user_id", record.UserID, "error", err)
		}
		return nil, internal.ErrInvalidToken
	}

	if s.now().After(record.ExpiresAt) {
		return nil, internal.ErrTokenExpired
	}

	principal, err := s.repo.LoadPrincipal(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrInvalidToken
		}
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if principal.Status != UserStatusActive {
		return nil, internal.ErrUserInactive
	}

	accessToken, err := s.tokenGenerator.GenerateAccessToken(principal.UserID, principal.Email, principal.Role)
	if err != nil {
		return nil, internal.NewInternalError("failed to sign access token", err)
	}
	newRefresh, expiresAt, err := s.tokenGenerator.GenerateRefreshToken(principal.UserID)
	if err != nil {
		return nil, internal.NewInternalError("failed to sign refresh token", err)
	}

	if err := s.repo.RotateRefreshToken(ctx, record.ID, principal.UserID, HashToken(newRefresh), expiresAt); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrInvalidToken
		}
		return nil, internal.NewInternalError("failed to rotate refresh token", err)
	}

	return &AuthTokens{AccessToken: accessToken, RefreshToken: newRefresh}, nil
}

// Logout ends every session of the user.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.repo.RevokeAllRefreshTokens(ctx, userID); err != nil {
		return internal.NewInternalError("failed to revoke refresh tokens", err)
	}
	s.logger.InfoContext(ctx, "user logged out", "user_id", userID)
	return nil
}

// Authorize resolves a bearer access token into an active principal.
func (s *Service) Authorize(ctx context.Context, accessToken string) (*Principal, error) {
	claims, err := s.tokenGenerator.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, err
	}

	principal, err := s.repo.LoadPrincipal(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrUnauthorized
		}
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if principal.Status != UserStatusActive {
		return nil, internal.ErrUserInactive
	}
	return principal, nil
}

func (s *Service) issue(ctx context.Context, p *Principal) (*AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(p.UserID, p.Email, p.Role)
	if err != nil {
		return nil, internal.NewInternalError("failed to sign access token", err)
	}
	refreshToken, expiresAt, err := s.tokenGenerator.GenerateRefreshToken(p.UserID)
	if err != nil {
		return nil, internal.NewInternalError("failed to sign refresh token", err)
	}
	if err := s.repo.CreateRefreshToken(ctx, p.UserID, HashToken(refreshToken), expiresAt); err != nil {
		return nil, internal.NewInternalError("failed to store refresh token", err)
	}
	return &AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	return HashPassword(password, s.bcryptCost)
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// HashToken is the stored form of a refresh token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
