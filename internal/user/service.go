package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/auth"
)

type Repository interface {
	GetByID(ctx context.Context, userID string) (*Profile, error)
	GetSettings(ctx context.Context, adminID string) (*Settings, error)
	MergeFeatures(ctx context.Context, adminID string, features map[string]interface{}) (*Settings, error)
}

var errSettingsAdminOnly = internal.NewForbiddenError("Only admins can update settings", internal.ErrCodeAdminOnly)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) GetProfile(ctx context.Context, p *auth.Principal) (*Profile, error) {
	profile, err := s.repo.GetByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, internal.NewInternalError("failed to load user", err)
	}
	profile.AdminID = p.TenantID()
	profile.EmployeeID = p.EmployeeID
	return profile, nil
}

// GetSettings returns the settings of the caller's tenant, so employees see their admin's plan.
func (s *Service) GetSettings(ctx context.Context, p *auth.Principal) (*Settings, error) {
	settings, err := s.repo.GetSettings(ctx, p.TenantID())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrSettingsNotFound
		}
		return nil, internal.NewInternalError("failed to load settings", err)
	}
	return settings, nil
}

func (s *Service) UpdateSettings(ctx context.Context, p *auth.Principal, dto UpdateSettingsDTO) (*Settings, error) {
	if !p.IsAdmin() {
		return nil, errSettingsAdminOnly
	}
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	settings, err := s.repo.MergeFeatures(ctx, p.UserID, dto.Features)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrSettingsNotFound
		}
		return nil, internal.NewInternalError("failed to update settings", err)
	}

	s.logger.InfoContext(ctx, "settings updated", "admin_id", p.UserID, "features", len(dto.Features))
	return settings, nil
}
