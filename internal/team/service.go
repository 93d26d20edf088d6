package team

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/auth"
)

type Repository interface {
	List(ctx context.Context, adminID string) ([]*Member, error)
	Get(ctx context.Context, employeeID string) (*Member, error)
	Create(ctx context.Context, m NewMember) (*Member, error)
	Update(ctx context.Context, employeeID string, u MemberUpdate) (*Member, error)
	// Delete removes campaign assignments, the employee and its user.
	Delete(ctx context.Context, employeeID string) error
}

var (
	errAdminOnly      = internal.NewForbiddenError("Only admins can manage employees", internal.ErrCodeAdminOnly)
	errEmailExists    = internal.NewConflictError("Email already exists", internal.ErrCodeDuplicateUser)
	errOtherTenant    = internal.NewForbiddenError("You don't have access to this employee", internal.ErrCodePermissionDenied)
	errNoFieldsToEdit = internal.NewValidationError("Nothing to update", internal.ErrCodeInvalidRequest)
)

type Service struct {
	repo       Repository
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{repo: repo, bcryptCost: bcryptCost, logger: logger}
}

func (s *Service) ListEmployees(ctx context.Context, p *auth.Principal) ([]*Member, error) {
	if !p.IsAdmin() {
		return nil, errAdminOnly
	}
	members, err := s.repo.List(ctx, p.UserID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list employees", err)
	}
	return members, nil
}

// CreateEmployee adds a login for a new employee. The username is the email.
func (s *Service) CreateEmployee(ctx context.Context, p *auth.Principal, dto CreateEmployeeDTO) (*Member, error) {
	if !p.IsAdmin() {
		return nil, errAdminOnly
	}
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	member, err := s.repo.Create(ctx, NewMember{
		AdminID:      p.UserID,
		Name:         dto.Name,
		Email:        dto.Email,
		PasswordHash: hash,
		Permissions:  dto.Matrix(),
	})
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, errEmailExists
		}
		return nil, internal.NewInternalError("failed to create employee", err)
	}

	s.logger.InfoContext(ctx, "employee created", "employee_id", member.ID, "admin_id", p.UserID)
	return member, nil
}

func (s *Service) UpdateEmployee(ctx context.Context, p *auth.Principal, employeeID string, dto UpdateEmployeeDTO) (*Member, error) {
	if _, err := s.owned(ctx, p, employeeID); err != nil {
		return nil, err
	}
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}
	if dto.Name == nil && dto.Email == nil && dto.Permissions == nil {
		return nil, errNoFieldsToEdit
	}

	member, err := s.repo.Update(ctx, employeeID, dto.toUpdate())
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicate):
			return nil, errEmailExists
		case errors.Is(err, ErrNotFound):
			return nil, internal.ErrEmployeeNotFound
		}
		return nil, internal.NewInternalError("failed to update employee", err)
	}

	s.logger.InfoContext(ctx, "employee updated", "employee_id", employeeID, "admin_id", p.UserID)
	return member, nil
}

func (s *Service) DeleteEmployee(ctx context.Context, p *auth.Principal, employeeID string) error {
	if _, err := s.owned(ctx, p, employeeID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, employeeID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return internal.ErrEmployeeNotFound
		}
		return internal.NewInternalError("failed to delete employee", err)
	}

	s.logger.InfoContext(ctx, "employee deleted", "employee_id", employeeID, "admin_id", p.UserID)
	return nil
}

// owned loads the employee and checks it belongs to the calling admin.
func (s *Service) owned(ctx context.Context, p *auth.Principal, employeeID string) (*Member, error) {
	if !p.IsAdmin() {
		return nil, errAdminOnly
	}
	member, err := s.repo.Get(ctx, employeeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrEmployeeNotFound
		}
		return nil, internal.NewInternalError("failed to load employee", err)
	}
	if member.AdminID != p.UserID {
		s.logger.WarnContext(ctx, "employee access denied: other tenant", "employee_id", employeeID, "admin_id", p.UserID)
		return nil, errOtherTenant
	}
	return member, nil
}
