package appointment

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	"github.com/frahmantamala/dialer-dashboard/internal/core/permission"
)

type Repository interface {
	List(ctx context.Context, f Filter) ([]*Appointment, error)
	Get(ctx context.Context, id string) (*Appointment, error)
	CampaignRef(ctx context.Context, campaignID string) (*auth.CampaignRef, error)
	ContactAdminID(ctx context.Context, contactID string) (string, error)
	// CallLogMatches reports whether the call log exists and belongs to campaignID and contactID.
	CallLogMatches(ctx context.Context, callLogID, campaignID, contactID string) (bool, error)
	Create(ctx context.Context, a *Appointment) error
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id string) error
}

type Policy interface {
	CampaignScope(ctx context.Context, u *auth.Principal, resource permission.Resource, action permission.Action) (auth.CampaignScope, error)
	AuthorizeCampaign(ctx context.Context, u *auth.Principal, c *auth.CampaignRef, action permission.Action) error
}

var (
	errContactNotFound = internal.NewNotFoundError("Contact not found or unauthorized", internal.ErrCodeContactNotFound)
	errCallLogMismatch = internal.NewValidationError("Call log not found or does not match campaign/contact", internal.ErrCodeInvalidRequest)
)

type Service struct {
	repo   Repository
	policy Policy
	logger *slog.Logger
}

func NewService(repo Repository, policy Policy, logger *slog.Logger) *Service {
	return &Service{repo: repo, policy: policy, logger: logger}
}

func visible(scope auth.CampaignScope, a *Appointment) bool {
	if a.AdminID() != scope.AdminID {
		return false
	}
	if !scope.Assigned {
		return true
	}
	for _, id := range scope.CampaignIDs {
		if id == a.CampaignID {
			return true
		}
	}
	return false
}

func (s *Service) List(ctx context.Context, p *auth.Principal, q ListQuery) ([]*Appointment, error) {
	scope, err := s.policy.CampaignScope(ctx, p, permission.ResourceCampaigns, permission.ActionView)
	if err != nil {
		return nil, err
	}
	if scope.Assigned && len(scope.CampaignIDs) == 0 {
		return []*Appointment{}, nil
	}
	if q.Status != "" {
		if appErr := statusFilter(q.Status); appErr != nil {
			return nil, appErr
		}
	}

	appts, err := s.repo.List(ctx, Filter{
		Scope:      scope,
		CampaignID: q.CampaignID,
		ContactID:  q.ContactID,
		Status:     q.Status,
		StartDate:  q.StartDate,
		EndDate:    q.EndDate,
	})
	if err != nil {
		return nil, internal.NewInternalError("failed to fetch appointments", err)
	}
	return appts, nil
}

func statusFilter(status string) *internal.AppError {
	for _, s := range Statuses {
		if s == status {
			return nil
		}
	}
	return internal.NewValidationError("Invalid status", internal.ErrCodeInvalidStatus)
}

func (s *Service) load(ctx context.Context, id string) (*Appointment, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrAppointmentNotFound
		}
		return nil, internal.NewInternalError("failed to fetch appointment", err)
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id string) (*Appointment, error) {
	scope, err := s.policy.CampaignScope(ctx, p, permission.ResourceCampaigns, permission.ActionView)
	if err != nil {
		return nil, err
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visible(scope, a) {
		return nil, internal.ErrAppointmentNotFound
	}
	return a, nil
}

func (s *Service) authorizeWrite(ctx context.Context, p *auth.Principal, a *Appointment) error {
	err := s.policy.AuthorizeCampaign(ctx, p, &auth.CampaignRef{ID: a.CampaignID, AdminID: a.AdminID()}, permission.ActionEdit)
	if errors.Is(err, internal.ErrCampaignNotFound) {
		return internal.ErrAppointmentNotFound
	}
	return err
}

func (s *Service) checkCallLog(ctx context.Context, callLogID *string, campaignID, contactID string) error {
	if callLogID == nil {
		return nil
	}
	ok, err := s.repo.CallLogMatches(ctx, *callLogID, campaignID, contactID)
	if err != nil {
		return internal.NewInternalError("failed to check call log", err)
	}
	if !ok {
		return errCallLogMismatch
	}
	return nil
}

func (s *Service) Create(ctx context.Context, p *auth.Principal, dto CreateAppointmentDTO) (*Appointment, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	ref, err := s.repo.CampaignRef(ctx, dto.CampaignID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load campaign", err)
	}
	if err := s.policy.AuthorizeCampaign(ctx, p, ref, permission.ActionEdit); err != nil {
		return nil, err
	}
	adminID, err := s.repo.ContactAdminID(ctx, dto.ContactID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load contact", err)
	}
	if adminID == "" || adminID != ref.AdminID {
		return nil, errContactNotFound
	}
	if err := s.checkCallLog(ctx, dto.CallLogID, dto.CampaignID, dto.ContactID); err != nil {
		return nil, err
	}

	a := &Appointment{
		CampaignID:      dto.CampaignID,
		ContactID:       dto.ContactID,
		CallLogID:       dto.CallLogID,
		Title:           dto.Title,
		Description:     dto.Description,
		AppointmentTime: dto.AppointmentTime.UTC(),
		Status:          dto.Status,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, internal.NewInternalError("failed to create appointment", err)
	}

	s.logger.InfoContext(ctx, "appointment created", "appointment_id", a.ID, "campaign_id", a.CampaignID, "contact_id", a.ContactID)
	return s.load(ctx, a.ID)
}

func (s *Service) Update(ctx context.Context, p *auth.Principal, id string, dto UpdateAppointmentDTO) (*Appointment, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(ctx, p, a); err != nil {
		return nil, err
	}
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	dto.apply(a)
	if dto.CallLogID != nil {
		if err := s.checkCallLog(ctx, a.CallLogID, a.CampaignID, a.ContactID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, internal.NewInternalError("failed to update appointment", err)
	}
	return s.load(ctx, id)
}

func (s *Service) Delete(ctx context.Context, p *auth.Principal, id string) error {
	a, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeWrite(ctx, p, a); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return internal.ErrAppointmentNotFound
		}
		return internal.NewInternalError("failed to delete appointment", err)
	}

	s.logger.InfoContext(ctx, "appointment deleted", "appointment_id", id, "user_id", p.UserID)
	return nil
}
