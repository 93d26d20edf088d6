package calllog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	"github.com/frahmantamala/dialer-dashboard/internal/core/permission"
)

type Repository interface {
	List(ctx context.Context, f Filter) ([]*CallLog, error)
	// Get loads the log with its campaign, contact and appointment summaries.
	Get(ctx context.Context, id string) (*CallLog, error)
	// CampaignRef returns (nil, nil) for an unknown campaign.
	CampaignRef(ctx context.Context, campaignID string) (*auth.CampaignRef, error)
	// ContactAdminID returns "" for an unknown contact.
	ContactAdminID(ctx context.Context, contactID string) (string, error)
	Create(ctx context.Context, c *CallLog) error
	Update(ctx context.Context, c *CallLog) error
	Delete(ctx context.Context, id string) error
}

type Policy interface {
	CampaignScope(ctx context.Context, u *auth.Principal, resource permission.Resource, action permission.Action) (auth.CampaignScope, error)
	AuthorizeCampaign(ctx context.Context, u *auth.Principal, c *auth.CampaignRef, action permission.Action) error
}

var (
	errContactNotFound = internal.NewNotFoundError("Contact not found or unauthorized", internal.ErrCodeContactNotFound)
	errDuplicateSid    = internal.NewConflictError("Call log with this call SID already exists", internal.ErrCodeDuplicateCallSid)
)

type Service struct {
	repo   Repository
	policy Policy
	logger *slog.Logger
}

func NewService(repo Repository, policy Policy, logger *slog.Logger) *Service {
	return &Service{repo: repo, policy: policy, logger: logger}
}

func visible(scope auth.CampaignScope, c *CallLog) bool {
	if c.AdminID() != scope.AdminID {
		return false
	}
	if !scope.Assigned {
		return true
	}
	for _, id := range scope.CampaignIDs {
		if id == c.CampaignID {
			return true
		}
	}
	return false
}

func (s *Service) List(ctx context.Context, p *auth.Principal, q ListQuery) ([]*CallLog, error) {
	scope, err := s.policy.CampaignScope(ctx, p, permission.ResourceCallLogs, permission.ActionView)
	if err != nil {
		return nil, err
	}
	if scope.Assigned && len(scope.CampaignIDs) == 0 {
		return []*CallLog{}, nil
	}

	logs, err := s.repo.List(ctx, Filter{
		Scope:      scope,
		CampaignID: q.CampaignID,
		ContactID:  q.ContactID,
		StartDate:  q.StartDate,
		EndDate:    q.EndDate,
	})
	if err != nil {
		return nil, internal.NewInternalError("failed to fetch call logs", err)
	}
	return logs, nil
}

func (s *Service) load(ctx context.Context, id string) (*CallLog, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrCallLogNotFound
		}
		return nil, internal.NewInternalError("failed to fetch call log", err)
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id string) (*CallLog, error) {
	scope, err := s.policy.CampaignScope(ctx, p, permission.ResourceCallLogs, permission.ActionView)
	if err != nil {
		return nil, err
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visible(scope, c) {
		return nil, internal.ErrCallLogNotFound
	}
	return c, nil
}

// authorizeWrite requires edit access to the log's campaign and hides anything else behind 404.
func (s *Service) authorizeWrite(ctx context.Context, p *auth.Principal, c *CallLog) error {
	err := s.policy.AuthorizeCampaign(ctx, p, &auth.CampaignRef{ID: c.CampaignID, AdminID: c.AdminID()}, permission.ActionEdit)
	if errors.Is(err, internal.ErrCampaignNotFound) {
		return internal.ErrCallLogNotFound
	}
	return err
}

func (s *Service) Create(ctx context.Context, p *auth.Principal, dto CreateCallLogDTO) (*CallLog, error) {
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

	c := &CallLog{
		CampaignID:   dto.CampaignID,
		ContactID:    dto.ContactID,
		CallSid:      dto.CallSid,
		Status:       dto.Status,
		Duration:     dto.Duration,
		RecordingURL: dto.RecordingURL,
		TranscriptID: dto.TranscriptID,
		StartedAt:    dto.StartedAt,
		EndedAt:      dto.EndedAt,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, ErrDuplicateCallSid) {
			return nil, errDuplicateSid
		}
		return nil, internal.NewInternalError("failed to create call log", err)
	}

	s.logger.InfoContext(ctx, "call log created", "call_log_id", c.ID, "call_sid", c.CallSid, "campaign_id", c.CampaignID)
	return s.load(ctx, c.ID)
}

func (s *Service) Update(ctx context.Context, p *auth.Principal, id string, dto UpdateCallLogDTO) (*CallLog, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(ctx, p, c); err != nil {
		return nil, err
	}
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	dto.apply(c)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, internal.NewInternalError("failed to update call log", err)
	}
	return s.load(ctx, id)
}

func (s *Service) Delete(ctx context.Context, p *auth.Principal, id string) error {
	c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeWrite(ctx, p, c); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return internal.ErrCallLogNotFound
		}
		return internal.NewInternalError("failed to delete call log", err)
	}

	s.logger.InfoContext(ctx, "call log deleted", "call_log_id", id, "user_id", p.UserID)
	return nil
}
