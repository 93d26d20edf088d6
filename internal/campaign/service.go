package campaign

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/appointment"
	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	"github.com/frahmantamala/dialer-dashboard/internal/contact"
	"github.com/frahmantamala/dialer-dashboard/internal/core/permission"
	"github.com/frahmantamala/dialer-dashboard/internal/transport"
	"github.com/google/uuid"
)

const (
	defaultAppointmentLimit = 50
	maxAppointmentLimit     = 200

	calendarSlot = 30 * time.Minute
)

type Repository interface {
	List(ctx context.Context, scope auth.CampaignScope) ([]*Campaign, error)
	// Get loads the campaign with its admin summary and contact links.
	Get(ctx context.Context, id string) (*Campaign, error)
	// Create inserts the campaign and, when employeeID is set, assigns that employee.
	Create(ctx context.Context, c *Campaign, employeeID string) error
	Update(ctx context.Context, c *Campaign) error
	UpdateMessages(ctx context.Context, id string, m UpdateMessagesDTO) (Messages, error)
	// Delete removes the campaign with its links, assignments, calls and appointments.
	Delete(ctx context.Context, id string) error

	Employees(ctx context.Context, campaignID string) ([]AssignedEmployee, error)
	EmployeeAdminID(ctx context.Context, employeeID string) (string, error)
	Assign(ctx context.Context, campaignID, employeeID string) error
	Unassign(ctx context.Context, campaignID, employeeID string) error

	Members(ctx context.Context, campaignID string) ([]*Member, error)
	Member(ctx context.Context, campaignID, contactID string) (*Member, error)
	GetContact(ctx context.Context, id string) (*contact.Contact, error)
	// ContactByPhone returns (nil, nil) when the tenant has no such phone.
	ContactByPhone(ctx context.Context, adminID, phone string) (*contact.Contact, error)
	// Link reports whether a new link was created.
	Link(ctx context.Context, campaignID, contactID string) (bool, error)
	CreateAndLink(ctx context.Context, campaignID string, c *contact.Contact) error
	Unlink(ctx context.Context, campaignID, contactID string) error

	Leads(ctx context.Context, campaignID string) ([]*Lead, error)
	StatsInput(ctx context.Context, campaignID string) (StatsInput, error)
	// Appointments pages when f.Limit > 0.
	Appointments(ctx context.Context, f AppointmentFilter) ([]AppointmentItem, int64, error)

	ScheduledCalls(ctx context.Context, campaignID string, from, to *time.Time) ([]*ScheduledCall, error)
	CreateScheduledCall(ctx context.Context, sc *ScheduledCall) error
	GetScheduledCall(ctx context.Context, id string) (*ScheduledCall, error)
	// CancelScheduledCall reports false when the call is no longer pending.
	CancelScheduledCall(ctx context.Context, id string) (bool, error)
}

type Policy interface {
	CampaignScope(ctx context.Context, u *auth.Principal, resource permission.Resource, action permission.Action) (auth.CampaignScope, error)
	AuthorizeCampaign(ctx context.Context, u *auth.Principal, c *auth.CampaignRef, action permission.Action) error
}

var (
	ErrCallNotFound = errors.New("scheduled call not found")

	errNoCreate       = internal.NewForbiddenError("No permission to create campaigns", internal.ErrCodePermissionDenied)
	errAdminOnly      = internal.NewForbiddenError("Only admins can assign employees", internal.ErrCodeAdminOnly)
	errNotLinked      = internal.NewNotFoundError("Contact not found in campaign", internal.ErrCodeContactNotFound)
	errNotAssigned    = internal.NewNotFoundError("Employee is not assigned to this campaign", internal.ErrCodeEmployeeNotFound)
	errScheduleLink   = internal.NewValidationError("Contact is not linked to this campaign", internal.ErrCodeInvalidRequest)
	errContactBlocked = internal.NewValidationError("Contact is blocked", internal.ErrCodeContactBlocked)
	errNotPending     = internal.NewValidationError("Only pending calls can be cancelled", internal.ErrCodeInvalidStatus)
	errInvalidStatus  = internal.NewValidationError("Invalid status", internal.ErrCodeInvalidStatus)
	errNoContactPerm  = internal.NewForbiddenError("You don't have permission to create contacts", internal.ErrCodePermissionDenied)

	ErrDatesRequired = internal.NewValidationError("Start and end dates are required", internal.ErrCodeInvalidDate)
)

type Service struct {
	repo   Repository
	policy Policy
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, policy Policy, logger *slog.Logger) *Service {
	return &Service{repo: repo, policy: policy, logger: logger, now: time.Now}
}

// WithClock replaces the time source used for statistics.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// campaign loads id and checks the principal may perform action on it.
func (s *Service) campaign(ctx context.Context, p *auth.Principal, id string, action permission.Action) (*Campaign, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, internal.NewInternalError("failed to fetch campaign", err)
	}
	if err := s.policy.AuthorizeCampaign(ctx, p, c.Ref(), action); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, p *auth.Principal) ([]*Campaign, error) {
	scope, err := s.policy.CampaignScope(ctx, p, permission.ResourceCampaigns, permission.ActionView)
	if err != nil {
		return nil, err
	}
	if scope.Assigned && len(scope.CampaignIDs) == 0 {
		return []*Campaign{}, nil
	}
	campaigns, err := s.repo.List(ctx, scope)
	if err != nil {
		return nil, internal.NewInternalError("failed to fetch campaigns", err)
	}
	return campaigns, nil
}

func (s *Service) Create(ctx context.Context, p *auth.Principal, dto CreateCampaignDTO) (*Campaign, error) {
	if !p.Can(permission.ResourceCampaigns, permission.ActionCreate) {
		return nil, errNoCreate
	}
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	c := &Campaign{
		Name:        dto.Name,
		Description: dto.Description,
		StartDate:   dto.StartDate,
		EndDate:     dto.EndDate,
		Status:      StatusActive,
		Settings:    dto.Settings,
		AdminID:     p.TenantID(),
	}
	if c.Settings == nil {
		c.Settings = map[string]interface{}{}
	}

	employeeID := ""
	if p.IsEmployee() {
		employeeID = p.EmployeeID
	}
	if err := s.repo.Create(ctx, c, employeeID); err != nil {
		return nil, internal.NewInternalError("failed to create campaign", err)
	}

	s.logger.InfoContext(ctx, "campaign created", "campaign_id", c.ID, "admin_id", c.AdminID, "user_id", p.UserID)
	return s.repo.Get(ctx, c.ID)
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id string) (*Campaign, error) {
	return s.campaign(ctx, p, id, permission.ActionView)
}

func (s *Service) Update(ctx context.Context, p *auth.Principal, id string, dto UpdateCampaignDTO) (*Campaign, error) {
	c, err := s.campaign(ctx, p, id, permission.ActionEdit)
	if err != nil {
		return nil, err
	}
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}
	if appErr := dto.apply(c); appErr != nil {
		return nil, appErr
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, internal.NewInternalError("failed to update campaign", err)
	}

	s.logger.InfoContext(ctx, "campaign updated", "campaign_id", id, "status", c.Status)
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, p *auth.Principal, id string) error {
	if _, err := s.campaign(ctx, p, id, permission.ActionDelete); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return internal.ErrCampaignNotFound
		}
		return internal.NewInternalError("failed to delete campaign", err)
	}

	s.logger.InfoContext(ctx, "campaign deleted", "campaign_id", id, "user_id", p.UserID)
	return nil
}

func (s *Service) Messages(ctx context.Context, p *auth.Principal, id string) (Messages, error) {
	c, err := s.campaign(ctx, p, id, permission.ActionView)
	if err != nil {
		return Messages{}, err
	}
	return Messages{SystemMessage: c.SystemMessage, InitialMessage: c.InitialMessage}, nil
}

func (s *Service) UpdateMessages(ctx context.Context, p *auth.Principal, id string, dto UpdateMessagesDTO) (Messages, error) {
	if _, err := s.campaign(ctx, p, id, permission.ActionEdit); err != nil {
		return Messages{}, err
	}
	m, err := s.repo.UpdateMessages(ctx, id, dto)
	if err != nil {
		return Messages{}, internal.NewInternalError("failed to update campaign settings", err)
	}
	return m, nil
}

func (s *Service) Employees(ctx context.Context, p *auth.Principal, id string) ([]AssignedEmployee, error) {
	if _, err := s.campaign(ctx, p, id, permission.ActionView); err != nil {
		return nil, err
	}
	employees, err := s.repo.Employees(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to fetch campaign employees", err)
	}
	return employees, nil
}

// AssignEmployee is idempotent and returns the campaign's assignments afterwards.
func (s *Service) AssignEmployee(ctx context.Context, p *auth.Principal, id string, dto AssignEmployeeDTO) ([]AssignedEmployee, error) {
	if !p.IsAdmin() {
		return nil, errAdminOnly
	}
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}
	c, err := s.campaign(ctx, p, id, permission.ActionEdit)
	if err != nil {
		return nil, err
	}
	adminID, err := s.repo.EmployeeAdminID(ctx, dto.EmployeeID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load employee", err)
	}
	if adminID == "" || adminID != c.AdminID {
		return nil, internal.ErrEmployeeNotFound
	}
	if err := s.repo.Assign(ctx, id, dto.EmployeeID); err != nil {
		return nil, internal.NewInternalError("failed to assign employee", err)
	}

	s.logger.InfoContext(ctx, "employee assigned", "campaign_id", id, "employee_id", dto.EmployeeID)
	return s.Employees(ctx, p, id)
}

func (s *Service) UnassignEmployee(ctx context.Context, p *auth.Principal, id, employeeID string) error {
	if !p.IsAdmin() {
		return errAdminOnly
	}
	if _, err := s.campaign(ctx, p, id, permission.ActionEdit); err != nil {
		return err
	}
	if err := s.repo.Unassign(ctx, id, employeeID); err != nil {
		if errors.Is(err, ErrNotAssigned) {
			return errNotAssigned
		}
		return internal.NewInternalError("failed to unassign employee", err)
	}
	return nil
}

func (s *Service) Contacts(ctx context.Context, p *auth.Principal, id string) ([]*Member, error) {
	if _, err := s.campaign(ctx, p, id, permission.ActionView); err != nil {
		return nil, err
	}
	members, err := s.repo.Members(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to fetch campaign contacts", err)
	}
	return members, nil
}

// AddContact links an existing contact or creates and links a new one.
// created is true only when a new contact was inserted.
func (s *Service) AddContact(ctx context.Context, p *auth.Principal, id string, dto AddContactDTO) (member *Member, created bool, err error) {
	c, err := s.campaign(ctx, p, id, permission.ActionEdit)
	if err != nil {
		return nil, false, err
	}

	var target *contact.Contact
	if dto.ContactID != "" {
		target, err = s.repo.GetContact(ctx, dto.ContactID)
		if err != nil && !errors.Is(err, contact.ErrNotFound) {
			return nil, false, internal.NewInternalError("failed to load contact", err)
		}
		if target == nil || target.AdminID != c.AdminID {
			return nil, false, internal.ErrContactNotFound
		}
	} else {
		dto.CreateContactDTO.Normalize()
		if appErr := dto.CreateContactDTO.Validate(); appErr != nil {
			return nil, false, appErr
		}
		target, err = s.repo.ContactByPhone(ctx, c.AdminID, dto.Phone)
		if err != nil {
			return nil, false, internal.NewInternalError("failed to check phone number", err)
		}
	}

	if target == nil {
		if !p.Can(permission.ResourceContacts, permission.ActionCreate) {
			return nil, false, errNoContactPerm
		}
		target = &contact.Contact{
			ID:           uuid.NewString(),
			Name:         dto.Name,
			Phone:        dto.Phone,
			Email:        dto.Email,
			Tags:         dto.Tags,
			CustomFields: dto.CustomFields,
			Status:       dto.Status,
			AdminID:      c.AdminID,
		}
		if target.CustomFields == nil {
			target.CustomFields = map[string]interface{}{}
		}
		if err := s.repo.CreateAndLink(ctx, id, target); err != nil {
			return nil, false, internal.NewInternalError("failed to create campaign contact", err)
		}
		created = true
		s.logger.InfoContext(ctx, "contact created in campaign", "campaign_id", id, "contact_id", target.ID)
	} else if _, err := s.repo.Link(ctx, id, target.ID); err != nil {
		return nil, false, internal.NewInternalError("failed to link contact", err)
	}

	member, err = s.repo.Member(ctx, id, target.ID)
	if err != nil {
		return nil, false, internal.NewInternalError("failed to load campaign contact", err)
	}
	return member, created, nil
}

func (s *Service) RemoveContact(ctx context.Context, p *auth.Principal, id, contactID string) error {
	if _, err := s.campaign(ctx, p, id, permission.ActionEdit); err != nil {
		return err
	}
	if err := s.repo.Unlink(ctx, id, contactID); err != nil {
		if errors.Is(err, ErrNotLinked) {
			return errNotLinked
		}
		return internal.NewInternalError("failed to remove contact from campaign", err)
	}

	s.logger.InfoContext(ctx, "contact removed from campaign", "campaign_id", id, "contact_id", contactID)
	return nil
}

func (s *Service) Leads(ctx context.Context, p *auth.Principal, id string) ([]*Lead, error) {
	if _, err := s.campaign(ctx, p, id, permission.ActionView); err != nil {
		return nil, err
	}
	leads, err := s.repo.Leads(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to fetch campaign leads", err)
	}
	return leads, nil
}

func (s *Service) Stats(ctx context.Context, p *auth.Principal, id string) (*Stats, error) {
	if _, err := s.campaign(ctx, p, id, permission.ActionView); err != nil {
		return nil, err
	}
	in, err := s.repo.StatsInput(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to fetch campaign stats", err)
	}
	stats := ComputeStats(s.now(), in)
	return &stats, nil
}

func (s *Service) Appointments(ctx context.Context, p *auth.Principal, id string, q AppointmentQuery) (*AppointmentPage, error) {
	if _, err := s.campaign(ctx, p, id, permission.ActionView); err != nil {
		return nil, err
	}
	if q.Status != "" && !validAppointmentStatus(q.Status) {
		return nil, errInvalidStatus
	}
	if q.Page < 1 {
		q.Page = 1
	}
	switch {
	case q.Limit < 1:
		q.Limit = defaultAppointmentLimit
	case q.Limit > maxAppointmentLimit:
		q.Limit = maxAppointmentLimit
	}

	items, total, err := s.repo.Appointments(ctx, AppointmentFilter{
		CampaignID: id,
		Status:     q.Status,
		StartDate:  q.StartDate,
		EndDate:    q.EndDate,
		Page:       q.Page,
		Limit:      q.Limit,
	})
	if err != nil {
		return nil, internal.NewInternalError("failed to fetch appointments", err)
	}
	return &AppointmentPage{Data: items, Pagination: transport.NewPagination(total, q.Page, q.Limit)}, nil
}

func validAppointmentStatus(status string) bool {
	for _, s := range appointment.Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// CalendarEvents returns appointments and live scheduled calls between start and end as 30 minute slots.
func (s *Service) CalendarEvents(ctx context.Context, p *auth.Principal, id string, start, end time.Time) ([]CalendarEvent, error) {
	if _, err := s.campaign(ctx, p, id, permission.ActionView); err != nil {
		return nil, err
	}

	appts, _, err := s.repo.Appointments(ctx, AppointmentFilter{CampaignID: id, StartDate: &start, EndDate: &end})
	if err != nil {
		return nil, internal.NewInternalError("failed to fetch appointments", err)
	}
	calls, err := s.repo.ScheduledCalls(ctx, id, &start, &end)
	if err != nil {
		return nil, internal.NewInternalError("failed to fetch scheduled calls", err)
	}

	events := make([]CalendarEvent, 0, len(appts)+len(calls))
	for _, a := range appts {
		events = append(events, CalendarEvent{
			ID:              a.ID,
			Title:           a.Title,
			Start:           a.Start,
			End:             a.Start.Add(calendarSlot),
			Type:            "appointment",
			PhoneNumber:     a.Contact.Phone,
			BackgroundColor: "#10B981",
			BorderColor:     "#059669",
		})
	}
	for _, c := range calls {
		if c.Status == CallCancelled {
			continue
		}
		events = append(events, CalendarEvent{
			ID:              c.ID,
			Title:           "Scheduled Call: " + c.Phone,
			Start:           c.ScheduledAt,
			End:             c.ScheduledAt.Add(calendarSlot),
			Type:            "scheduled_call",
			PhoneNumber:     c.Phone,
			BackgroundColor: "#6366F1",
			BorderColor:     "#4F46E5",
		})
	}
	return events, nil
}

func (s *Service) ScheduledCalls(ctx context.Context, p *auth.Principal, id string) ([]*ScheduledCall, error) {
	if _, err := s.campaign(ctx, p, id, permission.ActionView); err != nil {
		return nil, err
	}
	calls, err := s.repo.ScheduledCalls(ctx, id, nil, nil)
	if err != nil {
		return nil, internal.NewInternalError("failed to fetch scheduled calls", err)
	}
	return calls, nil
}

func (s *Service) ScheduleCall(ctx context.Context, p *auth.Principal, id string, dto ScheduleCallDTO) (*ScheduledCall, error) {
	if _, err := s.campaign(ctx, p, id, permission.ActionEdit); err != nil {
		return nil, err
	}
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	member, err := s.repo.Member(ctx, id, dto.ContactID)
	if err != nil {
		if errors.Is(err, ErrNotLinked) {
			return nil, errScheduleLink
		}
		return nil, internal.NewInternalError("failed to load campaign contact", err)
	}
	if member.Status == contact.StatusBlocked || member.Campaign.Status == contact.StatusBlocked {
		return nil, errContactBlocked
	}

	sc := &ScheduledCall{
		CampaignID:  id,
		ContactID:   dto.ContactID,
		Phone:       member.Phone,
		ScheduledAt: dto.ScheduledAt.UTC(),
		Status:      CallPending,
	}
	if err := s.repo.CreateScheduledCall(ctx, sc); err != nil {
		return nil, internal.NewInternalError("failed to schedule call", err)
	}

	s.logger.InfoContext(ctx, "call scheduled", "campaign_id", id, "contact_id", dto.ContactID, "scheduled_at", sc.ScheduledAt)
	return sc, nil
}

func (s *Service) CancelScheduledCall(ctx context.Context, p *auth.Principal, id, callID string) error {
	if _, err := s.campaign(ctx, p, id, permission.ActionEdit); err != nil {
		return err
	}
	sc, err := s.repo.GetScheduledCall(ctx, callID)
	if err != nil && !errors.Is(err, ErrCallNotFound) {
		return internal.NewInternalError("failed to load scheduled call", err)
	}
	if sc == nil || sc.CampaignID != id {
		return internal.ErrScheduleNotFound
	}
	ok, err := s.repo.CancelScheduledCall(ctx, callID)
	if err != nil {
		return internal.NewInternalError("failed to cancel scheduled call", err)
	}
	if !ok {
		return errNotPending
	}
	return nil
}
