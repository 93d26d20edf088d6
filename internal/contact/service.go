package contact

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	"github.com/frahmantamala/dialer-dashboard/internal/core/events"
	"github.com/frahmantamala/dialer-dashboard/internal/core/permission"
	"github.com/google/uuid"
)

type Repository interface {
	List(ctx context.Context, f ListFilter) ([]*Contact, int64, error)
	Get(ctx context.Context, id string) (*Contact, error)
	PhoneTaken(ctx context.Context, adminID, phone, exceptID string) (bool, error)
	Create(ctx context.Context, c *Contact) error
	Update(ctx context.Context, c *Contact) error
	// Delete removes the contact with its tags, campaign links and call history.
	Delete(ctx context.Context, id string) error
	// Import inserts rows whose phone is new for the tenant and, when campaignID
	// is set, links every imported or existing contact to that campaign.
	Import(ctx context.Context, adminID, campaignID string, rows []*Contact) (ImportStats, error)
}

// Policy is the part of the access policy contacts rely on.
type Policy interface {
	ContactScope(ctx context.Context, u *auth.Principal) (auth.ContactScope, error)
	AuthorizeContact(ctx context.Context, u *auth.Principal, c *auth.ContactRef, action permission.Action) error
}

var (
	errNoViewPermission = internal.NewForbiddenError("No permission to view contacts", internal.ErrCodePermissionDenied)
	errPhoneExists      = internal.NewConflictError("Phone number already exists", internal.ErrCodeDuplicatePhone)
	errPhoneTaken       = internal.NewConflictError("Phone number already taken by another contact", internal.ErrCodeDuplicatePhone)
	errIDRequired       = internal.NewValidationError("Contact ID is required", internal.ErrCodeInvalidRequest)
	errImportInvalid    = internal.NewValidationError("Validation failed", internal.ErrCodeValidationFailed)
	errUnreadableCSV    = internal.NewValidationError("Invalid CSV file", internal.ErrCodeInvalidRequest)
)

func denied(action permission.Action) *internal.AppError {
	return internal.NewForbiddenError("You don't have permission to "+string(action)+" contacts", internal.ErrCodePermissionDenied)
}

type Service struct {
	repo      Repository
	policy    Policy
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, policy Policy, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{repo: repo, policy: policy, publisher: publisher, logger: logger}
}

func (s *Service) List(ctx context.Context, p *auth.Principal, q ListQuery) (*ListResult, error) {
	if !p.Can(permission.ResourceContacts, permission.ActionView) {
		return nil, errNoViewPermission
	}
	scope, err := s.policy.ContactScope(ctx, p)
	if err != nil {
		return nil, err
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	contacts, total, err := s.repo.List(ctx, ListFilter{
		Scope:  scope,
		Search: q.Search,
		Tags:   q.Tags,
		Page:   page,
		Limit:  PageSize,
	})
	if err != nil {
		return nil, internal.NewInternalError("failed to fetch contacts", err)
	}

	return &ListResult{
		Contacts: contacts,
		Pagination: Pagination{
			Total:      total,
			Page:       page,
			Limit:      PageSize,
			TotalPages: int((total + PageSize - 1) / PageSize),
		},
	}, nil
}

func (s *Service) Create(ctx context.Context, p *auth.Principal, dto CreateContactDTO) (*Contact, error) {
	if !p.Can(permission.ResourceContacts, permission.ActionCreate) {
		return nil, denied(permission.ActionCreate)
	}
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	adminID := p.TenantID()
	taken, err := s.repo.PhoneTaken(ctx, adminID, dto.Phone, "")
	if err != nil {
		return nil, internal.NewInternalError("failed to check phone number", err)
	}
	if taken {
		return nil, errPhoneExists
	}

	c := &Contact{
		ID:           uuid.NewString(),
		Name:         dto.Name,
		Phone:        dto.Phone,
		Email:        dto.Email,
		Tags:         dto.Tags,
		CustomFields: dto.CustomFields,
		Status:       dto.Status,
		AdminID:      adminID,
	}
	if c.CustomFields == nil {
		c.CustomFields = map[string]interface{}{}
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, ErrDuplicatePhone) {
			return nil, errPhoneExists
		}
		return nil, internal.NewInternalError("failed to create contact", err)
	}

	s.logger.InfoContext(ctx, "contact created", "contact_id", c.ID, "admin_id", adminID)
	return c, nil
}

// load fetches a contact, mapping a missing row to (nil, nil) for the policy.
func (s *Service) load(ctx context.Context, id string) (*Contact, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, internal.NewInternalError("failed to load contact", err)
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, p *auth.Principal, id string, dto UpdateContactDTO) (*Contact, error) {
	if id == "" {
		return nil, errIDRequired
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.AuthorizeContact(ctx, p, current.Ref(), permission.ActionEdit); err != nil {
		return nil, err
	}

	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	if dto.Phone != nil && *dto.Phone != current.Phone {
		taken, err := s.repo.PhoneTaken(ctx, current.AdminID, *dto.Phone, current.ID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check phone number", err)
		}
		if taken {
			return nil, errPhoneTaken
		}
	}

	dto.apply(current)
	if err := s.repo.Update(ctx, current); err != nil {
		if errors.Is(err, ErrDuplicatePhone) {
			return nil, errPhoneTaken
		}
		return nil, internal.NewInternalError("failed to update contact", err)
	}

	s.logger.InfoContext(ctx, "contact updated", "contact_id", id, "user_id", p.UserID)
	return current, nil
}

func (s *Service) Delete(ctx context.Context, p *auth.Principal, id string) error {
	if id == "" {
		return errIDRequired
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.AuthorizeContact(ctx, p, current.Ref(), permission.ActionDelete); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return internal.ErrContactNotFound
		}
		return internal.NewInternalError("failed to delete contact", err)
	}

	s.logger.InfoContext(ctx, "contact deleted", "contact_id", id, "user_id", p.UserID)
	return nil
}

// Export writes every contact in the caller's scope as CSV, optionally limited to one campaign.
func (s *Service) Export(ctx context.Context, p *auth.Principal, w io.Writer, q ListQuery, campaignID string) error {
	if !p.Can(permission.ResourceContacts, permission.ActionExport) {
		return denied(permission.ActionExport)
	}
	scope, err := s.policy.ContactScope(ctx, p)
	if err != nil {
		return err
	}

	contacts, _, err := s.repo.List(ctx, ListFilter{
		Scope:      scope,
		Search:     q.Search,
		Tags:       q.Tags,
		CampaignID: campaignID,
	})
	if err != nil {
		return internal.NewInternalError("failed to export contacts", err)
	}
	return WriteCSV(w, contacts)
}

// Import loads contacts from CSV. Any invalid row rejects the whole file.
// With a campaignID every imported or already known contact is linked to it.
func (s *Service) Import(ctx context.Context, p *auth.Principal, r io.Reader, campaignID string) (*ImportResult, error) {
	if !p.Can(permission.ResourceContacts, permission.ActionImport) {
		return nil, denied(permission.ActionImport)
	}

	rows, invalid, err := ParseCSV(r)
	if err != nil {
		return nil, errUnreadableCSV.WithCause(err)
	}
	if len(invalid) > 0 {
		return nil, errImportInvalid.WithDetails(invalid)
	}

	adminID := p.TenantID()
	contacts := make([]*Contact, 0, len(rows))
	for _, row := range rows {
		contacts = append(contacts, &Contact{
			ID:           uuid.NewString(),
			Name:         row.Name,
			Phone:        row.Phone,
			Email:        row.Email,
			Tags:         row.Tags,
			CustomFields: map[string]interface{}{},
			Status:       StatusActive,
			AdminID:      adminID,
		})
	}

	stats, err := s.repo.Import(ctx, adminID, campaignID, contacts)
	if err != nil {
		return nil, internal.NewInternalError("failed to import contacts", err)
	}

	s.logger.InfoContext(ctx, "contacts imported",
		"admin_id", adminID,
		"campaign_id", campaignID,
		"imported", stats.Imported,
		"skipped", stats.Skipped)
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.NewContactsImportedEvent(adminID, campaignID, stats.Imported, stats.Skipped)); err != nil {
			s.logger.WarnContext(ctx, "failed to publish contacts.imported", "error", err)
		}
	}

	return &ImportResult{
		Message:  "Contacts imported successfully",
		Imported: stats.Imported,
		Skipped:  stats.Skipped,
		Linked:   stats.Linked,
	}, nil
}
