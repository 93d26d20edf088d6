package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/core/permission"
	"github.com/frahmantamala/dialer-dashboard/internal/transport"
	"github.com/go-chi/chi"
)

// AssignmentStore answers the campaign-assignment questions the policy asks about employees.
type AssignmentStore interface {
	AssignedCampaignIDs(ctx context.Context, employeeID string) ([]string, error)
	IsAssigned(ctx context.Context, employeeID, campaignID string) (bool, error)
	ContactInCampaigns(ctx context.Context, contactID string, campaignIDs []string) (bool, error)
}

// ContactRef is the part of a contact the policy looks at.
type ContactRef struct {
	ID      string
	AdminID string
}

// CampaignRef is the part of a campaign the policy looks at.
type CampaignRef struct {
	ID      string
	AdminID string
}

// ContactScope restricts contact queries. When Assigned is set only contacts
// linked to CampaignIDs are visible, otherwise every contact of AdminID is.
type ContactScope struct {
	AdminID     string
	Assigned    bool
	CampaignIDs []string
}

// CampaignScope restricts campaign-owned data (call logs, appointments) the same way.
type CampaignScope struct {
	AdminID     string
	Assigned    bool
	CampaignIDs []string
}

// ABACPolicy decides access from the principal's role, tenant, matrix and assignments.
type ABACPolicy struct {
	store  AssignmentStore
	logger *slog.Logger
}

func NewABACPolicy(store AssignmentStore, logger *slog.Logger) *ABACPolicy {
	return &ABACPolicy{store: store, logger: logger}
}

func contactDenied(action permission.Action) *internal.AppError {
	return internal.NewForbiddenError(fmt.Sprintf("You don't have permission to %s contacts", action), internal.ErrCodePermissionDenied)
}

var errContactForbidden = internal.NewForbiddenError("You don't have access to this contact", internal.ErrCodePermissionDenied)

func campaignDenied(action permission.Action) *internal.AppError {
	return internal.NewForbiddenError(fmt.Sprintf("No permission to %s campaigns", action), internal.ErrCodePermissionDenied)
}

func (p *ABACPolicy) ContactScope(ctx context.Context, u *Principal) (ContactScope, error) {
	scope := ContactScope{AdminID: u.TenantID()}
	if u.IsAdmin() || u.Permissions.ContactAccess() == permission.AccessAll {
		return scope, nil
	}
	ids, err := p.store.AssignedCampaignIDs(ctx, u.EmployeeID)
	if err != nil {
		return ContactScope{}, internal.NewInternalError("failed to load campaign assignments", err)
	}
	scope.Assigned = true
	scope.CampaignIDs = ids
	return scope, nil
}

// CampaignScope lists the campaigns whose data the principal may read. Employees
// need one of the given flags and only see campaigns they are assigned to.
func (p *ABACPolicy) CampaignScope(ctx context.Context, u *Principal, resource permission.Resource, action permission.Action) (CampaignScope, error) {
	scope := CampaignScope{AdminID: u.TenantID()}
	if u.IsAdmin() {
		return scope, nil
	}
	if !u.Can(resource, action) {
		return CampaignScope{}, internal.NewForbiddenError(fmt.Sprintf("No permission to %s %s", action, resource), internal.ErrCodePermissionDenied)
	}
	ids, err := p.store.AssignedCampaignIDs(ctx, u.EmployeeID)
	if err != nil {
		return CampaignScope{}, internal.NewInternalError("failed to load campaign assignments", err)
	}
	scope.Assigned = true
	scope.CampaignIDs = ids
	return scope, nil
}

// AuthorizeContact applies the contact rules in order: matrix flag, existence,
// tenant, then campaign assignment for employees limited to ASSIGNED access.
func (p *ABACPolicy) AuthorizeContact(ctx context.Context, u *Principal, c *ContactRef, action permission.Action) error {
	if !u.IsAdmin() && !u.Permissions.Allows(permission.ResourceContacts, action) {
		p.logger.WarnContext(ctx, "contact access denied: missing permission", "user_id", u.UserID, "action", action)
		return contactDenied(action)
	}
	if c == nil {
		return internal.ErrContactNotFound
	}
	if c.AdminID != u.TenantID() {
		p.logger.WarnContext(ctx, "contact access denied: other tenant", "user_id", u.UserID, "contact_id", c.ID)
		return errContactForbidden
	}
	if u.IsAdmin() || u.Permissions.ContactAccess() == permission.AccessAll {
		return nil
	}

	ids, err := p.store.AssignedCampaignIDs(ctx, u.EmployeeID)
	if err != nil {
		return internal.NewInternalError("failed to load campaign assignments", err)
	}
	if len(ids) == 0 {
		return errContactForbidden
	}
	linked, err := p.store.ContactInCampaigns(ctx, c.ID, ids)
	if err != nil {
		return internal.NewInternalError("failed to check contact assignment", err)
	}
	if !linked {
		p.logger.WarnContext(ctx, "contact access denied: not in assigned campaigns", "user_id", u.UserID, "contact_id", c.ID)
		return errContactForbidden
	}
	return nil
}

// AuthorizeCampaign hides campaigns of other tenants and unassigned campaigns behind 404.
func (p *ABACPolicy) AuthorizeCampaign(ctx context.Context, u *Principal, c *CampaignRef, action permission.Action) error {
	if c == nil || c.AdminID != u.TenantID() {
		return internal.ErrCampaignNotFound
	}
	if u.IsAdmin() {
		return nil
	}
	if !u.Permissions.Allows(permission.ResourceCampaigns, action) {
		p.logger.WarnContext(ctx, "campaign access denied: missing permission", "user_id", u.UserID, "action", action)
		return campaignDenied(action)
	}
	assigned, err := p.store.IsAssigned(ctx, u.EmployeeID, c.ID)
	if err != nil {
		return internal.NewInternalError("failed to check campaign assignment", err)
	}
	if !assigned {
		return internal.ErrCampaignNotFound
	}
	return nil
}

// RequireABAC is a generic middleware wrapper that runs an ABAC check function.
func RequireABAC(abac *ABACPolicy, check func(ctx context.Context, a *ABACPolicy, u *Principal, r *http.Request) error) func(next http.Handler) http.Handler {
	base := transport.NewBaseHandler(abac.logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				base.WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if err := check(r.Context(), abac, u, r); err != nil {
				if !errors.Is(err, internal.ErrCampaignNotFound) {
					abac.logger.WarnContext(r.Context(), "abac check failed", "user_id", u.UserID, "error", err)
				}
				base.HandleError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CampaignLookup resolves the {id} URL parameter. A missing campaign is (nil, nil).
type CampaignLookup interface {
	FindCampaignRef(ctx context.Context, campaignID string) (*CampaignRef, error)
}

// RequireCampaignView gates every /campaigns/{id} route on view access to that campaign.
func RequireCampaignView(abac *ABACPolicy, lookup CampaignLookup) func(next http.Handler) http.Handler {
	return RequireABAC(abac, func(ctx context.Context, a *ABACPolicy, u *Principal, r *http.Request) error {
		ref, err := lookup.FindCampaignRef(ctx, chi.URLParam(r, "id"))
		if err != nil {
			return internal.NewInternalError("failed to load campaign", err)
		}
		return a.AuthorizeCampaign(ctx, u, ref, permission.ActionView)
	})
}
