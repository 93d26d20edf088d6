package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	campaignDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/campaign"
	employeeDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/employee"
	userDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/user"
	"github.com/frahmantamala/dialer-dashboard/internal/core/permission"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

// NewRepository serves the auth flows, the ABAC assignment lookups and the campaign gate.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var (
	_ auth.Repository      = (*Repository)(nil)
	_ auth.AssignmentStore = (*Repository)(nil)
	_ auth.CampaignLookup  = (*Repository)(nil)
)

func (r *Repository) FindCredentials(ctx context.Context, login string) (*auth.Credentials, error) {
	var u userDatamodel.User
	login = strings.TrimSpace(login)
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ? OR username = ?", strings.ToLower(login), login).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}
	return &auth.Credentials{
		UserID:       u.ID,
		PasswordHash: u.PasswordHash,
		Status:       auth.UserStatus(u.Status),
	}, nil
}

func (r *Repository) LoadPrincipal(ctx context.Context, userID string) (*auth.Principal, error) {
	var u userDatamodel.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}

	p := &auth.Principal{
		UserID:   u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Username: u.Username,
		Role:     auth.Role(u.Role),
		Status:   auth.UserStatus(u.Status),
	}

	if p.IsAdmin() {
		p.AdminID = u.ID
		p.Permissions = permission.Full()
		return p, nil
	}

	var emp employeeDatamodel.Employee
	if err := r.db.WithContext(ctx).Where("user_id = ?", u.ID).First(&emp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// an employee user without a profile cannot act on any tenant
			p.Permissions = permission.Default()
			return p, nil
		}
		return nil, err
	}
	p.EmployeeID = emp.ID
	p.AdminID = emp.AdminID
	p.Permissions = emp.Permissions
	return p, nil
}

func (r *Repository) CreateRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Create(&userDatamodel.RefreshToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
	}).Error
}

func (r *Repository) FindRefreshToken(ctx context.Context, tokenHash string) (*auth.RefreshTokenRecord, error) {
	var t userDatamodel.RefreshToken
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}
	return &auth.RefreshTokenRecord{
		ID:        t.ID,
		UserID:    t.UserID,
		ExpiresAt: t.ExpiresAt,
		Revoked:   t.Revoked,
	}, nil
}

// RotateRefreshToken revokes oldID and links it to the newly stored token.
func (r *Repository) RotateRefreshToken(ctx context.Context, oldID, userID, newHash string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next := &userDatamodel.RefreshToken{UserID: userID, TokenHash: newHash, ExpiresAt: expiresAt}
		if err := tx.Create(next).Error; err != nil {
			return err
		}
		res := tx.Model(&userDatamodel.RefreshToken{}).
			Where("id = ? AND revoked = ?", oldID, false).
			Updates(map[string]interface{}{"revoked": true, "replaced_by": next.ID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// lost a race with another rotation of the same token
			return auth.ErrNotFound
		}
		return nil
	})
}

func (r *Repository) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Model(&userDatamodel.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error
}

func (r *Repository) AssignedCampaignIDs(ctx context.Context, employeeID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&employeeDatamodel.CampaignEmployee{}).
		Where("employee_id = ?", employeeID).
		Pluck("campaign_id", &ids).Error
	return ids, err
}

func (r *Repository) IsAssigned(ctx context.Context, employeeID, campaignID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&employeeDatamodel.CampaignEmployee{}).
		Where("employee_id = ? AND campaign_id = ?", employeeID, campaignID).
		Count(&n).Error
	return n > 0, err
}

func (r *Repository) ContactInCampaigns(ctx context.Context, contactID string, campaignIDs []string) (bool, error) {
	if len(campaignIDs) == 0 {
		return false, nil
	}
	var n int64
	err := r.db.WithContext(ctx).Model(&campaignDatamodel.CampaignContact{}).
		Where("contact_id = ? AND campaign_id IN ?", contactID, campaignIDs).
		Count(&n).Error
	return n > 0, err
}

func (r *Repository) FindCampaignRef(ctx context.Context, campaignID string) (*auth.CampaignRef, error) {
	var c campaignDatamodel.Campaign
	err := r.db.WithContext(ctx).Select("id", "admin_id").Where("id = ?", campaignID).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &auth.CampaignRef{ID: c.ID, AdminID: c.AdminID}, nil
}
