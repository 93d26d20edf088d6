package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	"github.com/frahmantamala/dialer-dashboard/internal/calllog"
	appointmentDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/appointment"
	calllogDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/calllog"
	campaignDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/campaign"
	contactDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/contact"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ calllog.Repository = (*Repository)(nil)

// row is a call log joined with its campaign and contact.
type row struct {
	calllogDatamodel.CallLog `gorm:"embedded"`
	CampaignAdminID          string
	CampaignName             string
	ContactName              *string
	ContactPhone             *string
}

func (r *Repository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("call_logs").
		Select("call_logs.*, campaigns.admin_id AS campaign_admin_id, campaigns.name AS campaign_name, contacts.name AS contact_name, contacts.phone AS contact_phone").
		Joins("JOIN campaigns ON campaigns.id = call_logs.campaign_id").
		Joins("LEFT JOIN contacts ON contacts.id = call_logs.contact_id")
}

func (r *Repository) List(ctx context.Context, f calllog.Filter) ([]*calllog.CallLog, error) {
	q := r.joined(ctx).Where("campaigns.admin_id = ?", f.Scope.AdminID)
	if f.Scope.Assigned {
		q = q.Where("call_logs.campaign_id IN ?", f.Scope.CampaignIDs)
	}
	if f.CampaignID != "" {
		q = q.Where("call_logs.campaign_id = ?", f.CampaignID)
	}
	if f.ContactID != "" {
		q = q.Where("call_logs.contact_id = ?", f.ContactID)
	}
	if f.StartDate != nil {
		q = q.Where("call_logs.created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("call_logs.created_at <= ?", *f.EndDate)
	}

	var rows []row
	if err := q.Order("call_logs.created_at DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return r.assemble(ctx, rows)
}

func (r *Repository) Get(ctx context.Context, id string) (*calllog.CallLog, error) {
	var rows []row
	if err := r.joined(ctx).Where("call_logs.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, calllog.ErrNotFound
	}
	logs, err := r.assemble(ctx, rows)
	if err != nil {
		return nil, err
	}
	return logs[0], nil
}

// assemble converts rows and attaches the appointment booked from each call, if any.
func (r *Repository) assemble(ctx context.Context, rows []row) ([]*calllog.CallLog, error) {
	out := make([]*calllog.CallLog, 0, len(rows))
	ids := make([]string, 0, len(rows))
	for i := range rows {
		c := calllog.FromDataModel(&rows[i].CallLog).WithAdminID(rows[i].CampaignAdminID)
		c.Campaign = &calllog.CampaignSummary{ID: rows[i].CampaignID, Name: rows[i].CampaignName}
		if rows[i].ContactName != nil {
			c.Contact = &calllog.ContactSummary{ID: rows[i].ContactID, Name: *rows[i].ContactName}
			if rows[i].ContactPhone != nil {
				c.Contact.Phone = *rows[i].ContactPhone
			}
		}
		out = append(out, c)
		ids = append(ids, c.ID)
	}
	if len(ids) == 0 {
		return out, nil
	}

	var appts []appointmentDatamodel.Appointment
	if err := r.db.WithContext(ctx).Where("call_log_id IN ?", ids).Order("created_at ASC").Find(&appts).Error; err != nil {
		return nil, err
	}
	byLog := make(map[string]*calllog.AppointmentSummary, len(appts))
	for _, a := range appts {
		if _, seen := byLog[*a.CallLogID]; seen {
			continue
		}
		byLog[*a.CallLogID] = &calllog.AppointmentSummary{ID: a.ID, Title: a.Title, AppointmentTime: a.AppointmentTime, Status: a.Status}
	}
	for _, c := range out {
		c.Appointment = byLog[c.ID]
	}
	return out, nil
}

func (r *Repository) CampaignRef(ctx context.Context, campaignID string) (*auth.CampaignRef, error) {
	var c campaignDatamodel.Campaign
	err := r.db.WithContext(ctx).Select("id", "admin_id").Where("id = ?", campaignID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &auth.CampaignRef{ID: c.ID, AdminID: c.AdminID}, nil
}

func (r *Repository) ContactAdminID(ctx context.Context, contactID string) (string, error) {
	var c contactDatamodel.Contact
	err := r.db.WithContext(ctx).Select("id", "admin_id").Where("id = ?", contactID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return c.AdminID, err
}

func (r *Repository) Create(ctx context.Context, c *calllog.CallLog) error {
	dm := calllog.ToDataModel(c)
	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return calllog.ErrDuplicateCallSid
		}
		return err
	}
	c.ID, c.CreatedAt, c.UpdatedAt = dm.ID, dm.CreatedAt, dm.UpdatedAt
	return nil
}

func (r *Repository) Update(ctx context.Context, c *calllog.CallLog) error {
	dm := calllog.ToDataModel(c)
	dm.UpdatedAt = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&calllogDatamodel.CallLog{ID: c.ID}).
		Select("status", "duration", "recording_url", "transcript_id", "started_at", "ended_at", "updated_at").
		Updates(dm)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return calllog.ErrNotFound
	}
	return nil
}

// Delete detaches appointments booked from the call before removing it.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&appointmentDatamodel.Appointment{}).Where("call_log_id = ?", id).Update("call_log_id", nil).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&calllogDatamodel.CallLog{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return calllog.ErrNotFound
		}
		return nil
	})
}
