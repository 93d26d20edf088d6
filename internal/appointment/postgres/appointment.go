package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/appointment"
	"github.com/frahmantamala/dialer-dashboard/internal/auth"
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

var _ appointment.Repository = (*Repository)(nil)

type row struct {
	appointmentDatamodel.Appointment `gorm:"embedded"`
	CampaignAdminID                  string
	CampaignName                     string
	ContactName                      *string
	ContactPhone                     *string
	ContactEmail                     *string
	CallSid                          *string
	CallStatus                       *string
	CallDuration                     *int
}

func (r *Repository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("appointments").
		Select(`appointments.*,
			campaigns.admin_id AS campaign_admin_id, campaigns.name AS campaign_name,
			contacts.name AS contact_name, contacts.phone AS contact_phone, contacts.email AS contact_email,
			call_logs.call_sid AS call_sid, call_logs.status AS call_status, call_logs.duration AS call_duration`).
		Joins("JOIN campaigns ON campaigns.id = appointments.campaign_id").
		Joins("LEFT JOIN contacts ON contacts.id = appointments.contact_id").
		Joins("LEFT JOIN call_logs ON call_logs.id = appointments.call_log_id")
}

func fromRow(r *row) *appointment.Appointment {
	a := appointment.FromDataModel(&r.Appointment).WithAdminID(r.CampaignAdminID)
	a.Campaign = &appointment.CampaignSummary{ID: r.CampaignID, Name: r.CampaignName}
	if r.ContactName != nil {
		a.Contact = &appointment.ContactSummary{ID: r.ContactID, Name: *r.ContactName, Email: r.ContactEmail}
		if r.ContactPhone != nil {
			a.Contact.Phone = *r.ContactPhone
		}
	}
	if r.CallSid != nil && a.CallLogID != nil {
		a.CallLog = &appointment.CallLogSummary{ID: *a.CallLogID, CallSid: *r.CallSid, Duration: r.CallDuration}
		if r.CallStatus != nil {
			a.CallLog.Status = *r.CallStatus
		}
	}
	return a
}

func (r *Repository) List(ctx context.Context, f appointment.Filter) ([]*appointment.Appointment, error) {
	q := r.joined(ctx).Where("campaigns.admin_id = ?", f.Scope.AdminID)
	if f.Scope.Assigned {
		q = q.Where("appointments.campaign_id IN ?", f.Scope.CampaignIDs)
	}
	if f.CampaignID != "" {
		q = q.Where("appointments.campaign_id = ?", f.CampaignID)
	}
	if f.ContactID != "" {
		q = q.Where("appointments.contact_id = ?", f.ContactID)
	}
	if f.Status != "" {
		q = q.Where("appointments.status = ?", f.Status)
	}
	if f.StartDate != nil {
		q = q.Where("appointments.appointment_time >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("appointments.appointment_time <= ?", *f.EndDate)
	}

	var rows []row
	if err := q.Order("appointments.appointment_time ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*appointment.Appointment, 0, len(rows))
	for i := range rows {
		out = append(out, fromRow(&rows[i]))
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*appointment.Appointment, error) {
	var rows []row
	if err := r.joined(ctx).Where("appointments.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, appointment.ErrNotFound
	}
	return fromRow(&rows[0]), nil
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

func (r *Repository) CallLogMatches(ctx context.Context, callLogID, campaignID, contactID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&calllogDatamodel.CallLog{}).
		Where("id = ? AND campaign_id = ? AND contact_id = ?", callLogID, campaignID, contactID).
		Count(&n).Error
	return n > 0, err
}

func (r *Repository) Create(ctx context.Context, a *appointment.Appointment) error {
	dm := appointment.ToDataModel(a)
	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		return err
	}
	a.ID, a.CreatedAt, a.UpdatedAt = dm.ID, dm.CreatedAt, dm.UpdatedAt
	return nil
}

func (r *Repository) Update(ctx context.Context, a *appointment.Appointment) error {
	dm := appointment.ToDataModel(a)
	dm.UpdatedAt = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&appointmentDatamodel.Appointment{ID: a.ID}).
		Select("title", "description", "appointment_time", "status", "call_log_id", "updated_at").
		Updates(dm)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return appointment.ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&appointmentDatamodel.Appointment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return appointment.ErrNotFound
	}
	return nil
}
