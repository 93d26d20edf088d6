package postgres

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/appointment"
	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	"github.com/frahmantamala/dialer-dashboard/internal/calllog"
	"github.com/frahmantamala/dialer-dashboard/internal/campaign"
	"github.com/frahmantamala/dialer-dashboard/internal/contact"
	appointmentDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/appointment"
	calllogDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/calllog"
	campaignDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/campaign"
	contactDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/contact"
	employeeDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/employee"
	userDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const appointmentLength = time.Hour

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ campaign.Repository = (*Repository)(nil)

func (r *Repository) List(ctx context.Context, scope auth.CampaignScope) ([]*campaign.Campaign, error) {
	db := r.db.WithContext(ctx)
	q := db.Where("admin_id = ?", scope.AdminID)
	if scope.Assigned {
		q = q.Where("id IN ?", scope.CampaignIDs)
	}

	var dms []campaignDatamodel.Campaign
	if err := q.Order("created_at DESC").Find(&dms).Error; err != nil {
		return nil, err
	}
	if len(dms) == 0 {
		return []*campaign.Campaign{}, nil
	}

	ids := make([]string, 0, len(dms))
	for _, c := range dms {
		ids = append(ids, c.ID)
	}
	var counts []struct {
		CampaignID string
		N          int
	}
	if err := db.Model(&campaignDatamodel.CampaignContact{}).
		Select("campaign_id, COUNT(*) AS n").
		Where("campaign_id IN ?", ids).
		Group("campaign_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]int, len(counts))
	for _, c := range counts {
		byID[c.CampaignID] = c.N
	}

	out := make([]*campaign.Campaign, 0, len(dms))
	for i := range dms {
		c := campaign.FromDataModel(&dms[i])
		c.ContactCount = byID[c.ID]
		out = append(out, c)
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*campaign.Campaign, error) {
	db := r.db.WithContext(ctx)
	var dm campaignDatamodel.Campaign
	if err := db.Where("id = ?", id).First(&dm).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, campaign.ErrNotFound
		}
		return nil, err
	}
	c := campaign.FromDataModel(&dm)

	var admin userDatamodel.User
	err := db.Select("id", "name", "email").Where("id = ?", dm.AdminID).First(&admin).Error
	switch {
	case err == nil:
		c.Admin = &campaign.AdminSummary{ID: admin.ID, Name: admin.Name, Email: admin.Email}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	var links []campaignDatamodel.CampaignContact
	if err := db.Where("campaign_id = ?", id).Order("created_at ASC").Find(&links).Error; err != nil {
		return nil, err
	}
	c.Contacts = make([]campaign.Link, 0, len(links))
	for i := range links {
		c.Contacts = append(c.Contacts, campaign.LinkFromDataModel(&links[i]))
	}
	c.ContactCount = len(links)
	return c, nil
}

func (r *Repository) Create(ctx context.Context, c *campaign.Campaign, employeeID string) error {
	dm := campaign.ToDataModel(c)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(dm).Error; err != nil {
			return err
		}
		if employeeID == "" {
			return nil
		}
		return tx.Create(&employeeDatamodel.CampaignEmployee{CampaignID: dm.ID, EmployeeID: employeeID}).Error
	})
	if err != nil {
		return err
	}
	c.ID, c.CreatedAt, c.UpdatedAt = dm.ID, dm.CreatedAt, dm.UpdatedAt
	return nil
}

func (r *Repository) Update(ctx context.Context, c *campaign.Campaign) error {
	dm := campaign.ToDataModel(c)
	dm.UpdatedAt = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&campaignDatamodel.Campaign{ID: c.ID}).
		Select("name", "description", "start_date", "end_date", "status", "settings", "updated_at").
		Updates(dm)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

func (r *Repository) UpdateMessages(ctx context.Context, id string, m campaign.UpdateMessagesDTO) (campaign.Messages, error) {
	db := r.db.WithContext(ctx)
	updates := map[string]interface{}{"updated_at": time.Now().UTC()}
	if m.SystemMessage != nil {
		updates["system_message"] = *m.SystemMessage
	}
	if m.InitialMessage != nil {
		updates["initial_message"] = *m.InitialMessage
	}
	res := db.Model(&campaignDatamodel.Campaign{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return campaign.Messages{}, res.Error
	}
	if res.RowsAffected == 0 {
		return campaign.Messages{}, campaign.ErrNotFound
	}

	var dm campaignDatamodel.Campaign
	if err := db.Select("system_message", "initial_message").Where("id = ?", id).First(&dm).Error; err != nil {
		return campaign.Messages{}, err
	}
	return campaign.Messages{SystemMessage: dm.SystemMessage, InitialMessage: dm.InitialMessage}, nil
}

// Delete removes everything hanging off the campaign in one transaction.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&appointmentDatamodel.Appointment{},
			&calllogDatamodel.CallLog{},
			&campaignDatamodel.ScheduledCall{},
			&campaignDatamodel.CampaignContact{},
			&employeeDatamodel.CampaignEmployee{},
		} {
			if err := tx.Where("campaign_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", id).Delete(&campaignDatamodel.Campaign{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return campaign.ErrNotFound
		}
		return nil
	})
}

func (r *Repository) Employees(ctx context.Context, campaignID string) ([]campaign.AssignedEmployee, error) {
	var rows []struct {
		EmployeeID string
		UserID     string
		Name       string
		Email      string
		AssignedAt time.Time
	}
	err := r.db.WithContext(ctx).
		Table("campaign_employees").
		Select("campaign_employees.employee_id, employees.user_id, users.name, users.email, campaign_employees.created_at AS assigned_at").
		Joins("JOIN employees ON employees.id = campaign_employees.employee_id").
		Joins("JOIN users ON users.id = employees.user_id").
		Where("campaign_employees.campaign_id = ?", campaignID).
		Order("campaign_employees.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]campaign.AssignedEmployee, 0, len(rows))
	for _, row := range rows {
		out = append(out, campaign.AssignedEmployee(row))
	}
	return out, nil
}

func (r *Repository) EmployeeAdminID(ctx context.Context, employeeID string) (string, error) {
	var e employeeDatamodel.Employee
	err := r.db.WithContext(ctx).Select("id", "admin_id").Where("id = ?", employeeID).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return e.AdminID, err
}

func (r *Repository) Assign(ctx context.Context, campaignID, employeeID string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&employeeDatamodel.CampaignEmployee{CampaignID: campaignID, EmployeeID: employeeID}).Error
}

func (r *Repository) Unassign(ctx context.Context, campaignID, employeeID string) error {
	res := r.db.WithContext(ctx).
		Where("campaign_id = ? AND employee_id = ?", campaignID, employeeID).
		Delete(&employeeDatamodel.CampaignEmployee{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return campaign.ErrNotAssigned
	}
	return nil
}

// members loads the links of campaignID, restricted to contactIDs when given.
func (r *Repository) members(ctx context.Context, campaignID string, contactIDs []string) ([]*campaign.Member, error) {
	db := r.db.WithContext(ctx)
	q := db.Where("campaign_id = ?", campaignID)
	if contactIDs != nil {
		q = q.Where("contact_id IN ?", contactIDs)
	}
	var links []campaignDatamodel.CampaignContact
	if err := q.Order("created_at ASC").Find(&links).Error; err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return []*campaign.Member{}, nil
	}

	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.ContactID)
	}
	var contacts []contactDatamodel.Contact
	if err := db.Preload("Tags").Where("id IN ?", ids).Find(&contacts).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]*contactDatamodel.Contact, len(contacts))
	for i := range contacts {
		byID[contacts[i].ID] = &contacts[i]
	}

	out := make([]*campaign.Member, 0, len(links))
	for i := range links {
		c, ok := byID[links[i].ContactID]
		if !ok {
			continue
		}
		out = append(out, &campaign.Member{Contact: contact.FromDataModel(c), Campaign: campaign.LinkFromDataModel(&links[i])})
	}
	return out, nil
}

func (r *Repository) Members(ctx context.Context, campaignID string) ([]*campaign.Member, error) {
	return r.members(ctx, campaignID, nil)
}

func (r *Repository) Member(ctx context.Context, campaignID, contactID string) (*campaign.Member, error) {
	members, err := r.members(ctx, campaignID, []string{contactID})
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, campaign.ErrNotLinked
	}
	return members[0], nil
}

func (r *Repository) GetContact(ctx context.Context, id string) (*contact.Contact, error) {
	var dm contactDatamodel.Contact
	if err := r.db.WithContext(ctx).Preload("Tags").Where("id = ?", id).First(&dm).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, contact.ErrNotFound
		}
		return nil, err
	}
	return contact.FromDataModel(&dm), nil
}

func (r *Repository) ContactByPhone(ctx context.Context, adminID, phone string) (*contact.Contact, error) {
	var dm contactDatamodel.Contact
	err := r.db.WithContext(ctx).Preload("Tags").Where("admin_id = ? AND phone = ?", adminID, phone).First(&dm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return contact.FromDataModel(&dm), nil
}

func newLink(campaignID, contactID string) *campaignDatamodel.CampaignContact {
	return &campaignDatamodel.CampaignContact{CampaignID: campaignID, ContactID: contactID, Status: contact.StatusActive}
}

func (r *Repository) Link(ctx context.Context, campaignID, contactID string) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(newLink(campaignID, contactID))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) CreateAndLink(ctx context.Context, campaignID string, c *contact.Contact) error {
	dm := contact.ToDataModel(c)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(dm).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return contact.ErrDuplicatePhone
			}
			return err
		}
		return tx.Create(newLink(campaignID, dm.ID)).Error
	})
	if err != nil {
		return err
	}
	c.CreatedAt, c.UpdatedAt = dm.CreatedAt, dm.UpdatedAt
	return nil
}

func (r *Repository) Unlink(ctx context.Context, campaignID, contactID string) error {
	res := r.db.WithContext(ctx).
		Where("campaign_id = ? AND contact_id = ?", campaignID, contactID).
		Delete(&campaignDatamodel.CampaignContact{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return campaign.ErrNotLinked
	}
	return nil
}

// Leads are linked contacts with at least one appointment in the campaign,
// most appointments first.
func (r *Repository) Leads(ctx context.Context, campaignID string) ([]*campaign.Lead, error) {
	db := r.db.WithContext(ctx)

	var appts []appointmentDatamodel.Appointment
	if err := db.Where("campaign_id = ?", campaignID).Order("created_at DESC").Find(&appts).Error; err != nil {
		return nil, err
	}
	if len(appts) == 0 {
		return []*campaign.Lead{}, nil
	}

	counts := make(map[string]int)
	latestAppt := make(map[string]*appointmentDatamodel.Appointment)
	ids := make([]string, 0)
	for i := range appts {
		id := appts[i].ContactID
		if counts[id] == 0 {
			ids = append(ids, id)
			latestAppt[id] = &appts[i]
		}
		counts[id]++
	}

	var calls []calllogDatamodel.CallLog
	if err := db.Where("campaign_id = ? AND contact_id IN ?", campaignID, ids).Order("created_at DESC").Find(&calls).Error; err != nil {
		return nil, err
	}
	latestCall := make(map[string]*calllogDatamodel.CallLog)
	for i := range calls {
		if _, seen := latestCall[calls[i].ContactID]; !seen {
			latestCall[calls[i].ContactID] = &calls[i]
		}
	}

	members, err := r.members(ctx, campaignID, ids)
	if err != nil {
		return nil, err
	}
	leads := make([]*campaign.Lead, 0, len(members))
	for _, m := range members {
		lead := &campaign.Lead{
			Contact:           m.Contact,
			Campaign:          m.Campaign,
			AppointmentCount:  counts[m.ID],
			LatestAppointment: appointment.FromDataModel(latestAppt[m.ID]),
		}
		if c, ok := latestCall[m.ID]; ok {
			lead.LatestCall = calllog.FromDataModel(c)
		}
		leads = append(leads, lead)
	}
	sort.SliceStable(leads, func(i, j int) bool {
		if leads[i].AppointmentCount != leads[j].AppointmentCount {
			return leads[i].AppointmentCount > leads[j].AppointmentCount
		}
		return leads[i].Name < leads[j].Name
	})
	return leads, nil
}

func (r *Repository) StatsInput(ctx context.Context, campaignID string) (campaign.StatsInput, error) {
	db := r.db.WithContext(ctx)
	var in campaign.StatsInput

	if err := db.Model(&campaignDatamodel.CampaignContact{}).Where("campaign_id = ?", campaignID).Pluck("status", &in.LinkStatuses).Error; err != nil {
		return in, err
	}

	var calls []struct {
		calllogDatamodel.CallLog `gorm:"embedded"`
		ContactName              *string
	}
	err := db.Table("call_logs").
		Select("call_logs.*, contacts.name AS contact_name").
		Joins("LEFT JOIN contacts ON contacts.id = call_logs.contact_id").
		Where("call_logs.campaign_id = ?", campaignID).
		Scan(&calls).Error
	if err != nil {
		return in, err
	}
	for _, c := range calls {
		sc := campaign.StatsCall{ID: c.ID, Status: c.Status, StartedAt: c.StartedAt, CreatedAt: c.CreatedAt}
		if c.Duration != nil {
			sc.Duration = *c.Duration
		}
		if c.ContactName != nil {
			sc.ContactName = *c.ContactName
		}
		in.Calls = append(in.Calls, sc)
	}

	var appts []struct {
		appointmentDatamodel.Appointment `gorm:"embedded"`
		ContactName                      *string
	}
	err = db.Table("appointments").
		Select("appointments.*, contacts.name AS contact_name").
		Joins("LEFT JOIN contacts ON contacts.id = appointments.contact_id").
		Where("appointments.campaign_id = ?", campaignID).
		Scan(&appts).Error
	if err != nil {
		return in, err
	}
	for _, a := range appts {
		sa := campaign.StatsAppointment{ID: a.ID, Title: a.Title, Status: a.Status, AppointmentTime: a.AppointmentTime, CreatedAt: a.CreatedAt}
		if a.ContactName != nil {
			sa.ContactName = *a.ContactName
		}
		in.Appointments = append(in.Appointments, sa)
	}
	return in, nil
}

type appointmentRow struct {
	appointmentDatamodel.Appointment `gorm:"embedded"`
	ContactName                      string
	ContactPhone                     string
	ContactEmail                     *string
}

func (r *Repository) Appointments(ctx context.Context, f campaign.AppointmentFilter) ([]campaign.AppointmentItem, int64, error) {
	q := r.db.WithContext(ctx).
		Table("appointments").
		Joins("JOIN contacts ON contacts.id = appointments.contact_id").
		Where("appointments.campaign_id = ?", f.CampaignID)
	if f.Status != "" {
		q = q.Where("appointments.status = ?", f.Status)
	}
	if f.StartDate != nil {
		q = q.Where("appointments.appointment_time >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("appointments.appointment_time <= ?", *f.EndDate)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q = q.Select("appointments.*, contacts.name AS contact_name, contacts.phone AS contact_phone, contacts.email AS contact_email").
		Order("appointments.appointment_time ASC")
	if f.Limit > 0 {
		q = q.Offset((f.Page - 1) * f.Limit).Limit(f.Limit)
	}
	var rows []appointmentRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	items := make([]campaign.AppointmentItem, 0, len(rows))
	for _, row := range rows {
		item := campaign.AppointmentItem{
			ID:      row.ID,
			Title:   row.Title,
			Start:   row.AppointmentTime,
			End:     row.AppointmentTime.Add(appointmentLength),
			Status:  row.Status,
			Contact: campaign.AppointmentWho{Name: row.ContactName, Phone: row.ContactPhone, Email: row.ContactEmail},
		}
		if row.Description != nil {
			item.Description = *row.Description
		}
		items = append(items, item)
	}
	return items, total, nil
}

func (r *Repository) ScheduledCalls(ctx context.Context, campaignID string, from, to *time.Time) ([]*campaign.ScheduledCall, error) {
	q := r.db.WithContext(ctx).Where("campaign_id = ?", campaignID)
	if from != nil {
		q = q.Where("scheduled_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("scheduled_at <= ?", *to)
	}
	var dms []campaignDatamodel.ScheduledCall
	if err := q.Order("scheduled_at ASC").Find(&dms).Error; err != nil {
		return nil, err
	}
	out := make([]*campaign.ScheduledCall, 0, len(dms))
	for i := range dms {
		out = append(out, campaign.ScheduledCallFromDataModel(&dms[i]))
	}
	return out, nil
}

func (r *Repository) CreateScheduledCall(ctx context.Context, sc *campaign.ScheduledCall) error {
	dm := &campaignDatamodel.ScheduledCall{
		CampaignID:  sc.CampaignID,
		ContactID:   sc.ContactID,
		Phone:       sc.Phone,
		ScheduledAt: sc.ScheduledAt,
		Status:      sc.Status,
	}
	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		return err
	}
	sc.ID, sc.CreatedAt, sc.UpdatedAt = dm.ID, dm.CreatedAt, dm.UpdatedAt
	return nil
}

func (r *Repository) GetScheduledCall(ctx context.Context, id string) (*campaign.ScheduledCall, error) {
	var dm campaignDatamodel.ScheduledCall
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&dm).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, campaign.ErrCallNotFound
		}
		return nil, err
	}
	return campaign.ScheduledCallFromDataModel(&dm), nil
}

func (r *Repository) CancelScheduledCall(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&campaignDatamodel.ScheduledCall{}).
		Where("id = ? AND status = ?", id, campaign.CallPending).
		Updates(map[string]interface{}{"status": campaign.CallCancelled, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
