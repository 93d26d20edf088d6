package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/contact"
	appointmentDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/appointment"
	calllogDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/calllog"
	campaignDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/campaign"
	contactDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/contact"
	"gorm.io/gorm"
)

// keeps IN lists well under the postgres bind parameter limit
const chunkSize = 500

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ contact.Repository = (*Repository)(nil)

// filtered applies tenant, assignment, search, tag and campaign filters.
// ok is false when the scope can match nothing.
func filtered(db *gorm.DB, f contact.ListFilter) (q *gorm.DB, ok bool) {
	q = db.Model(&contactDatamodel.Contact{}).Where("contacts.admin_id = ?", f.Scope.AdminID)
	if f.Scope.Assigned {
		if len(f.Scope.CampaignIDs) == 0 {
			return q, false
		}
		q = q.Where("contacts.id IN (SELECT contact_id FROM campaign_contacts WHERE campaign_id IN ?)", f.Scope.CampaignIDs)
	}
	if f.CampaignID != "" {
		q = q.Where("contacts.id IN (SELECT contact_id FROM campaign_contacts WHERE campaign_id = ?)", f.CampaignID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(contacts.name) LIKE ? OR contacts.phone LIKE ? OR LOWER(contacts.email) LIKE ?)", like, "%"+s+"%", like)
	}
	for _, tag := range f.Tags {
		q = q.Where("contacts.id IN (SELECT contact_id FROM contact_tags WHERE tag = ?)", tag)
	}
	return q, true
}

func (r *Repository) List(ctx context.Context, f contact.ListFilter) ([]*contact.Contact, int64, error) {
	db := r.db.WithContext(ctx)
	q, ok := filtered(db, f)
	if !ok {
		return []*contact.Contact{}, 0, nil
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	find := q.Session(&gorm.Session{}).Preload("Tags").Order("contacts.created_at DESC")
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		find = find.Offset((page - 1) * f.Limit).Limit(f.Limit)
	}
	var rows []contactDatamodel.Contact
	if err := find.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*contact.Contact, 0, len(rows))
	for i := range rows {
		out = append(out, contact.FromDataModel(&rows[i]))
	}
	return out, total, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*contact.Contact, error) {
	var c contactDatamodel.Contact
	if err := r.db.WithContext(ctx).Preload("Tags").Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, contact.ErrNotFound
		}
		return nil, err
	}
	return contact.FromDataModel(&c), nil
}

func (r *Repository) PhoneTaken(ctx context.Context, adminID, phone, exceptID string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&contactDatamodel.Contact{}).Where("admin_id = ? AND phone = ?", adminID, phone)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *Repository) Create(ctx context.Context, c *contact.Contact) error {
	dm := contact.ToDataModel(c)
	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return contact.ErrDuplicatePhone
		}
		return err
	}
	c.CreatedAt, c.UpdatedAt = dm.CreatedAt, dm.UpdatedAt
	return nil
}

func (r *Repository) Update(ctx context.Context, c *contact.Contact) error {
	dm := contact.ToDataModel(c)
	dm.UpdatedAt = time.Now().UTC()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&contactDatamodel.Contact{ID: c.ID}).
			Select("name", "phone", "email", "custom_fields", "status", "updated_at").
			Updates(dm)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return contact.ErrNotFound
		}
		if err := tx.Where("contact_id = ?", c.ID).Delete(&contactDatamodel.ContactTag{}).Error; err != nil {
			return err
		}
		if len(dm.Tags) > 0 {
			return tx.Create(&dm.Tags).Error
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return contact.ErrDuplicatePhone
		}
		return err
	}
	c.UpdatedAt = dm.UpdatedAt
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&appointmentDatamodel.Appointment{},
			&calllogDatamodel.CallLog{},
			&campaignDatamodel.ScheduledCall{},
			&campaignDatamodel.CampaignContact{},
			&contactDatamodel.ContactTag{},
		} {
			if err := tx.Where("contact_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", id).Delete(&contactDatamodel.Contact{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return contact.ErrNotFound
		}
		return nil
	})
}

func (r *Repository) Import(ctx context.Context, adminID, campaignID string, rows []*contact.Contact) (contact.ImportStats, error) {
	var stats contact.ImportStats
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		phones := make([]string, 0, len(rows))
		for _, c := range rows {
			phones = append(phones, c.Phone)
		}
		known, err := existingPhones(tx, adminID, phones)
		if err != nil {
			return err
		}

		var fresh []*contactDatamodel.Contact
		ids := make([]string, 0, len(rows))
		for _, c := range rows {
			if id, ok := known[c.Phone]; ok {
				stats.Skipped++
				ids = append(ids, id)
				continue
			}
			known[c.Phone] = c.ID
			fresh = append(fresh, contact.ToDataModel(c))
			ids = append(ids, c.ID)
		}
		if len(fresh) > 0 {
			if err := tx.CreateInBatches(fresh, 100).Error; err != nil {
				return err
			}
		}
		stats.Imported = len(fresh)

		if campaignID == "" {
			return nil
		}
		stats.Linked, err = linkAll(tx, campaignID, ids)
		return err
	})
	return stats, err
}

func existingPhones(tx *gorm.DB, adminID string, phones []string) (map[string]string, error) {
	known := make(map[string]string, len(phones))
	for _, chunk := range chunks(phones) {
		var found []contactDatamodel.Contact
		if err := tx.Select("id", "phone").Where("admin_id = ? AND phone IN ?", adminID, chunk).Find(&found).Error; err != nil {
			return nil, err
		}
		for _, c := range found {
			known[c.Phone] = c.ID
		}
	}
	return known, nil
}

// linkAll adds campaign links for contacts not linked yet and returns how many it added.
func linkAll(tx *gorm.DB, campaignID string, contactIDs []string) (int, error) {
	linked := make(map[string]bool, len(contactIDs))
	for _, chunk := range chunks(contactIDs) {
		var existing []string
		if err := tx.Model(&campaignDatamodel.CampaignContact{}).
			Where("campaign_id = ? AND contact_id IN ?", campaignID, chunk).
			Pluck("contact_id", &existing).Error; err != nil {
			return 0, err
		}
		for _, id := range existing {
			linked[id] = true
		}
	}

	var links []campaignDatamodel.CampaignContact
	for _, id := range contactIDs {
		if linked[id] {
			continue
		}
		linked[id] = true
		links = append(links, campaignDatamodel.CampaignContact{CampaignID: campaignID, ContactID: id, Status: contact.StatusActive})
	}
	if len(links) == 0 {
		return 0, nil
	}
	if err := tx.CreateInBatches(links, 100).Error; err != nil {
		return 0, err
	}
	return len(links), nil
}

func chunks(ids []string) [][]string {
	var out [][]string
	for len(ids) > chunkSize {
		out = append(out, ids[:chunkSize])
		ids = ids[chunkSize:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
