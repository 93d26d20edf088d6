package contact

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Contact struct {
	ID           string                 `gorm:"primaryKey;type:varchar(36)"`
	Name         string                 `gorm:"column:name;not null"`
	Phone        string                 `gorm:"column:phone;uniqueIndex:idx_contact_admin_phone;not null"`
	Email        *string                `gorm:"column:email"`
	CustomFields map[string]interface{} `gorm:"column:custom_fields;serializer:json"`
	Status       string                 `gorm:"column:status;not null"`
	AdminID      string                 `gorm:"column:admin_id;uniqueIndex:idx_contact_admin_phone;not null"`
	Tags         []ContactTag           `gorm:"foreignKey:ContactID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time              `gorm:"column:created_at"`
	UpdatedAt    time.Time              `gorm:"column:updated_at"`
}

func (Contact) TableName() string { return "contacts" }

func (c *Contact) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (c *Contact) TagNames() []string {
	names := make([]string, 0, len(c.Tags))
	for _, t := range c.Tags {
		names = append(names, t.Tag)
	}
	return names
}

type ContactTag struct {
	ContactID string `gorm:"column:contact_id;primaryKey;type:varchar(36)"`
	Tag       string `gorm:"column:tag;primaryKey;index"`
}

func (ContactTag) TableName() string { return "contact_tags" }

func TagsFrom(contactID string, tags []string) []ContactTag {
	seen := make(map[string]struct{}, len(tags))
	out := make([]ContactTag, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, ContactTag{ContactID: contactID, Tag: t})
	}
	return out
}
