package campaign

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Campaign struct {
	ID             string                 `gorm:"primaryKey;type:varchar(36)"`
	Name           string                 `gorm:"column:name;not null"`
	Description    *string                `gorm:"column:description"`
	StartDate      *time.Time             `gorm:"column:start_date"`
	EndDate        *time.Time             `gorm:"column:end_date"`
	Status         string                 `gorm:"column:status;not null"`
	Settings       map[string]interface{} `gorm:"column:settings;serializer:json"`
	SystemMessage  *string                `gorm:"column:system_message"`
	InitialMessage *string                `gorm:"column:initial_message"`
	AdminID        string                 `gorm:"column:admin_id;index;not null"`
	CreatedAt      time.Time              `gorm:"column:created_at"`
	UpdatedAt      time.Time              `gorm:"column:updated_at"`
}

func (Campaign) TableName() string { return "campaigns" }

func (c *Campaign) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type CampaignContact struct {
	ID           string     `gorm:"primaryKey;type:varchar(36)"`
	CampaignID   string     `gorm:"column:campaign_id;uniqueIndex:idx_campaign_contact;not null"`
	ContactID    string     `gorm:"column:contact_id;uniqueIndex:idx_campaign_contact;not null"`
	Status       string     `gorm:"column:status;not null"`
	LastCalled   *time.Time `gorm:"column:last_called"`
	CallAttempts int        `gorm:"column:call_attempts;not null;default:0"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (CampaignContact) TableName() string { return "campaign_contacts" }

func (c *CampaignContact) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type ScheduledCall struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	CampaignID  string    `gorm:"column:campaign_id;index;not null"`
	ContactID   string    `gorm:"column:contact_id;not null"`
	Phone       string    `gorm:"column:phone;not null"`
	ScheduledAt time.Time `gorm:"column:scheduled_at;index;not null"`
	Status      string    `gorm:"column:status;not null"`
	CallSid     *string   `gorm:"column:call_sid"`
	Attempts    int       `gorm:"column:attempts;not null;default:0"`
	LastError   *string   `gorm:"column:last_error"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (ScheduledCall) TableName() string { return "scheduled_calls" }

func (s *ScheduledCall) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
