package calllog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CallLog struct {
	ID           string     `gorm:"primaryKey;type:varchar(36)"`
	CampaignID   string     `gorm:"column:campaign_id;index;not null"`
	ContactID    string     `gorm:"column:contact_id;index;not null"`
	CallSid      string     `gorm:"column:call_sid;uniqueIndex;not null"`
	Status       string     `gorm:"column:status;not null"`
	Duration     *int       `gorm:"column:duration"`
	RecordingURL *string    `gorm:"column:recording_url"`
	TranscriptID *string    `gorm:"column:transcript_id"`
	StartedAt    *time.Time `gorm:"column:started_at"`
	EndedAt      *time.Time `gorm:"column:ended_at"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (CallLog) TableName() string { return "call_logs" }

func (c *CallLog) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
