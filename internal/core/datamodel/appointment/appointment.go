package appointment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Appointment struct {
	ID              string    `gorm:"primaryKey;type:varchar(36)"`
	CampaignID      string    `gorm:"column:campaign_id;index;not null"`
	ContactID       string    `gorm:"column:contact_id;index;not null"`
	CallLogID       *string   `gorm:"column:call_log_id"`
	Title           string    `gorm:"column:title;not null"`
	Description     *string   `gorm:"column:description"`
	AppointmentTime time.Time `gorm:"column:appointment_time;index;not null"`
	Status          string    `gorm:"column:status;not null"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (Appointment) TableName() string { return "appointments" }

func (a *Appointment) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
