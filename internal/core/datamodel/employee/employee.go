package employee

import (
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/core/permission"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Employee struct {
	ID          string            `gorm:"primaryKey;type:varchar(36)"`
	UserID      string            `gorm:"column:user_id;uniqueIndex;not null"`
	AdminID     string            `gorm:"column:admin_id;index;not null"`
	Permissions permission.Matrix `gorm:"column:permissions;type:jsonb"`
	CreatedAt   time.Time         `gorm:"column:created_at"`
	UpdatedAt   time.Time         `gorm:"column:updated_at"`
}

func (Employee) TableName() string { return "employees" }

func (e *Employee) BeforeCreate(_ *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

type CampaignEmployee struct {
	CampaignID string    `gorm:"column:campaign_id;primaryKey;type:varchar(36)"`
	EmployeeID string    `gorm:"column:employee_id;primaryKey;type:varchar(36)"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (CampaignEmployee) TableName() string { return "campaign_employees" }
