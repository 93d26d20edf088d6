// Package datamodel lists the persisted tables. Column layout mirrors db/migrations.
package datamodel

import (
	"github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/appointment"
	"github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/calllog"
	"github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/campaign"
	"github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/contact"
	"github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/employee"
	"github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/user"
	"gorm.io/gorm"
)

func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&user.AdminSettings{},
		&user.RefreshToken{},
		&employee.Employee{},
		&employee.CampaignEmployee{},
		&campaign.Campaign{},
		&campaign.CampaignContact{},
		&campaign.ScheduledCall{},
		&contact.Contact{},
		&contact.ContactTag{},
		&calllog.CallLog{},
		&appointment.Appointment{},
	}
}

// AutoMigrate creates the schema from the models. Production uses goose migrations instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
