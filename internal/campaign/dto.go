package campaign

import (
	"strings"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/contact"
	"github.com/frahmantamala/dialer-dashboard/internal/core/common/validation"
	"github.com/frahmantamala/dialer-dashboard/internal/transport"
)

var errDateOrder = internal.NewValidationError("End date must be after start date", internal.ErrCodeInvalidDate)

type CreateCampaignDTO struct {
	Name        string                 `json:"name"`
	Description *string                `json:"description"`
	StartDate   *time.Time             `json:"startDate"`
	EndDate     *time.Time             `json:"endDate"`
	Settings    map[string]interface{} `json:"settings"`
}

func (d *CreateCampaignDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
}

func (d CreateCampaignDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", d.Name).Label("Campaign name").Required().MaxLength(200)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	if d.StartDate != nil && d.EndDate != nil && d.EndDate.Before(*d.StartDate) {
		return errDateOrder
	}
	return nil
}

type UpdateCampaignDTO struct {
	Name        *string                 `json:"name"`
	Description *string                 `json:"description"`
	StartDate   *time.Time              `json:"startDate"`
	EndDate     *time.Time              `json:"endDate"`
	Status      *string                 `json:"status"`
	Settings    *map[string]interface{} `json:"settings"`
}

func (d UpdateCampaignDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", *d.Name).Label("Campaign name").Required().MaxLength(200)
	}
	if d.Status != nil {
		v.Field("status", *d.Status).Label("Status").OneOf(Statuses...)
	}
	return v.Validate()
}

func (d UpdateCampaignDTO) apply(c *Campaign) *internal.AppError {
	if d.Name != nil {
		c.Name = strings.TrimSpace(*d.Name)
	}
	if d.Description != nil {
		c.Description = d.Description
	}
	if d.StartDate != nil {
		c.StartDate = d.StartDate
	}
	if d.EndDate != nil {
		c.EndDate = d.EndDate
	}
	if d.Status != nil {
		c.Status = *d.Status
	}
	if d.Settings != nil {
		c.Settings = *d.Settings
	}
	if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(*c.StartDate) {
		return errDateOrder
	}
	return nil
}

// UpdateMessagesDTO leaves a message unchanged when it is absent.
type UpdateMessagesDTO struct {
	SystemMessage  *string `json:"systemMessage"`
	InitialMessage *string `json:"initialMessage"`
}

type AssignEmployeeDTO struct {
	EmployeeID string `json:"employeeId"`
}

func (d AssignEmployeeDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("employeeId", d.EmployeeID).Label("Employee ID").Required()
	return v.Validate()
}

// AddContactDTO links an existing contact by ContactID or creates one from the remaining fields.
type AddContactDTO struct {
	ContactID string `json:"contactId"`
	contact.CreateContactDTO
}

type ScheduleCallDTO struct {
	ContactID   string     `json:"contactId"`
	ScheduledAt *time.Time `json:"scheduledAt"`
}

func (d ScheduleCallDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("contactId", d.ContactID).Label("Contact ID").Required()
	v.Field("scheduledAt", d.ScheduledAt).Label("Scheduled time").NotZeroTime()
	return v.Validate()
}

// AppointmentQuery is the query string of GET /campaigns/{id}/appointments.
type AppointmentQuery struct {
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

type AppointmentPage struct {
	Data       []AppointmentItem    `json:"data"`
	Pagination transport.Pagination `json:"pagination"`
}
