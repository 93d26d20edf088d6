package appointment

import (
	"errors"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	appointmentDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/appointment"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
	StatusNoShow    = "NO_SHOW"
)

var Statuses = []string{StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow}

type Appointment struct {
	ID              string           `json:"id"`
	CampaignID      string           `json:"campaignId"`
	ContactID       string           `json:"contactId"`
	CallLogID       *string          `json:"callLogId"`
	Title           string           `json:"title"`
	Description     *string          `json:"description"`
	AppointmentTime time.Time        `json:"appointmentTime"`
	Status          string           `json:"status"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
	Campaign        *CampaignSummary `json:"campaign,omitempty"`
	Contact         *ContactSummary  `json:"contact,omitempty"`
	CallLog         *CallLogSummary  `json:"callLog,omitempty"`

	adminID string
}

type CampaignSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ContactSummary struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Phone string  `json:"phone"`
	Email *string `json:"email"`
}

type CallLogSummary struct {
	ID       string `json:"id"`
	CallSid  string `json:"callSid"`
	Status   string `json:"status"`
	Duration *int   `json:"duration"`
}

func (a *Appointment) AdminID() string { return a.adminID }

func (a *Appointment) WithAdminID(adminID string) *Appointment {
	a.adminID = adminID
	return a
}

// Filter narrows List. Dates bound appointmentTime.
type Filter struct {
	Scope      auth.CampaignScope
	CampaignID string
	ContactID  string
	Status     string
	StartDate  *time.Time
	EndDate    *time.Time
}

var ErrNotFound = errors.New("appointment not found")

func FromDataModel(a *appointmentDatamodel.Appointment) *Appointment {
	return &Appointment{
		ID:              a.ID,
		CampaignID:      a.CampaignID,
		ContactID:       a.ContactID,
		CallLogID:       a.CallLogID,
		Title:           a.Title,
		Description:     a.Description,
		AppointmentTime: a.AppointmentTime,
		Status:          a.Status,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func ToDataModel(a *Appointment) *appointmentDatamodel.Appointment {
	return &appointmentDatamodel.Appointment{
		ID:              a.ID,
		CampaignID:      a.CampaignID,
		ContactID:       a.ContactID,
		CallLogID:       a.CallLogID,
		Title:           a.Title,
		Description:     a.Description,
		AppointmentTime: a.AppointmentTime,
		Status:          a.Status,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
