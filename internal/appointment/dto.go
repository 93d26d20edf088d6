package appointment

import (
	"strings"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/core/common/validation"
)

type CreateAppointmentDTO struct {
	CampaignID      string     `json:"campaignId"`
	ContactID       string     `json:"contactId"`
	CallLogID       *string    `json:"callLogId"`
	Title           string     `json:"title"`
	Description     *string    `json:"description"`
	AppointmentTime *time.Time `json:"appointmentTime"`
	Status          string     `json:"status"`
}

func (d *CreateAppointmentDTO) Normalize() {
	d.CampaignID = strings.TrimSpace(d.CampaignID)
	d.ContactID = strings.TrimSpace(d.ContactID)
	d.Title = strings.TrimSpace(d.Title)
	if d.CallLogID != nil && strings.TrimSpace(*d.CallLogID) == "" {
		d.CallLogID = nil
	}
	if d.Status == "" {
		d.Status = StatusScheduled
	}
}

func (d CreateAppointmentDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("campaignId", d.CampaignID).Required()
	v.Field("contactId", d.ContactID).Required()
	v.Field("title", d.Title).Label("Title").Required()
	v.Field("appointmentTime", d.AppointmentTime).Label("Appointment time").NotZeroTime()
	v.Field("status", d.Status).Label("Status").OneOf(Statuses...)
	return v.Validate()
}

type UpdateAppointmentDTO struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	AppointmentTime *time.Time `json:"appointmentTime"`
	Status          *string    `json:"status"`
	CallLogID       *string    `json:"callLogId"`
}

func (d UpdateAppointmentDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	if d.Title != nil {
		v.Field("title", *d.Title).Label("Title").Required()
	}
	if d.AppointmentTime != nil {
		v.Field("appointmentTime", d.AppointmentTime).Label("Appointment time").NotZeroTime()
	}
	if d.Status != nil {
		v.Field("status", *d.Status).Label("Status").OneOf(Statuses...)
	}
	return v.Validate()
}

// apply copies the set fields. An empty callLogId detaches the call.
func (d UpdateAppointmentDTO) apply(a *Appointment) {
	if d.Title != nil {
		a.Title = strings.TrimSpace(*d.Title)
	}
	if d.Description != nil {
		a.Description = d.Description
	}
	if d.AppointmentTime != nil {
		a.AppointmentTime = d.AppointmentTime.UTC()
	}
	if d.Status != nil {
		a.Status = *d.Status
	}
	if d.CallLogID != nil {
		if *d.CallLogID == "" {
			a.CallLogID = nil
		} else {
			id := *d.CallLogID
			a.CallLogID = &id
		}
	}
}

type ListQuery struct {
	CampaignID string
	ContactID  string
	Status     string
	StartDate  *time.Time
	EndDate    *time.Time
}
