package calllog

import (
	"errors"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	calllogDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/calllog"
)

// StatusCompleted is the only status counted as a successful call.
const (
	StatusInitiated = "INITIATED"
	StatusCompleted = "COMPLETED"
)

type CallLog struct {
	ID           string              `json:"id"`
	CampaignID   string              `json:"campaignId"`
	ContactID    string              `json:"contactId"`
	CallSid      string              `json:"callSid"`
	Status       string              `json:"status"`
	Duration     *int                `json:"duration"`
	RecordingURL *string             `json:"recordingUrl"`
	TranscriptID *string             `json:"transcriptId"`
	StartedAt    *time.Time          `json:"startedAt"`
	EndedAt      *time.Time          `json:"endedAt"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	Campaign     *CampaignSummary    `json:"campaign,omitempty"`
	Contact      *ContactSummary     `json:"contact,omitempty"`
	Appointment  *AppointmentSummary `json:"appointment,omitempty"`

	adminID string
}

type CampaignSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ContactSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type AppointmentSummary struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	AppointmentTime time.Time `json:"appointmentTime"`
	Status          string    `json:"status"`
}

// AdminID is the tenant owning the log's campaign, when the repository loaded it.
func (c *CallLog) AdminID() string { return c.adminID }

// WithAdminID records the owning tenant. Repositories call it after loading.
func (c *CallLog) WithAdminID(adminID string) *CallLog {
	c.adminID = adminID
	return c
}

// Filter narrows List. Dates bound createdAt.
type Filter struct {
	Scope      auth.CampaignScope
	CampaignID string
	ContactID  string
	StartDate  *time.Time
	EndDate    *time.Time
}

var (
	ErrNotFound         = errors.New("call log not found")
	ErrDuplicateCallSid = errors.New("call sid already exists")
)

func FromDataModel(c *calllogDatamodel.CallLog) *CallLog {
	return &CallLog{
		ID:           c.ID,
		CampaignID:   c.CampaignID,
		ContactID:    c.ContactID,
		CallSid:      c.CallSid,
		Status:       c.Status,
		Duration:     c.Duration,
		RecordingURL: c.RecordingURL,
		TranscriptID: c.TranscriptID,
		StartedAt:    c.StartedAt,
		EndedAt:      c.EndedAt,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func ToDataModel(c *CallLog) *calllogDatamodel.CallLog {
	return &calllogDatamodel.CallLog{
		ID:           c.ID,
		CampaignID:   c.CampaignID,
		ContactID:    c.ContactID,
		CallSid:      c.CallSid,
		Status:       c.Status,
		Duration:     c.Duration,
		RecordingURL: c.RecordingURL,
		TranscriptID: c.TranscriptID,
		StartedAt:    c.StartedAt,
		EndedAt:      c.EndedAt,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
