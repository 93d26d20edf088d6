package calllog

import (
	"strings"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/core/common/validation"
)

type CreateCallLogDTO struct {
	CampaignID   string     `json:"campaignId"`
	ContactID    string     `json:"contactId"`
	CallSid      string     `json:"callSid"`
	Status       string     `json:"status"`
	Duration     *int       `json:"duration"`
	RecordingURL *string    `json:"recordingUrl"`
	TranscriptID *string    `json:"transcriptId"`
	StartedAt    *time.Time `json:"startedAt"`
	EndedAt      *time.Time `json:"endedAt"`
}

func (d *CreateCallLogDTO) Normalize() {
	d.CampaignID = strings.TrimSpace(d.CampaignID)
	d.ContactID = strings.TrimSpace(d.ContactID)
	d.CallSid = strings.TrimSpace(d.CallSid)
	d.Status = strings.TrimSpace(d.Status)
}

func (d CreateCallLogDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("campaignId", d.CampaignID).Required()
	v.Field("contactId", d.ContactID).Required()
	v.Field("callSid", d.CallSid).Required()
	v.Field("status", d.Status).Required()
	v.Field("duration", d.Duration).Custom(nonNegative)
	v.Field("recordingUrl", d.RecordingURL).Optional().URL()
	return v.Validate()
}

type UpdateCallLogDTO struct {
	Status       *string    `json:"status"`
	Duration     *int       `json:"duration"`
	RecordingURL *string    `json:"recordingUrl"`
	TranscriptID *string    `json:"transcriptId"`
	StartedAt    *time.Time `json:"startedAt"`
	EndedAt      *time.Time `json:"endedAt"`
}

func (d UpdateCallLogDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	if d.Status != nil {
		v.Field("status", *d.Status).Required()
	}
	v.Field("duration", d.Duration).Custom(nonNegative)
	v.Field("recordingUrl", d.RecordingURL).Optional().URL()
	return v.Validate()
}

func (d UpdateCallLogDTO) apply(c *CallLog) {
	if d.Status != nil {
		c.Status = strings.TrimSpace(*d.Status)
	}
	if d.Duration != nil {
		c.Duration = d.Duration
	}
	if d.RecordingURL != nil {
		c.RecordingURL = d.RecordingURL
	}
	if d.TranscriptID != nil {
		c.TranscriptID = d.TranscriptID
	}
	if d.StartedAt != nil {
		c.StartedAt = d.StartedAt
	}
	if d.EndedAt != nil {
		c.EndedAt = d.EndedAt
	}
}

func nonNegative(value interface{}) *internal.AppError {
	if n, ok := value.(*int); ok && n != nil && *n < 0 {
		return internal.NewValidationFieldError("duration", "Duration must not be negative", internal.ErrCodeValidationFailed)
	}
	return nil
}

// ListQuery is the query string of GET /call-logs.
type ListQuery struct {
	CampaignID string
	ContactID  string
	StartDate  *time.Time
	EndDate    *time.Time
}
