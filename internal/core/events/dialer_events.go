package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeSignupRequested  = "signup.requested"
	EventTypeCallStarted      = "call.started"
	EventTypeCallFailed       = "call.failed"
	EventTypeContactsImported = "contacts.imported"
)

func newBase(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// SignupRequestedEvent asks for the verification code to be mailed.
type SignupRequestedEvent struct {
	BaseEvent
	Email string `json:"email"`
	Name  string `json:"name"`
	OTP   string `json:"-"`
}

func NewSignupRequestedEvent(email, name, otp string) *SignupRequestedEvent {
	return &SignupRequestedEvent{
		BaseEvent: newBase(EventTypeSignupRequested, map[string]interface{}{"email": email}),
		Email:     email,
		Name:      name,
		OTP:       otp,
	}
}

type CallStartedEvent struct {
	BaseEvent
	CallLogID  string `json:"call_log_id"`
	CallSid    string `json:"call_sid"`
	CampaignID string `json:"campaign_id"`
	ContactID  string `json:"contact_id"`
}

func NewCallStartedEvent(callLogID, callSid, campaignID, contactID string) *CallStartedEvent {
	return &CallStartedEvent{
		BaseEvent: newBase(EventTypeCallStarted, map[string]interface{}{
			"call_log_id": callLogID,
			"call_sid":    callSid,
			"campaign_id": campaignID,
			"contact_id":  contactID,
		}),
		CallLogID:  callLogID,
		CallSid:    callSid,
		CampaignID: campaignID,
		ContactID:  contactID,
	}
}

type CallFailedEvent struct {
	BaseEvent
	CampaignID string `json:"campaign_id"`
	ContactID  string `json:"contact_id"`
	Reason     string `json:"reason"`
}

func NewCallFailedEvent(campaignID, contactID, reason string) *CallFailedEvent {
	return &CallFailedEvent{
		BaseEvent: newBase(EventTypeCallFailed, map[string]interface{}{
			"campaign_id": campaignID,
			"contact_id":  contactID,
			"reason":      reason,
		}),
		CampaignID: campaignID,
		ContactID:  contactID,
		Reason:     reason,
	}
}

type ContactsImportedEvent struct {
	BaseEvent
	AdminID    string `json:"admin_id"`
	CampaignID string `json:"campaign_id,omitempty"`
	Imported   int    `json:"imported"`
	Skipped    int    `json:"skipped"`
}

func NewContactsImportedEvent(adminID, campaignID string, imported, skipped int) *ContactsImportedEvent {
	return &ContactsImportedEvent{
		BaseEvent: newBase(EventTypeContactsImported, map[string]interface{}{
			"admin_id":    adminID,
			"campaign_id": campaignID,
			"imported":    imported,
			"skipped":     skipped,
		}),
		AdminID:    adminID,
		CampaignID: campaignID,
		Imported:   imported,
		Skipped:    skipped,
	}
}
