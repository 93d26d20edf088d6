// Package dialer places calls through the external AI dialer and reads its transcripts.
package dialer

import (
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/calllog"
)

// CampaignInfo is what a call needs from its campaign.
type CampaignInfo struct {
	ID             string
	AdminID        string
	Status         string
	SystemMessage  *string
	InitialMessage *string
}

// Target is a contact as linked to one campaign.
type Target struct {
	ContactID  string
	Name       string
	Phone      string
	Status     string
	LinkStatus string
}

// CallResult is the answer of a campaign call.
type CallResult struct {
	CallLog *calllog.CallLog       `json:"callLog"`
	Dialer  map[string]interface{} `json:"dialer"`
}

// CallLogItem is a dialer transcript presented as a call log row.
type CallLogItem struct {
	ID            string    `json:"id"`
	CallSid       string    `json:"callSid"`
	PhoneNumber   string    `json:"phoneNumber"`
	Timestamp     time.Time `json:"timestamp"`
	Status        string    `json:"status"`
	Duration      string    `json:"duration"`
	HasRecording  bool      `json:"hasRecording"`
	HasTranscript bool      `json:"hasTranscript"`
}
