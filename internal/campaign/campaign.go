package campaign

import (
	"errors"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/appointment"
	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	"github.com/frahmantamala/dialer-dashboard/internal/calllog"
	"github.com/frahmantamala/dialer-dashboard/internal/contact"
	campaignDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/campaign"
)

const (
	StatusActive    = "ACTIVE"
	StatusPaused    = "PAUSED"
	StatusCompleted = "COMPLETED"
)

var Statuses = []string{StatusActive, StatusPaused, StatusCompleted}

// Scheduled call lifecycle: PENDING -> DIALING -> COMPLETED, or back to PENDING
// on a failed attempt until the runner gives up with FAILED.
const (
	CallPending   = "PENDING"
	CallDialing   = "DIALING"
	CallCompleted = "COMPLETED"
	CallFailed    = "FAILED"
	CallCancelled = "CANCELLED"
)

type Campaign struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Description    *string                `json:"description"`
	StartDate      *time.Time             `json:"startDate"`
	EndDate        *time.Time             `json:"endDate"`
	Status         string                 `json:"status"`
	Settings       map[string]interface{} `json:"settings"`
	SystemMessage  *string                `json:"systemMessage"`
	InitialMessage *string                `json:"initialMessage"`
	AdminID        string                 `json:"adminId"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
	Admin          *AdminSummary          `json:"admin,omitempty"`
	ContactCount   int                    `json:"contactCount"`
	Contacts       []Link                 `json:"contacts,omitempty"`
}

func (c *Campaign) Ref() *auth.CampaignRef {
	if c == nil {
		return nil
	}
	return &auth.CampaignRef{ID: c.ID, AdminID: c.AdminID}
}

type AdminSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Link is a contact's membership in a campaign.
type Link struct {
	ID           string     `json:"id"`
	ContactID    string     `json:"contactId"`
	Status       string     `json:"status"`
	LastCalled   *time.Time `json:"lastCalled"`
	CallAttempts int        `json:"callAttempts"`
}

// Messages are the prompts handed to the voice agent.
type Messages struct {
	SystemMessage  *string `json:"systemMessage"`
	InitialMessage *string `json:"initialMessage"`
}

type AssignedEmployee struct {
	EmployeeID string    `json:"employeeId"`
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	AssignedAt time.Time `json:"assignedAt"`
}

// Member is a contact together with its link to one campaign.
type Member struct {
	*contact.Contact
	Campaign Link `json:"campaign"`
}

type Lead struct {
	*contact.Contact
	Campaign          Link                     `json:"campaign"`
	AppointmentCount  int                      `json:"appointmentCount"`
	LatestAppointment *appointment.Appointment `json:"latestAppointment"`
	LatestCall        *calllog.CallLog         `json:"latestCall"`
}

type ScheduledCall struct {
	ID          string    `json:"id"`
	CampaignID  string    `json:"campaignId"`
	ContactID   string    `json:"contactId"`
	Phone       string    `json:"phone"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Status      string    `json:"status"`
	CallSid     *string   `json:"callSid"`
	Attempts    int       `json:"attempts"`
	LastError   *string   `json:"lastError"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AppointmentItem is the calendar-friendly shape of a campaign appointment.
type AppointmentItem struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Start       time.Time      `json:"start"`
	End         time.Time      `json:"end"`
	Status      string         `json:"status"`
	Contact     AppointmentWho `json:"contact"`
}

type AppointmentWho struct {
	Name  string  `json:"name"`
	Phone string  `json:"phone"`
	Email *string `json:"email"`
}

type AppointmentFilter struct {
	CampaignID string
	Status     string
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	Limit      int
}

type CalendarEvent struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	Type            string    `json:"type"`
	PhoneNumber     string    `json:"phone_number"`
	BackgroundColor string    `json:"backgroundColor"`
	BorderColor     string    `json:"borderColor"`
}

var (
	ErrNotFound    = errors.New("campaign not found")
	ErrNotLinked   = errors.New("contact not linked to campaign")
	ErrNotAssigned = errors.New("employee not assigned to campaign")
)

func FromDataModel(c *campaignDatamodel.Campaign) *Campaign {
	settings := c.Settings
	if settings == nil {
		settings = map[string]interface{}{}
	}
	return &Campaign{
		ID:             c.ID,
		Name:           c.Name,
		Description:    c.Description,
		StartDate:      c.StartDate,
		EndDate:        c.EndDate,
		Status:         c.Status,
		Settings:       settings,
		SystemMessage:  c.SystemMessage,
		InitialMessage: c.InitialMessage,
		AdminID:        c.AdminID,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func ToDataModel(c *Campaign) *campaignDatamodel.Campaign {
	return &campaignDatamodel.Campaign{
		ID:             c.ID,
		Name:           c.Name,
		Description:    c.Description,
		StartDate:      c.StartDate,
		EndDate:        c.EndDate,
		Status:         c.Status,
		Settings:       c.Settings,
		SystemMessage:  c.SystemMessage,
		InitialMessage: c.InitialMessage,
		AdminID:        c.AdminID,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func LinkFromDataModel(l *campaignDatamodel.CampaignContact) Link {
	return Link{ID: l.ID, ContactID: l.ContactID, Status: l.Status, LastCalled: l.LastCalled, CallAttempts: l.CallAttempts}
}

func ScheduledCallFromDataModel(s *campaignDatamodel.ScheduledCall) *ScheduledCall {
	return &ScheduledCall{
		ID:          s.ID,
		CampaignID:  s.CampaignID,
		ContactID:   s.ContactID,
		Phone:       s.Phone,
		ScheduledAt: s.ScheduledAt,
		Status:      s.Status,
		CallSid:     s.CallSid,
		Attempts:    s.Attempts,
		LastError:   s.LastError,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
