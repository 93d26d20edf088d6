package contact

import (
	"errors"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	contactDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/contact"
)

const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
	StatusBlocked  = "BLOCKED"
)

const PageSize = 10

type Contact struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Phone        string                 `json:"phone"`
	Email        *string                `json:"email"`
	Tags         []string               `json:"tags"`
	CustomFields map[string]interface{} `json:"customFields"`
	Status       string                 `json:"status"`
	AdminID      string                 `json:"adminId"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

func (c *Contact) Ref() *auth.ContactRef {
	if c == nil {
		return nil
	}
	return &auth.ContactRef{ID: c.ID, AdminID: c.AdminID}
}

// ListFilter selects contacts within a scope. Limit 0 means no paging.
type ListFilter struct {
	Scope      auth.ContactScope
	Search     string
	Tags       []string
	CampaignID string
	Page       int
	Limit      int
}

// ImportStats is what one import transaction did.
type ImportStats struct {
	Imported int
	Skipped  int
	Linked   int
}

var (
	ErrNotFound       = errors.New("contact not found")
	ErrDuplicatePhone = errors.New("phone number already exists")
)

func FromDataModel(c *contactDatamodel.Contact) *Contact {
	tags := c.TagNames()
	custom := c.CustomFields
	if custom == nil {
		custom = map[string]interface{}{}
	}
	return &Contact{
		ID:           c.ID,
		Name:         c.Name,
		Phone:        c.Phone,
		Email:        c.Email,
		Tags:         tags,
		CustomFields: custom,
		Status:       c.Status,
		AdminID:      c.AdminID,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// ToDataModel copies c including its tags. The id must already be set.
func ToDataModel(c *Contact) *contactDatamodel.Contact {
	return &contactDatamodel.Contact{
		ID:           c.ID,
		Name:         c.Name,
		Phone:        c.Phone,
		Email:        c.Email,
		CustomFields: c.CustomFields,
		Status:       c.Status,
		AdminID:      c.AdminID,
		Tags:         contactDatamodel.TagsFrom(c.ID, c.Tags),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
