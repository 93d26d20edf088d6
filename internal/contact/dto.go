package contact

import (
	"strings"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/core/common/validation"
)

type CreateContactDTO struct {
	Name         string                 `json:"name"`
	Phone        string                 `json:"phone"`
	Email        *string                `json:"email"`
	Tags         []string               `json:"tags"`
	CustomFields map[string]interface{} `json:"customFields"`
	Status       string                 `json:"status"`
}

func (d *CreateContactDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Email = trimOptional(d.Email)
	d.Tags = cleanTags(d.Tags)
	if d.Status == "" {
		d.Status = StatusActive
	}
}

func (d CreateContactDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", d.Name).Label("Name").Required()
	v.Field("phone", d.Phone).Label("Phone number").Required()
	v.Field("email", d.Email).Optional().Email()
	v.Field("status", d.Status).Label("Status").OneOf(StatusActive, StatusInactive, StatusBlocked)
	return v.Validate()
}

// UpdateContactDTO is a partial update. ID is only read by PUT /contacts.
type UpdateContactDTO struct {
	ID           string                  `json:"id"`
	Name         *string                 `json:"name"`
	Phone        *string                 `json:"phone"`
	Email        *string                 `json:"email"`
	Tags         *[]string               `json:"tags"`
	CustomFields *map[string]interface{} `json:"customFields"`
	Status       *string                 `json:"status"`
}

func (d *UpdateContactDTO) Normalize() {
	if d.Name != nil {
		n := strings.TrimSpace(*d.Name)
		d.Name = &n
	}
	if d.Phone != nil {
		p := strings.TrimSpace(*d.Phone)
		d.Phone = &p
	}
	if d.Email != nil {
		e := strings.TrimSpace(*d.Email)
		d.Email = &e
	}
	if d.Tags != nil {
		t := cleanTags(*d.Tags)
		d.Tags = &t
	}
}

func (d UpdateContactDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", *d.Name).Label("Name").Required()
	}
	if d.Phone != nil {
		v.Field("phone", *d.Phone).Label("Phone number").Required()
	}
	v.Field("email", d.Email).Optional().Email()
	if d.Status != nil {
		v.Field("status", *d.Status).Label("Status").OneOf(StatusActive, StatusInactive, StatusBlocked)
	}
	return v.Validate()
}

// apply copies the set fields onto c. An empty email clears it.
func (d UpdateContactDTO) apply(c *Contact) {
	if d.Name != nil {
		c.Name = *d.Name
	}
	if d.Phone != nil {
		c.Phone = *d.Phone
	}
	if d.Email != nil {
		if *d.Email == "" {
			c.Email = nil
		} else {
			e := *d.Email
			c.Email = &e
		}
	}
	if d.Tags != nil {
		c.Tags = *d.Tags
	}
	if d.CustomFields != nil {
		c.CustomFields = *d.CustomFields
	}
	if d.Status != nil {
		c.Status = *d.Status
	}
}

// ListQuery is the query string of GET /contacts.
type ListQuery struct {
	Search string
	Tags   []string
	Page   int
}

type ListResult struct {
	Contacts   []*Contact `json:"contacts"`
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

type ImportResult struct {
	Message  string `json:"message"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Linked   int    `json:"linked,omitempty"`
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

// SplitTags splits a comma separated tag list, dropping blanks.
func SplitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	return cleanTags(strings.Split(raw, ","))
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
