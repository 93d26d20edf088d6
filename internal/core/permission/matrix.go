// Package permission holds the per-employee capability matrix stored as JSON.
package permission

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

type Resource string

const (
	ResourceContacts  Resource = "contacts"
	ResourceCampaigns Resource = "campaigns"
	ResourceCallLogs  Resource = "callLogs"
	ResourceAISummary Resource = "aiSummary"
)

type Action string

const (
	ActionView     Action = "view"
	ActionCreate   Action = "create"
	ActionEdit     Action = "edit"
	ActionDelete   Action = "delete"
	ActionImport   Action = "import"
	ActionExport   Action = "export"
	ActionDownload Action = "download"
)

type AccessType string

const (
	AccessAll      AccessType = "ALL"
	AccessAssigned AccessType = "ASSIGNED"
	// AccessCampaignOnly is the legacy spelling of AccessAssigned.
	AccessCampaignOnly AccessType = "CAMPAIGN_ONLY"
)

// Normalize folds the legacy spelling and unknown values into ASSIGNED.
func (a AccessType) Normalize() AccessType {
	if strings.EqualFold(string(a), string(AccessAll)) {
		return AccessAll
	}
	return AccessAssigned
}

type ContactPermissions struct {
	View       bool       `json:"view"`
	Create     bool       `json:"create"`
	Edit       bool       `json:"edit"`
	Delete     bool       `json:"delete"`
	Import     bool       `json:"import"`
	Export     bool       `json:"export"`
	AccessType AccessType `json:"accessType"`
}

type CampaignPermissions struct {
	View   bool `json:"view"`
	Create bool `json:"create"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
}

type CallLogPermissions struct {
	View     bool `json:"view"`
	Download bool `json:"download"`
}

type AISummaryPermissions struct {
	View bool `json:"view"`
}

type Matrix struct {
	Contacts  ContactPermissions   `json:"contacts"`
	Campaigns CampaignPermissions  `json:"campaigns"`
	CallLogs  CallLogPermissions   `json:"callLogs"`
	AISummary AISummaryPermissions `json:"aiSummary"`
}

// Default is what an employee gets when created without permissions.
func Default() Matrix {
	return Matrix{Contacts: ContactPermissions{AccessType: AccessAssigned}}
}

// Full is the implicit matrix of admins.
func Full() Matrix {
	return Matrix{
		Contacts: ContactPermissions{
			View: true, Create: true, Edit: true, Delete: true,
			Import: true, Export: true, AccessType: AccessAll,
		},
		Campaigns: CampaignPermissions{View: true, Create: true, Edit: true, Delete: true},
		CallLogs:  CallLogPermissions{View: true, Download: true},
		AISummary: AISummaryPermissions{View: true},
	}
}

// Allows reports whether the flag for resource/action is set. Unknown pairs are denied.
func (m Matrix) Allows(resource Resource, action Action) bool {
	switch resource {
	case ResourceContacts:
		switch action {
		case ActionView:
			return m.Contacts.View
		case ActionCreate:
			return m.Contacts.Create
		case ActionEdit:
			return m.Contacts.Edit
		case ActionDelete:
			return m.Contacts.Delete
		case ActionImport:
			return m.Contacts.Import
		case ActionExport:
			return m.Contacts.Export
		}
	case ResourceCampaigns:
		switch action {
		case ActionView:
			return m.Campaigns.View
		case ActionCreate:
			return m.Campaigns.Create
		case ActionEdit:
			return m.Campaigns.Edit
		case ActionDelete:
			return m.Campaigns.Delete
		}
	case ResourceCallLogs:
		switch action {
		case ActionView:
			return m.CallLogs.View
		case ActionDownload:
			return m.CallLogs.Download
		}
	case ResourceAISummary:
		return action == ActionView && m.AISummary.View
	}
	return false
}

func (m Matrix) ContactAccess() AccessType {
	return m.Contacts.AccessType.Normalize()
}

// Parse decodes a stored matrix. Missing sections stay all-false.
func Parse(raw []byte) (Matrix, error) {
	m := Default()
	if len(raw) == 0 || string(raw) == "null" {
		return m, nil
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return Default(), fmt.Errorf("invalid permission matrix: %w", err)
	}
	m.Contacts.AccessType = m.Contacts.AccessType.Normalize()
	return m, nil
}

// Value stores the matrix as JSON text.
func (m Matrix) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *Matrix) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = Default()
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported permission matrix type %T", src)
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
