package user

import (
	"errors"
	"time"

	userDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/user"
)

// Profile is the caller's own account as shown on /users/me.
type Profile struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	Role          string     `json:"role"`
	Status        string     `json:"status"`
	EmailVerified *time.Time `json:"emailVerified,omitempty"`
	AdminID       string     `json:"adminId"`
	EmployeeID    string     `json:"employeeId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Settings are the tenant-wide plan and feature switches.
type Settings struct {
	ID               string                 `json:"id"`
	UserID           string                 `json:"userId"`
	PlanType         string                 `json:"planType"`
	AvailableCredits int                    `json:"availableCredits"`
	Features         map[string]interface{} `json:"features"`
	CreatedAt        time.Time              `json:"createdAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`
}

var ErrNotFound = errors.New("user not found")

func FromDataModel(u *userDatamodel.User) *Profile {
	return &Profile{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Username:      u.Username,
		Role:          u.Role,
		Status:        u.Status,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func SettingsFromDataModel(s *userDatamodel.AdminSettings) *Settings {
	features := s.Features
	if features == nil {
		features = map[string]interface{}{}
	}
	return &Settings{
		ID:               s.ID,
		UserID:           s.UserID,
		PlanType:         s.PlanType,
		AvailableCredits: s.AvailableCredits,
		Features:         features,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}
