package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID            string     `gorm:"primaryKey;type:varchar(36)"`
	Name          string     `gorm:"column:name;not null"`
	Email         string     `gorm:"column:email;uniqueIndex;not null"`
	Username      string     `gorm:"column:username;uniqueIndex;not null"`
	PasswordHash  string     `gorm:"column:password_hash;not null"`
	Role          string     `gorm:"column:role;not null"`
	Status        string     `gorm:"column:status;not null"`
	EmailVerified *time.Time `gorm:"column:email_verified"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type AdminSettings struct {
	ID               string                 `gorm:"primaryKey;type:varchar(36)"`
	UserID           string                 `gorm:"column:user_id;uniqueIndex;not null"`
	PlanType         string                 `gorm:"column:plan_type;not null"`
	AvailableCredits int                    `gorm:"column:available_credits;not null"`
	Features         map[string]interface{} `gorm:"column:features;serializer:json"`
	CreatedAt        time.Time              `gorm:"column:created_at"`
	UpdatedAt        time.Time              `gorm:"column:updated_at"`
}

func (AdminSettings) TableName() string { return "admin_settings" }

func (s *AdminSettings) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// RefreshToken stores only the sha256 of an issued refresh token.
type RefreshToken struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)"`
	UserID     string    `gorm:"column:user_id;index;not null"`
	TokenHash  string    `gorm:"column:token_hash;uniqueIndex;not null"`
	ExpiresAt  time.Time `gorm:"column:expires_at;not null"`
	Revoked    bool      `gorm:"column:revoked;not null;default:false"`
	ReplacedBy *string   `gorm:"column:replaced_by"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

func (t *RefreshToken) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
