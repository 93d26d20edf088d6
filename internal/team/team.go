package team

import (
	"errors"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/core/permission"
)

// Member is an employee profile together with its login account.
type Member struct {
	ID          string            `json:"id"`
	UserID      string            `json:"userId"`
	AdminID     string            `json:"adminId"`
	Permissions permission.Matrix `json:"permissions"`
	User        MemberUser        `json:"user"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

type MemberUser struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

// NewMember is what the repository needs to create an employee and its user atomically.
type NewMember struct {
	AdminID      string
	Name         string
	Email        string
	PasswordHash string
	Permissions  permission.Matrix
}

type MemberUpdate struct {
	Name        *string
	Email       *string
	Permissions *permission.Matrix
}

var (
	ErrNotFound  = errors.New("employee not found")
	ErrDuplicate = errors.New("email already exists")
)
