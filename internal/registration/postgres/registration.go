package postgres

import (
	"context"
	"errors"
	"time"

	userDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/user"
	"github.com/frahmantamala/dialer-dashboard/internal/registration"
	"gorm.io/gorm"
)

const (
	defaultPlan    = "FREE"
	defaultCredits = 100
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Exists(ctx context.Context, email, username string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("LOWER(email) = LOWER(?) OR username = ?", email, username).
		Count(&n).Error
	return n > 0, err
}

func (r *Repository) CreateAdmin(ctx context.Context, admin registration.NewAdmin) (*registration.Account, error) {
	now := time.Now().UTC()
	u := &userDatamodel.User{
		Name:          admin.Name,
		Email:         admin.Email,
		Username:      admin.Username,
		PasswordHash:  admin.PasswordHash,
		Role:          "ADMIN",
		Status:        "ACTIVE",
		EmailVerified: &now,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		return tx.Create(&userDatamodel.AdminSettings{
			UserID:           u.ID,
			PlanType:         defaultPlan,
			AvailableCredits: defaultCredits,
			Features:         map[string]interface{}{},
		}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, registration.ErrDuplicate
		}
		return nil, err
	}

	return &registration.Account{ID: u.ID, Name: u.Name, Email: u.Email, Username: u.Username}, nil
}
