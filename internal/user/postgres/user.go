package postgres

import (
	"context"
	"errors"

	userDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/user"
	"github.com/frahmantamala/dialer-dashboard/internal/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ user.Repository = (*Repository)(nil)

func (r *Repository) GetByID(ctx context.Context, userID string) (*user.Profile, error) {
	var u userDatamodel.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&u), nil
}

func (r *Repository) GetSettings(ctx context.Context, adminID string) (*user.Settings, error) {
	var s userDatamodel.AdminSettings
	if err := r.db.WithContext(ctx).Where("user_id = ?", adminID).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return user.SettingsFromDataModel(&s), nil
}

// MergeFeatures reads and rewrites the feature map under a row lock.
func (r *Repository) MergeFeatures(ctx context.Context, adminID string, features map[string]interface{}) (*user.Settings, error) {
	var s userDatamodel.AdminSettings
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Where("user_id = ?", adminID).First(&s).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return user.ErrNotFound
			}
			return err
		}
		if s.Features == nil {
			s.Features = map[string]interface{}{}
		}
		for k, v := range features {
			if v == nil {
				delete(s.Features, k)
				continue
			}
			s.Features[k] = v
		}
		return tx.Model(&s).Select("features", "updated_at").Updates(&s).Error
	})
	if err != nil {
		return nil, err
	}
	return user.SettingsFromDataModel(&s), nil
}

func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
