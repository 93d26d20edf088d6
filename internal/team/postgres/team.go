package postgres

import (
	"context"
	"errors"

	employeeDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/employee"
	userDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/user"
	"github.com/frahmantamala/dialer-dashboard/internal/team"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ team.Repository = (*Repository)(nil)

func toMember(e *employeeDatamodel.Employee, u *userDatamodel.User) *team.Member {
	m := &team.Member{
		ID:          e.ID,
		UserID:      e.UserID,
		AdminID:     e.AdminID,
		Permissions: e.Permissions,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if u != nil {
		m.User = team.MemberUser{ID: u.ID, Name: u.Name, Email: u.Email, Status: u.Status}
	}
	return m
}

func (r *Repository) List(ctx context.Context, adminID string) ([]*team.Member, error) {
	var employees []employeeDatamodel.Employee
	if err := r.db.WithContext(ctx).Where("admin_id = ?", adminID).Order("created_at DESC").Find(&employees).Error; err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return []*team.Member{}, nil
	}

	userIDs := make([]string, len(employees))
	for i, e := range employees {
		userIDs[i] = e.UserID
	}
	var users []userDatamodel.User
	if err := r.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]*userDatamodel.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	members := make([]*team.Member, 0, len(employees))
	for i := range employees {
		members = append(members, toMember(&employees[i], byID[employees[i].UserID]))
	}
	return members, nil
}

func (r *Repository) Get(ctx context.Context, employeeID string) (*team.Member, error) {
	return r.get(r.db.WithContext(ctx), employeeID)
}

func (r *Repository) get(db *gorm.DB, employeeID string) (*team.Member, error) {
	var e employeeDatamodel.Employee
	if err := db.Where("id = ?", employeeID).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, team.ErrNotFound
		}
		return nil, err
	}
	var u userDatamodel.User
	if err := db.Where("id = ?", e.UserID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return toMember(&e, nil), nil
		}
		return nil, err
	}
	return toMember(&e, &u), nil
}

func (r *Repository) Create(ctx context.Context, m team.NewMember) (*team.Member, error) {
	u := &userDatamodel.User{
		Name:         m.Name,
		Email:        m.Email,
		Username:     m.Email,
		PasswordHash: m.PasswordHash,
		Role:         "EMPLOYEE",
		Status:       "ACTIVE",
	}
	e := &employeeDatamodel.Employee{AdminID: m.AdminID, Permissions: m.Permissions}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&userDatamodel.User{}).
			Where("LOWER(email) = ? OR username = ?", m.Email, m.Email).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return team.ErrDuplicate
		}
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		e.UserID = u.ID
		return tx.Create(e).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, team.ErrDuplicate
		}
		return nil, err
	}
	return toMember(e, u), nil
}

func (r *Repository) Update(ctx context.Context, employeeID string, upd team.MemberUpdate) (*team.Member, error) {
	var member *team.Member
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := r.get(tx, employeeID)
		if err != nil {
			return err
		}

		userFields := map[string]interface{}{}
		if upd.Name != nil {
			userFields["name"] = *upd.Name
		}
		if upd.Email != nil && *upd.Email != current.User.Email {
			var n int64
			if err := tx.Model(&userDatamodel.User{}).
				Where("(LOWER(email) = ? OR username = ?) AND id <> ?", *upd.Email, *upd.Email, current.UserID).
				Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return team.ErrDuplicate
			}
			userFields["email"] = *upd.Email
			userFields["username"] = *upd.Email
		}
		if len(userFields) > 0 {
			if err := tx.Model(&userDatamodel.User{}).Where("id = ?", current.UserID).Updates(userFields).Error; err != nil {
				return err
			}
		}
		if upd.Permissions != nil {
			if err := tx.Model(&employeeDatamodel.Employee{}).Where("id = ?", employeeID).
				Update("permissions", *upd.Permissions).Error; err != nil {
				return err
			}
		}

		member, err = r.get(tx, employeeID)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, team.ErrDuplicate
		}
		return nil, err
	}
	return member, nil
}

func (r *Repository) Delete(ctx context.Context, employeeID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e employeeDatamodel.Employee
		if err := tx.Where("id = ?", employeeID).First(&e).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return team.ErrNotFound
			}
			return err
		}
		if err := tx.Where("employee_id = ?", employeeID).Delete(&employeeDatamodel.CampaignEmployee{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&e).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", e.UserID).Delete(&userDatamodel.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", e.UserID).Delete(&userDatamodel.User{}).Error
	})
}
