package team

import (
	"strings"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/core/common/validation"
	"github.com/frahmantamala/dialer-dashboard/internal/core/permission"
)

type CreateEmployeeDTO struct {
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Password    string             `json:"password"`
	Permissions *permission.Matrix `json:"permissions"`
}

func (d *CreateEmployeeDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
}

func (d CreateEmployeeDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", d.Name).Label("Name").Required()
	v.Field("email", d.Email).Label("Email").Required().Email()
	v.Field("password", d.Password).Label("Password").Required().MinLength(8)
	return v.Validate()
}

// Matrix returns the requested permissions or the default for new employees.
func (d CreateEmployeeDTO) Matrix() permission.Matrix {
	if d.Permissions == nil {
		return permission.Default()
	}
	m := *d.Permissions
	m.Contacts.AccessType = m.Contacts.AccessType.Normalize()
	return m
}

type UpdateEmployeeDTO struct {
	Name        *string            `json:"name"`
	Email       *string            `json:"email"`
	Permissions *permission.Matrix `json:"permissions"`
}

func (d *UpdateEmployeeDTO) Normalize() {
	if d.Name != nil {
		n := strings.TrimSpace(*d.Name)
		d.Name = &n
	}
	if d.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*d.Email))
		d.Email = &e
	}
	if d.Permissions != nil {
		d.Permissions.Contacts.AccessType = d.Permissions.Contacts.AccessType.Normalize()
	}
}

func (d UpdateEmployeeDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", *d.Name).Label("Name").Required()
	}
	if d.Email != nil {
		v.Field("email", *d.Email).Label("Email").Required().Email()
	}
	return v.Validate()
}

func (d UpdateEmployeeDTO) toUpdate() MemberUpdate {
	return MemberUpdate{Name: d.Name, Email: d.Email, Permissions: d.Permissions}
}
