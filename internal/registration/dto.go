package registration

import (
	"strings"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/core/common/validation"
)

type RegisterDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (d *RegisterDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	d.Username = strings.TrimSpace(d.Username)
}

func (d RegisterDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", d.Name).Label("Name").Required().MinLength(2)
	v.Field("email", d.Email).Label("Email").Required().Email()
	v.Field("username", d.Username).Label("Username").Required().MinLength(3)
	v.Field("password", d.Password).Label("Password").Required().MinLength(8)
	return v.Validate()
}

// SignupDTO adds upper bounds on name and username.
type SignupDTO RegisterDTO

func (d *SignupDTO) Normalize() {
	(*RegisterDTO)(d).Normalize()
}

func (d SignupDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", d.Name).Label("Name").Required().MinLength(2).MaxLength(50)
	v.Field("email", d.Email).Label("Email").Required().Email()
	v.Field("username", d.Username).Label("Username").Required().MinLength(3).MaxLength(50)
	v.Field("password", d.Password).Label("Password").Required().MinLength(8)
	return v.Validate()
}

type VerifyDTO struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (d VerifyDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("email", strings.TrimSpace(d.Email)).Label("Email").Required().Email()
	v.Field("otp", strings.TrimSpace(d.OTP)).Label("OTP").Required().Length(6)
	return v.Validate()
}

// Account is what registration hands back to the client.
type Account struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}
