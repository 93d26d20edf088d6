package user

import (
	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/core/common/validation"
)

// UpdateSettingsDTO merges Features into the stored feature map. A null value removes the key.
type UpdateSettingsDTO struct {
	Features map[string]interface{} `json:"features"`
}

func (d UpdateSettingsDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("features", d.Features).Custom(func(value interface{}) *internal.AppError {
		if f, _ := value.(map[string]interface{}); f == nil {
			return internal.NewValidationFieldError("features", "Features are required", internal.ErrCodeValidationFailed)
		}
		return nil
	})
	return v.Validate()
}
