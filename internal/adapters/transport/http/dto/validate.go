package dto

import (
	validate "github.com/go-playground/validator/v10"

	"github.com/shoemart/auth-service/internal/domain/auth/model"
)

// NewValidator returns a validator with the custom rules the DTOs rely on.
// "selfrole" accepts only roles a caller may pick for themselves at signup;
// ADMIN is never self-assignable.
func NewValidator() *validate.Validate {
	v := validate.New()
	_ = v.RegisterValidation("selfrole", func(fl validate.FieldLevel) bool {
		return model.Role(fl.Field().String()).SelfAssignable()
	})
	return v
}
