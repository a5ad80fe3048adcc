package dto

type SignupDTO struct {
	Name     string `json:"name"     validate:"required,max=50"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=64"`
	Role     string `json:"role"     validate:"omitempty,selfrole"`
}

type LoginDTO struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyEmailDTO struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp"   validate:"required,len=6,numeric"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type LogoutDTO struct {
	Email string `json:"email" validate:"required,email"`
}

type ForgotPasswordDTO struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordDTO struct {
	Email       string `json:"email"       validate:"required,email"`
	OTP         string `json:"otp"         validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=64"`
}

type UpdatePasswordDTO struct {
	Email           string `json:"email"           validate:"required,email"`
	OldPassword     string `json:"oldPassword"     validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=6,max=64"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}
