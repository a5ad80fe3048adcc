package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser   Role = "USER"
	RoleVendor Role = "VENDOR"
	RoleAdmin  Role = "ADMIN"
)

// SelfAssignable reports whether a caller may pick this role at signup.
// ADMIN is only ever granted by an existing admin, never self-assigned.
func (r Role) SelfAssignable() bool {
	return r == RoleUser || r == RoleVendor
}

// Account is the persisted identity. A non-nil OTP always travels with a
// non-nil expiry; RefreshToken mirrors the single currently valid refresh
// token so that superseded values can be rejected as replays.
type Account struct {
	ID           uuid.UUID `gorm:"primaryKey;type:uuid"`
	Name         string    `gorm:"size:50;not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Role         Role      `gorm:"size:16;not null;default:USER"`
	IsVerified   bool      `gorm:"not null;default:false"`
	IsActive     bool      `gorm:"not null;default:true"`

	VerifyOTP         *string    `gorm:"column:verify_otp;size:6"`
	VerifyOTPExpireAt *time.Time `gorm:"column:verify_otp_expire_at"`
	ResetOTP          *string    `gorm:"column:reset_otp;size:6"`
	ResetOTPExpireAt  *time.Time `gorm:"column:reset_otp_expire_at"`
	RefreshToken      *string    `gorm:"column:refresh_token"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Account) TableName() string { return "users" }

// PublicUser is the projection returned to callers. It never carries the
// password hash, OTPs or tokens.
type PublicUser struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	IsVerified bool      `json:"isVerified"`
}

func (a *Account) Public() PublicUser {
	return PublicUser{
		ID:         a.ID,
		Name:       a.Name,
		Email:      a.Email,
		Role:       a.Role,
		IsVerified: a.IsVerified,
	}
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// Principal is the resolved identity of an authenticated caller, produced
// once by the auth middleware and threaded to downstream handlers.
type Principal struct {
	ID   uuid.UUID
	Role Role
}
