package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/shoemart/auth-service/internal/domain/auth/model"
)

// UserRepo is the credential store. It is the single writer of account
// state; every OTP, verification and refresh-token mutation goes through it.
// Emails are normalized to lowercase on write and on query.
//
// The Consume*/Rotate methods are single conditional UPDATEs so that
// check-and-use of an OTP or refresh token is atomic at the store: of two
// concurrent requests presenting the same value, exactly one wins.
type UserRepo interface {
	CreateUser(ctx context.Context, u model.Account) (model.Account, error)

	GetUserByEmail(ctx context.Context, email string) (model.Account, error)

	GetUserByID(ctx context.Context, id uuid.UUID) (model.Account, error)

	ListUsers(ctx context.Context) ([]model.Account, error)

	UpdateUser(ctx context.Context, u model.Account) error

	// ConsumeVerifyOTP clears the verification pair and marks the account
	// verified in one step, only where the stored code matches and the
	// account is still unverified. Returns ErrInvalidOTP when no row
	// qualified.
	ConsumeVerifyOTP(ctx context.Context, id uuid.UUID, otp string) error

	// ConsumeResetOTP installs the new password hash and clears the reset
	// pair in one step, only where the stored code matches. Returns
	// ErrInvalidOTP when no row qualified.
	ConsumeResetOTP(ctx context.Context, id uuid.UUID, otp, newHash string) error

	// RotateRefreshToken replaces the stored refresh token with next, only
	// where the stored value equals presented. An empty presented value
	// overwrites unconditionally (the login rotation point). Returns
	// ErrTokenReplay when the stored token no longer matches.
	RotateRefreshToken(ctx context.Context, id uuid.UUID, presented, next string) error

	// ClearRefreshToken removes any stored refresh token. Idempotent.
	ClearRefreshToken(ctx context.Context, id uuid.UUID) error
}
