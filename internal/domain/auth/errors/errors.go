package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the auth subsystem. The HTTP layer maps these to
// status codes in exactly one place; nothing below the transport formats
// responses. Credential and OTP failures stay deliberately vague so a
// caller cannot tell which sub-check failed.
var (
	ErrValidation         = errors.New("invalid input")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email not verified")
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenReplay        = errors.New("refresh token superseded")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrOTPExpired         = errors.New("otp expired")
	ErrNoOTPIssued        = errors.New("no otp issued")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrMailDelivery       = errors.New("mail delivery failed")
	ErrInternal           = errors.New("internal error")
)

func NewValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func WrapInternal(err error, op string) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}

func WrapDelivery(err error) error {
	return fmt.Errorf("%w: %v", ErrMailDelivery, err)
}

func IsValidation(err error) bool         { return errors.Is(err, ErrValidation) }
func IsConflict(err error) bool           { return errors.Is(err, ErrConflict) }
func IsInvalidCredentials(err error) bool { return errors.Is(err, ErrInvalidCredentials) }
func IsNotVerified(err error) bool        { return errors.Is(err, ErrNotVerified) }
func IsNotFound(err error) bool           { return errors.Is(err, ErrNotFound) }
func IsUnauthorized(err error) bool       { return errors.Is(err, ErrUnauthorized) }
func IsForbidden(err error) bool          { return errors.Is(err, ErrForbidden) }
func IsInvalidToken(err error) bool       { return errors.Is(err, ErrInvalidToken) }
func IsTokenReplay(err error) bool        { return errors.Is(err, ErrTokenReplay) }
func IsInvalidOTP(err error) bool         { return errors.Is(err, ErrInvalidOTP) }
func IsOTPExpired(err error) bool         { return errors.Is(err, ErrOTPExpired) }
func IsNoOTPIssued(err error) bool        { return errors.Is(err, ErrNoOTPIssued) }
func IsPasswordMismatch(err error) bool   { return errors.Is(err, ErrPasswordMismatch) }
func IsMailDelivery(err error) bool       { return errors.Is(err, ErrMailDelivery) }
func IsInternal(err error) bool           { return errors.Is(err, ErrInternal) }
