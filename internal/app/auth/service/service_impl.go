package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	validate "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/shoemart/auth-service/internal/adapters/transport/http/dto"
	"github.com/shoemart/auth-service/internal/app/auth/otp"
	"github.com/shoemart/auth-service/internal/app/auth/password"
	customErrors "github.com/shoemart/auth-service/internal/domain/auth/errors"
	"github.com/shoemart/auth-service/internal/domain/auth/jwt"
	"github.com/shoemart/auth-service/internal/domain/auth/model"
	"github.com/shoemart/auth-service/internal/domain/auth/repo"
	"github.com/shoemart/auth-service/internal/domain/mail"
	"github.com/shoemart/auth-service/internal/infra/config"
)

type authService struct {
	userRepo repo.UserRepo
	issuer   jwt.TokenIssuer
	hasher   *password.Hasher
	mailer   mail.Mailer
	cfg      *config.Config
	v        *validate.Validate
}

func (a *authService) Signup(ctx context.Context, in dto.SignupDTO) (model.PublicUser, error) {
	if err := a.v.Struct(in); err != nil {
		return model.PublicUser{}, customErrors.NewValidation(err.Error())
	}

	role := model.RoleUser
	if in.Role != "" {
		role = model.Role(in.Role)
	}

	hash, err := a.hasher.Hash(in.Password)
	if err != nil {
		return model.PublicUser{}, err
	}

	code, expireAt, err := otp.Generate(a.cfg.OTPTTL)
	if err != nil {
		return model.PublicUser{}, err
	}

	user := model.Account{
		ID:                uuid.New(),
		Name:              in.Name,
		Email:             strings.ToLower(in.Email),
		PasswordHash:      hash,
		Role:              role,
		IsActive:          true,
		VerifyOTP:         &code,
		VerifyOTPExpireAt: &expireAt,
	}

	created, err := a.userRepo.CreateUser(ctx, user)
	if err != nil {
		return model.PublicUser{}, err
	}

	if err := a.sendVerifyOTP(ctx, created, code); err != nil {
		return model.PublicUser{}, err
	}

	return created.Public(), nil
}

func (a *authService) VerifyEmail(ctx context.Context, in dto.VerifyEmailDTO) (model.PublicUser, error) {
	if err := a.v.Struct(in); err != nil {
		return model.PublicUser{}, customErrors.NewValidation(err.Error())
	}

	user, err := a.userRepo.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return model.PublicUser{}, err
	}

	// Repeated verification is an idempotent success, not an error.
	if user.IsVerified {
		return user.Public(), nil
	}

	if user.VerifyOTP == nil || user.VerifyOTPExpireAt == nil {
		return model.PublicUser{}, customErrors.ErrNoOTPIssued
	}

	if otp.Expired(*user.VerifyOTPExpireAt) {
		// Self-healing: issue a fresh code and report the expiry rather
		// than leaving the caller in a dead end.
		code, expireAt, err := otp.Generate(a.cfg.OTPTTL)
		if err != nil {
			return model.PublicUser{}, err
		}
		user.VerifyOTP = &code
		user.VerifyOTPExpireAt = &expireAt
		if err := a.userRepo.UpdateUser(ctx, user); err != nil {
			return model.PublicUser{}, err
		}
		if err := a.sendVerifyOTP(ctx, user, code); err != nil {
			return model.PublicUser{}, err
		}
		return model.PublicUser{}, customErrors.ErrOTPExpired
	}

	// The store clears the pair and flips the flag in one conditional
	// update, so a second request racing on the same code loses.
	if err := a.userRepo.ConsumeVerifyOTP(ctx, user.ID, in.OTP); err != nil {
		return model.PublicUser{}, err
	}

	user.IsVerified = true
	user.VerifyOTP = nil
	user.VerifyOTPExpireAt = nil
	return user.Public(), nil
}

func (a *authService) Login(ctx context.Context, in dto.LoginDTO) (model.TokenPair, model.PublicUser, error) {
	if err := a.v.Struct(in); err != nil {
		return model.TokenPair{}, model.PublicUser{}, customErrors.NewValidation(err.Error())
	}

	user, err := a.userRepo.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if customErrors.IsNotFound(err) {
			// Same answer as a wrong password, to resist enumeration.
			return model.TokenPair{}, model.PublicUser{}, customErrors.ErrInvalidCredentials
		}
		return model.TokenPair{}, model.PublicUser{}, err
	}

	if !a.hasher.Verify(in.Password, user.PasswordHash) {
		return model.TokenPair{}, model.PublicUser{}, customErrors.ErrInvalidCredentials
	}

	if !user.IsVerified {
		return model.TokenPair{}, model.PublicUser{}, customErrors.ErrNotVerified
	}

	if !user.IsActive {
		return model.TokenPair{}, model.PublicUser{}, customErrors.ErrForbidden
	}

	pair, err := a.issueTokens(user.ID)
	if err != nil {
		return model.TokenPair{}, model.PublicUser{}, err
	}

	// Login is a rotation point: any previously stored refresh token is
	// overwritten and thereby invalidated.
	if err := a.userRepo.RotateRefreshToken(ctx, user.ID, "", pair.RefreshToken); err != nil {
		return model.TokenPair{}, model.PublicUser{}, err
	}

	return pair, user.Public(), nil
}

func (a *authService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	if refreshToken == "" {
		return model.TokenPair{}, customErrors.ErrUnauthorized
	}

	uid, err := a.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	user, err := a.userRepo.GetUserByID(ctx, uid)
	if err != nil {
		return model.TokenPair{}, err
	}

	if !user.IsActive {
		return model.TokenPair{}, customErrors.ErrForbidden
	}

	pair, err := a.issueTokens(user.ID)
	if err != nil {
		return model.TokenPair{}, err
	}

	// Conditional rotation: only the request whose token still matches the
	// stored value wins; a superseded or stolen token fails as a replay.
	if err := a.userRepo.RotateRefreshToken(ctx, user.ID, refreshToken, pair.RefreshToken); err != nil {
		return model.TokenPair{}, err
	}

	return pair, nil
}

func (a *authService) Logout(ctx context.Context, email string) error {
	user, err := a.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	return a.userRepo.ClearRefreshToken(ctx, user.ID)
}

func (a *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := a.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, expireAt, err := otp.Generate(a.cfg.OTPTTL)
	if err != nil {
		return err
	}

	user.ResetOTP = &code
	user.ResetOTPExpireAt = &expireAt
	if err := a.userRepo.UpdateUser(ctx, user); err != nil {
		return err
	}

	body := fmt.Sprintf(
		"Hello %s,\n\nYour OTP for password reset is: %s\nThis OTP will expire in %d minutes.",
		user.Name, code, int(a.cfg.OTPTTL.Minutes()),
	)
	if err := a.mailer.Send(ctx, user.Email, "Your Password Reset OTP - Shoe Mart", body); err != nil {
		return customErrors.WrapDelivery(err)
	}
	return nil
}

func (a *authService) ResetPassword(ctx context.Context, in dto.ResetPasswordDTO) error {
	if err := a.v.Struct(in); err != nil {
		return customErrors.NewValidation(err.Error())
	}

	user, err := a.userRepo.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return err
	}

	if user.ResetOTP == nil || user.ResetOTPExpireAt == nil {
		return customErrors.ErrNoOTPIssued
	}

	if subtle.ConstantTimeCompare([]byte(*user.ResetOTP), []byte(in.OTP)) != 1 {
		return customErrors.ErrInvalidOTP
	}

	// A stale reset code is a hard failure; the caller has to request a
	// fresh one, unlike the self-healing verify flow.
	if otp.Expired(*user.ResetOTPExpireAt) {
		return customErrors.ErrOTPExpired
	}

	hash, err := a.hasher.Hash(in.NewPassword)
	if err != nil {
		return err
	}

	return a.userRepo.ConsumeResetOTP(ctx, user.ID, in.OTP, hash)
}

func (a *authService) UpdatePassword(ctx context.Context, in dto.UpdatePasswordDTO) error {
	if err := a.v.Struct(in); err != nil {
		return customErrors.NewValidation(err.Error())
	}

	if in.NewPassword != in.ConfirmPassword {
		return customErrors.ErrPasswordMismatch
	}

	user, err := a.userRepo.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return err
	}

	if !a.hasher.Verify(in.OldPassword, user.PasswordHash) {
		return customErrors.ErrInvalidCredentials
	}

	hash, err := a.hasher.Hash(in.NewPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	return a.userRepo.UpdateUser(ctx, user)
}

func (a *authService) Profile(ctx context.Context, id uuid.UUID) (model.PublicUser, error) {
	user, err := a.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

func (a *authService) ListUsers(ctx context.Context) ([]model.PublicUser, error) {
	users, err := a.userRepo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}

func (a *authService) issueTokens(id uuid.UUID) (model.TokenPair, error) {
	access, err := a.issuer.IssueAccess(id)
	if err != nil {
		return model.TokenPair{}, err
	}
	refresh, err := a.issuer.IssueRefresh(id)
	if err != nil {
		return model.TokenPair{}, err
	}
	return model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessTTL:    a.cfg.AccessTokenTTL,
		RefreshTTL:   a.cfg.RefreshTokenTTL,
	}, nil
}

func (a *authService) sendVerifyOTP(ctx context.Context, user model.Account, code string) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nYour OTP for email verification is: %s\n\nThis OTP will expire in %d minutes.",
		user.Name, code, int(a.cfg.OTPTTL.Minutes()),
	)
	if err := a.mailer.Send(ctx, user.Email, "Verify your email - Shoe Mart", body); err != nil {
		return customErrors.WrapDelivery(err)
	}
	return nil
}
