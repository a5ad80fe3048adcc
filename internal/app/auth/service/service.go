package service

import (
	"context"

	validate "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/shoemart/auth-service/internal/adapters/transport/http/dto"
	"github.com/shoemart/auth-service/internal/app/auth/password"
	"github.com/shoemart/auth-service/internal/domain/auth/jwt"
	"github.com/shoemart/auth-service/internal/domain/auth/model"
	"github.com/shoemart/auth-service/internal/domain/auth/repo"
	"github.com/shoemart/auth-service/internal/domain/mail"
	"github.com/shoemart/auth-service/internal/infra/config"
)

// AuthService is the orchestrator for the account state machine:
// signup -> verify -> login -> refresh -> logout, plus the password flows.
type AuthService interface {
	Signup(ctx context.Context, in dto.SignupDTO) (model.PublicUser, error)
	VerifyEmail(ctx context.Context, in dto.VerifyEmailDTO) (model.PublicUser, error)
	Login(ctx context.Context, in dto.LoginDTO) (model.TokenPair, model.PublicUser, error)
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error)
	Logout(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, in dto.ResetPasswordDTO) error
	UpdatePassword(ctx context.Context, in dto.UpdatePasswordDTO) error
	Profile(ctx context.Context, id uuid.UUID) (model.PublicUser, error)
	ListUsers(ctx context.Context) ([]model.PublicUser, error)
}

func New(
	userRepo repo.UserRepo,
	issuer jwt.TokenIssuer,
	hasher *password.Hasher,
	mailer mail.Mailer,
	cfg *config.Config,
	v *validate.Validate,
) AuthService {
	return &authService{
		userRepo: userRepo,
		issuer:   issuer,
		hasher:   hasher,
		mailer:   mailer,
		cfg:      cfg,
		v:        v,
	}
}
