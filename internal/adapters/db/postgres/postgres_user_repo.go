package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"gorm.io/gorm"

	customErrors "github.com/shoemart/auth-service/internal/domain/auth/errors"
	"github.com/shoemart/auth-service/internal/domain/auth/model"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (p *UserRepo) CreateUser(ctx context.Context, user model.Account) (model.Account, error) {
	user.Email = strings.ToLower(user.Email)
	res := p.db.WithContext(ctx).Create(&user)
	if err := res.Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.Account{}, customErrors.ErrConflict
		}
		return model.Account{}, customErrors.WrapInternal(err, "CreateUser")
	}
	return user, nil
}

func (p *UserRepo) GetUserByEmail(ctx context.Context, email string) (model.Account, error) {
	var u model.Account
	res := p.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Account{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.Account{}, customErrors.WrapInternal(err, "GetUserByEmail")
	}
	return u, nil
}

func (p *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	var u model.Account
	res := p.db.WithContext(ctx).Where("id = ?", id).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Account{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.Account{}, customErrors.WrapInternal(err, "GetUserByID")
	}
	return u, nil
}

func (p *UserRepo) ListUsers(ctx context.Context) ([]model.Account, error) {
	var users []model.Account
	res := p.db.WithContext(ctx).Order("created_at").Find(&users)
	if err := res.Error; err != nil {
		return nil, customErrors.WrapInternal(err, "ListUsers")
	}
	return users, nil
}

func (p *UserRepo) UpdateUser(ctx context.Context, user model.Account) error {
	user.Email = strings.ToLower(user.Email)
	res := p.db.WithContext(ctx).Save(&user)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "UpdateUser")
	}
	return nil
}

// ConsumeVerifyOTP is a single conditional UPDATE: of two concurrent
// requests presenting the same valid code, only one observes a matching row.
func (p *UserRepo) ConsumeVerifyOTP(ctx context.Context, id uuid.UUID, otp string) error {
	res := p.db.WithContext(ctx).Model(&model.Account{}).
		Where("id = ? AND verify_otp = ? AND is_verified = ?", id, otp, false).
		Updates(map[string]interface{}{
			"verify_otp":           nil,
			"verify_otp_expire_at": nil,
			"is_verified":          true,
		})
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "ConsumeVerifyOTP")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrInvalidOTP
	}
	return nil
}

func (p *UserRepo) ConsumeResetOTP(ctx context.Context, id uuid.UUID, otp, newHash string) error {
	res := p.db.WithContext(ctx).Model(&model.Account{}).
		Where("id = ? AND reset_otp = ?", id, otp).
		Updates(map[string]interface{}{
			"password_hash":       newHash,
			"reset_otp":           nil,
			"reset_otp_expire_at": nil,
		})
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "ConsumeResetOTP")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrInvalidOTP
	}
	return nil
}

// RotateRefreshToken compares against the stored token inside the UPDATE so
// rotation is atomic: a superseded token finds no matching row and fails as
// a replay. An empty presented value is the unconditional login overwrite.
func (p *UserRepo) RotateRefreshToken(ctx context.Context, id uuid.UUID, presented, next string) error {
	q := p.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", id)
	if presented != "" {
		q = q.Where("refresh_token = ?", presented)
	}
	res := q.Update("refresh_token", next)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "RotateRefreshToken")
	}
	if res.RowsAffected == 0 {
		if presented != "" {
			return customErrors.ErrTokenReplay
		}
		return customErrors.ErrNotFound
	}
	return nil
}

func (p *UserRepo) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	res := p.db.WithContext(ctx).Model(&model.Account{}).
		Where("id = ?", id).
		Update("refresh_token", nil)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "ClearRefreshToken")
	}
	return nil
}
