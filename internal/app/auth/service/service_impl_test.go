package service

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shoemart/auth-service/internal/adapters/transport/http/dto"
	appJWT "github.com/shoemart/auth-service/internal/app/auth/jwt"
	"github.com/shoemart/auth-service/internal/app/auth/password"
	authErrors "github.com/shoemart/auth-service/internal/domain/auth/errors"
	"github.com/shoemart/auth-service/internal/domain/auth/model"
	"github.com/shoemart/auth-service/internal/infra/config"
)

// userRepoStub mirrors the conditional-update semantics of the postgres
// repo: consume and rotate are atomic under one mutex, so concurrent
// callers racing on the same OTP or refresh token see exactly one winner.
type userRepoStub struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.Account
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: make(map[uuid.UUID]*model.Account)}
}

func (s *userRepoStub) CreateUser(_ context.Context, u model.Account) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.users {
		if v.Email == u.Email {
			return model.Account{}, authErrors.ErrConflict
		}
	}
	cp := u
	s.users[u.ID] = &cp
	return u, nil
}

func (s *userRepoStub) GetUserByEmail(_ context.Context, email string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.users {
		if v.Email == email {
			return *v, nil
		}
	}
	return model.Account{}, authErrors.ErrNotFound
}

func (s *userRepoStub) GetUserByID(_ context.Context, id uuid.UUID) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.users[id]
	if !ok {
		return model.Account{}, authErrors.ErrNotFound
	}
	return *v, nil
}

func (s *userRepoStub) ListUsers(_ context.Context) ([]model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Account, 0, len(s.users))
	for _, v := range s.users {
		out = append(out, *v)
	}
	return out, nil
}

func (s *userRepoStub) UpdateUser(_ context.Context, u model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := u
	s.users[u.ID] = &cp
	return nil
}

func (s *userRepoStub) ConsumeVerifyOTP(_ context.Context, id uuid.UUID, otp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.users[id]
	if !ok || v.IsVerified || v.VerifyOTP == nil || *v.VerifyOTP != otp {
		return authErrors.ErrInvalidOTP
	}
	v.VerifyOTP = nil
	v.VerifyOTPExpireAt = nil
	v.IsVerified = true
	return nil
}

func (s *userRepoStub) ConsumeResetOTP(_ context.Context, id uuid.UUID, otp, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.users[id]
	if !ok || v.ResetOTP == nil || *v.ResetOTP != otp {
		return authErrors.ErrInvalidOTP
	}
	v.PasswordHash = newHash
	v.ResetOTP = nil
	v.ResetOTPExpireAt = nil
	return nil
}

func (s *userRepoStub) RotateRefreshToken(_ context.Context, id uuid.UUID, presented, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.users[id]
	if !ok {
		return authErrors.ErrNotFound
	}
	if presented != "" {
		if v.RefreshToken == nil || *v.RefreshToken != presented {
			return authErrors.ErrTokenReplay
		}
	}
	v.RefreshToken = &next
	return nil
}

func (s *userRepoStub) ClearRefreshToken(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.users[id]; ok {
		v.RefreshToken = nil
	}
	return nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type mailerStub struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
}

func (m *mailerStub) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

var otpRe = regexp.MustCompile(`is: (\d{6})`)

func (m *mailerStub) lastOTP(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	match := otpRe.FindStringSubmatch(m.sent[len(m.sent)-1].body)
	require.Len(t, match, 2)
	return match[1]
}

func newSvc(t *testing.T) (AuthService, *userRepoStub, *mailerStub) {
	t.Helper()
	repo := newUserRepoStub()
	mailer := &mailerStub{}
	issuer, err := appJWT.NewIssuer("access-secret", "refresh-secret", time.Minute, time.Hour, "test")
	require.NoError(t, err)
	cfg := &config.Config{
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		OTPTTL:          10 * time.Minute,
		PasswordPepper:  "p",
	}
	svc := New(repo, issuer, password.NewHasher(cfg.PasswordPepper), mailer, cfg, dto.NewValidator())
	return svc, repo, mailer
}

func signupAndVerify(t *testing.T, svc AuthService, mailer *mailerStub, email, pwd string) model.PublicUser {
	t.Helper()
	ctx := context.Background()
	_, err := svc.Signup(ctx, dto.SignupDTO{Name: "Amy", Email: email, Password: pwd})
	require.NoError(t, err)
	user, err := svc.VerifyEmail(ctx, dto.VerifyEmailDTO{Email: email, OTP: mailer.lastOTP(t)})
	require.NoError(t, err)
	return user
}

func TestSignup_StoresHashNotPlaintext(t *testing.T) {
	svc, repo, mailer := newSvc(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, dto.SignupDTO{Name: "Amy", Email: "amy@x.com", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, model.RoleUser, user.Role)
	require.False(t, user.IsVerified)
	require.Len(t, mailer.sent, 1)

	stored, err := repo.GetUserByEmail(ctx, "amy@x.com")
	require.NoError(t, err)
	require.NotEqual(t, "secret1", stored.PasswordHash)
	require.True(t, password.NewHasher("p").Verify("secret1", stored.PasswordHash))
	require.NotNil(t, stored.VerifyOTP)
	require.NotNil(t, stored.VerifyOTPExpireAt)
}

func TestSignup_LowercasesEmailAndConflicts(t *testing.T) {
	svc, _, _ := newSvc(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, dto.SignupDTO{Name: "Amy", Email: "Amy@X.com", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, "amy@x.com", user.Email)

	_, err = svc.Signup(ctx, dto.SignupDTO{Name: "Amy", Email: "amy@x.com", Password: "secret1"})
	require.True(t, authErrors.IsConflict(err))
}

func TestSignup_AdminRoleNotSelfAssignable(t *testing.T) {
	svc, _, _ := newSvc(t)

	_, err := svc.Signup(context.Background(), dto.SignupDTO{
		Name: "Eve", Email: "eve@x.com", Password: "secret1", Role: "ADMIN",
	})
	require.True(t, authErrors.IsValidation(err))
}

func TestSignup_VendorRoleAllowed(t *testing.T) {
	svc, _, _ := newSvc(t)

	user, err := svc.Signup(context.Background(), dto.SignupDTO{
		Name: "Vic", Email: "vic@x.com", Password: "secret1", Role: "VENDOR",
	})
	require.NoError(t, err)
	require.Equal(t, model.RoleVendor, user.Role)
}

func TestSignup_MailFailureSurfaces(t *testing.T) {
	svc, _, mailer := newSvc(t)
	mailer.fail = context.DeadlineExceeded

	_, err := svc.Signup(context.Background(), dto.SignupDTO{Name: "Amy", Email: "amy@x.com", Password: "secret1"})
	require.True(t, authErrors.IsMailDelivery(err))
}

func TestLogin_BeforeVerificationFails(t *testing.T) {
	svc, _, _ := newSvc(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, dto.SignupDTO{Name: "Amy", Email: "amy@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, dto.LoginDTO{Email: "amy@x.com", Password: "secret1"})
	require.True(t, authErrors.IsNotVerified(err))
}

func TestLogin_UnknownAndWrongPasswordLookAlike(t *testing.T) {
	svc, _, mailer := newSvc(t)
	ctx := context.Background()
	signupAndVerify(t, svc, mailer, "amy@x.com", "secret1")

	_, _, errUnknown := svc.Login(ctx, dto.LoginDTO{Email: "ghost@x.com", Password: "secret1"})
	_, _, errWrong := svc.Login(ctx, dto.LoginDTO{Email: "amy@x.com", Password: "nope123"})

	require.True(t, authErrors.IsInvalidCredentials(errUnknown))
	require.True(t, authErrors.IsInvalidCredentials(errWrong))
	require.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestVerifyEmail_Lifecycle(t *testing.T) {
	svc, repo, mailer := newSvc(t)
	ctx := context.Background()

	// Amy registers, cannot log in, verifies, then logs in.
	_, err := svc.Signup(ctx, dto.SignupDTO{Name: "Amy", Email: "amy@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, dto.LoginDTO{Email: "amy@x.com", Password: "secret1"})
	require.True(t, authErrors.IsNotVerified(err))

	user, err := svc.VerifyEmail(ctx, dto.VerifyEmailDTO{Email: "amy@x.com", OTP: mailer.lastOTP(t)})
	require.NoError(t, err)
	require.True(t, user.IsVerified)

	stored, err := repo.GetUserByEmail(ctx, "amy@x.com")
	require.NoError(t, err)
	require.Nil(t, stored.VerifyOTP)
	require.Nil(t, stored.VerifyOTPExpireAt)

	pair, pub, err := svc.Login(ctx, dto.LoginDTO{Email: "amy@x.com", Password: "secret1"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.True(t, pub.IsVerified)
}

func TestVerifyEmail_WrongCode(t *testing.T) {
	svc, _, mailer := newSvc(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, dto.SignupDTO{Name: "Amy", Email: "amy@x.com", Password: "secret1"})
	require.NoError(t, err)
	good := mailer.lastOTP(t)

	wrong := "000000"
	if wrong == good {
		wrong = "000001"
	}
	_, err = svc.VerifyEmail(ctx, dto.VerifyEmailDTO{Email: "amy@x.com", OTP: wrong})
	require.True(t, authErrors.IsInvalidOTP(err))
}

func TestVerifyEmail_NoOTPIssued(t *testing.T) {
	svc, repo, _ := newSvc(t)
	ctx := context.Background()

	_, err := repo.CreateUser(ctx, model.Account{ID: uuid.New(), Name: "Bob", Email: "bob@x.com", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = svc.VerifyEmail(ctx, dto.VerifyEmailDTO{Email: "bob@x.com", OTP: "123456"})
	require.True(t, authErrors.IsNoOTPIssued(err))
}

func TestVerifyEmail_Idempotent(t *testing.T) {
	svc, _, mailer := newSvc(t)
	ctx := context.Background()
	signupAndVerify(t, svc, mailer, "amy@x.com", "secret1")

	user, err := svc.VerifyEmail(ctx, dto.VerifyEmailDTO{Email: "amy@x.com", OTP: "123456"})
	require.NoError(t, err)
	require.True(t, user.IsVerified)
}

func TestVerifyEmail_ExpiredRegenerates(t *testing.T) {
	svc, repo, mailer := newSvc(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, dto.SignupDTO{Name: "Amy", Email: "amy@x.com", Password: "secret1"})
	require.NoError(t, err)
	expiredCode := mailer.lastOTP(t)

	stored, err := repo.GetUserByEmail(ctx, "amy@x.com")
	require.NoError(t, err)
	past := time.Now().Add(-time.Minute)
	stored.VerifyOTPExpireAt = &past
	require.NoError(t, repo.UpdateUser(ctx, stored))

	// Expired code is reported and a fresh one mailed out.
	_, err = svc.VerifyEmail(ctx, dto.VerifyEmailDTO{Email: "amy@x.com", OTP: expiredCode})
	require.True(t, authErrors.IsOTPExpired(err))
	require.Len(t, mailer.sent, 2)

	fresh := mailer.lastOTP(t)
	require.NotEqual(t, expiredCode, fresh)

	// The superseded code stays dead even though it is no longer expired.
	_, err = svc.VerifyEmail(ctx, dto.VerifyEmailDTO{Email: "amy@x.com", OTP: expiredCode})
	require.True(t, authErrors.IsInvalidOTP(err))

	user, err := svc.VerifyEmail(ctx, dto.VerifyEmailDTO{Email: "amy@x.com", OTP: fresh})
	require.NoError(t, err)
	require.True(t, user.IsVerified)
}

func TestRefresh_RotationIsSingleUse(t *testing.T) {
	svc, _, mailer := newSvc(t)
	ctx := context.Background()
	signupAndVerify(t, svc, mailer, "amy@x.com", "secret1")

	pair, _, err := svc.Login(ctx, dto.LoginDTO{Email: "amy@x.com", Password: "secret1"})
	require.NoError(t, err)
	t0 := pair.RefreshToken

	pair1, err := svc.Refresh(ctx, t0)
	require.NoError(t, err)
	t1 := pair1.RefreshToken
	require.NotEqual(t, t0, t1)

	// T0 was superseded by the first refresh.
	_, err = svc.Refresh(ctx, t0)
	require.True(t, authErrors.IsTokenReplay(err))

	_, err = svc.Refresh(ctx, t1)
	require.NoError(t, err)
}

func TestRefresh_InvalidAndMissingToken(t *testing.T) {
	svc, _, _ := newSvc(t)
	ctx := context.Background()

	_, err := svc.Refresh(ctx, "")
	require.True(t, authErrors.IsUnauthorized(err))

	_, err = svc.Refresh(ctx, "garbage")
	require.True(t, authErrors.IsInvalidToken(err))
}

func TestRefresh_AccountGone(t *testing.T) {
	svc, repo, mailer := newSvc(t)
	ctx := context.Background()
	signupAndVerify(t, svc, mailer, "amy@x.com", "secret1")

	pair, _, err := svc.Login(ctx, dto.LoginDTO{Email: "amy@x.com", Password: "secret1"})
	require.NoError(t, err)

	stored, err := repo.GetUserByEmail(ctx, "amy@x.com")
	require.NoError(t, err)
	repo.mu.Lock()
	delete(repo.users, stored.ID)
	repo.mu.Unlock()

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.True(t, authErrors.IsNotFound(err))
}

func TestRefresh_ConcurrentSingleWinner(t *testing.T) {
	svc, _, mailer := newSvc(t)
	ctx := context.Background()
	signupAndVerify(t, svc, mailer, "amy@x.com", "secret1")

	pair, _, err := svc.Login(ctx, dto.LoginDTO{Email: "amy@x.com", Password: "secret1"})
	require.NoError(t, err)

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(ctx, pair.RefreshToken)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	success, replays := 0, 0
	for err := range results {
		switch {
		case err == nil:
			success++
		case authErrors.IsTokenReplay(err):
			replays++
		default:
			t.Fatalf("unexpected refresh error: %v", err)
		}
	}
	require.Equal(t, 1, success)
	require.Equal(t, n-1, replays)
}

func TestLogout_Idempotent(t *testing.T) {
	svc, repo, mailer := newSvc(t)
	ctx := context.Background()
	signupAndVerify(t, svc, mailer, "amy@x.com", "secret1")

	_, _, err := svc.Login(ctx, dto.LoginDTO{Email: "amy@x.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, "amy@x.com"))
	require.NoError(t, svc.Logout(ctx, "amy@x.com"))

	stored, err := repo.GetUserByEmail(ctx, "amy@x.com")
	require.NoError(t, err)
	require.Nil(t, stored.RefreshToken)

	require.True(t, authErrors.IsNotFound(svc.Logout(ctx, "ghost@x.com")))
}

func TestResetPassword_Flow(t *testing.T) {
	svc, _, mailer := newSvc(t)
	ctx := context.Background()
	signupAndVerify(t, svc, mailer, "amy@x.com", "secret1")

	require.NoError(t, svc.ForgotPassword(ctx, "amy@x.com"))
	code := mailer.lastOTP(t)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	err := svc.ResetPassword(ctx, dto.ResetPasswordDTO{Email: "amy@x.com", OTP: wrong, NewPassword: "newpass1"})
	require.True(t, authErrors.IsInvalidOTP(err))

	// Password unchanged after the failed attempt.
	_, _, err = svc.Login(ctx, dto.LoginDTO{Email: "amy@x.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(ctx, dto.ResetPasswordDTO{Email: "amy@x.com", OTP: code, NewPassword: "newpass1"}))

	_, _, err = svc.Login(ctx, dto.LoginDTO{Email: "amy@x.com", Password: "secret1"})
	require.True(t, authErrors.IsInvalidCredentials(err))
	_, _, err = svc.Login(ctx, dto.LoginDTO{Email: "amy@x.com", Password: "newpass1"})
	require.NoError(t, err)
}

func TestResetPassword_ExpiredIsHardFailure(t *testing.T) {
	svc, repo, mailer := newSvc(t)
	ctx := context.Background()
	signupAndVerify(t, svc, mailer, "amy@x.com", "secret1")

	require.NoError(t, svc.ForgotPassword(ctx, "amy@x.com"))
	code := mailer.lastOTP(t)

	stored, err := repo.GetUserByEmail(ctx, "amy@x.com")
	require.NoError(t, err)
	past := time.Now().Add(-time.Minute)
	stored.ResetOTPExpireAt = &past
	require.NoError(t, repo.UpdateUser(ctx, stored))

	err = svc.ResetPassword(ctx, dto.ResetPasswordDTO{Email: "amy@x.com", OTP: code, NewPassword: "newpass1"})
	require.True(t, authErrors.IsOTPExpired(err))

	// No auto-resend for reset codes.
	mails := len(mailer.sent)
	err = svc.ResetPassword(ctx, dto.ResetPasswordDTO{Email: "amy@x.com", OTP: code, NewPassword: "newpass1"})
	require.True(t, authErrors.IsOTPExpired(err))
	require.Len(t, mailer.sent, mails)
}

func TestResetPassword_NoOTPIssued(t *testing.T) {
	svc, _, mailer := newSvc(t)
	ctx := context.Background()
	signupAndVerify(t, svc, mailer, "amy@x.com", "secret1")

	err := svc.ResetPassword(ctx, dto.ResetPasswordDTO{Email: "amy@x.com", OTP: "123456", NewPassword: "newpass1"})
	require.True(t, authErrors.IsNoOTPIssued(err))
}

func TestUpdatePassword(t *testing.T) {
	svc, _, mailer := newSvc(t)
	ctx := context.Background()
	signupAndVerify(t, svc, mailer, "amy@x.com", "secret1")

	err := svc.UpdatePassword(ctx, dto.UpdatePasswordDTO{
		Email: "amy@x.com", OldPassword: "secret1", NewPassword: "newpass1", ConfirmPassword: "different",
	})
	require.True(t, authErrors.IsPasswordMismatch(err))

	err = svc.UpdatePassword(ctx, dto.UpdatePasswordDTO{
		Email: "amy@x.com", OldPassword: "wrong12", NewPassword: "newpass1", ConfirmPassword: "newpass1",
	})
	require.True(t, authErrors.IsInvalidCredentials(err))

	err = svc.UpdatePassword(ctx, dto.UpdatePasswordDTO{
		Email: "amy@x.com", OldPassword: "secret1", NewPassword: "newpass1", ConfirmPassword: "newpass1",
	})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, dto.LoginDTO{Email: "amy@x.com", Password: "newpass1"})
	require.NoError(t, err)
}

func TestProfileAndListUsers(t *testing.T) {
	svc, repo, mailer := newSvc(t)
	ctx := context.Background()
	signupAndVerify(t, svc, mailer, "amy@x.com", "secret1")

	stored, err := repo.GetUserByEmail(ctx, "amy@x.com")
	require.NoError(t, err)

	pub, err := svc.Profile(ctx, stored.ID)
	require.NoError(t, err)
	require.Equal(t, "amy@x.com", pub.Email)

	_, err = svc.Profile(ctx, uuid.New())
	require.True(t, authErrors.IsNotFound(err))

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
}
