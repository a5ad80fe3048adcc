package jwt

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	customErrors "github.com/shoemart/auth-service/internal/domain/auth/errors"
	domainJWT "github.com/shoemart/auth-service/internal/domain/auth/jwt"
)

// ErrSameSecret rejects configurations where a leaked access token could be
// replayed as a refresh token.
var ErrSameSecret = errors.New("access and refresh secrets must differ")

type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
}

func NewIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, issuer string) (*Issuer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("jwt secrets must be set")
	}
	if subtle.ConstantTimeCompare([]byte(accessSecret), []byte(refreshSecret)) == 1 {
		return nil, ErrSameSecret
	}
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        issuer,
	}, nil
}

func (i *Issuer) IssueAccess(userID uuid.UUID) (string, error) {
	return i.sign(userID, i.accessSecret, i.accessTTL)
}

func (i *Issuer) IssueRefresh(userID uuid.UUID) (string, error) {
	return i.sign(userID, i.refreshSecret, i.refreshTTL)
}

func (i *Issuer) VerifyAccess(raw string) (uuid.UUID, error) {
	return i.verify(raw, i.accessSecret)
}

func (i *Issuer) VerifyRefresh(raw string) (uuid.UUID, error) {
	return i.verify(raw, i.refreshSecret)
}

func (i *Issuer) sign(userID uuid.UUID, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := domainJWT.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", customErrors.WrapInternal(err, "sign token")
	}
	return signed, nil
}

func (i *Issuer) verify(raw string, secret []byte) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(raw, &domainJWT.Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, customErrors.ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithIssuedAt())

	if err != nil || !token.Valid {
		return uuid.Nil, customErrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*domainJWT.Claims)
	if !ok {
		return uuid.Nil, customErrors.ErrInvalidToken
	}

	if i.issuer != "" && claims.Issuer != i.issuer {
		return uuid.Nil, customErrors.ErrInvalidToken
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, customErrors.ErrInvalidToken
	}
	return uid, nil
}
