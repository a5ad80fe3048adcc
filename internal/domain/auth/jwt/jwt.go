package jwt

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carried by both token kinds: the account id in Subject and a
// random jti so two tokens minted within the same second never collide.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenIssuer mints and validates the two token kinds. Access and refresh
// tokens are signed with distinct secrets, so neither verifies as the other.
type TokenIssuer interface {
	IssueAccess(userID uuid.UUID) (token string, err error)
	IssueRefresh(userID uuid.UUID) (token string, err error)
	VerifyAccess(token string) (uuid.UUID, error)
	VerifyRefresh(token string) (uuid.UUID, error)
}
