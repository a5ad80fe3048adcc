package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shoemart/auth-service/internal/adapters/transport/http/response"
	customErrors "github.com/shoemart/auth-service/internal/domain/auth/errors"
	"github.com/shoemart/auth-service/internal/domain/auth/jwt"
	"github.com/shoemart/auth-service/internal/domain/auth/model"
	"github.com/shoemart/auth-service/internal/domain/auth/repo"
)

const principalKey = "principal"

// Authenticate resolves the caller from the accessToken cookie (Bearer
// header as fallback), checks the account still exists and is active, and
// stores a typed Principal on the context. It never mutates account state.
func Authenticate(issuer jwt.TokenIssuer, users repo.UserRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("accessToken")
		if err != nil || token == "" {
			header := strings.TrimSpace(c.GetHeader("Authorization"))
			if strings.HasPrefix(header, "Bearer ") {
				token = strings.TrimPrefix(header, "Bearer ")
			}
		}
		if token == "" {
			response.AbortError(c, customErrors.ErrUnauthorized)
			return
		}

		uid, err := issuer.VerifyAccess(token)
		if err != nil {
			response.AbortError(c, customErrors.ErrUnauthorized)
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), uid)
		if err != nil {
			response.AbortError(c, err)
			return
		}
		if !user.IsActive {
			response.AbortError(c, customErrors.ErrForbidden)
			return
		}

		c.Set(principalKey, model.Principal{ID: user.ID, Role: user.Role})
		c.Next()
	}
}

// RequireRoles rejects callers whose role is not in the allowed set. Must
// run after Authenticate.
func RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			response.AbortError(c, customErrors.ErrUnauthorized)
			return
		}
		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		response.AbortError(c, customErrors.ErrForbidden)
	}
}

func PrincipalFrom(c *gin.Context) (model.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return model.Principal{}, false
	}
	p, ok := v.(model.Principal)
	return p, ok
}
