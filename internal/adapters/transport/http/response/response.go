package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	customErrors "github.com/shoemart/auth-service/internal/domain/auth/errors"
)

// Envelope is the uniform JSON shape of every response.
type Envelope struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{
		Success:    true,
		StatusCode: status,
		Message:    message,
		Data:       data,
	})
}

// Error maps a sentinel from the auth subsystem to an HTTP status. This is
// the only place that translation happens; messages for credential and OTP
// failures stay generic on purpose.
func Error(c *gin.Context, err error) {
	status, msg := classify(err)
	c.JSON(status, Envelope{
		Success:    false,
		StatusCode: status,
		Message:    msg,
	})
}

func AbortError(c *gin.Context, err error) {
	status, msg := classify(err)
	c.AbortWithStatusJSON(status, Envelope{
		Success:    false,
		StatusCode: status,
		Message:    msg,
	})
}

func classify(err error) (int, string) {
	switch {
	case customErrors.IsValidation(err):
		return http.StatusBadRequest, err.Error()
	case customErrors.IsConflict(err):
		return http.StatusConflict, "user already exists"
	case customErrors.IsInvalidCredentials(err):
		return http.StatusBadRequest, "invalid credentials"
	case customErrors.IsNotVerified(err):
		return http.StatusForbidden, "please verify your email before logging in"
	case customErrors.IsNoOTPIssued(err):
		return http.StatusBadRequest, "no otp found, please request a new one"
	case customErrors.IsOTPExpired(err):
		return http.StatusBadRequest, "otp expired"
	case customErrors.IsInvalidOTP(err):
		return http.StatusBadRequest, "invalid otp"
	case customErrors.IsPasswordMismatch(err):
		return http.StatusBadRequest, "new password and confirm password do not match"
	case customErrors.IsTokenReplay(err):
		return http.StatusUnauthorized, "refresh token is invalid or has been rotated"
	case customErrors.IsInvalidToken(err):
		return http.StatusUnauthorized, "invalid or expired token"
	case customErrors.IsUnauthorized(err):
		return http.StatusUnauthorized, "unauthorized"
	case customErrors.IsForbidden(err):
		return http.StatusForbidden, "forbidden"
	case customErrors.IsNotFound(err):
		return http.StatusNotFound, "not found"
	case customErrors.IsMailDelivery(err):
		return http.StatusInternalServerError, "failed to send email"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
