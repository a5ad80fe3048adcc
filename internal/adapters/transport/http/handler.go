package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shoemart/auth-service/internal/adapters/transport/http/dto"
	"github.com/shoemart/auth-service/internal/adapters/transport/http/middleware"
	"github.com/shoemart/auth-service/internal/adapters/transport/http/response"
	"github.com/shoemart/auth-service/internal/app/auth/service"
	customErrors "github.com/shoemart/auth-service/internal/domain/auth/errors"
	"github.com/shoemart/auth-service/internal/domain/auth/model"
	"github.com/shoemart/auth-service/internal/infra/config"
)

type Handler struct {
	svc service.AuthService
	cfg *config.Config
}

func NewHandler(svc service.AuthService, cfg *config.Config) *Handler {
	return &Handler{svc: svc, cfg: cfg}
}

func (h *Handler) Signup(c *gin.Context) {
	var body dto.SignupDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, customErrors.NewValidation(err.Error()))
		return
	}

	user, err := h.svc.Signup(c.Request.Context(), body)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusCreated, "User registered successfully. Check your email for OTP.", gin.H{
		"user": user,
	})
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	var body dto.VerifyEmailDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, customErrors.NewValidation(err.Error()))
		return
	}

	user, err := h.svc.VerifyEmail(c.Request.Context(), body)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Email verified successfully", gin.H{"user": user})
}

func (h *Handler) Login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, customErrors.NewValidation(err.Error()))
		return
	}

	pair, user, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setTokenCookies(c, pair)
	response.OK(c, http.StatusOK, "Login successful", gin.H{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (h *Handler) RefreshToken(c *gin.Context) {
	token, err := c.Cookie("refreshToken")
	if err != nil || token == "" {
		var body dto.RefreshDTO
		if bindErr := c.ShouldBindJSON(&body); bindErr != nil || body.RefreshToken == "" {
			response.Error(c, customErrors.ErrUnauthorized)
			return
		}
		token = body.RefreshToken
	}

	pair, err := h.svc.Refresh(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setTokenCookies(c, pair)
	response.OK(c, http.StatusOK, "Access token refreshed successfully", gin.H{
		"accessToken": pair.AccessToken,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	var body dto.LogoutDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, customErrors.NewValidation(err.Error()))
		return
	}

	if err := h.svc.Logout(c.Request.Context(), body.Email); err != nil {
		response.Error(c, err)
		return
	}

	h.clearTokenCookies(c)
	response.OK(c, http.StatusOK, "Logout successful", gin.H{})
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var body dto.ForgotPasswordDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, customErrors.NewValidation(err.Error()))
		return
	}

	if err := h.svc.ForgotPassword(c.Request.Context(), body.Email); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Password reset OTP sent to your email.", nil)
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var body dto.ResetPasswordDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, customErrors.NewValidation(err.Error()))
		return
	}

	if err := h.svc.ResetPassword(c.Request.Context(), body); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Password reset successfully", nil)
}

func (h *Handler) UpdatePassword(c *gin.Context) {
	var body dto.UpdatePasswordDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, customErrors.NewValidation(err.Error()))
		return
	}

	if err := h.svc.UpdatePassword(c.Request.Context(), body); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Password updated successfully", nil)
}

func (h *Handler) Profile(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, customErrors.ErrUnauthorized)
		return
	}

	user, err := h.svc.Profile(c.Request.Context(), p.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Profile retrieved successfully", gin.H{"user": user})
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Users retrieved successfully", gin.H{
		"users": users,
		"count": len(users),
	})
}

func (h *Handler) setTokenCookies(c *gin.Context, pair model.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		"accessToken",
		pair.AccessToken,
		int(pair.AccessTTL.Seconds()),
		"/",
		h.cfg.CookieDomain,
		h.cfg.CookieSecure,
		true, // httpOnly
	)

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		"refreshToken",
		pair.RefreshToken,
		int(pair.RefreshTTL.Seconds()),
		"/",
		h.cfg.CookieDomain,
		h.cfg.CookieSecure,
		true,
	)
}

func (h *Handler) clearTokenCookies(c *gin.Context) {
	c.SetCookie("accessToken", "", -1, "/", h.cfg.CookieDomain, h.cfg.CookieSecure, true)
	c.SetCookie("refreshToken", "", -1, "/", h.cfg.CookieDomain, h.cfg.CookieSecure, true)
}
