package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shoemart/auth-service/internal/adapters/transport/http/middleware"
	"github.com/shoemart/auth-service/internal/domain/auth/jwt"
	"github.com/shoemart/auth-service/internal/domain/auth/model"
	"github.com/shoemart/auth-service/internal/domain/auth/repo"
	"github.com/shoemart/auth-service/internal/infra/config"
)

// NewRouter wires the full HTTP surface. redisCli may be nil, in which case
// the auth endpoints fall back to in-process rate limiting.
func NewRouter(
	h *Handler,
	issuer jwt.TokenIssuer,
	users repo.UserRepo,
	redisCli *redis.Client,
	cfg *config.Config,
	logger *zap.Logger,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		// No configured origins opens the surface to any origin; the cors
		// contract forbids credentials in that mode.
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
		corsCfg.AllowCredentials = cfg.AllowCredentials
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})

	strict := authLimiter(redisCli, "strict", 5, 10*time.Minute)
	relaxed := authLimiter(redisCli, "relaxed", 30, time.Minute)

	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/signup", strict, h.Signup)
		auth.POST("/login", strict, h.Login)
		auth.POST("/verify-email", strict, h.VerifyEmail)
		auth.POST("/forgot-password", strict, h.ForgotPassword)
		auth.POST("/reset-password", strict, h.ResetPassword)
		auth.POST("/refresh-token", relaxed, h.RefreshToken)
		auth.POST("/logout", relaxed, h.Logout)
	}

	protected := auth.Group("")
	protected.Use(middleware.Authenticate(issuer, users))
	{
		protected.GET("/profile", h.Profile)
		protected.POST("/update-password", h.UpdatePassword)

		admin := protected.Group("")
		admin.Use(middleware.RequireRoles(model.RoleAdmin))
		admin.GET("/users", h.ListUsers)
	}

	return r
}

func authLimiter(redisCli *redis.Client, prefix string, maxRequests int, window time.Duration) gin.HandlerFunc {
	if redisCli != nil {
		return middleware.RedisRateLimit(redisCli, prefix, maxRequests, window)
	}
	perSecond := maxRequests / int(window.Seconds())
	if perSecond < 1 {
		perSecond = 1
	}
	return middleware.LocalRateLimitPerIP(perSecond, maxRequests, 10_000, time.Hour)
}
