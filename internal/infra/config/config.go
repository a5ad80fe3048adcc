package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is built once at process start and passed by reference into every
// constructor. Nothing mutates it afterwards.
type Config struct {
	HTTPAddress string
	DatabaseURL string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	JWTAccessSecret  string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	JWTIssuer        string

	OTPTTL         time.Duration
	PasswordPepper string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	RazorpayKeyID     string
	RazorpayKeySecret string

	AllowedOrigins   []string
	AllowCredentials bool
	CookieDomain     string
	CookieSecure     bool

	LogLevel string
}

func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDRESS", ":8080")
	v.SetDefault("ACCESS_TOKEN_TTL", "25m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")
	v.SetDefault("OTP_TTL", "10m")
	v.SetDefault("JWT_ISSUER", "shoemart")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ALLOW_CREDENTIALS", true)
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("LOG_LEVEL", "info")

	for _, key := range []string{
		"DATABASE_URL", "JWT_ACCESS_SECRET", "JWT_REFRESH_SECRET",
		"PASSWORD_PEPPER", "REDIS_ADDRESS", "REDIS_PASSWORD",
		"SMTP_HOST", "SMTP_USERNAME", "SMTP_PASSWORD", "SMTP_FROM_EMAIL",
		"RAZORPAY_KEY_ID", "RAZORPAY_KEY_SECRET",
		"ALLOWED_ORIGINS", "COOKIE_DOMAIN",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	for _, key := range []string{"DATABASE_URL", "JWT_ACCESS_SECRET", "JWT_REFRESH_SECRET"} {
		if v.GetString(key) == "" {
			return nil, fmt.Errorf("missing required config %s", key)
		}
	}

	if v.GetString("JWT_ACCESS_SECRET") == v.GetString("JWT_REFRESH_SECRET") {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}

	cfg := &Config{
		HTTPAddress: v.GetString("HTTP_ADDRESS"),
		DatabaseURL: v.GetString("DATABASE_URL"),

		RedisAddress:  v.GetString("REDIS_ADDRESS"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		JWTAccessSecret:  v.GetString("JWT_ACCESS_SECRET"),
		JWTRefreshSecret: v.GetString("JWT_REFRESH_SECRET"),
		AccessTokenTTL:   v.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:  v.GetDuration("REFRESH_TOKEN_TTL"),
		JWTIssuer:        v.GetString("JWT_ISSUER"),

		OTPTTL:         v.GetDuration("OTP_TTL"),
		PasswordPepper: v.GetString("PASSWORD_PEPPER"),

		SMTPHost:     v.GetString("SMTP_HOST"),
		SMTPPort:     v.GetInt("SMTP_PORT"),
		SMTPUsername: v.GetString("SMTP_USERNAME"),
		SMTPPassword: v.GetString("SMTP_PASSWORD"),
		SMTPFrom:     v.GetString("SMTP_FROM_EMAIL"),

		RazorpayKeyID:     v.GetString("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: v.GetString("RAZORPAY_KEY_SECRET"),

		AllowedOrigins:   v.GetStringSlice("ALLOWED_ORIGINS"),
		AllowCredentials: v.GetBool("ALLOW_CREDENTIALS"),
		CookieDomain:     v.GetString("COOKIE_DOMAIN"),
		CookieSecure:     v.GetBool("COOKIE_SECURE"),

		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 || cfg.OTPTTL <= 0 {
		return nil, fmt.Errorf("token and otp lifetimes must be positive")
	}

	return cfg, nil
}
