package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	postgresRepo "github.com/shoemart/auth-service/internal/adapters/db/postgres"
	mailAdapter "github.com/shoemart/auth-service/internal/adapters/mail"
	httpTransport "github.com/shoemart/auth-service/internal/adapters/transport/http"
	"github.com/shoemart/auth-service/internal/adapters/transport/http/dto"
	appJWT "github.com/shoemart/auth-service/internal/app/auth/jwt"
	"github.com/shoemart/auth-service/internal/app/auth/password"
	"github.com/shoemart/auth-service/internal/app/auth/service"
	"github.com/shoemart/auth-service/internal/infra/config"
	lg "github.com/shoemart/auth-service/internal/infra/log"
	"github.com/shoemart/auth-service/internal/infra/migrate"
	"github.com/shoemart/auth-service/internal/infra/server"
)

func main() {
	zapLog := lg.Must(os.Getenv("LOG_LEVEL"))
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("failed to load config", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	var redisCli *redis.Client
	if cfg.RedisAddress != "" {
		redisCli = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisCli.Close()
	}

	issuer, err := appJWT.NewIssuer(
		cfg.JWTAccessSecret,
		cfg.JWTRefreshSecret,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		cfg.JWTIssuer,
	)
	if err != nil {
		zapLog.Fatal("failed to init token issuer", zap.Error(err))
	}

	userRepo := postgresRepo.NewUserRepo(db)
	hasher := password.NewHasher(cfg.PasswordPepper)
	mailer := mailAdapter.NewSMTPMailer(cfg)
	validate := dto.NewValidator()

	svc := service.New(userRepo, issuer, hasher, mailer, cfg, validate)
	handler := httpTransport.NewHandler(svc, cfg)
	router := httpTransport.NewRouter(handler, issuer, userRepo, redisCli, cfg, zapLog)

	rootCtx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		return server.StartHTTP(ctx, cfg, router, zapLog)
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		zapLog.Info("shutdown signal received")
	case <-ctx.Done():
	}
	cancel()

	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}
