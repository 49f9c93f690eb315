package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"jobhub/internal/config"
	"jobhub/internal/db"
	"jobhub/internal/email"
	apihttp "jobhub/internal/http"
	"jobhub/internal/repository"
	"jobhub/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	otpRepo := repository.NewPgOTPRepository(pool)
	resetRepo := repository.NewPgResetRepository(pool)
	tokenRepo := repository.NewPgTokenRepository(pool)
	jobRepo := repository.NewPgJobRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var limiter service.RateLimiter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			limiter = service.NewRedisRateLimiter(redisClient, 10*time.Minute, 3)
		}
		cancel()
	}
	if limiter == nil {
		limiter = service.NewMemoryRateLimiter(10*time.Minute, 3)
	}

	tokenServ := service.NewTokenService(logger, service.NewJWTCodec(), userRepo, tokenRepo, service.TokenServiceOptions{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     time.Duration(cfg.JWTAccessTTLMinutes) * time.Minute,
		RefreshTTL:    time.Duration(cfg.JWTRefreshTTLHours) * time.Hour,
		MaxSessions:   cfg.MaxRefreshSessions,
	})
	authServ := service.NewAuthService(logger, userRepo, otpRepo, emailSender, limiter, time.Duration(cfg.OTPTTLMinutes)*time.Minute)
	resetServ := service.NewResetService(logger, userRepo, resetRepo, emailSender, limiter, time.Duration(cfg.ResetTTLMinutes)*time.Minute, cfg.FrontendURL)

	authHandler := apihttp.NewAuthHandler(logger, authServ, resetServ, tokenServ)
	jobHandler := apihttp.NewJobHandler(logger, jobRepo)
	router := apihttp.NewRouter(logger, tokenServ, authHandler, jobHandler)

	// Mantenimiento periódico fuera del camino de requests: borra tokens,
	// códigos y resets vencidos.
	go func() {
		interval := time.Duration(cfg.ReapIntervalMinutes) * time.Minute
		if interval <= 0 {
			interval = time.Hour
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			reapCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			if err := tokenServ.ReapExpired(reapCtx); err != nil {
				logger.Warn("reap expired tokens", zap.Error(err))
			}
			if err := otpRepo.DeleteExpired(reapCtx); err != nil {
				logger.Warn("reap expired otps", zap.Error(err))
			}
			if err := resetRepo.DeleteExpired(reapCtx); err != nil {
				logger.Warn("reap expired reset tokens", zap.Error(err))
			}
			cancel()
		}
	}()

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
