package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"drive-auth/internal/config"
	"drive-auth/internal/db"
	apihttp "drive-auth/internal/http"
	"drive-auth/internal/repository"
	"drive-auth/internal/service"

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

	var (
		userRepo    repository.UserRepository
		sqlitePrefs service.PrefsStore
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		if err := db.Ping(ctx, pool); err != nil {
			logger.Fatal("db ping", zap.Error(err))
		}
		userRepo = repository.NewPgUserRepository(pool)
	} else {
		sqlDB, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("sqlite open", zap.Error(err))
		}
		defer sqlDB.Close()
		userRepo = repository.NewSQLiteUserRepository(sqlDB)
		sqlitePrefs = repository.NewSQLitePrefs(sqlDB)
	}

	var (
		prefs   service.PrefsStore
		limiter service.LoginRateLimiter
	)
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
			prefs = service.NewRedisPrefsStore(redisClient)
			limiter = service.NewRedisLoginRateLimiter(
				redisClient,
				time.Duration(cfg.LoginRateWindowMin)*time.Minute,
				cfg.LoginRateMax,
			)
		}
		cancel()
	}
	if prefs == nil {
		prefs = sqlitePrefs
	}
	if prefs == nil {
		logger.Warn("no durable session store configured, sessions will not survive restarts")
		prefs = service.NewMemoryPrefsStore()
	}
	if limiter == nil {
		limiter = service.NewLoginRateLimiter(
			time.Duration(cfg.LoginRateWindowMin)*time.Minute,
			cfg.LoginRateMax,
		)
	}

	retention := time.Duration(cfg.CleanupRetentionHours) * time.Hour
	session := service.NewSession(logger, userRepo, prefs, limiter)
	registrationSvc := service.NewRegistrationService(logger, userRepo, session, retention)
	googleSvc := service.NewGoogleAuthService(logger, userRepo, session, cfg.GoogleClientID)

	authHandler := apihttp.NewAuthHandler(logger, registrationSvc, session, googleSvc)
	usersHandler := apihttp.NewUsersHandler(logger, registrationSvc)
	router := apihttp.NewRouter(logger, session, authHandler, usersHandler)

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
