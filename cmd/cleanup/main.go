package main

import (
	"context"
	"log"
	"time"

	"drive-auth/internal/config"
	"drive-auth/internal/db"
	"drive-auth/internal/repository"
	"drive-auth/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Barrido único de registros abandonados (etapa < 3 más viejos que la
// ventana de retención). Pensado para correr desde cron.
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

	var userRepo repository.UserRepository
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		userRepo = repository.NewPgUserRepository(pool)
	} else {
		sqlDB, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("sqlite open", zap.Error(err))
		}
		defer sqlDB.Close()
		userRepo = repository.NewSQLiteUserRepository(sqlDB)
	}

	retention := time.Duration(cfg.CleanupRetentionHours) * time.Hour
	session := service.NewSession(logger, userRepo, service.NewMemoryPrefsStore(), nil)
	registrationSvc := service.NewRegistrationService(logger, userRepo, session, retention)

	count, err := registrationSvc.CleanupIncompleteRegistrations(ctx)
	if err != nil {
		logger.Fatal("cleanup failed", zap.Error(err))
	}

	logger.Info("cleanup finished",
		zap.Int64("deleted", count),
		zap.Duration("retention", retention),
	)
}
