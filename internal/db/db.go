package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"fleet-analytics-service/internal/config"
)

func New(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	database, err := gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{
		Logger: NewGormLogger(log, cfg.DB.SlowQuery),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	if cfg.DB.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	}
	if cfg.DB.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	}
	if cfg.DB.ConnMaxLifetime != "" {
		lifetime, err := time.ParseDuration(cfg.DB.ConnMaxLifetime)
		if err != nil {
			return nil, fmt.Errorf("parse conn max lifetime: %w", err)
		}
		sqlDB.SetConnMaxLifetime(lifetime)
	}

	if err := runMigrations(database); err != nil {
		return nil, err
	}
	log.Info().Int("statements", len(migrationStatements)).Msg("database ready")

	return database, nil
}
