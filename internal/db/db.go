package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"factory-assistant/internal/config"
	"factory-assistant/internal/repository"
	"factory-assistant/internal/store"
)

// New opens a pooled gorm connection and applies index migrations.
func New(ctx context.Context, cfg config.DBConfig, log zerolog.Logger) (*gorm.DB, error) {
	database, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime != "" {
		lifetime, err := time.ParseDuration(cfg.ConnMaxLifetime)
		if err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
		}
		sqlDB.SetConnMaxLifetime(lifetime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(database.WithContext(ctx)); err != nil {
		log.Warn().Err(err).Msg("document index migrations failed")
	}

	return database, nil
}

// PostgresOpener returns an Opener that backs the document store with Postgres.
func PostgresOpener(cfg config.DBConfig, log zerolog.Logger) Opener {
	return func(ctx context.Context) (store.DocumentStore, error) {
		database, err := New(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return repository.NewDocumentRepository(database), nil
	}
}
