// Package repository contains the repository layer for the admin API
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ebbb/adminapi/internal/config"
	"github.com/ebbb/adminapi/internal/models"
	"github.com/ebbb/adminapi/pkg/utils/zaplogger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when no row matches the filter
var ErrNotFound = errors.New("record not found")

// ConnectPostgres connects to Postgres, creates the schema and migrates the admin tables
func ConnectPostgres(cfg *config.Config) (*gorm.DB, error) {
	zaplogger.Info("Initializing Postgres")

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.PostgresLogLevel)),
	}

	dsn := fmt.Sprintf("%s search_path=%s,public", cfg.PostgresDsn, cfg.PostgresSchema)
	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	zaplogger.Info("  * connected")

	if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %q", cfg.PostgresSchema)).Error; err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	zaplogger.Info("  * migrating schema", zaplogger.Fields{"schema": cfg.PostgresSchema})

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the admin account and session tables
func Migrate(db *gorm.DB) error {
	tables := []struct {
		name  string
		model interface{}
	}{
		{models.AdminAccountsTableName, &models.AdminAccount{}},
		{models.AdminSessionsTableName, &models.AdminSession{}},
	}

	for _, table := range tables {
		if err := db.AutoMigrate(table.model); err != nil {
			return fmt.Errorf("failed to auto migrate table: %s, err: %w", table.name, err)
		}
		zaplogger.Debug("    - migrated", zaplogger.Fields{"table": table.name})
	}
	return nil
}

// Ping checks that the database answers
func Ping(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("database is not configured")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
