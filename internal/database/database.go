package database

import (
	"fmt"
	"log/slog"
	"time"

	"docvault/internal/config"
	"docvault/internal/utils"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Manager struct {
	DB *gorm.DB

	cfg    *config.Config
	logger *slog.Logger
}

func NewDatabaseManager(cfg *config.Config, logger *slog.Logger) *Manager {
	return &Manager{cfg: cfg, logger: logger}
}

func (dbm *Manager) Connect() error {
	if dbm.cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}

	logLevel := logger.Warn
	if dbm.cfg.SlogLevel() <= slog.LevelDebug {
		logLevel = logger.Info
	}

	var dialector gorm.Dialector
	switch dbm.cfg.DatabaseDriver {
	case "sqlite":
		dialector = sqlite.Open(dbm.cfg.DatabaseURL)
	default:
		dialector = postgres.Open(dbm.cfg.DatabaseURL)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return err
	}
	if dbm.cfg.DatabaseDriver == "sqlite" {
		if err := tuneSQLite(db); err != nil {
			return err
		}
	}

	if err := Migrate(db); err != nil {
		return err
	}
	dbm.DB = db
	return nil
}

func (dbm *Manager) Close() error {
	db, err := dbm.DB.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(utils.Models()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// tuneSQLite serialises access through a single connection; SQLite allows
// one writer at a time.
func tuneSQLite(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxIdleTime(time.Hour)
	return nil
}
