package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"menu-app-go/internal/config"
	"menu-app-go/pkg/logger"
)

func NewSQLite(cfg config.DBConfig, log logger.Logger) (*gorm.DB, error) {
	dsn := cfg.GetDSN()
	log.Info("db: opening sqlite", "path", dsn)

	gormDB, err := gorm.Open(sqlite.Open(dsn), gormConfig(cfg, log))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// sqlite serialises writers; one connection keeps in-memory databases shared.
	cfg.MaxOpenConns = 1
	cfg.MaxIdleConns = 1
	if err := configurePool(gormDB, cfg); err != nil {
		return nil, err
	}

	if err := gormDB.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return gormDB, nil
}
