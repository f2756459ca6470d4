// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"testing"

	"gorm.io/gorm"

	"menu-app-go/internal/config"
	"menu-app-go/internal/db"
	"menu-app-go/pkg/logger"
)

func Open(t testing.TB) *gorm.DB {
	t.Helper()

	gormDB, err := db.NewSQLite(config.DBConfig{Driver: "sqlite", SQLitePath: ":memory:"}, logger.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gormDB
}
