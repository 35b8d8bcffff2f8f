package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"learnhub/database"
	"learnhub/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// DB opens a fresh in-memory sqlite database with every table migrated.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(tb.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("test db handle: %v", err)
	}
	// one connection keeps the shared in-memory database alive and serialises writers
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.RunMigrations(db); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	return db
}

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	return logger.Nop()
}
