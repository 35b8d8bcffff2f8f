package database

import (
	"fmt"

	"learnhub/config"
	"learnhub/logger"
	"learnhub/models"
	"learnhub/models/community"
	"learnhub/models/course"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// ConnectDb opens the configured database, sets up pooling and runs migrations.
func ConnectDb(cfg *config.Config, log *logger.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		// unique violations surface as gorm.ErrDuplicatedKey on every driver
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.DBDriver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(0)
	if cfg.DBDriver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
		// sqlite leaves foreign keys off unless asked per connection
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	log.Info("Running migrations...", "driver", cfg.DBDriver)
	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	log.Info("Migrations completed successfully.")

	return db, nil
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "postgres", "":
		return postgres.Open(cfg.DSN()), nil
	case "mysql":
		return mysql.Open(cfg.DSN()), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// RunMigrations performs database migrations
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Instructor{},
		&models.Student{},
		&models.OrphanAsset{},
		&course.Course{},
		&course.Module{},
		&course.Lesson{},
		&course.LessonVideo{},
		&course.Enrollment{},
		&course.LessonProgress{},
		&community.Community{},
		&community.Member{},
		&community.Message{},
	)
}
