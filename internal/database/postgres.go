package database

import (
	"fmt"
	"log"

	"github.com/sinar-app/sinar-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.Println("Database connected successfully")
	return db, nil
}

// RunMigrations creates or updates every table, including the
// document_kategori join table.
func RunMigrations(db *gorm.DB) error {
	log.Println("Running migrations...")
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_document_kategori_kategori ON document_kategori (kategori_id, document_id)").Error; err != nil {
		return fmt.Errorf("create join index: %w", err)
	}
	log.Println("Migrations completed")
	return nil
}
