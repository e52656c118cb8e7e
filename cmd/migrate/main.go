package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/sinar-app/sinar-api/internal/config"
	"github.com/sinar-app/sinar-api/internal/database"
	"github.com/sinar-app/sinar-api/internal/models"
	"github.com/sinar-app/sinar-api/internal/utils"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	log.Println("Starting migration...")

	// Load configuration
	cfg := config.Load()

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL, false)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Step 1: Migrating schema...")
	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Step 2: Backfilling uploaded_at...")
	if err := backfillUploadedAt(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Step 3: Normalizing category names...")
	if err := normalizeKategoriNames(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration completed successfully!")
}

// backfillUploadedAt gives rows created before uploaded_at existed their
// creation time.
func backfillUploadedAt(db *gorm.DB) error {
	res := db.Model(&models.Document{}).
		Where("uploaded_at IS NULL OR uploaded_at < ?", "1971-01-01").
		Update("uploaded_at", gorm.Expr("created_at"))
	if res.Error != nil {
		return fmt.Errorf("failed to backfill uploaded_at: %w", res.Error)
	}
	log.Printf("Backfilled %d documents", res.RowsAffected)
	return nil
}

// normalizeKategoriNames title-cases active category names, skipping any
// rename that would collide with an existing name.
func normalizeKategoriNames(db *gorm.DB) error {
	var categories []models.Kategori
	if err := db.Where("is_active = ?", true).Find(&categories).Error; err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}

	renamed := 0
	for _, k := range categories {
		name := utils.TitleCase(k.Name)
		if name == k.Name {
			continue
		}

		var clash int64
		if err := db.Model(&models.Kategori{}).Where("name = ? AND id <> ?", name, k.ID).Count(&clash).Error; err != nil {
			return fmt.Errorf("failed to check category %d: %w", k.ID, err)
		}
		if clash > 0 {
			log.Printf("Skipping category %d: %q already exists", k.ID, name)
			continue
		}

		if err := db.Model(&k).Update("name", name).Error; err != nil {
			return fmt.Errorf("failed to rename category %d: %w", k.ID, err)
		}
		renamed++
	}
	log.Printf("Renamed %d categories", renamed)
	return nil
}
