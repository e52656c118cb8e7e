package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sinar-app/sinar-api/internal/authz"
	"github.com/sinar-app/sinar-api/internal/config"
	"github.com/sinar-app/sinar-api/internal/database"
	"github.com/sinar-app/sinar-api/internal/models"
	"github.com/sinar-app/sinar-api/internal/services"
	"github.com/sinar-app/sinar-api/internal/utils"
	"gorm.io/gorm"
)

// Imports a directory tree laid out as <dir>/<category name>/<files>. Each
// top-level directory becomes (or matches) a category and every file below
// it is uploaded as a document linked to that category.
func main() {
	dir := flag.String("dir", "", "directory to import")
	flag.Parse()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	if *dir == "" {
		log.Fatal("Usage: import-documents -dir <path>")
	}
	if _, err := os.Stat(*dir); err != nil {
		log.Fatalf("Import directory does not exist: %s", *dir)
	}

	// Load configuration
	cfg := config.Load()
	ctx := context.Background()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL, false)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	admin, err := findAdmin(db)
	if err != nil {
		log.Fatalf("Failed to find admin user: %v", err)
	}
	log.Printf("Using admin user: %s (%d)", admin.Username, admin.ID)

	// Initialize storage service
	storageService, err := services.NewStorageService(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage service: %v", err)
	}

	documentService := services.NewDocumentService(db, storageService, services.BucketsFromConfig(cfg),
		services.NewURLBuilder(cfg.BaseURL), services.NewActivityService(db))
	if cfg.MeiliURL != "" {
		var extractor services.TextExtractor
		if cfg.TikaURL != "" {
			extractor = services.NewTextExtractionService(cfg)
		}
		documentService.WithSearch(services.NewSearchService(cfg), extractor)
	}

	actor := authz.Principal{UserID: admin.ID, Role: models.RoleAdmin}
	if err := importDocuments(ctx, db, documentService, actor, *dir); err != nil {
		log.Fatalf("Failed to import documents: %v", err)
	}

	log.Println("Import completed successfully!")
}

func findAdmin(db *gorm.DB) (*models.User, error) {
	var user models.User
	err := db.Joins("JOIN roles ON roles.id = users.role_id").
		Where("roles.name = ? AND users.is_active = ?", models.RoleAdmin, true).
		Order("users.id").
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("no active admin found, run cmd/seed first")
	}
	return &user, err
}

func importDocuments(ctx context.Context, db *gorm.DB, docs *services.DocumentService, actor authz.Principal, baseDir string) error {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	totalFiles, uploaded, failed := 0, 0, 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		k, err := findOrCreateKategori(db, entry.Name())
		if err != nil {
			log.Printf("Skipping %s: %v", entry.Name(), err)
			failed++
			continue
		}

		categoryDir := filepath.Join(baseDir, entry.Name())
		err = filepath.WalkDir(categoryDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			totalFiles++

			info, err := d.Info()
			if err != nil {
				log.Printf("    Failed to stat file %s: %v", path, err)
				failed++
				return nil
			}

			title := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
			file := &services.FileUpload{
				Name: d.Name(),
				Size: info.Size(),
				Open: func() (io.ReadCloser, error) { return os.Open(path) },
			}
			_, err = docs.Create(ctx, actor, services.DocumentInput{
				Title:       &title,
				CategoryIDs: []uint{k.ID},
				File:        file,
			})
			if err != nil {
				log.Printf("    Failed to import %s: %v", path, err)
				failed++
				return nil
			}
			uploaded++
			return nil
		})
		if err != nil {
			log.Printf("  Error walking directory %s: %v", categoryDir, err)
		}
		log.Printf("Imported category: %s (id: %d)", k.Name, k.ID)
	}

	log.Printf("\nImport Summary:")
	log.Printf("  Files uploaded: %d/%d", uploaded, totalFiles)
	log.Printf("  Errors: %d", failed)
	return nil
}

func findOrCreateKategori(db *gorm.DB, dirName string) (*models.Kategori, error) {
	name := utils.TitleCase(dirName)
	if name == "" {
		return nil, fmt.Errorf("empty category name")
	}
	k := models.Kategori{Name: name, IsActive: true}
	if err := db.Where("name = ? AND is_active = ?", name, true).FirstOrCreate(&k).Error; err != nil {
		return nil, err
	}
	return &k, nil
}
