package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/sinar-app/sinar-api/internal/config"
	"github.com/sinar-app/sinar-api/internal/database"
	"github.com/sinar-app/sinar-api/internal/models"
	"github.com/sinar-app/sinar-api/internal/services"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Load configuration
	cfg := config.Load()
	ctx := context.Background()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL, false)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	storageService, err := services.NewStorageService(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage service: %v", err)
	}

	// Initialize search service
	searchService := services.NewSearchService(cfg)
	log.Println("Meilisearch service initialized")

	var extractor services.TextExtractor
	if cfg.TikaURL != "" {
		extractor = services.NewTextExtractionService(cfg)
	}

	documentService := services.NewDocumentService(db, storageService, services.BucketsFromConfig(cfg),
		services.NewURLBuilder(cfg.BaseURL), services.NewActivityService(db)).
		WithSearch(searchService, extractor)

	// Get counts
	var dbCount int64
	if err := db.Model(&models.Document{}).Where("is_active = ?", true).Count(&dbCount).Error; err != nil {
		log.Fatalf("Failed to get document count from DB: %v", err)
	}

	meiliCount, err := searchService.GetDocumentCount()
	if err != nil {
		log.Fatalf("Failed to get document count from Meilisearch: %v", err)
	}

	log.Printf("Documents in DB: %d", dbCount)
	log.Printf("Documents in Meilisearch: %d", meiliCount)

	if meiliCount == dbCount {
		log.Println("Counts match. Verifying all documents are indexed...")
	} else {
		log.Println("Counts do not match. Reindexing all documents...")
	}

	total, err := documentService.Reindex(ctx, 100)
	if err != nil {
		log.Fatalf("Reindexing stopped after %d documents: %v", total, err)
	}

	// Final check
	finalMeiliCount, err := searchService.GetDocumentCount()
	if err != nil {
		log.Printf("Failed to get final count: %v", err)
	}

	log.Printf("Reindexing completed. Indexed %d documents.", total)
	log.Printf("Final Meilisearch count: %d", finalMeiliCount)
}
