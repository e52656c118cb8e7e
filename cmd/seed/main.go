package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/sinar-app/sinar-api/internal/config"
	"github.com/sinar-app/sinar-api/internal/database"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL, false)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.SeedRoles(db); err != nil {
		log.Fatalf("Failed to seed roles: %v", err)
	}
	if err := database.SeedKategori(db); err != nil {
		log.Fatalf("Failed to seed categories: %v", err)
	}
	if err := database.SeedAdmin(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}

	log.Println("Seeding completed successfully!")
}
