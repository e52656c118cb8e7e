package database

import (
	"fmt"
	"log"
	"strings"

	"github.com/sinar-app/sinar-api/internal/models"
	"github.com/sinar-app/sinar-api/internal/utils"
	"gorm.io/gorm"
)

var DefaultKategori = []string{
	"kementrian komunikasi dan digital",
	"kementrian keuangan",
	"sekretaris jenderal DPR",
	"kementrian ketenagakerjaan",
	"badan gizi nasional",
	"televisi republik indonesia",
	"radio republik indonesia",
}

// SeedRoles upserts the admin and user roles.
func SeedRoles(db *gorm.DB) error {
	for _, name := range []string{models.RoleAdmin, models.RoleUser} {
		role := models.Role{Name: name, IsActive: true}
		if err := db.Where("name = ?", name).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	log.Println("Role seeding done")
	return nil
}

// SeedKategori upserts the default ministries, title-cased.
func SeedKategori(db *gorm.DB) error {
	for _, raw := range DefaultKategori {
		name := utils.TitleCase(raw)
		k := models.Kategori{Name: name, IsActive: true}
		if err := db.Where("name = ?", name).FirstOrCreate(&k).Error; err != nil {
			return fmt.Errorf("seed kategori %s: %w", name, err)
		}
	}
	log.Println("Kategori seeding done")
	return nil
}

// SeedAdmin creates a default admin account if no active admin exists.
func SeedAdmin(db *gorm.DB, username, password string) error {
	var role models.Role
	if err := db.Where("name = ?", models.RoleAdmin).First(&role).Error; err != nil {
		return fmt.Errorf("admin role missing, seed roles first: %w", err)
	}

	var count int64
	if err := db.Model(&models.User{}).Where("role_id = ? AND is_active = ?", role.ID, true).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Admin user already exists, skipping seed")
		return nil
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := models.User{
		Username:   strings.TrimSpace(username),
		Password:   hashed,
		RoleID:     role.ID,
		NameMentri: "Administrator",
		IsActive:   true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	log.Printf("Admin user %q created", admin.Username)
	return nil
}
