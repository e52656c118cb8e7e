package models

import (
	"time"
)

// Kategori is a ministry or agency. Users belong to one, documents to many.
type Kategori struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:200;uniqueIndex;not null" json:"name"`
	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedBy *uint     `json:"created_by"`
	UpdatedBy *uint     `json:"updated_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Kategori) TableName() string {
	return "kategori"
}
