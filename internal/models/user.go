package models

import (
	"time"
)

type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Username      string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Password      string    `gorm:"not null" json:"-"`
	RoleID        uint      `gorm:"not null;index" json:"role_id"`
	CategoryID    *uint     `gorm:"index" json:"category_id"`
	NameMentri    string    `gorm:"size:200" json:"name_mentri"`
	ContactPerson string    `gorm:"size:100" json:"contact_person"`
	Filepath      *string   `gorm:"size:500" json:"filepath"`
	OriginalName  *string   `gorm:"size:255" json:"original_name"`
	IsActive      bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedBy     *uint     `json:"created_by"`
	UpdatedBy     *uint     `json:"updated_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relations
	Role     Role      `gorm:"foreignKey:RoleID" json:"role"`
	Category *Kategori `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (User) TableName() string {
	return "users"
}
