package models

import (
	"time"
)

type Document struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	Remark       string     `gorm:"type:text" json:"remark"`
	Filename     string     `gorm:"size:500;not null" json:"filename"`
	OriginalName string     `gorm:"size:255;not null" json:"original_name"`
	MimeType     string     `gorm:"size:150" json:"mime_type"`
	FileSize     int64      `json:"file_size"`
	UploadedBy   uint       `gorm:"not null;index" json:"uploaded_by"`
	UploadedAt   time.Time  `gorm:"index" json:"uploaded_at"`
	IsDownloaded bool       `gorm:"not null;default:false" json:"is_downloaded"`
	DownloadedAt *time.Time `json:"downloaded_at"`
	IsActive     bool       `gorm:"not null;default:true;index" json:"is_active"`
	CreatedBy    *uint      `json:"created_by"`
	UpdatedBy    *uint      `json:"updated_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Relations
	Uploader   *User      `gorm:"foreignKey:UploadedBy" json:"uploader,omitempty"`
	Categories []Kategori `gorm:"many2many:document_kategori;" json:"categories"`
}

func (Document) TableName() string {
	return "documents"
}

// CategoryIDs lists the ids of the loaded categories.
func (d *Document) CategoryIDs() []uint {
	ids := make([]uint, 0, len(d.Categories))
	for _, k := range d.Categories {
		ids = append(ids, k.ID)
	}
	return ids
}
