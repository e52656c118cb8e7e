package models

import (
	"time"
)

type ReportType string

const (
	ReportText  ReportType = "TEXT"
	ReportLink  ReportType = "LINK"
	ReportAudio ReportType = "AUDIO"
	ReportVideo ReportType = "VIDEO"
)

var ReportTypes = []ReportType{ReportText, ReportLink, ReportAudio, ReportVideo}

func (t ReportType) Valid() bool {
	for _, rt := range ReportTypes {
		if t == rt {
			return true
		}
	}
	return false
}

// IsMedia is true when Content is an object key in the report bucket.
func (t ReportType) IsMedia() bool {
	return t == ReportAudio || t == ReportVideo
}

type DocumentReport struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Type         ReportType `gorm:"type:varchar(10);not null;index" json:"type"`
	Content      string     `gorm:"type:text;not null" json:"content"`
	OriginalName *string    `gorm:"size:255" json:"original_name"`
	Description  *string    `gorm:"type:text" json:"description"`
	DocumentID   uint       `gorm:"not null;index" json:"document_id"`
	UserID       uint       `gorm:"not null;index" json:"user_id"`
	IsDownloaded bool       `gorm:"not null;default:false" json:"is_downloaded"`
	DownloadedAt *time.Time `json:"downloaded_at"`
	CreatedBy    *uint      `json:"created_by"`
	UpdatedBy    *uint      `json:"updated_by"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Relations
	Document *Document `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (DocumentReport) TableName() string {
	return "document_reports"
}
