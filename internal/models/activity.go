package models

import (
	"time"

	"gorm.io/datatypes"
)

type ActivityType string

const (
	ActivityDocumentUploaded   ActivityType = "document_uploaded"
	ActivityDocumentUpdated    ActivityType = "document_updated"
	ActivityDocumentDeleted    ActivityType = "document_deleted"
	ActivityDocumentDownloaded ActivityType = "document_downloaded"
	ActivityReportCreated      ActivityType = "report_created"
	ActivityReportDeleted      ActivityType = "report_deleted"
)

type Activity struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	ActivityType ActivityType   `gorm:"type:varchar(50);not null;index" json:"activity_type"`
	DocumentID   *uint          `gorm:"index" json:"document_id,omitempty"`
	ReportID     *uint          `gorm:"index" json:"report_id,omitempty"`
	Metadata     datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`

	// Relations
	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Document *Document `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
}

func (Activity) TableName() string {
	return "activities"
}

// All lists every model in migration order.
func All() []any {
	return []any{
		&Role{},
		&Kategori{},
		&User{},
		&Document{},
		&DocumentReport{},
		&Activity{},
	}
}
