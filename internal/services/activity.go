package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/sinar-app/sinar-api/internal/apperror"
	"github.com/sinar-app/sinar-api/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const MaxRecentActivities = 50

type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{
		db: db,
	}
}

func (s *ActivityService) CreateActivity(ctx context.Context, userID uint, activityType models.ActivityType, documentID, reportID *uint, metadata map[string]any) error {
	metadataJSON := datatypes.JSON("{}")
	if len(metadata) > 0 {
		bytes, err := json.Marshal(metadata)
		if err == nil {
			metadataJSON = bytes
		}
	}

	activity := models.Activity{
		UserID:       userID,
		ActivityType: activityType,
		DocumentID:   documentID,
		ReportID:     reportID,
		Metadata:     metadataJSON,
	}

	return s.db.WithContext(ctx).Create(&activity).Error
}

// record is best effort: failures are logged, not returned.
func (s *ActivityService) record(ctx context.Context, userID uint, activityType models.ActivityType, documentID, reportID *uint, metadata map[string]any) {
	if s == nil {
		return
	}
	if err := s.CreateActivity(context.WithoutCancel(ctx), userID, activityType, documentID, reportID, metadata); err != nil {
		log.Printf("Failed to record %s activity: %v", activityType, err)
	}
}

func (s *ActivityService) GetRecentActivities(ctx context.Context, limit int) ([]models.Activity, error) {
	if limit < 1 || limit > MaxRecentActivities {
		limit = MaxRecentActivities
	}
	activities := make([]models.Activity, 0, limit)
	err := s.db.WithContext(ctx).Preload("User").Preload("Document").
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, apperror.Internal("Failed to fetch activities", err)
	}
	return activities, nil
}
