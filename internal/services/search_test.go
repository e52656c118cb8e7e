package services

import (
	"testing"
	"time"

	"github.com/sinar-app/sinar-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestHitIDs(t *testing.T) {
	hits := []interface{}{
		map[string]interface{}{"id": float64(12)},
		map[string]interface{}{"id": "7"},
		map[string]interface{}{"id": "abc"},
		map[string]interface{}{"title": "no id"},
		"not a map",
		map[string]interface{}{"id": float64(0)},
	}
	assert.Equal(t, []uint{12, 7}, hitIDs(hits))
	assert.Empty(t, hitIDs(nil))
}

func TestNewSearchDocument(t *testing.T) {
	uploaded := time.Date(2025, time.May, 1, 8, 0, 0, 0, time.UTC)
	doc := &models.Document{
		ID:           3,
		Title:        "Surat",
		Remark:       "penting",
		OriginalName: "surat.pdf",
		UploadedAt:   uploaded,
		Categories:   []models.Kategori{{ID: 1}, {ID: 4}},
	}
	got := NewSearchDocument(doc, "isi")
	assert.Equal(t, SearchDocument{
		ID:           3,
		Title:        "Surat",
		Remark:       "penting",
		OriginalName: "surat.pdf",
		Content:      "isi",
		CategoryIDs:  []uint{1, 4},
		UploadedAt:   uploaded.Unix(),
	}, got)
}

func TestURLBuilder(t *testing.T) {
	u := NewURLBuilder("https://sinar.example.go.id/")
	assert.Equal(t, "https://sinar.example.go.id/api/v1/documents/download/5", u.DocumentDownload(5))
	assert.Equal(t, "https://sinar.example.go.id/api/v1/documents/preview/5", u.DocumentPreview(5))
	assert.Equal(t, "https://sinar.example.go.id/api/v1/admin/reports/download/9", u.ReportDownload(9))
	assert.Equal(t, "https://sinar.example.go.id/api/v1/admin/reports/preview/9", u.ReportPreview(9))
	assert.Equal(t, "https://sinar.example.go.id/api/v1/admin/users/2/logo", u.UserLogo(2))
}
