package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/sinar-app/sinar-api/internal/models"
	"github.com/sinar-app/sinar-api/internal/services"
	"github.com/sinar-app/sinar-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 10, 0, 0, 0, time.Local)
}

func TestDocumentStats(t *testing.T) {
	f := newFixture(t)
	svc := services.NewDashboardService(f.db)

	dates := []time.Time{at(2025, time.January, 5), at(2025, time.January, 20), at(2025, time.March, 1), at(2024, time.December, 31)}
	for i, d := range dates {
		doc := testutil.CreateDocument(t, f.db, "Dok "+itoa(uint(i)), f.admin.ID, f.kemenkes)
		require.NoError(t, f.db.Model(&models.Document{}).Where("id = ?", doc.ID).Update("uploaded_at", d).Error)
	}
	gone := testutil.CreateDocument(t, f.db, "Gone", f.admin.ID, f.kemenkes)
	require.NoError(t, f.db.Model(&models.Document{}).Where("id = ?", gone.ID).
		Updates(map[string]any{"uploaded_at": at(2025, time.March, 2), "is_active": false}).Error)

	stats, err := svc.DocumentStats(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, 2025, stats.Year)
	assert.Equal(t, int64(3), stats.Total)
	require.Len(t, stats.Months, 12)
	assert.Equal(t, services.MonthCount{Month: 1, Name: "Januari", Total: 2}, stats.Months[0])
	assert.Equal(t, int64(0), stats.Months[1].Total)
	assert.Equal(t, int64(1), stats.Months[2].Total)
	assert.Equal(t, "Desember", stats.Months[11].Name)
}

func TestReportStats(t *testing.T) {
	f := newFixture(t)
	svc := services.NewDashboardService(f.db)
	doc := testutil.CreateDocument(t, f.db, "Surat", f.admin.ID, f.kemenkes)

	add := func(kind models.ReportType, when time.Time) {
		r := models.DocumentReport{Type: kind, Content: "x", DocumentID: doc.ID, UserID: f.health.ID}
		require.NoError(t, f.db.Create(&r).Error)
		require.NoError(t, f.db.Model(&models.DocumentReport{}).Where("id = ?", r.ID).Update("created_at", when).Error)
	}
	add(models.ReportText, at(2025, time.February, 3))
	add(models.ReportText, at(2025, time.February, 4))
	add(models.ReportVideo, at(2025, time.February, 5))
	add(models.ReportLink, at(2025, time.June, 1))
	add(models.ReportAudio, at(2026, time.January, 1))

	stats, err := svc.ReportStats(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, []models.ReportType{models.ReportLink, models.ReportText, models.ReportVideo}, stats.Types)

	feb := stats.Months[1]
	assert.Equal(t, "Februari", feb.Name)
	assert.Equal(t, int64(3), feb.Total)
	assert.Equal(t, map[models.ReportType]int64{models.ReportLink: 0, models.ReportText: 2, models.ReportVideo: 1}, feb.ByType)

	assert.Equal(t, int64(1), stats.Months[5].ByType[models.ReportLink])
	assert.Len(t, stats.Months[0].ByType, 3)

	empty, err := svc.ReportStats(context.Background(), 2019)
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Empty(t, empty.Types)
	assert.Empty(t, empty.Months[0].ByType)
}

func TestUserStatsAndOverview(t *testing.T) {
	f := newFixture(t)
	svc := services.NewDashboardService(f.db)
	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", f.trade.ID).Update("is_active", false).Error)

	stats, err := svc.UserStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Active)
	assert.Equal(t, int64(1), stats.Inactive)
	assert.Equal(t, []services.RoleCount{{Role: "admin", Total: 1}, {Role: "user", Total: 1}}, stats.ByRole)

	overview, err := svc.Overview(context.Background(), 2025)
	require.NoError(t, err)
	require.NotNil(t, overview.Documents)
	require.NotNil(t, overview.Reports)
	assert.Equal(t, stats, overview.Users)
}
