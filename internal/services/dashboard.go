package services

import (
	"context"
	"sort"
	"time"

	"github.com/sinar-app/sinar-api/internal/apperror"
	"github.com/sinar-app/sinar-api/internal/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var MonthNames = [12]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

type MonthCount struct {
	Month int    `json:"month"`
	Name  string `json:"name"`
	Total int64  `json:"total"`
}

type DocumentStats struct {
	Year   int          `json:"year"`
	Total  int64        `json:"total"`
	Months []MonthCount `json:"months"`
}

type ReportMonth struct {
	MonthCount
	ByType map[models.ReportType]int64 `json:"by_type"`
}

type ReportStats struct {
	Year   int                 `json:"year"`
	Total  int64               `json:"total"`
	Types  []models.ReportType `json:"types"`
	Months []ReportMonth       `json:"months"`
}

type RoleCount struct {
	Role  string `json:"role"`
	Total int64  `json:"total"`
}

type UserStats struct {
	Total    int64       `json:"total"`
	Active   int64       `json:"active"`
	Inactive int64       `json:"inactive"`
	ByRole   []RoleCount `json:"by_role"`
}

type Overview struct {
	Documents *DocumentStats `json:"documents"`
	Reports   *ReportStats   `json:"reports"`
	Users     *UserStats     `json:"users"`
}

type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

func yearRange(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
	return from, from.AddDate(1, 0, 0)
}

func emptyMonths() []MonthCount {
	months := make([]MonthCount, 12)
	for i := range months {
		months[i] = MonthCount{Month: i + 1, Name: MonthNames[i]}
	}
	return months
}

// monthOf is the SQL month number (1-12) of a timestamp column in the
// database session's time zone.
func monthOf(db *gorm.DB, column string) string {
	if db.Dialector.Name() == "sqlite" {
		return "CAST(strftime('%m', " + column + ") AS INTEGER)"
	}
	return "CAST(EXTRACT(MONTH FROM " + column + ") AS INTEGER)"
}

// DocumentStats counts active documents per upload month of year.
func (s *DashboardService) DocumentStats(ctx context.Context, year int) (*DocumentStats, error) {
	from, to := yearRange(year)
	month := monthOf(s.db, "uploaded_at")
	var rows []struct {
		Month int
		Total int64
	}
	err := s.db.WithContext(ctx).Model(&models.Document{}).
		Select(month+" AS month, COUNT(*) AS total").
		Where("is_active = ? AND uploaded_at >= ? AND uploaded_at < ?", true, from, to).
		Group(month).
		Scan(&rows).Error
	if err != nil {
		return nil, apperror.Internal("Failed to fetch document statistics", err)
	}

	stats := &DocumentStats{Year: year, Months: emptyMonths()}
	for _, r := range rows {
		if r.Month < 1 || r.Month > 12 {
			continue
		}
		stats.Months[r.Month-1].Total += r.Total
		stats.Total += r.Total
	}
	return stats, nil
}

// ReportStats counts reports per creation month of year, split by type.
func (s *DashboardService) ReportStats(ctx context.Context, year int) (*ReportStats, error) {
	from, to := yearRange(year)
	month := monthOf(s.db, "created_at")
	var rows []struct {
		Type  models.ReportType
		Month int
		Total int64
	}
	err := s.db.WithContext(ctx).Model(&models.DocumentReport{}).
		Select("type, "+month+" AS month, COUNT(*) AS total").
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("type, " + month).
		Scan(&rows).Error
	if err != nil {
		return nil, apperror.Internal("Failed to fetch report statistics", err)
	}

	seen := map[models.ReportType]bool{}
	for _, r := range rows {
		seen[r.Type] = true
	}
	types := make([]models.ReportType, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	stats := &ReportStats{Year: year, Types: types, Months: make([]ReportMonth, 12)}
	for i, m := range emptyMonths() {
		byType := make(map[models.ReportType]int64, len(types))
		for _, t := range types {
			byType[t] = 0
		}
		stats.Months[i] = ReportMonth{MonthCount: m, ByType: byType}
	}
	for _, r := range rows {
		if r.Month < 1 || r.Month > 12 {
			continue
		}
		m := &stats.Months[r.Month-1]
		m.Total += r.Total
		m.ByType[r.Type] += r.Total
		stats.Total += r.Total
	}
	return stats, nil
}

// UserStats counts accounts by status, and active accounts by role.
func (s *DashboardService) UserStats(ctx context.Context) (*UserStats, error) {
	db := s.db.WithContext(ctx)
	stats := &UserStats{ByRole: []RoleCount{}}

	if err := db.Model(&models.User{}).Count(&stats.Total).Error; err != nil {
		return nil, apperror.Internal("Failed to fetch user statistics", err)
	}
	if err := db.Model(&models.User{}).Where("is_active = ?", true).Count(&stats.Active).Error; err != nil {
		return nil, apperror.Internal("Failed to fetch user statistics", err)
	}
	stats.Inactive = stats.Total - stats.Active

	err := db.Model(&models.User{}).
		Select("roles.name AS role, COUNT(users.id) AS total").
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("users.is_active = ?", true).
		Group("roles.name").
		Order("roles.name").
		Scan(&stats.ByRole).Error
	if err != nil {
		return nil, apperror.Internal("Failed to fetch user statistics", err)
	}
	return stats, nil
}

// Overview gathers the three statistics concurrently.
func (s *DashboardService) Overview(ctx context.Context, year int) (*Overview, error) {
	var out Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Documents, err = s.DocumentStats(gctx, year)
		return err
	})
	g.Go(func() (err error) {
		out.Reports, err = s.ReportStats(gctx, year)
		return err
	})
	g.Go(func() (err error) {
		out.Users, err = s.UserStats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
