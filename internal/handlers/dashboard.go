package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sinar-app/sinar-api/internal/apperror"
	"github.com/sinar-app/sinar-api/internal/response"
	"github.com/sinar-app/sinar-api/internal/services"
)

func yearParam(c *gin.Context) (int, error) {
	raw := c.Query("year")
	if raw == "" {
		return time.Now().Year(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1970 || year > 9999 {
		return 0, apperror.Validation("year must be a valid year")
	}
	return year, nil
}

// GetDocumentStats returns monthly upload counts for a year
// GET /api/v1/admin/dashboard/stats/documents?year=
func GetDocumentStats(dashboard *services.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		year, err := yearParam(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		stats, err := dashboard.DocumentStats(c.Request.Context(), year)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Document statistics retrieved successfully", stats)
	}
}

func GetReportStats(dashboard *services.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		year, err := yearParam(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		stats, err := dashboard.ReportStats(c.Request.Context(), year)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Report statistics retrieved successfully", stats)
	}
}

func GetUserStats(dashboard *services.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := dashboard.UserStats(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, "User statistics retrieved successfully", stats)
	}
}

func GetOverview(dashboard *services.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		year, err := yearParam(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		overview, err := dashboard.Overview(c.Request.Context(), year)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Dashboard overview retrieved successfully", overview)
	}
}
