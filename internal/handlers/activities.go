package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sinar-app/sinar-api/internal/response"
	"github.com/sinar-app/sinar-api/internal/services"
)

func GetRecentActivities(activity *services.ActivityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
		if limit > services.MaxRecentActivities {
			limit = services.MaxRecentActivities
		}

		activities, err := activity.GetRecentActivities(c.Request.Context(), limit)
		if err != nil {
			response.Error(c, err)
			return
		}

		response.OK(c, http.StatusOK, "Activities retrieved successfully", activities)
	}
}
