package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sinar-app/sinar-api/internal/apperror"
	"github.com/sinar-app/sinar-api/internal/media"
	"github.com/sinar-app/sinar-api/internal/middleware"
	"github.com/sinar-app/sinar-api/internal/query"
	"github.com/sinar-app/sinar-api/internal/response"
	"github.com/sinar-app/sinar-api/internal/services"
)

// maxReportBody bounds one report submission: a handful of media files.
const maxReportBody = 4*services.MaxVideoSize + formSlack

func ListReports(reports *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		params, err := query.ParseParams(c.Request.URL.Query())
		if err != nil {
			response.Error(c, err)
			return
		}
		documentID, err := queryUint(c, "document_id")
		if err != nil {
			response.Error(c, err)
			return
		}

		page, err := reports.List(c.Request.Context(), middleware.Principal(c), params, services.ReportFilter{
			DocumentID: documentID,
			Type:       strings.TrimSpace(c.Query("type")),
		})
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Page(c, http.StatusOK, "Reports retrieved successfully", page)
	}
}

func GetReport(reports *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}

		report, err := reports.Get(c.Request.Context(), middleware.Principal(c), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Report retrieved successfully", reports.View(*report))
	}
}

// CreateReport stores text, link and any number of audio/video files
// against a downloaded document
// POST /api/v1/admin/reports
func CreateReport(reports *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limitBody(c, maxReportBody)
		form, err := parseMultipart(c)
		if err != nil {
			response.Error(c, err)
			return
		}

		var documentID uint
		if raw := formString(form, "document_id"); raw != nil {
			n, err := strconv.ParseUint(strings.TrimSpace(*raw), 10, 64)
			if err != nil {
				response.Error(c, apperror.Validation("document_id must be a positive integer"))
				return
			}
			documentID = uint(n)
		}

		created, err := reports.Create(c.Request.Context(), middleware.Principal(c), services.ReportInput{
			DocumentID:  documentID,
			Text:        formString(form, "text"),
			Link:        formString(form, "link"),
			Description: formString(form, "description"),
			Audio:       formFiles(form, "audio"),
			Video:       formFiles(form, "video"),
		})
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusCreated, "Report created successfully", created)
	}
}

// UpdateReport replaces a report's content or description
// PUT /api/v1/admin/reports/:id
func UpdateReport(reports *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}
		limitBody(c, services.MaxVideoSize+formSlack)
		form, err := parseMultipart(c)
		if err != nil {
			response.Error(c, err)
			return
		}

		file := formFile(form, "file")
		for _, key := range []string{"audio", "video"} {
			if file == nil {
				file = formFile(form, key)
			}
		}

		updated, err := reports.Update(c.Request.Context(), middleware.Principal(c), id, services.ReportUpdate{
			Text:        formString(form, "text"),
			Link:        formString(form, "link"),
			Description: formString(form, "description"),
			File:        file,
		})
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Report updated successfully", updated)
	}
}

func DeleteReport(reports *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}

		if err := reports.Delete(c.Request.Context(), middleware.Principal(c), id); err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Report deleted successfully", nil)
	}
}

// DownloadReport sends an AUDIO or VIDEO report file as an attachment
// GET /api/v1/admin/reports/download/:id
func DownloadReport(reports *services.ReportService, gw *media.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}

		obj, done, err := reports.Download(c.Request.Context(), middleware.Principal(c), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		if err := gw.Download(c, obj, done); err != nil {
			response.Error(c, err)
		}
	}
}

// PreviewReport streams an AUDIO or VIDEO report with Range support
// GET /api/v1/admin/reports/preview/:id
func PreviewReport(reports *services.ReportService, gw *media.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}

		obj, err := reports.Preview(c.Request.Context(), middleware.Principal(c), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		if err := gw.Stream(c, obj); err != nil {
			response.Error(c, err)
		}
	}
}
