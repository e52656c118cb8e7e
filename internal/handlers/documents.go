package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sinar-app/sinar-api/internal/media"
	"github.com/sinar-app/sinar-api/internal/middleware"
	"github.com/sinar-app/sinar-api/internal/query"
	"github.com/sinar-app/sinar-api/internal/response"
	"github.com/sinar-app/sinar-api/internal/services"
)

// form overhead allowed on top of the file itself
const formSlack = 1 << 20

func ListDocuments(docs *services.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		params, err := query.ParseParams(c.Request.URL.Query())
		if err != nil {
			response.Error(c, err)
			return
		}
		categoryID, err := queryUint(c, "category_id")
		if err != nil {
			response.Error(c, err)
			return
		}

		page, err := docs.List(c.Request.Context(), middleware.Principal(c), params, categoryID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Page(c, http.StatusOK, "Documents retrieved successfully", page)
	}
}

// SearchDocuments runs a full-text query
// GET /api/v1/documents/search?q=
func SearchDocuments(docs *services.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

		results, err := docs.Search(c.Request.Context(), middleware.Principal(c), c.Query("q"), limit)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Search completed", results)
	}
}

func GetDocument(docs *services.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}

		doc, err := docs.Get(c.Request.Context(), middleware.Principal(c), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Document retrieved successfully", docs.View(*doc))
	}
}

// DownloadDocument streams the file as an attachment and marks the
// document downloaded once the transfer completes
// GET /api/v1/documents/download/:id
func DownloadDocument(docs *services.DocumentService, gw *media.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}

		obj, done, err := docs.Download(c.Request.Context(), middleware.Principal(c), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		if err := gw.Download(c, obj, done); err != nil {
			response.Error(c, err)
		}
	}
}

// PreviewDocument renders .docx as HTML and serves other files inline
// GET /api/v1/documents/preview/:id
func PreviewDocument(docs *services.DocumentService, gw *media.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}

		obj, err := docs.Preview(c.Request.Context(), middleware.Principal(c), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		if err := gw.Preview(c, obj); err != nil {
			response.Error(c, err)
		}
	}
}

// CreateDocument uploads a document (admin only)
// POST /api/v1/admin/documents
func CreateDocument(docs *services.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, err := documentInput(c)
		if err != nil {
			response.Error(c, err)
			return
		}

		doc, err := docs.Create(c.Request.Context(), middleware.Principal(c), in)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusCreated, "Document created successfully", docs.View(*doc))
	}
}

// UpdateDocument changes metadata, categories or the file (admin only)
// PUT /api/v1/admin/documents/:id
func UpdateDocument(docs *services.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}
		in, err := documentInput(c)
		if err != nil {
			response.Error(c, err)
			return
		}

		doc, err := docs.Update(c.Request.Context(), middleware.Principal(c), id, in)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Document updated successfully", docs.View(*doc))
	}
}

func DeleteDocument(docs *services.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}

		if err := docs.Delete(c.Request.Context(), middleware.Principal(c), id); err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Document deleted successfully", nil)
	}
}

func documentInput(c *gin.Context) (services.DocumentInput, error) {
	limitBody(c, services.MaxDocumentSize+formSlack)
	form, err := parseMultipart(c)
	if err != nil {
		return services.DocumentInput{}, err
	}

	in := services.DocumentInput{
		Title:  formString(form, "title"),
		Remark: formString(form, "remark"),
		File:   formFile(form, "file"),
	}
	ids, sent, err := formIDs(form, "category_ids")
	if err != nil {
		return in, err
	}
	if sent {
		in.CategoryIDs = ids
	}
	return in, nil
}
