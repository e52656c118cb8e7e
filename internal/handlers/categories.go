package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sinar-app/sinar-api/internal/middleware"
	"github.com/sinar-app/sinar-api/internal/query"
	"github.com/sinar-app/sinar-api/internal/response"
	"github.com/sinar-app/sinar-api/internal/services"
)

// CategoryRequest defines the request body for creating or renaming a category
type CategoryRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

// ListCategories lists the categories visible to the caller
// GET /api/v1/categories, GET /api/v1/admin/categories
func ListCategories(categories *services.KategoriService) gin.HandlerFunc {
	return func(c *gin.Context) {
		params, err := query.ParseParams(c.Request.URL.Query())
		if err != nil {
			response.Error(c, err)
			return
		}

		page, err := categories.List(c.Request.Context(), middleware.Principal(c), params)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Page(c, http.StatusOK, "Categories retrieved successfully", page)
	}
}

func GetCategory(categories *services.KategoriService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}

		k, err := categories.Get(c.Request.Context(), middleware.Principal(c), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Category retrieved successfully", k)
	}
}

// CreateCategory creates a new category (admin only)
// POST /api/v1/admin/categories
func CreateCategory(categories *services.KategoriService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, err)
			return
		}

		k, err := categories.Create(c.Request.Context(), middleware.Principal(c), req.Name)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusCreated, "Category created successfully", k)
	}
}

// UpdateCategory renames a category (admin only)
// PUT /api/v1/admin/categories/:id
func UpdateCategory(categories *services.KategoriService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}
		var req CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, err)
			return
		}

		k, err := categories.Update(c.Request.Context(), middleware.Principal(c), id, req.Name)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Category updated successfully", k)
	}
}

// DeleteCategory soft-deletes a category (admin only)
// DELETE /api/v1/admin/categories/:id
func DeleteCategory(categories *services.KategoriService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}

		if err := categories.Delete(c.Request.Context(), middleware.Principal(c), id); err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Category deleted successfully", nil)
	}
}
