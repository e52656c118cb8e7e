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

const logoCacheControl = "public, max-age=3600"

type UserRequest struct {
	Username      *string `json:"username"`
	Password      *string `json:"password"`
	RoleID        *uint   `json:"role_id"`
	CategoryID    *uint   `json:"category_id"`
	NameMentri    *string `json:"name_mentri"`
	ContactPerson *string `json:"contact_person"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

func ListUsers(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		params, err := query.ParseParams(c.Request.URL.Query())
		if err != nil {
			response.Error(c, err)
			return
		}

		page, err := users.List(c.Request.Context(), middleware.Principal(c), params)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Page(c, http.StatusOK, "Users retrieved successfully", page)
	}
}

func GetUser(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}

		u, err := users.Get(c.Request.Context(), middleware.Principal(c), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, "User retrieved successfully", users.View(*u))
	}
}

// CreateUser accepts JSON, or multipart when a logo is attached
// POST /api/v1/admin/users
func CreateUser(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, err := userInput(c)
		if err != nil {
			response.Error(c, err)
			return
		}

		u, err := users.Create(c.Request.Context(), middleware.Principal(c), in)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusCreated, "User created successfully", users.View(*u))
	}
}

func UpdateUser(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}
		in, err := userInput(c)
		if err != nil {
			response.Error(c, err)
			return
		}

		u, err := users.Update(c.Request.Context(), middleware.Principal(c), id, in)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, "User updated successfully", users.View(*u))
	}
}

func DeleteUser(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}

		if err := users.Delete(c.Request.Context(), middleware.Principal(c), id); err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, "User deleted successfully", nil)
	}
}

// ChangePassword lets the caller change their own password
// PUT /api/v1/users/change-password
func ChangePassword(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, err)
			return
		}

		if err := users.ChangePassword(c.Request.Context(), middleware.Principal(c), req.OldPassword, req.NewPassword); err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Password changed successfully", nil)
	}
}

// ResetPassword sets another user's password (admin only)
// PUT /api/v1/admin/users/:id/reset-password
func ResetPassword(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}
		var req ResetPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, err)
			return
		}

		if err := users.ResetPassword(c.Request.Context(), middleware.Principal(c), id, req.Password); err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Password reset successfully", nil)
	}
}

// GetUserLogo serves the user's logo inline
// GET /api/v1/admin/users/:id/logo
func GetUserLogo(users *services.UserService, gw *media.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}

		obj, err := users.Logo(c.Request.Context(), middleware.Principal(c), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		if err := gw.Inline(c, obj, logoCacheControl); err != nil {
			response.Error(c, err)
		}
	}
}

func userInput(c *gin.Context) (services.UserInput, error) {
	if isJSON(c) {
		var req UserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return services.UserInput{}, err
		}
		return services.UserInput{
			Username:      req.Username,
			Password:      req.Password,
			RoleID:        req.RoleID,
			CategoryID:    req.CategoryID,
			NameMentri:    req.NameMentri,
			ContactPerson: req.ContactPerson,
		}, nil
	}

	limitBody(c, services.MaxLogoSize+formSlack)
	form, err := parseMultipart(c)
	if err != nil {
		return services.UserInput{}, err
	}
	in := services.UserInput{
		Username:      formString(form, "username"),
		Password:      formString(form, "password"),
		NameMentri:    formString(form, "name_mentri"),
		ContactPerson: formString(form, "contact_person"),
		Logo:          formFile(form, "logo"),
	}
	if in.RoleID, err = formUint(formString(form, "role_id"), "role_id"); err != nil {
		return in, err
	}
	if in.CategoryID, err = formUint(formString(form, "category_id"), "category_id"); err != nil {
		return in, err
	}
	return in, nil
}

func formUint(raw *string, key string) (*uint, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(strings.TrimSpace(*raw), 10, 64)
	if err != nil || n == 0 {
		return nil, apperror.Validation("%s must be a positive integer", key)
	}
	v := uint(n)
	return &v, nil
}
