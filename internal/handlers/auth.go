package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sinar-app/sinar-api/internal/middleware"
	"github.com/sinar-app/sinar-api/internal/response"
	"github.com/sinar-app/sinar-api/internal/services"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Authenticator is the part of the auth service the login endpoints use.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	Logout(ctx context.Context, token string) error
}

// Login exchanges credentials for a token
// POST /api/v1/auth/login
func Login(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, err)
			return
		}

		result, err := auth.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			response.Error(c, err)
			return
		}

		response.OK(c, http.StatusOK, "Login successful", result)
	}
}

// Logout revokes the token the request was made with
// POST /api/v1/auth/logout
func Logout(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.Logout(c.Request.Context(), middleware.Token(c)); err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Logout successful", nil)
	}
}

// GetCurrentUser returns the caller's account
// GET /api/v1/auth/me, GET /api/v1/users/me
func GetCurrentUser(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := users.Me(c.Request.Context(), middleware.Principal(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, "User retrieved successfully", users.View(*user))
	}
}
