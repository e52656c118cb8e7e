package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sinar-app/sinar-api/internal/apperror"
	"github.com/sinar-app/sinar-api/internal/authz"
	"github.com/sinar-app/sinar-api/internal/response"
	"github.com/sinar-app/sinar-api/internal/services"
)

const (
	principalKey = "principal"
	tokenKey     = "token"
)

// Authenticator verifies a raw bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*services.Claims, error)
}

// AuthRequired accepts a bearer token from the Authorization header, or
// from the token query parameter for media URLs embedded in tags.
func AuthRequired(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			response.Error(c, err)
			return
		}

		claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(principalKey, claims.Principal())
		c.Set(tokenKey, token)
		c.Next()
	}
}

func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Principal(c).IsAdmin() {
			response.Error(c, apperror.Forbidden("Admin access required"))
			return
		}
		c.Next()
	}
}

// Principal returns the authenticated caller. Without AuthRequired it is
// the zero principal, which no scope lets through.
func Principal(c *gin.Context) authz.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(authz.Principal); ok {
			return p
		}
	}
	return authz.Principal{}
}

// Token returns the raw token the request was authenticated with.
func Token(c *gin.Context) string {
	return c.GetString(tokenKey)
}

func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if token := strings.TrimSpace(c.Query("token")); token != "" {
			return token, nil
		}
		return "", apperror.Unauthorized("Authorization header required")
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", apperror.Unauthorized("Invalid authorization format")
	}
	return strings.TrimSpace(token), nil
}
