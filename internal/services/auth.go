package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sinar-app/sinar-api/internal/apperror"
	"github.com/sinar-app/sinar-api/internal/authz"
	"github.com/sinar-app/sinar-api/internal/models"
	"github.com/sinar-app/sinar-api/internal/utils"
	"gorm.io/gorm"
)

const invalidCredentials = "Invalid username or password"

// Claims is the token payload.
type Claims struct {
	UserID     uint   `json:"id"`
	Role       string `json:"role"`
	CategoryID *uint  `json:"category_id"`
	jwt.RegisteredClaims
}

func (c *Claims) Principal() authz.Principal {
	return authz.Principal{UserID: c.UserID, Role: c.Role, CategoryID: c.CategoryID}
}

type LoginUser struct {
	ID       uint             `json:"id"`
	Username string           `json:"username"`
	Role     string           `json:"role"`
	Category *models.Kategori `json:"category"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      LoginUser `json:"user"`
}

type AuthService struct {
	db        *gorm.DB
	secret    []byte
	ttl       time.Duration
	blacklist TokenBlacklist
	now       func() time.Time
}

func NewAuthService(db *gorm.DB, secret string, ttl time.Duration, blacklist TokenBlacklist) *AuthService {
	return &AuthService{
		db:        db,
		secret:    []byte(secret),
		ttl:       ttl,
		blacklist: blacklist,
		now:       time.Now,
	}
}

// Login checks the credentials of an active user and issues a token.
// Unknown users, inactive users and wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Role").Preload("Category").
		Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, apperror.Internal("Failed to fetch user", err)
	}
	if !user.IsActive || !utils.CheckPassword(user.Password, password) {
		return nil, apperror.Unauthorized(invalidCredentials)
	}

	token, expiresAt, err := s.IssueToken(&user)
	if err != nil {
		return nil, apperror.Internal("Failed to generate token", err)
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User: LoginUser{
			ID:       user.ID,
			Username: user.Username,
			Role:     user.Role.Name,
			Category: user.Category,
		},
	}, nil
}

func (s *AuthService) IssueToken(user *models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		UserID:     user.ID,
		Role:       user.Role.Name,
		CategoryID: user.CategoryID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	return signed, expiresAt, err
}

// Authenticate verifies the token signature and expiry and rejects
// revoked tokens.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid or expired token")
	}
	revoked, err := s.blacklist.IsRevoked(ctx, token)
	if err != nil {
		return nil, apperror.Internal("Failed to verify token", err)
	}
	if revoked {
		return nil, apperror.Unauthorized("Token has been revoked")
	}
	return claims, nil
}

// Logout revokes the token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return apperror.Unauthorized("Invalid or expired token")
	}
	if err := s.blacklist.Revoke(ctx, token, claims.ExpiresAt.Time); err != nil {
		return apperror.Internal("Failed to revoke token", err)
	}
	return nil
}

func (s *AuthService) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
