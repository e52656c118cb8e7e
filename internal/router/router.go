package router

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sinar-app/sinar-api/internal/config"
	"github.com/sinar-app/sinar-api/internal/handlers"
	"github.com/sinar-app/sinar-api/internal/media"
	"github.com/sinar-app/sinar-api/internal/middleware"
	"github.com/sinar-app/sinar-api/internal/response"
	"github.com/sinar-app/sinar-api/internal/services"
	"gorm.io/gorm"
)

// Deps are the backends the routes run on. Redis, Index and Extractor may
// be nil: rate limiting, full-text search and text extraction are then off.
type Deps struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Store     services.ObjectStorage
	Blacklist services.TokenBlacklist
	Index     services.DocumentIndexer
	Extractor services.TextExtractor
}

// Setup connects the production backends and builds the engine. The
// returned func releases them.
func Setup(ctx context.Context, db *gorm.DB, cfg *config.Config) (*gin.Engine, func(), error) {
	redisClient, blacklist, err := connectCache(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			log.Printf("Failed to close redis: %v", err)
		}
	}

	storageService, err := services.NewStorageService(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("storage: %w", err)
	}

	deps := Deps{
		DB:        db,
		Redis:     redisClient,
		Store:     storageService,
		Blacklist: blacklist,
	}
	if cfg.MeiliURL != "" {
		deps.Index = services.NewSearchService(cfg)
	} else {
		log.Println("Warning: MEILI_URL not set, document search falls back to the database")
	}
	if cfg.TikaURL != "" {
		deps.Extractor = services.NewTextExtractionService(cfg)
	}

	return New(cfg, deps), cleanup, nil
}

// connectCache returns the redis client and a redis-backed blacklist, or a
// nil client and an in-process blacklist when redisURL is empty.
func connectCache(ctx context.Context, redisURL string) (*redis.Client, services.TokenBlacklist, error) {
	if redisURL == "" {
		log.Println("Warning: REDIS_URL not set, using in-memory token blacklist and no rate limiting")
		return nil, services.NewMemoryBlacklist(), nil
	}
	client, err := middleware.NewRedisClient(ctx, redisURL)
	if err != nil {
		return nil, nil, err
	}
	return client, services.NewRedisBlacklist(client), nil
}

func New(cfg *config.Config, deps Deps) *gin.Engine {
	// Initialize Services
	db := deps.DB
	buckets := services.BucketsFromConfig(cfg)
	urls := services.NewURLBuilder(cfg.BaseURL)
	gateway := media.NewGateway(deps.Store)

	activityService := services.NewActivityService(db)
	authService := services.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL(), deps.Blacklist)
	documentService := services.NewDocumentService(db, deps.Store, buckets, urls, activityService).
		WithSearch(deps.Index, deps.Extractor)
	reportService := services.NewReportService(db, deps.Store, buckets, urls, activityService)
	kategoriService := services.NewKategoriService(db)
	userService := services.NewUserService(db, deps.Store, buckets, urls)
	dashboardService := services.NewDashboardService(db)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)
	response.UseFieldTags()

	r := gin.Default()

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Range"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "Content-Range", "Accept-Ranges"},
		AllowCredentials: true,
	}))

	// Health check endpoint
	r.GET("/health", handlers.HealthCheck(db, deps.Redis))

	// API v1 routes
	api := r.Group("/api/v1")
	if deps.Redis != nil {
		limiter := middleware.NewRateLimiter(deps.Redis)
		api.Use(limiter.RateLimitByIP(cfg.RateLimitMax, cfg.RateWindow()))
	}
	{
		// Public routes
		api.POST("/auth/login", handlers.Login(authService))

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(authService))
		{
			// Auth
			protected.POST("/auth/logout", handlers.Logout(authService))
			protected.GET("/auth/me", handlers.GetCurrentUser(userService))

			// Documents
			protected.GET("/documents", handlers.ListDocuments(documentService))
			protected.GET("/documents/search", handlers.SearchDocuments(documentService))
			protected.GET("/documents/download/:id", handlers.DownloadDocument(documentService, gateway))
			protected.GET("/documents/preview/:id", handlers.PreviewDocument(documentService, gateway))
			protected.GET("/documents/:id", handlers.GetDocument(documentService))

			// Categories
			protected.GET("/categories", handlers.ListCategories(kategoriService))
			protected.GET("/categories/:id", handlers.GetCategory(kategoriService))

			// Users
			protected.GET("/users/me", handlers.GetCurrentUser(userService))
			protected.PUT("/users/change-password", handlers.ChangePassword(userService))
			protected.GET("/users", handlers.ListUsers(userService))
			protected.GET("/users/:id", handlers.GetUser(userService))

			// Reports are open to every authenticated user, scoped by category
			protected.GET("/admin/reports", handlers.ListReports(reportService))
			protected.POST("/admin/reports", handlers.CreateReport(reportService))
			protected.GET("/admin/reports/download/:id", handlers.DownloadReport(reportService, gateway))
			protected.GET("/admin/reports/preview/:id", handlers.PreviewReport(reportService, gateway))
			protected.GET("/admin/reports/:id", handlers.GetReport(reportService))
			protected.PUT("/admin/reports/:id", handlers.UpdateReport(reportService))
			protected.DELETE("/admin/reports/:id", handlers.DeleteReport(reportService))
		}

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(authService), middleware.AdminRequired())
		{
			// Document management
			admin.POST("/documents", handlers.CreateDocument(documentService))
			admin.PUT("/documents/:id", handlers.UpdateDocument(documentService))
			admin.DELETE("/documents/:id", handlers.DeleteDocument(documentService))

			// Category management
			admin.GET("/categories", handlers.ListCategories(kategoriService))
			admin.GET("/categories/:id", handlers.GetCategory(kategoriService))
			admin.POST("/categories", handlers.CreateCategory(kategoriService))
			admin.PUT("/categories/:id", handlers.UpdateCategory(kategoriService))
			admin.DELETE("/categories/:id", handlers.DeleteCategory(kategoriService))

			// User management
			admin.GET("/users", handlers.ListUsers(userService))
			admin.GET("/users/:id", handlers.GetUser(userService))
			admin.POST("/users", handlers.CreateUser(userService))
			admin.PUT("/users/:id", handlers.UpdateUser(userService))
			admin.DELETE("/users/:id", handlers.DeleteUser(userService))
			admin.PUT("/users/:id/reset-password", handlers.ResetPassword(userService))
			admin.GET("/users/:id/logo", handlers.GetUserLogo(userService, gateway))

			// Dashboard
			admin.GET("/dashboard/stats/documents", handlers.GetDocumentStats(dashboardService))
			admin.GET("/dashboard/stats/reports", handlers.GetReportStats(dashboardService))
			admin.GET("/dashboard/stats/users", handlers.GetUserStats(dashboardService))
			admin.GET("/dashboard/overview", handlers.GetOverview(dashboardService))

			// Activities
			admin.GET("/activities/recent", handlers.GetRecentActivities(activityService))
		}
	}

	return r
}
