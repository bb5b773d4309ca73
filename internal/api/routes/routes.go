package routes

import (
	"fmt"
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/foodnetwork-backend/internal/api/handlers"
	"github.com/princeprakhar/foodnetwork-backend/internal/api/middleware"
	"github.com/princeprakhar/foodnetwork-backend/internal/config"
	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/princeprakhar/foodnetwork-backend/internal/services"
	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
	"github.com/princeprakhar/foodnetwork-backend/pkg/logger"
	"github.com/ulule/limiter/v3"
	"gorm.io/gorm"
)

func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, limitStore limiter.Store) error {
	// Middleware
	router.Use(gin.Logger())
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true, Timeout: 2 * time.Second}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RateLimitMiddleware(cfg, limitStore))

	// Optional integrations stay nil interfaces when unconfigured.
	var images services.ImageStore
	if cfg.StorageEnabled() {
		s3Service, err := services.NewS3Service(cfg.S3Region, cfg.S3BucketName, cfg.S3AccessKey, cfg.S3SecretKey)
		if err != nil {
			return fmt.Errorf("init s3: %w", err)
		}
		images = s3Service
	} else {
		logger.Warn("S3 bucket not configured, image uploads disabled")
	}

	var emailService *services.EmailService
	var notifier services.ReportNotifier
	if cfg.MailEnabled() {
		emailService = services.NewEmailService(services.NewSMTPMailer(cfg), cfg.BaseURL)
		notifier = emailService
	} else {
		logger.Warn("SMTP not configured, emails disabled")
	}

	// Initialize services
	authService := services.NewAuthService(db, utils.TokenSettings{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}, emailService)
	profileService := services.NewProfileService(db)
	productService := services.NewProductService(db)
	reviewService := services.NewReviewService(db, images)
	commentService := services.NewCommentService(db)
	reactionService := services.NewReactionService(db)
	listService := services.NewListService(db)
	moderationService := services.NewModerationService(db, authService, notifier)
	adminService := services.NewAdminService(db, images)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	passwordHandler := handlers.NewPasswordHandler(authService)
	profileHandler := handlers.NewProfileHandler(profileService)
	productHandler := handlers.NewProductHandler(productService, reviewService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	commentHandler := handlers.NewCommentHandler(commentService, reactionService)
	listHandler := handlers.NewListHandler(listService)
	moderationHandler := handlers.NewModerationHandler(moderationService)
	adminHandler := handlers.NewAdminHandler(adminService, services.NewRatingAggregator(db))

	requireAuth := middleware.AuthMiddleware(cfg)
	optionalAuth := middleware.OptionalAuth(cfg, authService)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Server is running"})
	})

	// API routes
	api := router.Group("/api/v1")

	// Auth routes
	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh-token", authHandler.RefreshToken)
		auth.POST("/logout", requireAuth, authHandler.Logout)
		auth.POST("/logout-all", requireAuth, authHandler.LogoutAll)
		auth.GET("/profile", requireAuth, authHandler.GetProfile)
		auth.PUT("/profile", requireAuth, profileHandler.UpdateMyProfile)
	}

	// Password reset routes
	passwordGroup := api.Group("/password")
	{
		passwordGroup.POST("/forgot", passwordHandler.ForgotPassword)
		passwordGroup.POST("/reset", passwordHandler.ResetPassword)
		passwordGroup.POST("/change", requireAuth, passwordHandler.ChangePassword)
	}

	// Product routes
	products := api.Group("/products", optionalAuth)
	{
		products.GET("", productHandler.ListProducts)
		products.GET("/filter-options", productHandler.GetFilterOptions)
		products.GET("/:id", productHandler.GetProduct)
		products.GET("/:id/reviews", productHandler.GetProductReviews)
	}

	// Review routes
	reviews := api.Group("/reviews")
	{
		reviews.GET("/feed", reviewHandler.Feed)
		reviews.GET("/me", requireAuth, reviewHandler.MyReviews)
		reviews.POST("", requireAuth, reviewHandler.CreateReview)
		reviews.POST("/photos", requireAuth, reviewHandler.UploadPhotos)
		reviews.GET("/:id", optionalAuth, reviewHandler.GetReview)
		reviews.PUT("/:id", requireAuth, reviewHandler.UpdateReview)
		reviews.DELETE("/:id", requireAuth, reviewHandler.DeleteReview)

		reviews.GET("/:id/comments", optionalAuth, commentHandler.ListComments(models.TargetReview))
		reviews.POST("/:id/comments", requireAuth, commentHandler.AddComment(models.TargetReview))
		reviews.GET("/:id/reactions", commentHandler.ReactionSummary(models.TargetReview))
		reviews.PUT("/:id/reactions", requireAuth, commentHandler.React(models.TargetReview))
		reviews.DELETE("/:id/reactions", requireAuth, commentHandler.RemoveReaction(models.TargetReview))
	}

	// Comment routes
	comments := api.Group("/comments")
	{
		comments.DELETE("/:id", requireAuth, commentHandler.DeleteComment)
		comments.GET("/:id/replies", optionalAuth, commentHandler.ListComments(models.TargetComment))
		comments.POST("/:id/replies", requireAuth, commentHandler.AddComment(models.TargetComment))
		comments.GET("/:id/reactions", commentHandler.ReactionSummary(models.TargetComment))
		comments.PUT("/:id/reactions", requireAuth, commentHandler.React(models.TargetComment))
		comments.DELETE("/:id/reactions", requireAuth, commentHandler.RemoveReaction(models.TargetComment))
	}

	// Reports are filed by any member; resolving them is moderator work.
	api.POST("/reports", requireAuth, moderationHandler.FileReport)

	// List routes
	lists := api.Group("/lists")
	{
		lists.POST("", requireAuth, listHandler.CreateList)
		lists.GET("/me", requireAuth, listHandler.MyLists)
		lists.GET("/:id", optionalAuth, listHandler.GetList)
		lists.PUT("/:id", requireAuth, listHandler.UpdateList)
		lists.DELETE("/:id", requireAuth, listHandler.DeleteList)
		lists.POST("/:id/items", requireAuth, listHandler.AddItem)
		lists.PUT("/:id/items/:item_id", requireAuth, listHandler.UpdateItem)
		lists.DELETE("/:id/items/:item_id", requireAuth, listHandler.RemoveItem)
		lists.PUT("/:id/reorder", requireAuth, listHandler.ReorderItems)
	}

	// User routes
	users := api.Group("/users")
	{
		users.GET("/:id/profile", optionalAuth, profileHandler.GetPublicProfile)
		users.GET("/:id/lists", optionalAuth, listHandler.UserLists)
		users.GET("/:id/followers", optionalAuth, profileHandler.Followers)
		users.GET("/:id/following", optionalAuth, profileHandler.Following)
		users.POST("/:id/follow", requireAuth, profileHandler.Follow)
		users.DELETE("/:id/follow", requireAuth, profileHandler.Unfollow)
	}

	// Moderation routes
	moderation := api.Group("/moderation", requireAuth, middleware.StaffOnly())
	{
		moderation.GET("/reports", moderationHandler.ListReports)
		moderation.PUT("/reports/:id", moderationHandler.ResolveReport)
		moderation.POST("/hide", moderationHandler.HideContent)
		moderation.POST("/restore", moderationHandler.RestoreContent)
		moderation.POST("/delete", moderationHandler.DeleteContent)
		moderation.GET("/logs", moderationHandler.ListLogs)
	}

	// Admin routes
	admin := api.Group("/admin", requireAuth, middleware.StaffOnly())
	{
		admin.GET("/dashboard", adminHandler.GetDashboard)

		admin.GET("/companies", adminHandler.ListCompanies)
		admin.POST("/companies", adminHandler.CreateCompany)
		admin.PUT("/companies/:id", adminHandler.UpdateCompany)
		admin.DELETE("/companies/:id", adminHandler.DeleteCompany)

		admin.POST("/brands", adminHandler.CreateBrand)
		admin.PUT("/brands/:id", adminHandler.UpdateBrand)
		admin.DELETE("/brands/:id", adminHandler.DeleteBrand)

		admin.POST("/products", adminHandler.CreateProduct)
		admin.POST("/products/import", adminHandler.UploadCSV)
		admin.PUT("/products/:id", adminHandler.UpdateProduct)
		admin.DELETE("/products/:id", adminHandler.DeleteProduct)
		admin.POST("/products/:id/image", adminHandler.UploadProductImage)
		admin.POST("/products/:id/recompute-rating", adminHandler.RecomputeRating)
		admin.POST("/products/:id/sources", adminHandler.AttachSource)
		admin.DELETE("/products/:id/sources/:source_id", adminHandler.DetachSource)

		admin.POST("/sources", adminHandler.CreateSource)

		admin.PUT("/users/:id/role", middleware.AdminOnly(), authHandler.SetRole)
	}

	logger.Info("Routes initialized successfully")
	return nil
}
