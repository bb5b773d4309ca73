package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/princeprakhar/foodnetwork-backend/internal/api/middleware"
	"github.com/princeprakhar/foodnetwork-backend/internal/api/routes"
	"github.com/princeprakhar/foodnetwork-backend/internal/config"
	"github.com/princeprakhar/foodnetwork-backend/internal/database"
	"github.com/princeprakhar/foodnetwork-backend/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(cfg.IsProduction(), cfg.LogLevel)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry init failed: ", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Initialize database
	db, err := database.Init(cfg)
	if err != nil {
		fatal("Failed to initialize database", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	limitStore, err := middleware.NewRateLimitStore(ctx, cfg)
	cancel()
	if err != nil {
		fatal("Failed to initialize rate limiter", err)
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := gin.New()

	// Setup routes
	if err := routes.SetupRoutes(router, db, cfg, limitStore); err != nil {
		fatal("Failed to setup routes", err)
	}

	logger.Info("Server starting on port " + cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		fatal("Failed to start server", err)
	}
}

// reportFatal sends a startup failure to Sentry and waits for delivery. It is
// a no-op when Sentry is not configured.
func reportFatal(msg string, err error) {
	sentry.CaptureException(fmt.Errorf("%s: %w", msg, err))
	sentry.Flush(2 * time.Second)
}

// fatal replaces logger.Fatal once Sentry is up: os.Exit skips deferred flushes.
func fatal(msg string, err error) {
	reportFatal(msg, err)
	logger.Fatal(msg+": ", err)
}
