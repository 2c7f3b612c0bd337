package main

// @title PromoRail API
// @version 1.0
// @description Multi-tenant affiliate and influencer marketing platform.
// @termsOfService https://promorail.io/terms

// @contact.name API Support
// @contact.url https://promorail.io/support
// @contact.email support@promorail.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/promorail/promorail/config"
	_ "github.com/promorail/promorail/docs" // Swagger docs (generated)
	"github.com/promorail/promorail/pkg/affiliate"
	"github.com/promorail/promorail/pkg/api/handlers"
	custommw "github.com/promorail/promorail/pkg/api/middleware"
	"github.com/promorail/promorail/pkg/audit"
	"github.com/promorail/promorail/pkg/auth"
	"github.com/promorail/promorail/pkg/cache"
	"github.com/promorail/promorail/pkg/campaign"
	"github.com/promorail/promorail/pkg/commission"
	"github.com/promorail/promorail/pkg/database"
	"github.com/promorail/promorail/pkg/email"
	"github.com/promorail/promorail/pkg/export"
	"github.com/promorail/promorail/pkg/jobs"
	"github.com/promorail/promorail/pkg/logger"
	"github.com/promorail/promorail/pkg/metrics"
	custommiddleware "github.com/promorail/promorail/pkg/middleware"
	"github.com/promorail/promorail/pkg/models"
	"github.com/promorail/promorail/pkg/participation"
	"github.com/promorail/promorail/pkg/payout"
	"github.com/promorail/promorail/pkg/product"
	"github.com/promorail/promorail/pkg/tier"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Printf("🔧 Configuration loaded (environment: %s)", cfg.APIEnvironment)

	// Initialize Sentry for error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: 1.0,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Printf("⚠️  Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s)", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Printf("ℹ️  Sentry disabled (no DSN configured)")
	}

	// Initialize database
	db, err := database.NewClientWithPool(cfg.DatabaseURL, database.DefaultPoolConfig())
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatalf("❌ Failed to migrate database: %v", err)
	}
	log.Printf("✅ Database connected and migrated")

	// Initialize Redis cache
	redisClient, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Initialize Prometheus metrics
	prometheusMetrics := metrics.New()
	log.Printf("✅ Prometheus metrics initialized")

	// Initialize JWT blacklist
	tokenBlacklist := auth.NewTokenBlacklist(redisClient)

	// Initialize audit logger
	auditLogger := audit.NewService(db.DB)
	log.Printf("✅ Audit logging initialized")

	// Initialize email service
	emailService := email.NewService(
		cfg.EmailFrom,
		cfg.EmailFromName,
		cfg.FrontendURL,
		cfg.SendGridAPIKey,
	)

	// Initialize services
	tierService := tier.NewService(db.DB, redisClient)
	productService := product.NewService(db.DB)
	campaignService := campaign.NewService(db.DB)
	commissionService := commission.NewService(db.DB)
	participationService := participation.NewService(db.DB, commissionService, tierService, cfg.TrackingBaseURL)
	affiliateService := affiliate.NewService(db.DB)
	payoutService := payout.NewService(db.DB, &payout.Config{
		StripeSecretKey: cfg.StripeSecretKey,
		Currency:        cfg.PayoutCurrency,
		MinimumAmount:   cfg.PayoutMinimumAmount,
	})
	if cfg.FeatureEmailNotifications {
		payoutService.SetEmailSender(emailService)
	}

	exportService, err := export.NewService(db.DB, export.Config{
		LocalPath:          cfg.ExportLocalPath,
		AWSAccessKeyID:     cfg.AWSAccessKeyID,
		AWSSecretAccessKey: cfg.AWSSecretAccessKey,
		AWSRegion:          cfg.AWSRegion,
		S3Bucket:           cfg.ExportS3Bucket,
	})
	if err != nil {
		log.Fatalf("❌ Failed to initialize export service: %v", err)
	}
	log.Printf("✅ Services initialized")

	// Initialize job scheduler
	scheduler := jobs.NewScheduler(db.DB, campaignService, tierService, prometheusMetrics, logger.New(cfg.LogLevel))
	if err := scheduler.Start(); err != nil {
		log.Fatalf("❌ Failed to start job scheduler: %v", err)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db.DB, cfg, tokenBlacklist, auditLogger, prometheusMetrics)
	tierHandler := handlers.NewTierHandler(tierService, prometheusMetrics)
	productHandler := handlers.NewProductHandler(productService)
	campaignHandler := handlers.NewCampaignHandler(campaignService, participationService)
	commissionHandler := handlers.NewCommissionHandler(commissionService)
	participationHandler := handlers.NewParticipationHandler(participationService, prometheusMetrics)
	trackingHandler := handlers.NewTrackingHandler(participationService, prometheusMetrics, cfg.FrontendURL)
	affiliateHandler := handlers.NewAffiliateHandler(db.DB, affiliateService, emailService)
	payoutHandler := handlers.NewPayoutHandler(payoutService, prometheusMetrics)
	exportHandler := handlers.NewExportHandler(exportService, prometheusMetrics)
	adminHandler := handlers.NewAdminHandler(db.DB, auditLogger)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Rate limiters
	globalRateLimiter := custommiddleware.NewRateLimiter(custommiddleware.RateLimiterConfig{
		RequestsPerSecond: float64(cfg.RateLimitRequestsPerMinute) / 60,
		Burst:             cfg.RateLimitBurst,
	})
	authRateLimiter := custommiddleware.NewRateLimiter(custommiddleware.RateLimiterConfig{
		RequestsPerSecond: 0.1,
		Burst:             5,
	})

	// Global middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Printf("[%s] %s - Status: %d", c.Request().Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic: true,
		}))
	}

	e.Use(prometheusMetrics.Middleware())
	e.Use(middleware.CORSWithConfig(custommiddleware.CORSConfig()))
	e.Use(custommiddleware.SecurityHeaders(custommiddleware.SecurityHeadersConfig{}))
	e.Use(middleware.Gzip())
	e.Use(globalRateLimiter.Middleware())

	// Public root and health endpoints
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"name":        "PromoRail API",
			"version":     "1.0.0",
			"status":      "running",
			"environment": cfg.APIEnvironment,
			"timestamp":   time.Now().Unix(),
		})
	})

	e.GET("/health", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status":   "unhealthy",
				"database": "down",
			})
		}
		if _, err := redisClient.Redis.Ping(c.Request().Context()).Result(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"cache":  "down",
			})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"status":   "healthy",
			"database": "up",
			"cache":    "up",
		})
	})

	// Prometheus metrics endpoint (public)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Swagger documentation (public)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Public promo link tracking. Lives outside /api/v1 so links stay short.
	e.GET("/t/:code", trackingHandler.Click)

	// API v1 routes
	v1 := e.Group("/api/v1")
	v1.Use(custommiddleware.APIVersion("v1"))

	v1.GET("/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "pong"})
	})

	// Authentication routes (public, rate limited against brute force)
	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register, authRateLimiter.Middleware())
		authRoutes.POST("/login", authHandler.Login, authRateLimiter.Middleware())
		authRoutes.GET("/me", authHandler.Me, custommw.JWTMiddlewareWithBlacklist(cfg.JWTSecret, tokenBlacklist, db.DB))
		authRoutes.POST("/logout", authHandler.Logout, custommw.JWTMiddlewareWithBlacklist(cfg.JWTSecret, tokenBlacklist, db.DB))
	}

	// Public promo code resolution for storefront integrations
	v1.GET("/track/:code", trackingHandler.Resolve)

	// Protected routes: JWT, then tenant loading
	protected := v1.Group("")
	protected.Use(custommw.JWTMiddlewareWithBlacklist(cfg.JWTSecret, tokenBlacklist, db.DB))
	protected.Use(custommiddleware.LoadTenant(db.DB))

	requireManager := custommiddleware.RequireRole(models.RoleAdmin, models.RoleManager)
	requireAdmin := custommiddleware.RequireRole(models.RoleAdmin)
	{
		// Commission tiers
		tiersGroup := protected.Group("/tiers")
		{
			tiersGroup.POST("", tierHandler.Create, requireManager)
			tiersGroup.GET("", tierHandler.List)
			tiersGroup.GET("/:id", tierHandler.Get)
			tiersGroup.PATCH("/:id", tierHandler.Update, requireManager)
			tiersGroup.DELETE("/:id", tierHandler.Delete, requireManager)
		}

		// Products
		productsGroup := protected.Group("/products")
		{
			productsGroup.POST("", productHandler.Create, requireManager)
			productsGroup.GET("", productHandler.List)
			productsGroup.GET("/:id", productHandler.Get)
			productsGroup.PATCH("/:id", productHandler.Update, requireManager)
			productsGroup.DELETE("/:id", productHandler.Delete, requireManager)
		}

		// Campaigns
		campaignsGroup := protected.Group("/campaigns")
		{
			campaignsGroup.POST("", campaignHandler.Create, requireManager)
			campaignsGroup.GET("", campaignHandler.List)
			campaignsGroup.GET("/:id", campaignHandler.Get)
			campaignsGroup.PATCH("/:id/status", campaignHandler.UpdateStatus, requireManager)
			campaignsGroup.GET("/:id/participations", campaignHandler.Participants)
			campaignsGroup.POST("/:id/join", participationHandler.Join)
		}

		// Participations
		participationsGroup := protected.Group("/participations")
		{
			participationsGroup.GET("/:id", participationHandler.Get)
			participationsGroup.PATCH("/:id/status", participationHandler.UpdateStatus, requireManager)
		}

		// Conversions
		protected.POST("/conversions", participationHandler.RecordConversion)

		// Affiliates
		affiliatesGroup := protected.Group("/affiliates")
		{
			affiliatesGroup.POST("", affiliateHandler.Invite, requireManager)
			affiliatesGroup.GET("", affiliateHandler.List)
			affiliatesGroup.GET("/:id", affiliateHandler.Get)
			affiliatesGroup.POST("/:id/approve", affiliateHandler.Approve, requireManager)
			affiliatesGroup.POST("/:id/suspend", affiliateHandler.Suspend, requireManager)
			affiliatesGroup.PATCH("/:id/metrics", affiliateHandler.UpdateMetrics, requireManager)
			affiliatesGroup.GET("/:id/stats", affiliateHandler.Stats)
			affiliatesGroup.PATCH("/:id/parent", affiliateHandler.SetParent, requireManager)
			affiliatesGroup.POST("/:id/resolve-tier", tierHandler.Resolve, requireManager)
			affiliatesGroup.GET("/:id/participations", participationHandler.ListByAffiliate)
		}

		// Commission rules and preview
		commissionGroup := protected.Group("/commission")
		{
			commissionGroup.POST("/preview", commissionHandler.Preview)
			commissionGroup.POST("/rules", commissionHandler.CreateRule, requireManager)
			commissionGroup.GET("/rules", commissionHandler.ListRules)
			commissionGroup.GET("/rules/:id", commissionHandler.GetRule)
			commissionGroup.POST("/rules/:id/deactivate", commissionHandler.DeactivateRule, requireManager)
			commissionGroup.DELETE("/rules/:id", commissionHandler.DeleteRule, requireAdmin)
		}

		// Payouts
		payoutsGroup := protected.Group("/payouts")
		{
			payoutsGroup.POST("", payoutHandler.Create, requireAdmin)
			payoutsGroup.GET("", payoutHandler.List)
			payoutsGroup.GET("/:id", payoutHandler.Get)
		}

		// Exports
		exportsGroup := protected.Group("/exports")
		{
			exportsGroup.POST("/commissions", exportHandler.Commissions, requireManager)
		}

		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(requireAdmin)
		{
			adminGroup.GET("/stats", adminHandler.Stats)
			adminGroup.GET("/audit", adminHandler.AuditLog)
		}
	}

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("🚀 PromoRail API starting on %s", address)
	log.Printf("🔐 JWT expiration: %d hours", cfg.JWTExpirationHours)
	log.Printf("🛡️  Rate limiting: %d req/min (burst: %d)", cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	log.Printf("🔗 Tracking base URL: %s", cfg.TrackingBaseURL)
	log.Printf("⏰ Jobs: hourly campaign expiry, nightly tier sweep (02:30), daily digest (06:00)")

	// Graceful shutdown
	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server gracefully stopped")
}
