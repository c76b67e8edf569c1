package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rikshawmart/rikshawmart-backend/internal/config"
	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
	"github.com/rikshawmart/rikshawmart-backend/internal/handler"
	"github.com/rikshawmart/rikshawmart-backend/internal/metrics"
	"github.com/rikshawmart/rikshawmart-backend/internal/middleware"
	"github.com/rikshawmart/rikshawmart-backend/internal/repository/cache"
	"github.com/rikshawmart/rikshawmart-backend/internal/repository/postgres"
	"github.com/rikshawmart/rikshawmart-backend/internal/repository/storage"
	"github.com/rikshawmart/rikshawmart-backend/internal/service"
	"github.com/rikshawmart/rikshawmart-backend/internal/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()

	// Connect to database
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()
	log.Info().Msg("Connected to database")

	// Initialize repositories
	customerRepo := postgres.NewCustomerRepository(pool)
	rikshawRepo := postgres.NewRikshawRepository(pool)
	var planRepo domain.PlanRepository = postgres.NewPlanRepository(pool)
	var paymentRepo domain.PaymentRepository = postgres.NewPaymentRepository(pool)

	// Loader cache in front of the portfolio reads
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer client.Close()

		loaderCache := cache.New(client, cfg.LoaderCacheTTL)
		planRepo = cache.NewPlanRepository(planRepo, loaderCache)
		paymentRepo = cache.NewPaymentRepository(paymentRepo, loaderCache)
		log.Info().Dur("ttl", cfg.LoaderCacheTTL).Msg("Loader cache enabled")
	} else {
		log.Info().Msg("REDIS_URL not set, loader cache disabled")
	}

	// Object storage for vehicle photos and receipt archives
	var store storage.ObjectStore
	if cfg.S3.Enabled() {
		s3Store, err := storage.NewS3Store(ctx, cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize object storage")
		}
		store = s3Store
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Object storage enabled")
	} else {
		log.Info().Msg("S3_BUCKET not set, photo uploads and receipt archives disabled")
	}

	// Reconciliation policy
	strategy, err := service.ParseStrategy(cfg.ReconcileStrategy)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid reconciliation strategy")
	}
	allocation, err := service.ParseAllocation(cfg.InstallmentAllocation)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid installment allocation")
	}
	reconciler := service.NewReconciler(strategy)

	// Initialize services
	imageService := service.NewImageService(store, cfg.PresignedURLExpiry)
	customerService := service.NewCustomerService(customerRepo, planRepo)
	rikshawService := service.NewRikshawService(rikshawRepo, imageService)
	planService := service.NewPlanService(planRepo, paymentRepo, customerRepo, rikshawRepo, reconciler, allocation)
	paymentService := service.NewPaymentService(paymentRepo, planRepo)
	dashboardService := service.NewDashboardService(planRepo, paymentRepo, rikshawRepo, customerRepo, reconciler)
	dueReportService := service.NewDueReportService(planRepo, paymentRepo, reconciler, allocation)
	receiptService := service.NewReceiptService(paymentRepo, planRepo, reconciler, store, cfg.BusinessName, cfg.PresignedURLExpiry)

	// Real-time updates
	hub := websocket.NewHub()
	rikshawService.SetEventPublisher(hub)
	planService.SetEventPublisher(hub)
	paymentService.SetEventPublisher(hub)

	// Initialize handlers
	handlers := handler.Handlers{
		Customer:  handler.NewCustomerHandler(customerService),
		Rikshaw:   handler.NewRikshawHandler(rikshawService),
		Plan:      handler.NewPlanHandler(planService),
		Payment:   handler.NewPaymentHandler(paymentService, receiptService),
		Dashboard: handler.NewDashboardHandler(dashboardService, dueReportService),
	}
	wsHandler := handler.NewWebSocketHandler(hub, cfg.CORSOrigins)

	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	defer rateLimiter.Stop()

	appMetrics := metrics.New()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request metrics and logging
	e.Use(appMetrics.Middleware())
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		pingCtx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(appMetrics.Handler()))
	e.GET("/ws", wsHandler.HandleWS)

	// Register API routes
	handler.RegisterRoutes(e, handlers, middleware.RateLimitMiddleware(rateLimiter))

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("strategy", cfg.ReconcileStrategy).Str("allocation", cfg.InstallmentAllocation).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			event := log.Info()
			if res.Status >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
