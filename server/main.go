package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seatstudio/api/routes"
	"seatstudio/internal/notifications"
	"seatstudio/internal/shared/config"
	"seatstudio/internal/shared/database"
	"seatstudio/pkg/logger"
	"seatstudio/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// @title seatstudio API
// @version 1.0
// @description Seating layout designer and seat selection backend.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load environment variables
	appLogger := logger.GetDefault()

	// Smart environment loading
	if err := godotenv.Load(); err != nil {
		// Check if we're in production/container mode
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	// Load config
	cfg := config.Load()

	// Set Gin mode (debug/release)
	gin.SetMode(cfg.GinMode)

	// Initialize DB (postgres drafts and redis cache are both optional)
	db := database.InitDB(cfg)
	defer db.Close()

	// Initialize Rate Limiter
	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled && db.CacheEnabled() {
		rateLimiterConfig := &ratelimit.Config{
			Enabled:                 cfg.RateLimit.Enabled,
			WindowDuration:          cfg.RateLimit.WindowDuration,
			DefaultRequests:         cfg.RateLimit.DefaultRequests,
			PublicRequests:          cfg.RateLimit.PublicRequests,
			DesignerRequests:        cfg.RateLimit.DesignerRequests,
			SelectionRequests:       cfg.RateLimit.SelectionRequests,
			BookingCriticalRequests: cfg.RateLimit.BookingCriticalRequests,
			HealthRequests:          cfg.RateLimit.HealthRequests,
			WhitelistedIPs:          cfg.RateLimit.WhitelistedIPs,
		}

		rateLimiter = ratelimit.NewRateLimiter(db.GetRedisClient(), rateLimiterConfig)
		appLogger.Info("Rate limiter initialized",
			slog.Bool("enabled", cfg.RateLimit.Enabled),
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	// Initialize domain event publisher
	eventsConfig := notifications.Config{
		Broker:           notifications.Broker(cfg.Events.Broker),
		InstanceID:       cfg.Events.InstanceID,
		KafkaBrokers:     cfg.Events.KafkaBrokers,
		KafkaTopic:       cfg.Events.KafkaTopic,
		KafkaGroupPrefix: cfg.Events.KafkaGroupPrefix,
		RabbitMQURL:      cfg.Events.RabbitMQURL,
		RabbitMQExchange: cfg.Events.RabbitMQExchange,
		ConsumeWorkers:   cfg.Events.ConsumeWorkers,
	}

	publisher, err := notifications.NewPublisher(eventsConfig)
	if err != nil {
		appLogger.Error("Failed to initialize event publisher", slog.Any("error", err))
		appLogger.Info("Continuing without event publisher - domain events will be dropped")
		publisher = notifications.NoopPublisher{}
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			appLogger.Error("Error closing event publisher", slog.Any("error", err))
		}
	}()

	// Setup router with rate limiter
	appRouter := routes.NewRouter(cfg, db, publisher)
	router := setupRouter(cfg, appRouter, rateLimiter)

	backgroundCtx, backgroundCancel := context.WithCancel(context.Background())
	defer backgroundCancel()

	// Expire idle designer and selection sessions
	appRouter.RunReapers(backgroundCtx)

	// Apply seats taken on other instances to open seat pickers
	subscriber, err := notifications.NewSubscriber(eventsConfig)
	if err != nil {
		appLogger.Error("Failed to initialize event subscriber", slog.Any("error", err))
	} else if subscriber != nil {
		if err := subscriber.Start(backgroundCtx, appRouter.HandleDomainEvent); err != nil {
			appLogger.Error("Failed to start event subscriber", slog.Any("error", err))
		} else {
			appLogger.Info("Event subscriber started",
				slog.String("broker", cfg.Events.Broker),
				slog.String("instance", cfg.Events.InstanceID),
			)
		}
		defer func() {
			appLogger.Info("Stopping event subscriber...")
			if err := subscriber.Stop(); err != nil {
				appLogger.Error("Error stopping event subscriber", slog.Any("error", err))
			}
		}()
	}

	// HTTP server
	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		appLogger.Info("🚀 Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("swagger", fmt.Sprintf("http://localhost:%s/swagger/index.html", cfg.Port)),
			slog.String("seating_service", cfg.Seating.BaseURL),
			slog.String("version", Version),
			slog.String("build_time", BuildTime),
			slog.String("commit", GitCommit),
			slog.Bool("redis_cache", db.CacheEnabled()),
			slog.Bool("drafts", db.DraftsEnabled()),
			slog.Bool("rate_limiting", rateLimiter != nil),
			slog.String("event_broker", cfg.Events.Broker),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	// Unmount every open session before the stores go away
	backgroundCancel()
	appRouter.Shutdown()

	appLogger.Info("Server exited gracefully")
}

func setupRouter(cfg *config.Config, appRouter *routes.Router, rateLimiter *ratelimit.RateLimiter) *gin.Engine {
	engine := gin.New()
	appLogger := logger.GetDefault()

	// Built-in middleware: logs requests + recovers from panics
	engine.Use(RequestLoggerMiddleware(appLogger), gin.Recovery())

	// CORS configuration
	engine.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	// Global rate limiting middleware (applied to all routes)
	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
		appLogger.Info("Rate limiting middleware applied to all routes")
	}

	appRouter.SetupRoutes(engine)

	return engine
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-RateLimit-*"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	allowAll := len(origins) == 0
	for _, origin := range origins {
		allowAll = allowAll || origin == "*"
	}
	if allowAll {
		c.AllowOriginFunc = func(origin string) bool {
			return true // allow every origin dynamically
		}
		return c
	}
	c.AllowOrigins = origins
	return c
}

func RequestLoggerMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		l.LogHTTPRequest(c, duration)
	}
}
