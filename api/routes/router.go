// api/routes/router.go
package routes

import (
	"context"
	"net/http"
	"time"

	_ "seatstudio/docs"
	"seatstudio/internal/designer"
	"seatstudio/internal/layout"
	"seatstudio/internal/notifications"
	"seatstudio/internal/seating"
	"seatstudio/internal/selection"
	"seatstudio/internal/shared/config"
	"seatstudio/internal/shared/database"
	"seatstudio/pkg/cache"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	publisher notifications.Publisher
	seating   *seating.Client
	cache     cache.Service
	layouts   *layout.CachedSource

	designerService  designer.Service
	selectionService selection.Service
}

// NewRouter creates a new router instance and its session services
func NewRouter(cfg *config.Config, db *database.DB, publisher notifications.Publisher) *Router {
	if publisher == nil {
		publisher = notifications.NoopPublisher{}
	}

	r := &Router{
		config:    cfg,
		db:        db,
		publisher: publisher,
		seating: seating.NewClient(seating.Config{
			BaseURL: cfg.Seating.BaseURL,
			Timeout: cfg.Seating.Timeout,
		}),
	}

	// Keep the interface nil when redis is down so callers can tell
	if db.CacheEnabled() {
		r.cache = cache.NewService(db.Redis)
	}
	r.layouts = layout.NewCachedSource(r.seating, r.cache, cfg.Layout.CacheTTL)

	deps := designer.Dependencies{
		Store:     r.seating,
		Drafts:    designer.NewDraftRepository(db.GetPostgreSQL()),
		Cache:     r.layouts,
		Publisher: publisher,
	}
	if r.cache != nil {
		deps.Locker = r.cache
	}
	r.designerService = designer.NewService(deps, designer.Options{
		SessionTTL:            cfg.Layout.SessionTTL,
		SaveLockTTL:           cfg.Layout.SaveLockTTL,
		PreserveSeatOverrides: cfg.Layout.PreserveSeatOverrides,
	})
	r.selectionService = selection.NewService(r.seating, r.layouts, publisher, cfg.Layout.SessionTTL)

	return r
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API documentation
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		// Organizer layout designer
		r.setupDesignerRoutes(api)

		// Attendee seat picker and reservation flow
		r.setupSelectionRoutes(api)
	}
}

// HandleDomainEvent is the subscriber entry point for events from other instances
func (r *Router) HandleDomainEvent(ctx context.Context, event *notifications.DomainEvent) error {
	return r.selectionService.HandleDomainEvent(ctx, event)
}

// RunReapers expires idle designer and selection sessions until ctx is done
func (r *Router) RunReapers(ctx context.Context) {
	interval := r.config.Layout.SessionReapInterval
	go r.designerService.RunReaper(ctx, interval)
	go r.selectionService.RunReaper(ctx, interval)
}

// Shutdown unmounts every open session
func (r *Router) Shutdown() {
	r.designerService.Shutdown()
	r.selectionService.Shutdown()
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		// Perform health checks
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "seatstudio",
			})
			return
		}

		if err := r.publisher.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "seatstudio",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "seatstudio",
			"drafts":    r.db.DraftsEnabled(),
			"cache":     r.cache != nil,
			"stores":    r.db.Status(c.Request.Context()),
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupDesignerRoutes configures organizer layout designer routes
func (r *Router) setupDesignerRoutes(rg *gin.RouterGroup) {
	designerController := designer.NewController(r.designerService)
	designer.SetupDesignerRoutes(rg, designerController)
}

// setupSelectionRoutes configures attendee seat selection routes
func (r *Router) setupSelectionRoutes(rg *gin.RouterGroup) {
	selectionController := selection.NewController(r.selectionService)
	selection.SetupSelectionRoutes(rg, selectionController)
}
