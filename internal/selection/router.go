package selection

import (
	"seatstudio/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupSelectionRoutes(rg *gin.RouterGroup, controller *Controller) {

	// ATTENDEE SEAT PICKER

	sessions := rg.Group("/selection/sessions")
	sessions.Use(middleware.JWTAuth(), middleware.RequireRoles(middleware.RoleUser, middleware.RoleAdmin))
	{
		sessions.POST("", controller.CreateSession)         // POST /api/v1/selection/sessions
		sessions.GET("/:id", controller.GetSession)         // GET /api/v1/selection/sessions/:id
		sessions.GET("/:id/svg", controller.RenderSVG)      // GET /api/v1/selection/sessions/:id/svg
		sessions.DELETE("/:id", controller.CloseSession)    // DELETE /api/v1/selection/sessions/:id
		sessions.POST("/:id/toggle", controller.ToggleSeat) // POST /api/v1/selection/sessions/:id/toggle
		sessions.POST("/:id/refresh", controller.RefreshAvailability)

		// Reservation flow (rate limited as booking-critical)
		sessions.POST("/:id/reserve", controller.Reserve)      // POST /api/v1/selection/sessions/:id/reserve
		sessions.POST("/:id/payment", controller.BeginPayment) // POST /api/v1/selection/sessions/:id/payment
		sessions.POST("/:id/confirm", controller.Confirm)      // POST /api/v1/selection/sessions/:id/confirm
	}
}
