package designer

import (
	"seatstudio/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupDesignerRoutes(rg *gin.RouterGroup, controller *Controller) {

	// ORGANIZER LAYOUT DESIGNER

	designer := rg.Group("/designer")
	designer.Use(middleware.JWTAuth(), middleware.RequireRoles(middleware.RoleOrganizer, middleware.RoleAdmin))
	{
		sessions := designer.Group("/sessions")
		sessions.POST("", controller.Mount)                            // POST /api/v1/designer/sessions
		sessions.GET("/:id", controller.GetSession)                    // GET /api/v1/designer/sessions/:id
		sessions.GET("/:id/svg", controller.RenderSVG)                 // GET /api/v1/designer/sessions/:id/svg
		sessions.DELETE("/:id", controller.Unmount)                    // DELETE /api/v1/designer/sessions/:id
		sessions.POST("/:id/drag", controller.Drag)                    // POST /api/v1/designer/sessions/:id/drag
		sessions.POST("/:id/click", controller.Click)                  // POST /api/v1/designer/sessions/:id/click
		sessions.PUT("/:id/pricing", controller.UpdatePricing)         // PUT /api/v1/designer/sessions/:id/pricing
		sessions.PATCH("/:id/seats/:seatNumber", controller.PatchSeat) // PATCH /api/v1/designer/sessions/:id/seats/:seatNumber
		sessions.POST("/:id/regenerate", controller.Regenerate)        // POST /api/v1/designer/sessions/:id/regenerate
		sessions.POST("/:id/save", controller.Save)                    // POST /api/v1/designer/sessions/:id/save

		designer.GET("/drafts/:eventId", controller.GetDraft) // GET /api/v1/designer/drafts/:eventId
	}
}
