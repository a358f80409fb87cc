package designer

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"seatstudio/internal/layout"
	"seatstudio/internal/seating"
	"seatstudio/internal/shared/middleware"
	"seatstudio/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) *Controller {
	return &Controller{
		service:   service,
		validator: validator.New(),
	}
}

// Mount godoc
// @Summary Open the layout designer
// @Description Loads the saved layout for an event, or generates the default grid when none exists
// @Tags designer
// @Accept json
// @Produce json
// @Param session body MountRequest true "Event, category pricing and canvas"
// @Success 201 {object} response.StandardApiResponse
// @Failure 400 {object} response.StandardApiResponse
// @Security BearerAuth
// @Router /designer/sessions [post]
func (c *Controller) Mount(ctx *gin.Context) {
	var req MountRequest
	if !c.bind(ctx, &req) {
		return
	}

	resp, err := c.service.Mount(c.withToken(ctx), req)
	if err != nil {
		c.respondError(ctx, err, "Failed to open designer")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Designer opened", resp, nil)
}

func (c *Controller) GetSession(ctx *gin.Context) {
	resp, err := c.service.GetSession(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		c.respondError(ctx, err, "Failed to get session")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Session retrieved successfully", resp, nil)
}

func (c *Controller) RenderSVG(ctx *gin.Context) {
	var buf bytes.Buffer
	if err := c.service.RenderSVG(ctx.Request.Context(), ctx.Param("id"), &buf); err != nil {
		c.respondError(ctx, err, "Failed to render layout")
		return
	}

	response.RespondSVG(ctx, buf.Bytes())
}

// Drag godoc
// @Summary Drag a seat
// @Description Positions are snapped to the grid. Unknown seats are ignored and reported as not applied.
// @Tags designer
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param gesture body DragRequest true "Drag gesture"
// @Success 200 {object} response.StandardApiResponse
// @Security BearerAuth
// @Router /designer/sessions/{id}/drag [post]
func (c *Controller) Drag(ctx *gin.Context) {
	var req DragRequest
	if !c.bind(ctx, &req) {
		return
	}

	resp, err := c.service.Drag(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		c.respondError(ctx, err, "Failed to apply drag")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Gesture processed", resp, nil)
}

// Click godoc
// @Summary Toggle a seat between VIP and Regular
// @Tags designer
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param gesture body ClickRequest true "Clicked seat"
// @Success 200 {object} response.StandardApiResponse
// @Security BearerAuth
// @Router /designer/sessions/{id}/click [post]
func (c *Controller) Click(ctx *gin.Context) {
	var req ClickRequest
	if !c.bind(ctx, &req) {
		return
	}

	resp, err := c.service.Click(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		c.respondError(ctx, err, "Failed to apply click")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Gesture processed", resp, nil)
}

func (c *Controller) UpdatePricing(ctx *gin.Context) {
	var req PricingRequest
	if !c.bind(ctx, &req) {
		return
	}

	resp, err := c.service.UpdatePricing(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		c.respondError(ctx, err, "Failed to update pricing")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seats reclassified", resp, nil)
}

func (c *Controller) PatchSeat(ctx *gin.Context) {
	var req PatchSeatRequest
	if !c.bind(ctx, &req) {
		return
	}

	seat, err := c.service.PatchSeat(ctx.Request.Context(), ctx.Param("id"), ctx.Param("seatNumber"), req)
	if err != nil {
		c.respondError(ctx, err, "Failed to update seat")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seat updated successfully", seat, nil)
}

func (c *Controller) Regenerate(ctx *gin.Context) {
	var req RegenerateRequest
	if ctx.Request.ContentLength != 0 && !c.bind(ctx, &req) {
		return
	}

	resp, err := c.service.Regenerate(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		c.respondError(ctx, err, "Failed to regenerate layout")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Default grid generated", resp, nil)
}

// Save godoc
// @Summary Save the layout
// @Description Persists the layout through the seating service. A failed save is kept as a local draft.
// @Tags designer
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.StandardApiResponse
// @Failure 409 {object} response.StandardApiResponse
// @Failure 502 {object} response.StandardApiResponse
// @Security BearerAuth
// @Router /designer/sessions/{id}/save [post]
func (c *Controller) Save(ctx *gin.Context) {
	resp, err := c.service.Save(c.withToken(ctx), ctx.Param("id"))
	if err != nil {
		c.respondError(ctx, err, "Failed to save layout")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Layout saved successfully", resp, nil)
}

func (c *Controller) Unmount(ctx *gin.Context) {
	if err := c.service.Unmount(ctx.Request.Context(), ctx.Param("id")); err != nil {
		c.respondError(ctx, err, "Failed to close designer")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Designer closed", nil, nil)
}

func (c *Controller) GetDraft(ctx *gin.Context) {
	draft, err := c.service.GetDraft(ctx.Request.Context(), ctx.Param("eventId"))
	if err != nil {
		c.respondError(ctx, err, "Failed to get draft")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Draft retrieved successfully", draft, nil)
}

func (c *Controller) bind(ctx *gin.Context, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		response.RespondInvalid(ctx, "Invalid request body", err)
		return false
	}
	if err := c.validator.Struct(req); err != nil {
		response.RespondInvalid(ctx, "Validation failed", err)
		return false
	}
	return true
}

func (c *Controller) withToken(ctx *gin.Context) context.Context {
	return seating.ContextWithToken(ctx.Request.Context(), middleware.AccessToken(ctx))
}

func (c *Controller) respondError(ctx *gin.Context, err error, message string) {
	var failure *SaveFailure
	switch {
	case errors.As(err, &failure):
		response.RespondJSON(ctx, "error", http.StatusBadGateway, message, nil, SaveFailureResponse{
			EventID:   failure.EventID,
			DraftKept: failure.DraftKept,
			Cause:     failure.Cause.Error(),
		})
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrDraftNotFound), errors.Is(err, layout.ErrSeatNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, message, nil, err.Error())
	case errors.Is(err, ErrSessionClosed):
		response.RespondJSON(ctx, "error", http.StatusGone, message, nil, err.Error())
	case errors.Is(err, ErrSaveInProgress):
		response.RespondJSON(ctx, "error", http.StatusConflict, message, nil, err.Error())
	case errors.Is(err, ErrDraftsDisabled):
		response.RespondJSON(ctx, "error", http.StatusServiceUnavailable, message, nil, err.Error())
	case IsClientError(err):
		response.RespondJSON(ctx, "error", http.StatusBadRequest, message, nil, err.Error())
	default:
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, message, nil, err.Error())
	}
}
