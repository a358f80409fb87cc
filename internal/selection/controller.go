package selection

import (
	"bytes"
	"context"
	"errors"
	"net/http"

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

// CreateSession godoc
// @Summary Open a seat picker
// @Description Loads the event's layout read-only and opens a selection session
// @Tags selection
// @Accept json
// @Produce json
// @Param session body CreateSessionRequest true "Event and category pricing"
// @Success 201 {object} response.StandardApiResponse
// @Failure 400 {object} response.StandardApiResponse
// @Security BearerAuth
// @Router /selection/sessions [post]
func (c *Controller) CreateSession(ctx *gin.Context) {
	var req CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(ctx, "Invalid request body", err)
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondInvalid(ctx, "Validation failed", err)
		return
	}

	resp, err := c.service.CreateSession(forwardToken(ctx), req)
	if err != nil {
		c.respondError(ctx, err, "Failed to open seat picker")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Seat picker opened", resp, nil)
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
		c.respondError(ctx, err, "Failed to render seat map")
		return
	}

	response.RespondSVG(ctx, buf.Bytes())
}

// ToggleSeat godoc
// @Summary Select or deselect a seat
// @Description Booked and unknown seats are ignored and reported as not applied
// @Tags selection
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param seat body ToggleSeatRequest true "Seat to toggle"
// @Success 200 {object} response.StandardApiResponse
// @Failure 404 {object} response.StandardApiResponse
// @Security BearerAuth
// @Router /selection/sessions/{id}/toggle [post]
func (c *Controller) ToggleSeat(ctx *gin.Context) {
	var req ToggleSeatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(ctx, "Invalid request body", err)
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondInvalid(ctx, "Validation failed", err)
		return
	}

	resp, err := c.service.ToggleSeat(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		c.respondError(ctx, err, "Failed to toggle seat")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Selection updated", resp, nil)
}

func (c *Controller) RefreshAvailability(ctx *gin.Context) {
	resp, err := c.service.RefreshAvailability(forwardToken(ctx), ctx.Param("id"))
	if err != nil {
		c.respondError(ctx, err, "Failed to refresh availability")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Availability refreshed", resp, nil)
}

// Reserve godoc
// @Summary Reserve the selected seats
// @Description Asks the seating service to hold the selection. Any failure clears the selection.
// @Tags selection
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.StandardApiResponse
// @Failure 409 {object} response.StandardApiResponse
// @Failure 502 {object} response.StandardApiResponse
// @Security BearerAuth
// @Router /selection/sessions/{id}/reserve [post]
func (c *Controller) Reserve(ctx *gin.Context) {
	resp, err := c.service.Reserve(forwardToken(ctx), ctx.Param("id"))
	if err != nil {
		c.respondError(ctx, err, "Failed to reserve seats")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seats reserved", resp, nil)
}

func (c *Controller) BeginPayment(ctx *gin.Context) {
	handoff, err := c.service.BeginPayment(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		c.respondError(ctx, err, "Payment cannot start")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Payment started", handoff, nil)
}

func (c *Controller) Confirm(ctx *gin.Context) {
	resp, err := c.service.Confirm(forwardToken(ctx), ctx.Param("id"))
	if err != nil {
		c.respondError(ctx, err, "Failed to confirm seats")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seats confirmed", resp, nil)
}

func (c *Controller) CloseSession(ctx *gin.Context) {
	if err := c.service.CloseSession(ctx.Request.Context(), ctx.Param("id")); err != nil {
		c.respondError(ctx, err, "Failed to close session")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Session closed", nil, nil)
}

func (c *Controller) respondError(ctx *gin.Context, err error, message string) {
	var failure *ReservationFailure
	switch {
	case errors.As(err, &failure):
		code := http.StatusBadGateway
		if failure.Reason == ReasonRejected {
			code = http.StatusConflict
		}
		response.RespondJSON(ctx, "error", code, message, nil, toFailureResponse(failure))
	case errors.Is(err, ErrSessionNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, message, nil, err.Error())
	case errors.Is(err, ErrFlowClosed):
		response.RespondJSON(ctx, "error", http.StatusGone, message, nil, err.Error())
	case errors.Is(err, ErrEmptySelection):
		response.RespondJSON(ctx, "error", http.StatusBadRequest, message, nil, err.Error())
	case errors.Is(err, ErrReservationInFlight),
		errors.Is(err, ErrAlreadyReserved),
		errors.Is(err, ErrPaymentNotAllowed),
		errors.Is(err, ErrPaymentAlreadyStarted),
		errors.Is(err, ErrConfirmNotAllowed),
		errors.Is(err, ErrSelectionLocked):
		response.RespondJSON(ctx, "error", http.StatusConflict, message, nil, err.Error())
	default:
		response.RespondJSON(ctx, "error", http.StatusBadGateway, message, nil, err.Error())
	}
}

// forwardToken attaches the caller's bearer token for seating service calls.
func forwardToken(ctx *gin.Context) context.Context {
	return seating.ContextWithToken(ctx.Request.Context(), middleware.AccessToken(ctx))
}
