package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/app/models/dto"
	"github.com/yigit/scholarhub/internal/app/services"
	"github.com/yigit/scholarhub/internal/domain"
	"github.com/yigit/scholarhub/internal/middleware"
)

// PaymentController serves payment endpoints.
type PaymentController struct {
	paymentService *services.PaymentService
	logger         zerolog.Logger
}

// NewPaymentController creates a new PaymentController
func NewPaymentController(paymentService *services.PaymentService, logger zerolog.Logger) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		logger:         logger,
	}
}

// ListPayments godoc
// @Summary List payments
// @Description Finance and admins see all payments; students see their own
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status" Enums(pending, processing, completed, failed, cancelled)
// @Param scholarshipId query int false "Scholarship"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.PaymentResponse}}
// @Router /payments [get]
func (c *PaymentController) ListPayments(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	var q dto.PaymentFilterRequest
	if !middleware.BindQuery(ctx, &q) {
		return
	}

	filter := models.PaymentFilter{ScholarshipID: optionalInt64(q.ScholarshipID), Page: q.Page, Size: q.Size}
	if q.Status != "" {
		st := domain.PaymentStatus(q.Status)
		filter.Status = &st
	}

	payments, total, err := c.paymentService.List(ctx.Request.Context(), actor, filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	out := make([]dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, dto.FromPayment(p))
	}
	respondPage(ctx, out, total, q.Page, q.Size)
}

// GetPayment godoc
// @Summary Get a payment
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment ID"
// @Success 200 {object} dto.APIResponse{data=dto.PaymentResponse}
// @Failure 404 {object} dto.APIResponse "Payment not found"
// @Router /payments/{id} [get]
func (c *PaymentController) GetPayment(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	p, err := c.paymentService.Get(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.FromPayment(p), "")
}

// UpdatePaymentStatus godoc
// @Summary Move a payment through its lifecycle
// @Description pending→processing|cancelled, processing→completed|failed, failed→processing. A failed payment never changes the application's approval.
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment ID"
// @Param request body dto.UpdatePaymentStatusRequest true "Target status"
// @Success 200 {object} dto.APIResponse{data=dto.PaymentResponse}
// @Failure 400 {object} dto.APIResponse "Failure reason missing"
// @Failure 409 {object} dto.APIResponse "Invalid transition"
// @Router /payments/{id}/status [patch]
func (c *PaymentController) UpdatePaymentStatus(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdatePaymentStatusRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	p, err := c.paymentService.UpdateStatus(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().
		Int64("paymentID", id).
		Str("status", string(p.Status)).
		Int64("by", actor.UserID).
		Msg("Payment status changed")
	respondOK(ctx, dto.FromPayment(p), "Payment updated")
}
