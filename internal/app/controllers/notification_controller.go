package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/app/models/dto"
	"github.com/yigit/scholarhub/internal/app/services"
	"github.com/yigit/scholarhub/internal/middleware"
	"github.com/yigit/scholarhub/internal/pkg/helpers"
)

// NotificationController serves in-app notifications.
type NotificationController struct {
	notificationService *services.NotificationService
	logger              zerolog.Logger
}

// NewNotificationController creates a new NotificationController
func NewNotificationController(notificationService *services.NotificationService, logger zerolog.Logger) *NotificationController {
	return &NotificationController{
		notificationService: notificationService,
		logger:              logger,
	}
}

func toNotificationResponses(items []*models.Notification) []dto.NotificationResponse {
	out := make([]dto.NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, dto.FromNotification(n))
	}
	return out
}

// SendNotification godoc
// @Summary Send a notification
// @Description Addresses explicit users or whole roles; inactive accounts are skipped. Recipients also get an email and a live push.
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateNotificationRequest true "Notification"
// @Success 201 {object} dto.APIResponse{data=dto.NotificationResponse}
// @Failure 400 {object} dto.APIResponse "No recipients or invalid expiry"
// @Failure 403 {object} dto.APIResponse "Permission denied"
// @Router /notifications [post]
func (c *NotificationController) SendNotification(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	var req dto.CreateNotificationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	n, err := c.notificationService.Send(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, dto.FromNotification(n), "Notification sent")
}

// ListMyNotifications godoc
// @Summary List own notifications
// @Description Unexpired notifications addressed to the caller, newest first, with the unread count
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.NotificationListResponse}
// @Router /notifications/my [get]
func (c *NotificationController) ListMyNotifications(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	var q dto.PageRequest
	if !middleware.BindQuery(ctx, &q) {
		return
	}

	page := services.NewPage(q.Page, q.Size)
	items, total, unread, err := c.notificationService.ListMine(ctx.Request.Context(), actor, page)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, dto.NotificationListResponse{
		Items:       toNotificationResponses(items),
		Pagination:  helpers.NewPaginationInfo(total, page.Number, page.Size),
		UnreadCount: unread,
	}, "")
}

// MarkNotificationRead godoc
// @Summary Mark a notification read
// @Tags notifications
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 204 "Marked"
// @Failure 404 {object} dto.APIResponse "Not addressed to the caller"
// @Router /notifications/{id}/read [patch]
func (c *NotificationController) MarkNotificationRead(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.notificationService.MarkRead(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// MarkAllNotificationsRead godoc
// @Summary Mark every notification read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=map[string]int64}
// @Router /notifications/read-all [post]
func (c *NotificationController) MarkAllNotificationsRead(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}

	n, err := c.notificationService.MarkAllRead(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, map[string]int64{"updated": n}, "")
}

// ListAllNotifications godoc
// @Summary List every notification
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.NotificationResponse}}
// @Router /admin/notifications [get]
func (c *NotificationController) ListAllNotifications(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	var q dto.PageRequest
	if !middleware.BindQuery(ctx, &q) {
		return
	}

	page := services.NewPage(q.Page, q.Size)
	items, total, err := c.notificationService.List(ctx.Request.Context(), actor, page)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondPage(ctx, toNotificationResponses(items), total, page.Number, page.Size)
}

// DeleteNotification godoc
// @Summary Delete a notification
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 204 "Deleted"
// @Failure 404 {object} dto.APIResponse "Notification not found"
// @Router /admin/notifications/{id} [delete]
func (c *NotificationController) DeleteNotification(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.notificationService.Delete(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
