package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/scholarhub/internal/app/models/dto"
	"github.com/yigit/scholarhub/internal/app/services"
	"github.com/yigit/scholarhub/internal/middleware"
)

// ReportController serves dashboards, settings and the status table.
type ReportController struct {
	reportService  *services.ReportService
	settingService *services.SettingService
	logger         zerolog.Logger
}

// NewReportController creates a new ReportController
func NewReportController(reportService *services.ReportService, settingService *services.SettingService, logger zerolog.Logger) *ReportController {
	return &ReportController{
		reportService:  reportService,
		settingService: settingService,
		logger:         logger,
	}
}

// Analytics godoc
// @Summary Admin dashboard
// @Description Applications and scholarships by status, users by role, payment totals. Sections that fail to load come back empty.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.AnalyticsResponse}
// @Router /admin/analytics [get]
func (c *ReportController) Analytics(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}

	resp, err := c.reportService.Analytics(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, resp, "")
}

// FinancialReport godoc
// @Summary Finance dashboard
// @Description Payment totals per status and disbursed/outstanding amounts per scholarship
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.FinancialReportResponse}
// @Failure 403 {object} dto.APIResponse "Permission denied"
// @Router /reports/financial [get]
func (c *ReportController) FinancialReport(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}

	resp, err := c.reportService.Financial(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, resp, "")
}

// Statuses godoc
// @Summary Status presentation table
// @Description Label, color and icon for every application, scholarship and payment status and every priority
// @Tags meta
// @Produce json
// @Success 200 {object} dto.APIResponse{data=domain.PresentationTable}
// @Router /meta/statuses [get]
func (c *ReportController) Statuses(ctx *gin.Context) {
	respondOK(ctx, c.reportService.Statuses(), "")
}

// ListSettings godoc
// @Summary List system settings
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.SystemSetting}
// @Router /admin/settings [get]
func (c *ReportController) ListSettings(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}

	settings, err := c.settingService.List(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, settings, "")
}

// PutSetting godoc
// @Summary Set a system setting
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param key path string true "Setting key"
// @Param request body dto.UpdateSettingRequest true "Value"
// @Success 200 {object} dto.APIResponse{data=models.SystemSetting}
// @Failure 400 {object} dto.APIResponse "Invalid key or value"
// @Router /admin/settings/{key} [put]
func (c *ReportController) PutSetting(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	var req dto.UpdateSettingRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	setting, err := c.settingService.Put(ctx.Request.Context(), actor, ctx.Param("key"), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, setting, "Setting saved")
}
