package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/app/models/dto"
	"github.com/yigit/scholarhub/internal/app/services"
	"github.com/yigit/scholarhub/internal/domain"
	"github.com/yigit/scholarhub/internal/middleware"
)

// ScholarshipController handles scholarship endpoints
type ScholarshipController struct {
	scholarshipService *services.ScholarshipService
	logger             zerolog.Logger
}

// NewScholarshipController creates a new ScholarshipController
func NewScholarshipController(scholarshipService *services.ScholarshipService, logger zerolog.Logger) *ScholarshipController {
	return &ScholarshipController{
		scholarshipService: scholarshipService,
		logger:             logger,
	}
}

// ListScholarships godoc
// @Summary List scholarships
// @Description Students only see active scholarships; staff see every status
// @Tags scholarships
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status" Enums(draft, active, closed, cancelled)
// @Param department query string false "Department"
// @Param academicYear query string false "Academic year"
// @Param search query string false "Name or description fragment"
// @Param sortBy query string false "Sort field (name, amount, applicationDeadline, createdAt)"
// @Param sortOrder query string false "asc or desc"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.ScholarshipResponse}}
// @Router /scholarships [get]
func (c *ScholarshipController) ListScholarships(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	var q dto.ScholarshipFilterRequest
	if !middleware.BindQuery(ctx, &q) {
		return
	}

	filter := models.ScholarshipFilter{
		Department:   q.Department,
		AcademicYear: q.AcademicYear,
		Search:       q.Search,
		SortBy:       q.SortBy,
		SortOrder:    q.SortOrder,
		Page:         q.Page,
		Size:         q.Size,
	}
	if q.Status != "" {
		st := domain.ScholarshipStatus(q.Status)
		filter.Status = &st
	}

	items, total, err := c.scholarshipService.List(ctx.Request.Context(), actor, filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	now := time.Now()
	out := make([]dto.ScholarshipResponse, 0, len(items))
	for _, s := range items {
		out = append(out, dto.FromScholarship(s, now))
	}
	respondPage(ctx, out, total, q.Page, q.Size)
}

// GetScholarship godoc
// @Summary Get a scholarship
// @Tags scholarships
// @Produce json
// @Security BearerAuth
// @Param id path int true "Scholarship ID"
// @Success 200 {object} dto.APIResponse{data=dto.ScholarshipResponse}
// @Failure 404 {object} dto.APIResponse "Scholarship not found"
// @Router /scholarships/{id} [get]
func (c *ScholarshipController) GetScholarship(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	sch, err := c.scholarshipService.Get(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, dto.FromScholarship(sch, time.Now()), "")
}

// CreateScholarship godoc
// @Summary Create a scholarship
// @Description Creates a scholarship in draft status
// @Tags scholarships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateScholarshipRequest true "Scholarship"
// @Success 201 {object} dto.APIResponse{data=dto.ScholarshipResponse}
// @Failure 400 {object} dto.APIResponse "Validation failed"
// @Failure 403 {object} dto.APIResponse "Permission denied"
// @Router /scholarships [post]
func (c *ScholarshipController) CreateScholarship(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	var req dto.CreateScholarshipRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	sch, err := c.scholarshipService.Create(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondCreated(ctx, dto.FromScholarship(sch, time.Now()), "Scholarship created")
}

// UpdateScholarship godoc
// @Summary Update a scholarship
// @Description Changes any subset of the terms. Cancelled scholarships are read-only.
// @Tags scholarships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Scholarship ID"
// @Param request body dto.UpdateScholarshipRequest true "Changes"
// @Success 200 {object} dto.APIResponse{data=dto.ScholarshipResponse}
// @Failure 400 {object} dto.APIResponse "Validation failed"
// @Failure 409 {object} dto.APIResponse "Scholarship is cancelled"
// @Router /scholarships/{id} [put]
func (c *ScholarshipController) UpdateScholarship(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateScholarshipRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	sch, err := c.scholarshipService.Update(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, dto.FromScholarship(sch, time.Now()), "Scholarship updated")
}

// ChangeScholarshipStatus godoc
// @Summary Publish, close, reopen or cancel a scholarship
// @Tags scholarships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Scholarship ID"
// @Param request body dto.ScholarshipStatusRequest true "Target status"
// @Success 200 {object} dto.APIResponse{data=dto.ScholarshipResponse}
// @Failure 409 {object} dto.APIResponse "Transition not allowed"
// @Router /scholarships/{id}/status [patch]
func (c *ScholarshipController) ChangeScholarshipStatus(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.ScholarshipStatusRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	sch, err := c.scholarshipService.ChangeStatus(ctx.Request.Context(), actor, id, req.Status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("scholarshipID", id).Str("status", req.Status).Int64("by", actor.UserID).Msg("Scholarship status changed")
	respondOK(ctx, dto.FromScholarship(sch, time.Now()), "Status updated")
}

// DeleteScholarship godoc
// @Summary Delete a draft scholarship
// @Tags scholarships
// @Security BearerAuth
// @Param id path int true "Scholarship ID"
// @Success 204 "Deleted"
// @Failure 409 {object} dto.APIResponse "Only drafts can be deleted"
// @Router /scholarships/{id} [delete]
func (c *ScholarshipController) DeleteScholarship(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.scholarshipService.Delete(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// CheckEligibility godoc
// @Summary Check eligibility
// @Description Advisory check of the calling student's profile against the scholarship criteria
// @Tags scholarships
// @Produce json
// @Security BearerAuth
// @Param id path int true "Scholarship ID"
// @Success 200 {object} dto.APIResponse{data=dto.EligibilityResponse}
// @Failure 404 {object} dto.APIResponse "Scholarship or student profile not found"
// @Router /scholarships/{id}/eligibility [get]
func (c *ScholarshipController) CheckEligibility(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	resp, err := c.scholarshipService.Eligibility(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, resp, "")
}
