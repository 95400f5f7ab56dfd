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

// ApplicationController exposes the application lifecycle
type ApplicationController struct {
	applicationService *services.ApplicationService
	logger             zerolog.Logger
}

// NewApplicationController creates a new ApplicationController
func NewApplicationController(applicationService *services.ApplicationService, logger zerolog.Logger) *ApplicationController {
	return &ApplicationController{
		applicationService: applicationService,
		logger:             logger,
	}
}

func toApplicationResponses(apps []*models.Application) []dto.ApplicationResponse {
	now := time.Now()
	out := make([]dto.ApplicationResponse, 0, len(apps))
	for _, a := range apps {
		out = append(out, dto.FromApplication(a, now))
	}
	return out
}

func applicationFilter(q dto.ApplicationFilterRequest) models.ApplicationFilter {
	filter := models.ApplicationFilter{
		ScholarshipID: optionalInt64(q.ScholarshipID),
		Search:        q.Search,
		SortBy:        q.SortBy,
		SortOrder:     q.SortOrder,
		Page:          q.Page,
		Size:          q.Size,
	}
	if q.Status != "" {
		st := domain.Status(q.Status)
		filter.Status = &st
	}
	return filter
}

// respondApplication writes a single application, or the error.
func (c *ApplicationController) respondApplication(ctx *gin.Context, app *models.Application, err error, status int, message string) {
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(status, dto.NewSuccessResponse(dto.FromApplication(app, time.Now()), message))
}

// CreateApplication godoc
// @Summary Start an application
// @Description Creates a draft application for an active scholarship. One non-withdrawn application per scholarship and student.
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateApplicationRequest true "Application"
// @Success 201 {object} dto.APIResponse{data=dto.ApplicationResponse}
// @Failure 409 {object} dto.APIResponse "Duplicate application or scholarship closed"
// @Router /applications [post]
func (c *ApplicationController) CreateApplication(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	var req dto.CreateApplicationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	app, err := c.applicationService.Create(ctx.Request.Context(), actor, &req)
	c.respondApplication(ctx, app, err, http.StatusCreated, "Application created")
}

// ListMyApplications godoc
// @Summary List own applications
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.ApplicationResponse}}
// @Router /applications/my [get]
func (c *ApplicationController) ListMyApplications(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	var q dto.ApplicationFilterRequest
	if !middleware.BindQuery(ctx, &q) {
		return
	}

	apps, total, err := c.applicationService.ListMine(ctx.Request.Context(), actor, applicationFilter(q))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondPage(ctx, toApplicationResponses(apps), total, q.Page, q.Size)
}

// ListApplications godoc
// @Summary Review queue
// @Description All applications visible to reviewers, with server-computed priority
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status"
// @Param scholarshipId query int false "Scholarship"
// @Param search query string false "Student name or email fragment"
// @Param sortBy query string false "Sort field (submittedAt, createdAt, score, status)"
// @Param sortOrder query string false "asc or desc"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.ApplicationResponse}}
// @Failure 403 {object} dto.APIResponse "Permission denied"
// @Router /applications [get]
func (c *ApplicationController) ListApplications(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	var q dto.ApplicationFilterRequest
	if !middleware.BindQuery(ctx, &q) {
		return
	}

	apps, total, err := c.applicationService.List(ctx.Request.Context(), actor, applicationFilter(q))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondPage(ctx, toApplicationResponses(apps), total, q.Page, q.Size)
}

// GetApplication godoc
// @Summary Get an application
// @Description Owners and reviewers only; anyone else gets 404
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse}
// @Failure 404 {object} dto.APIResponse "Application not found"
// @Router /applications/{id} [get]
func (c *ApplicationController) GetApplication(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	app, err := c.applicationService.Get(ctx.Request.Context(), actor, id)
	c.respondApplication(ctx, app, err, http.StatusOK, "")
}

// UpdateApplication godoc
// @Summary Edit a draft
// @Description Replaces the supplied sections of a draft or pending-documents application. Send version for optimistic locking.
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param request body dto.UpdateApplicationRequest true "Sections"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse}
// @Failure 409 {object} dto.APIResponse "Stale version or not editable"
// @Router /applications/{id} [put]
func (c *ApplicationController) UpdateApplication(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateApplicationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	app, err := c.applicationService.Update(ctx.Request.Context(), actor, id, &req)
	c.respondApplication(ctx, app, err, http.StatusOK, "Application saved")
}

// DeleteApplication godoc
// @Summary Delete a draft
// @Tags applications
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 204 "Deleted"
// @Failure 409 {object} dto.APIResponse "Only drafts can be deleted"
// @Router /applications/{id} [delete]
func (c *ApplicationController) DeleteApplication(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.applicationService.Delete(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// SubmitApplication godoc
// @Summary Submit an application
// @Description Checks completeness, eligibility and the deadline, then moves the draft to submitted
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse}
// @Failure 400 {object} dto.APIResponse "Incomplete or ineligible"
// @Failure 409 {object} dto.APIResponse "Scholarship closed or deadline passed"
// @Router /applications/{id}/submit [post]
func (c *ApplicationController) SubmitApplication(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	app, err := c.applicationService.Submit(ctx.Request.Context(), actor, id)
	c.respondApplication(ctx, app, err, http.StatusOK, "Application submitted")
}

// ReviewApplication godoc
// @Summary Review an application
// @Description begin_review, request_documents or decide (approved, rejected, returned). Approval requires a score and creates a pending payment.
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param request body dto.ReviewApplicationRequest true "Review action"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse}
// @Failure 400 {object} dto.APIResponse "Missing score or comments"
// @Failure 409 {object} dto.APIResponse "Invalid transition or recipient cap reached"
// @Router /applications/{id}/review [post]
func (c *ApplicationController) ReviewApplication(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.ReviewApplicationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	app, err := c.applicationService.Review(ctx.Request.Context(), actor, id, &req)
	if err == nil {
		c.logger.Info().
			Int64("applicationID", id).
			Str("action", req.Action).
			Str("status", string(app.Status)).
			Int64("reviewer", actor.UserID).
			Msg("Application reviewed")
	}
	c.respondApplication(ctx, app, err, http.StatusOK, "Review recorded")
}

// ResubmitApplication godoc
// @Summary Resubmit after a document request
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse}
// @Failure 409 {object} dto.APIResponse "Invalid transition"
// @Router /applications/{id}/resubmit [post]
func (c *ApplicationController) ResubmitApplication(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	app, err := c.applicationService.Resubmit(ctx.Request.Context(), actor, id)
	c.respondApplication(ctx, app, err, http.StatusOK, "Application resubmitted")
}

// WithdrawApplication godoc
// @Summary Withdraw an application
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse}
// @Failure 409 {object} dto.APIResponse "Already decided"
// @Router /applications/{id}/withdraw [post]
func (c *ApplicationController) WithdrawApplication(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	app, err := c.applicationService.Withdraw(ctx.Request.Context(), actor, id)
	c.respondApplication(ctx, app, err, http.StatusOK, "Application withdrawn")
}

// UploadDocument godoc
// @Summary Upload a supporting document
// @Description Multipart upload, at most 5 MB, extensions .pdf .doc .docx .jpg .jpeg .png
// @Tags applications
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param file formData file true "Document"
// @Param type formData string true "Document type" Enums(transcript, recommendation_letter, financial_statement, identification, essay, other)
// @Success 201 {object} dto.APIResponse{data=dto.DocumentResponse}
// @Failure 400 {object} dto.APIResponse "File rejected"
// @Failure 502 {object} dto.APIResponse "Storage failure"
// @Router /applications/{id}/documents [post]
func (c *ApplicationController) UploadDocument(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "file is required").WithField("file")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to open uploaded file")
		middleware.HandleAPIError(ctx, err)
		return
	}
	defer file.Close()

	doc, err := c.applicationService.UploadDocument(ctx.Request.Context(), actor, id, services.Upload{
		Type:     ctx.PostForm("type"),
		FileName: fileHeader.Filename,
		Size:     fileHeader.Size,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Body:     file,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, dto.FromDocument(doc), "Document uploaded")
}

// DeleteDocument godoc
// @Summary Remove a document
// @Tags applications
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param docId path string true "Document ID"
// @Success 204 "Removed"
// @Failure 404 {object} dto.APIResponse "Document not found"
// @Router /applications/{id}/documents/{docId} [delete]
func (c *ApplicationController) DeleteDocument(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.applicationService.DeleteDocument(ctx.Request.Context(), actor, id, ctx.Param("docId")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
