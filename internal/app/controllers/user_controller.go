package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/app/models/dto"
	"github.com/yigit/scholarhub/internal/app/services"
	"github.com/yigit/scholarhub/internal/middleware"
)

// UserController serves the admin user and role endpoints.
type UserController struct {
	userService services.UserService
	logger      zerolog.Logger
}

// NewUserController creates a new UserController
func NewUserController(userService services.UserService, logger zerolog.Logger) *UserController {
	return &UserController{
		userService: userService,
		logger:      logger,
	}
}

func toUserResponses(users []*models.User) []dto.UserResponse {
	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, dto.FromUser(u))
	}
	return out
}

// ListUsers godoc
// @Summary List users
// @Description Paginated user listing filtered by role, activity or a name/email search
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param role query string false "Role" Enums(student, coordinator, committee, finance, admin)
// @Param search query string false "Name or email fragment"
// @Param isActive query bool false "Active flag"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.UserResponse}}
// @Failure 403 {object} dto.APIResponse "Permission denied"
// @Router /admin/users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	var q dto.UserFilterRequest
	if !middleware.BindQuery(ctx, &q) {
		return
	}

	filter := models.UserFilter{Search: q.Search, IsActive: q.IsActive, Page: q.Page, Size: q.Size}
	if q.Role != "" {
		role := models.RoleName(q.Role)
		filter.Role = &role
	}

	users, total, err := c.userService.List(ctx.Request.Context(), actor, filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondPage(ctx, toUserResponses(users), total, q.Page, q.Size)
}

// GetUser godoc
// @Summary Get a user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 404 {object} dto.APIResponse "User not found"
// @Router /admin/users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	user, err := c.userService.Get(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, dto.FromUser(user), "")
}

// CreateUser godoc
// @Summary Create a user
// @Description Creates an account with any role. Student accounts require a student profile.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateUserRequest true "Account"
// @Success 201 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.APIResponse "Validation failed"
// @Failure 409 {object} dto.APIResponse "Email or student ID taken"
// @Router /admin/users [post]
func (c *UserController) CreateUser(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	var req dto.CreateUserRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.userService.Create(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userID", user.ID).Str("role", string(user.Role)).Int64("by", actor.UserID).Msg("User created")
	respondCreated(ctx, dto.FromUser(user), "User created")
}

// UpdateUserRole godoc
// @Summary Change a user's role
// @Description Admins cannot change their own role
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.UpdateUserRoleRequest true "Role"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 409 {object} dto.APIResponse "Self modification"
// @Router /admin/users/{id}/role [patch]
func (c *UserController) UpdateUserRole(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateUserRoleRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.userService.UpdateRole(ctx.Request.Context(), actor, id, models.RoleName(req.Role))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, dto.FromUser(user), "Role updated")
}

// UpdateUserStatus godoc
// @Summary Activate or deactivate a user
// @Description Deactivation revokes every refresh token of the account. Admins cannot deactivate themselves.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.UpdateUserStatusRequest true "Status"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 409 {object} dto.APIResponse "Self modification"
// @Router /admin/users/{id}/status [patch]
func (c *UserController) UpdateUserStatus(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateUserStatusRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.userService.SetActive(ctx.Request.Context(), actor, id, *req.IsActive)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, dto.FromUser(user), "Status updated")
}

// ListRoles godoc
// @Summary List roles
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.RoleResponse}
// @Router /admin/roles [get]
func (c *UserController) ListRoles(ctx *gin.Context) {
	actor, ok := actorOf(ctx)
	if !ok {
		return
	}

	roles, err := c.userService.ListRoles(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	out := make([]dto.RoleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, dto.FromRole(r))
	}
	respondOK(ctx, out, "")
}
