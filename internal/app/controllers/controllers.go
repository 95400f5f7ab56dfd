// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appauth "github.com/yigit/scholarhub/internal/app/auth"
	"github.com/yigit/scholarhub/internal/app/models/dto"
	"github.com/yigit/scholarhub/internal/middleware"
	"github.com/yigit/scholarhub/internal/pkg/helpers"
)

// parseIDParam reads a positive int64 path parameter. On failure it writes
// the 400 envelope and returns false.
func parseIDParam(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+name).WithField(name)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
		return 0, false
	}
	return id, true
}

// actorOf returns the authenticated caller; routes without JWTAuth get a 401.
func actorOf(ctx *gin.Context) (appauth.Actor, bool) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		detail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Session invalid")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(detail))
	}
	return actor, ok
}

func respondOK(ctx *gin.Context, data interface{}, message string) {
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(data, message))
}

func respondCreated(ctx *gin.Context, data interface{}, message string) {
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(data, message))
}

func respondPage(ctx *gin.Context, items interface{}, total int64, page, size int) {
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(helpers.NewPaginatedResponse(items, total, page, size), ""))
}

// optionalInt64 returns nil for a zero filter value.
func optionalInt64(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}
