package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/scholarhub/internal/app/models/dto"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
	"github.com/yigit/scholarhub/internal/pkg/logger"
)

// classify maps an error onto its HTTP status and envelope code.
func classify(err error) (int, dto.ErrorCode, string) {
	switch {
	case errors.Is(err, apperrors.ErrValidationFailed),
		errors.Is(err, apperrors.ErrInvalidEmail),
		errors.Is(err, apperrors.ErrInvalidPassword):
		return http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Session invalid"
	case errors.Is(err, apperrors.ErrTokenNotFound):
		return http.StatusUnauthorized, dto.ErrorCodeTokenNotFound, "Session invalid"
	case errors.Is(err, apperrors.ErrTokenInvalid),
		errors.Is(err, apperrors.ErrTokenRevoked),
		errors.Is(err, apperrors.ErrUnauthenticated):
		return http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Session invalid"
	case errors.Is(err, apperrors.ErrAccountDisabled):
		return http.StatusForbidden, dto.ErrorCodeAccountDisabled, "Account is disabled"
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"
	case errors.Is(err, apperrors.ErrResourceNotFound):
		return http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"
	case errors.Is(err, apperrors.ErrResourceAlreadyExists):
		return http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists"
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, dto.ErrorCodeConflict, "Conflict"
	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, dto.ErrorCodeResourceInvalid, "Bad request"
	case errors.Is(err, apperrors.ErrUpstream):
		return http.StatusBadGateway, dto.ErrorCodeExternalServiceError, "External service failure"
	default:
		return http.StatusInternalServerError, dto.ErrorCodeInternalServer, "Internal server error"
	}
}

// HandleAPIError writes the failure envelope for err. CustomError messages,
// reason codes and details are passed through; anything unclassified is
// logged and reported as a 500 without internals.
func HandleAPIError(c *gin.Context, err error) {
	status, code, fallback := classify(err)

	detail := dto.NewErrorDetail(code, fallback)
	if status == http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Unhandled error")
		c.JSON(status, dto.NewErrorResponse(detail))
		return
	}

	if ce, ok := apperrors.As(err); ok {
		detail.Message = ce.Error()
		if ce.Code != "" {
			detail.WithReason(ce.Code)
		}
		if len(ce.Details) > 0 {
			detail.WithDetails(ce.Details)
		}
	} else if status != http.StatusUnauthorized {
		detail.Message = err.Error()
	}
	if status == http.StatusBadGateway {
		logger.FromContext(c.Request.Context()).Warn().Err(err).Str("path", c.Request.URL.Path).Msg("Upstream failure surfaced to client")
	}

	c.JSON(status, dto.NewErrorResponse(detail))
}
