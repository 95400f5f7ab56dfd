package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	appauth "github.com/yigit/scholarhub/internal/app/auth"
	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/app/models/dto"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
	"github.com/yigit/scholarhub/internal/pkg/auth"
)

// Context keys set by JWTAuth.
const (
	ContextUserID = "userID"
	ContextEmail  = "email"
	ContextRole   = "userRole"
	ContextActor  = "actor"
)

// UserLookup is the slice of the user repository the middleware needs.
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
	users      UserLookup
	authz      *appauth.AuthorizationService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, users UserLookup, authz *appauth.AuthorizationService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		users:      users,
		authz:      authz,
	}
}

func abortUnauthenticated(c *gin.Context, code dto.ErrorCode, details string) {
	detail := dto.NewErrorDetail(code, "Session invalid").WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(detail))
}

// JWTAuth validates the bearer token and stores the caller in the context.
// The token query parameter is accepted for websocket handshakes, which
// cannot set headers from a browser.
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			header = c.Query("token")
		}
		if header == "" {
			abortUnauthenticated(c, dto.ErrorCodeUnauthorized, "Authorization header missing")
			return
		}

		tokenString, err := auth.ExtractBearerToken(header)
		if err != nil {
			abortUnauthenticated(c, dto.ErrorCodeUnauthorized, "Invalid token format")
			return
		}

		claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthenticated(c, dto.ErrorCodeExpiredToken, "Token has expired")
				return
			}
			abortUnauthenticated(c, dto.ErrorCodeInvalidToken, "Invalid token")
			return
		}

		// Role changes and deactivation take effect before the token expires.
		user, err := m.users.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, apperrors.ErrResourceNotFound) {
				abortUnauthenticated(c, dto.ErrorCodeInvalidToken, "User no longer exists")
				return
			}
			HandleAPIError(c, err)
			c.Abort()
			return
		}
		if !user.IsActive {
			HandleAPIError(c, apperrors.ErrAccountDisabled)
			c.Abort()
			return
		}

		actor := appauth.Actor{UserID: user.ID, Email: user.Email, Role: user.Role}
		c.Set(ContextUserID, actor.UserID)
		c.Set(ContextEmail, actor.Email)
		c.Set(ContextRole, string(actor.Role))
		c.Set(ContextActor, actor)

		c.Next()
	}
}

// RequirePermission rejects callers whose role lacks perm. It must run after JWTAuth.
func (m *AuthMiddleware) RequirePermission(perm appauth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			abortUnauthenticated(c, dto.ErrorCodeUnauthorized, "User information not found")
			return
		}
		if err := m.authz.Authorize(actor, perm); err != nil {
			HandleAPIError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// ActorFrom returns the caller stored by JWTAuth.
func ActorFrom(c *gin.Context) (appauth.Actor, bool) {
	raw, exists := c.Get(ContextActor)
	if !exists {
		return appauth.Actor{}, false
	}
	actor, ok := raw.(appauth.Actor)
	return actor, ok
}
