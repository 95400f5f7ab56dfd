package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appauth "github.com/yigit/scholarhub/internal/app/auth"
	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/app/models/dto"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
	"github.com/yigit/scholarhub/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type userMap map[int64]*models.User

func (m userMap) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func newJWT() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "scholarhub-test",
	})
}

func tokenFor(t *testing.T, jwt *auth.JWTService, u *models.User) string {
	t.Helper()
	pair, err := jwt.GenerateTokenPair(auth.Subject{UserID: u.ID, Email: u.Email, Role: string(u.Role)})
	require.NoError(t, err)
	return pair.AccessToken
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.APIResponse {
	t.Helper()
	var resp dto.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func newRouter(users userMap) (*gin.Engine, *auth.JWTService) {
	jwt := newJWT()
	m := NewAuthMiddleware(jwt, users, appauth.NewAuthorizationService(nil))
	r := gin.New()
	r.Use(RequestLogger())
	protected := r.Group("/", m.JWTAuth())
	protected.GET("/me", func(c *gin.Context) {
		actor, _ := ActorFrom(c)
		c.JSON(http.StatusOK, dto.NewSuccessResponse(actor.Role, ""))
	})
	protected.GET("/payments", m.RequirePermission(appauth.PermPaymentsRead), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, jwt
}

func TestJWTAuth(t *testing.T) {
	users := userMap{
		1: {ID: 1, Email: "ada@uni.edu", Role: models.RoleStudent, IsActive: true},
		2: {ID: 2, Email: "off@uni.edu", Role: models.RoleFinance, IsActive: false},
	}
	r, jwt := newRouter(users)

	tests := []struct {
		name   string
		header string
		query  string
		status int
		code   dto.ErrorCode
	}{
		{name: "missing header", status: http.StatusUnauthorized, code: dto.ErrorCodeUnauthorized},
		{name: "garbage token", header: "Bearer not.a.jwt", status: http.StatusUnauthorized, code: dto.ErrorCodeInvalidToken},
		{name: "valid bearer", header: "Bearer " + tokenFor(t, jwt, users[1]), status: http.StatusOK},
		{name: "query token", query: "?token=" + tokenFor(t, jwt, users[1]), status: http.StatusOK},
		{name: "deactivated", header: "Bearer " + tokenFor(t, jwt, users[2]), status: http.StatusForbidden, code: dto.ErrorCodeAccountDisabled},
		{name: "deleted user", header: "Bearer " + tokenFor(t, jwt, &models.User{ID: 9, Email: "x@uni.edu", Role: models.RoleAdmin}), status: http.StatusUnauthorized, code: dto.ErrorCodeInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
			resp := decode(t, w)
			if tt.code != "" {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tt.code, resp.Error.Code)
				assert.False(t, resp.Success)
			} else {
				assert.True(t, resp.Success)
				assert.Equal(t, "student", resp.Data)
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	users := userMap{
		1: {ID: 1, Email: "ada@uni.edu", Role: models.RoleStudent, IsActive: true},
		3: {ID: 3, Email: "fin@uni.edu", Role: models.RoleFinance, IsActive: true},
	}
	r, jwt := newRouter(users)

	for id, want := range map[int64]int{1: http.StatusForbidden, 3: http.StatusNoContent} {
		req := httptest.NewRequest(http.MethodGet, "/payments", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, jwt, users[id]))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, "user %d", id)
	}
}

func TestHandleAPIError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   dto.ErrorCode
		reason string
	}{
		{apperrors.NewValidationError("score is required").WithDetails(map[string]interface{}{"score": "required"}), http.StatusBadRequest, dto.ErrorCodeValidationFailed, ""},
		{apperrors.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, ""},
		{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, ""},
		{apperrors.NewForbiddenError("only the owner can perform this action"), http.StatusForbidden, dto.ErrorCodeForbidden, ""},
		{apperrors.ErrApplicationNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, ""},
		{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, ""},
		{apperrors.NewConflictError("cannot approve a draft").WithCode("INVALID_TRANSITION"), http.StatusConflict, dto.ErrorCodeConflict, "INVALID_TRANSITION"},
		{apperrors.NewUpstreamError("storage unavailable", errors.New("disk full")), http.StatusBadGateway, dto.ErrorCodeExternalServiceError, ""},
		{fmt.Errorf("query users: %w", errors.New("connection reset")), http.StatusInternalServerError, dto.ErrorCodeInternalServer, ""},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/x", nil)

			HandleAPIError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.reason, resp.Error.Reason)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, resp.Error.Message, "connection reset")
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	r := gin.New()
	r.POST("/auth/login", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.7:5000"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "10.0.0.8:5000"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "other clients keep their own budget")

	rl.idleTTL = -time.Second
	rl.Cleanup()
	assert.Empty(t, rl.visitors)
}
