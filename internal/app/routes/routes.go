package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appauth "github.com/yigit/scholarhub/internal/app/auth"
	"github.com/yigit/scholarhub/internal/app/controllers"
	"github.com/yigit/scholarhub/internal/app/models/dto"
	"github.com/yigit/scholarhub/internal/middleware"
	"github.com/yigit/scholarhub/internal/pkg/websocket"
)

// Handlers groups every controller the route table needs.
type Handlers struct {
	Auth          *controllers.AuthController
	Users         *controllers.UserController
	Scholarships  *controllers.ScholarshipController
	Applications  *controllers.ApplicationController
	Payments      *controllers.PaymentController
	Notifications *controllers.NotificationController
	Reports       *controllers.ReportController
	Websocket     *websocket.Handler
}

// HealthCheck reports whether the database answers.
type HealthCheck func(c *gin.Context) error

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	h Handlers,
	authMiddleware *middleware.AuthMiddleware,
	authLimiter *middleware.RateLimiter,
	health HealthCheck,
) {
	v1 := router.Group("/api/v1")
	perm := authMiddleware.RequirePermission

	// --- Public routes ---
	auth := v1.Group("/auth", authLimiter.Handler())
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/verify-email", h.Auth.VerifyEmail)
		auth.POST("/resend-verification", h.Auth.ResendVerification)
		auth.POST("/forgot-password", h.Auth.ForgotPassword)
		auth.POST("/reset-password", h.Auth.ResetPassword)
	}

	v1.GET("/meta/statuses", h.Reports.Statuses)

	v1.GET("/health", func(c *gin.Context) {
		if err := health(c); err != nil {
			detail := dto.NewErrorDetail(dto.ErrorCodeDatabaseError, "Database unavailable")
			c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(detail))
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}, ""))
	})

	// --- Authenticated routes ---
	authenticated := v1.Group("", authMiddleware.JWTAuth())

	authenticated.GET("/ws/notifications", h.Websocket.HandleConnection)

	me := authenticated.Group("/auth")
	{
		me.GET("/me", h.Auth.Me)
		me.PUT("/me", h.Auth.UpdateProfile)
		me.POST("/change-password", h.Auth.ChangePassword)
	}

	scholarships := authenticated.Group("/scholarships")
	{
		scholarships.GET("", h.Scholarships.ListScholarships)
		scholarships.GET("/:id", h.Scholarships.GetScholarship)
		scholarships.GET("/:id/eligibility", h.Scholarships.CheckEligibility)

		managed := scholarships.Group("", perm(appauth.PermScholarshipsManage))
		{
			managed.POST("", h.Scholarships.CreateScholarship)
			managed.PUT("/:id", h.Scholarships.UpdateScholarship)
			managed.PATCH("/:id/status", h.Scholarships.ChangeScholarshipStatus)
			managed.DELETE("/:id", h.Scholarships.DeleteScholarship)
		}
	}

	applications := authenticated.Group("/applications")
	{
		applications.POST("", perm(appauth.PermApplicationsCreate), h.Applications.CreateApplication)
		applications.GET("", perm(appauth.PermApplicationsRead), h.Applications.ListApplications)
		applications.GET("/my", perm(appauth.PermApplicationsOwn), h.Applications.ListMyApplications)

		// Ownership and reviewer visibility are checked per row by the service.
		applications.GET("/:id", h.Applications.GetApplication)
		applications.PUT("/:id", h.Applications.UpdateApplication)
		applications.DELETE("/:id", h.Applications.DeleteApplication)
		applications.POST("/:id/submit", h.Applications.SubmitApplication)
		applications.POST("/:id/resubmit", h.Applications.ResubmitApplication)
		applications.POST("/:id/withdraw", h.Applications.WithdrawApplication)
		applications.POST("/:id/documents", h.Applications.UploadDocument)
		applications.DELETE("/:id/documents/:docId", h.Applications.DeleteDocument)

		applications.POST("/:id/review", perm(appauth.PermApplicationsReview), h.Applications.ReviewApplication)
	}

	payments := authenticated.Group("/payments")
	{
		payments.GET("", h.Payments.ListPayments)
		payments.GET("/:id", h.Payments.GetPayment)
		payments.PATCH("/:id/status", perm(appauth.PermPaymentsProcess), h.Payments.UpdatePaymentStatus)
	}

	notifications := authenticated.Group("/notifications")
	{
		notifications.GET("/my", h.Notifications.ListMyNotifications)
		notifications.PATCH("/:id/read", h.Notifications.MarkNotificationRead)
		notifications.POST("/read-all", h.Notifications.MarkAllNotificationsRead)
		notifications.POST("", perm(appauth.PermNotificationsSend), h.Notifications.SendNotification)
	}

	authenticated.GET("/reports/financial", perm(appauth.PermReportsFinancial), h.Reports.FinancialReport)

	admin := authenticated.Group("/admin")
	{
		users := admin.Group("", perm(appauth.PermUsersManage))
		{
			users.GET("/users", h.Users.ListUsers)
			users.POST("/users", h.Users.CreateUser)
			users.GET("/users/:id", h.Users.GetUser)
			users.PATCH("/users/:id/role", h.Users.UpdateUserRole)
			users.PATCH("/users/:id/status", h.Users.UpdateUserStatus)
			users.GET("/roles", h.Users.ListRoles)
		}

		admin.GET("/applications", perm(appauth.PermApplicationsRead), h.Applications.ListApplications)
		admin.GET("/payments", perm(appauth.PermPaymentsRead), h.Payments.ListPayments)
		admin.GET("/analytics", perm(appauth.PermAnalyticsRead), h.Reports.Analytics)

		settings := admin.Group("/settings", perm(appauth.PermSettingsManage))
		{
			settings.GET("", h.Reports.ListSettings)
			settings.PUT("/:key", h.Reports.PutSetting)
		}

		notes := admin.Group("/notifications", perm(appauth.PermNotificationsManage))
		{
			notes.GET("", h.Notifications.ListAllNotifications)
			notes.DELETE("/:id", h.Notifications.DeleteNotification)
		}
	}
}
