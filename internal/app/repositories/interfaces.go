package repositories

import (
	"context"
	"time"

	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/domain"
)

// IRoleRepository reads the seeded roles.
type IRoleRepository interface {
	List(ctx context.Context) ([]*models.Role, error)
	GetByName(ctx context.Context, name models.RoleName) (*models.Role, error)
}

// IUserRepository defines the interface for user repository operations
type IUserRepository interface {
	CreateUser(ctx context.Context, user *models.User) (int64, error)
	CreateStudent(ctx context.Context, student *models.Student) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	StudentIDExists(ctx context.Context, studentID string) (bool, error)
	ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, int64, error)
	ListActiveByRoles(ctx context.Context, roles []models.RoleName) ([]*models.User, error)
	ListActiveByIDs(ctx context.Context, ids []int64) ([]*models.User, error)
	UpdateRole(ctx context.Context, userID, roleID int64) error
	SetActive(ctx context.Context, userID int64, active bool) error
	UpdateProfile(ctx context.Context, userID int64, firstName, lastName string, phone *string) error
	UpdatePassword(ctx context.Context, userID int64, hashedPassword string) error
	MarkEmailVerified(ctx context.Context, userID int64) error
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
	UpdateStudentProfile(ctx context.Context, student *models.Student) error
}

// ITokenRepository stores refresh tokens.
type ITokenRepository interface {
	CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error
	GetTokenByValue(ctx context.Context, token string) (int64, time.Time, bool, error)
	RevokeToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID int64) error
	CleanupExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// IOneTimeTokenRepository stores single-use link tokens (email verification, password reset).
type IOneTimeTokenRepository interface {
	CreateToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	ConsumeToken(ctx context.Context, token string, now time.Time) (int64, error)
	InvalidateUserTokens(ctx context.Context, userID int64) error
}

// IScholarshipRepository defines scholarship persistence.
type IScholarshipRepository interface {
	Create(ctx context.Context, s *models.Scholarship) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Scholarship, error)
	LockByID(ctx context.Context, id int64) (*models.Scholarship, error)
	Update(ctx context.Context, s *models.Scholarship) error
	UpdateStatus(ctx context.Context, id int64, status domain.ScholarshipStatus) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter models.ScholarshipFilter) ([]*models.Scholarship, int64, error)
	IncrementRecipients(ctx context.Context, id int64) error
	CountApplications(ctx context.Context, id int64) (int64, error)
	CloseExpired(ctx context.Context, now time.Time) ([]*models.Scholarship, error)
	ListClosingBetween(ctx context.Context, from, to time.Time) ([]*models.Scholarship, error)
}

// IApplicationRepository defines application persistence.
type IApplicationRepository interface {
	Create(ctx context.Context, a *models.Application) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Application, error)
	LockByID(ctx context.Context, id int64) (*models.Application, error)
	Update(ctx context.Context, a *models.Application) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter models.ApplicationFilter) ([]*models.Application, int64, error)
	ExistsActive(ctx context.Context, studentID, scholarshipID int64) (bool, error)
}

// IPaymentRepository defines payment persistence.
type IPaymentRepository interface {
	Create(ctx context.Context, p *models.Payment) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Payment, error)
	LockByID(ctx context.Context, id int64) (*models.Payment, error)
	GetByApplicationID(ctx context.Context, applicationID int64) (*models.Payment, error)
	Update(ctx context.Context, p *models.Payment) error
	List(ctx context.Context, filter models.PaymentFilter) ([]*models.Payment, int64, error)
}

// INotificationRepository defines notification and recipient persistence.
type INotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) (int64, error)
	AddRecipients(ctx context.Context, notificationID int64, userIDs []int64) (int64, error)
	SetSentCount(ctx context.Context, notificationID int64, count int) error
	GetByID(ctx context.Context, id int64) (*models.Notification, error)
	ListForUser(ctx context.Context, userID int64, now time.Time, page, size int) ([]*models.Notification, int64, error)
	CountUnread(ctx context.Context, userID int64, now time.Time) (int64, error)
	MarkRead(ctx context.Context, notificationID, userID int64, at time.Time) error
	MarkAllRead(ctx context.Context, userID int64, at time.Time) (int64, error)
	List(ctx context.Context, page, size int) ([]*models.Notification, int64, error)
	Delete(ctx context.Context, id int64) error
}

// IEmailDeliveryRepository is the email outbox.
type IEmailDeliveryRepository interface {
	Enqueue(ctx context.Context, d *models.EmailDelivery) (int64, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*models.EmailDelivery, error)
	ListDue(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*models.EmailDelivery, error)
	MarkSent(ctx context.Context, id int64, at time.Time) error
	MarkFailed(ctx context.Context, id int64, reason string, nextAttempt time.Time) error
}

// ISettingRepository stores admin settings.
type ISettingRepository interface {
	List(ctx context.Context) ([]*models.SystemSetting, error)
	Get(ctx context.Context, key string) (*models.SystemSetting, error)
	Upsert(ctx context.Context, s *models.SystemSetting) error
}

// IReportRepository runs aggregate queries for dashboards.
type IReportRepository interface {
	ApplicationsByStatus(ctx context.Context) ([]models.StatusAggregate, error)
	ScholarshipsByStatus(ctx context.Context) ([]models.StatusAggregate, error)
	UsersByRole(ctx context.Context) ([]models.StatusAggregate, error)
	PaymentsByStatus(ctx context.Context) ([]models.StatusAggregate, error)
	PayoutsByScholarship(ctx context.Context) ([]models.ScholarshipPayout, error)
}
