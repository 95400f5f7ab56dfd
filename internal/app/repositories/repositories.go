package repositories

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/yigit/scholarhub/internal/db"
	"github.com/yigit/scholarhub/internal/pkg/helpers"
)

// Repositories holds all the repository instances
type Repositories struct {
	RoleRepository              *RoleRepository
	UserRepository              *UserRepository
	TokenRepository             *TokenRepository
	VerificationTokenRepository *OneTimeTokenRepository
	PasswordResetRepository     *OneTimeTokenRepository
	ScholarshipRepository       *ScholarshipRepository
	ApplicationRepository       *ApplicationRepository
	PaymentRepository           *PaymentRepository
	NotificationRepository      *NotificationRepository
	EmailDeliveryRepository     *EmailDeliveryRepository
	SettingRepository           *SettingRepository
	ReportRepository            *ReportRepository
}

// NewRepositories initializes all repositories
func NewRepositories(database *db.PostgresDB) *Repositories {
	return &Repositories{
		RoleRepository:              NewRoleRepository(database),
		UserRepository:              NewUserRepository(database),
		TokenRepository:             NewTokenRepository(database),
		VerificationTokenRepository: NewVerificationTokenRepository(database),
		PasswordResetRepository:     NewPasswordResetRepository(database),
		ScholarshipRepository:       NewScholarshipRepository(database),
		ApplicationRepository:       NewApplicationRepository(database),
		PaymentRepository:           NewPaymentRepository(database),
		NotificationRepository:      NewNotificationRepository(database),
		EmailDeliveryRepository:     NewEmailDeliveryRepository(database),
		SettingRepository:           NewSettingRepository(database),
		ReportRepository:            NewReportRepository(database),
	}
}

func statementBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// orderBy resolves a client sort key against an allow-list; unknown keys fall
// back to def. Direction defaults to DESC.
func orderBy(allowed map[string]string, sortBy, sortOrder, def string) string {
	column := def
	if c, ok := allowed[sortBy]; ok {
		column = c
	}
	dir := "DESC"
	if strings.ToUpper(sortOrder) == "ASC" {
		dir = "ASC"
	}
	return fmt.Sprintf("%s %s", column, dir)
}

// paginate applies LIMIT/OFFSET for a 1-based page.
func paginate(b squirrel.SelectBuilder, page, size int) squirrel.SelectBuilder {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	return b.Limit(limit).Offset(offset)
}

func likePattern(s string) string {
	return "%" + strings.TrimSpace(s) + "%"
}
