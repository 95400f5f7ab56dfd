package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	appModels "github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/pkg/auth"
)

// UserStore is what seeding needs from the user repository.
type UserStore interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, u *appModels.User) (int64, error)
}

// RoleStore resolves role slugs to rows.
type RoleStore interface {
	GetByName(ctx context.Context, name appModels.RoleName) (*appModels.Role, error)
}

// AdminAccount is the bootstrap administrator. Empty fields disable seeding.
type AdminAccount struct {
	Email    string
	Password string
}

// CreateDefaultData ensures the bootstrap administrator exists. Roles and
// default settings come from migrations, so this only checks that the admin
// role is present.
func CreateDefaultData(ctx context.Context, users UserStore, roles RoleStore, admin AdminAccount, lgr zerolog.Logger) error {
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	if email == "" || admin.Password == "" {
		lgr.Info().Msg("No seed admin configured, skipping default data")
		return nil
	}

	lgr.Info().Msg("Checking/Creating default admin account...")

	exists, err := users.EmailExists(ctx, email)
	if err != nil {
		lgr.Error().Err(err).Msg("Error checking if admin user exists")
		return err
	}
	if exists {
		lgr.Info().Msg("Admin user already exists, skipping creation")
		return nil
	}

	role, err := roles.GetByName(ctx, appModels.RoleAdmin)
	if err != nil {
		lgr.Error().Err(err).Msg("Admin role missing, were migrations applied?")
		return fmt.Errorf("resolve admin role: %w", err)
	}

	hashed, err := auth.HashPassword(admin.Password)
	if err != nil {
		return errors.Join(errors.New("hash admin password"), err)
	}

	adminUser := &appModels.User{
		Email:         email,
		Password:      hashed,
		FirstName:     "System",
		LastName:      "Administrator",
		RoleID:        role.ID,
		Role:          appModels.RoleAdmin,
		IsActive:      true,
		EmailVerified: true,
	}

	adminID, err := users.CreateUser(ctx, adminUser)
	if err != nil {
		lgr.Error().Err(err).Msg("Error creating admin user")
		return err
	}

	lgr.Info().Int64("adminID", adminID).Str("email", email).Msg("Default admin user created successfully")
	return nil
}
