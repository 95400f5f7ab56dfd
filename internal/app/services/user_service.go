package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	appauth "github.com/yigit/scholarhub/internal/app/auth"
	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/app/models/dto"
	"github.com/yigit/scholarhub/internal/app/repositories"
	"github.com/yigit/scholarhub/internal/db"
	"github.com/yigit/scholarhub/internal/domain"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
	"github.com/yigit/scholarhub/internal/pkg/auth"
)

// UserService defines the admin operations on accounts
type UserService interface {
	List(ctx context.Context, actor appauth.Actor, filter models.UserFilter) ([]*models.User, int64, error)
	Get(ctx context.Context, actor appauth.Actor, id int64) (*models.User, error)
	Create(ctx context.Context, actor appauth.Actor, req *dto.CreateUserRequest) (*models.User, error)
	UpdateRole(ctx context.Context, actor appauth.Actor, id int64, role models.RoleName) (*models.User, error)
	SetActive(ctx context.Context, actor appauth.Actor, id int64, active bool) (*models.User, error)
	ListRoles(ctx context.Context, actor appauth.Actor) ([]*models.Role, error)
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	users   repositories.IUserRepository
	roles   repositories.IRoleRepository
	refresh repositories.ITokenRepository
	tx      db.Transactor
	authz   *appauth.AuthorizationService
	logger  zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	users repositories.IUserRepository,
	roles repositories.IRoleRepository,
	refresh repositories.ITokenRepository,
	tx db.Transactor,
	authz *appauth.AuthorizationService,
	logger zerolog.Logger,
) UserService {
	return &userServiceImpl{
		users:   users,
		roles:   roles,
		refresh: refresh,
		tx:      tx,
		authz:   authz,
		logger:  logger,
	}
}

// createAccount resolves the role, stores the user and, when given, the
// student profile. u.ID is set on success.
func createAccount(ctx context.Context, users repositories.IUserRepository, roles repositories.IRoleRepository, u *models.User, student *models.Student) error {
	exists, err := users.EmailExists(ctx, u.Email)
	if err != nil {
		return fmt.Errorf("error checking if email exists: %w", err)
	}
	if exists {
		return apperrors.ErrEmailAlreadyExists
	}
	if student != nil {
		exists, err = users.StudentIDExists(ctx, student.StudentID)
		if err != nil {
			return fmt.Errorf("error checking if student ID exists: %w", err)
		}
		if exists {
			return apperrors.ErrStudentIDAlreadyExists
		}
	}

	role, err := roles.GetByName(ctx, u.Role)
	if err != nil {
		return err
	}
	u.RoleID = role.ID
	id, err := users.CreateUser(ctx, u)
	if err != nil {
		return err
	}
	u.ID = id
	if student != nil {
		student.UserID = id
		if err := users.CreateStudent(ctx, student); err != nil {
			return err
		}
		u.Student = student
	}
	return nil
}

// List returns a filtered page of users
func (s *userServiceImpl) List(ctx context.Context, actor appauth.Actor, filter models.UserFilter) ([]*models.User, int64, error) {
	if err := s.authz.Authorize(actor, appauth.PermUsersManage); err != nil {
		return nil, 0, err
	}
	return s.users.ListUsers(ctx, filter)
}

// Get returns one user
func (s *userServiceImpl) Get(ctx context.Context, actor appauth.Actor, id int64) (*models.User, error) {
	if err := s.authz.Authorize(actor, appauth.PermUsersManage); err != nil {
		return nil, err
	}
	return s.users.GetUserByID(ctx, id)
}

// Create makes an account of any role. Admin-created accounts start verified.
func (s *userServiceImpl) Create(ctx context.Context, actor appauth.Actor, req *dto.CreateUserRequest) (*models.User, error) {
	if err := s.authz.Authorize(actor, appauth.PermUsersManage); err != nil {
		return nil, err
	}
	role := models.RoleName(req.Role)
	if !role.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown role %q", req.Role))
	}
	if err := checkPassword("password", req.Password); err != nil {
		return nil, err
	}

	var student *models.Student
	if role == models.RoleStudent {
		if req.Student == nil {
			return nil, apperrors.NewValidationError("a student account needs a student profile").
				WithDetails(map[string]interface{}{"student": "required"})
		}
		student = &models.Student{
			StudentID:      strings.TrimSpace(req.Student.StudentID),
			Department:     strings.TrimSpace(req.Student.Department),
			Major:          strings.TrimSpace(req.Student.Major),
			YearOfStudy:    domain.YearOfStudy(req.Student.YearOfStudy),
			GPA:            req.Student.GPA,
			EnrollmentDate: req.Student.EnrollmentDate,
		}
		if err := domain.ValidateStudentProfile(student.Profile()); err != nil {
			return nil, err
		}
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	u := &models.User{
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Password:      hashed,
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		Phone:         req.Phone,
		Role:          role,
		IsActive:      true,
		EmailVerified: true,
	}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return createAccount(ctx, s.users, s.roles, u, student)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("userID", u.ID).
		Str("role", string(role)).
		Int64("createdBy", actor.UserID).
		Msg("User created by admin")
	return s.users.GetUserByID(ctx, u.ID)
}

// UpdateRole moves a user to another role. Admins cannot change their own
// role, and a student role needs a student profile.
func (s *userServiceImpl) UpdateRole(ctx context.Context, actor appauth.Actor, id int64, role models.RoleName) (*models.User, error) {
	if err := s.authz.Authorize(actor, appauth.PermUsersManage); err != nil {
		return nil, err
	}
	if actor.UserID == id {
		return nil, apperrors.NewConflictError("you cannot change your own role").WithCode("SELF_MODIFICATION")
	}
	r, err := s.roles.GetByName(ctx, role)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == models.RoleStudent && u.Student == nil {
		return nil, apperrors.NewValidationError("user has no student profile").
			WithDetails(map[string]interface{}{"role": "student requires a student profile"})
	}
	if err := s.users.UpdateRole(ctx, id, r.ID); err != nil {
		return nil, err
	}
	s.logger.Info().
		Int64("userID", id).
		Str("from", string(u.Role)).
		Str("to", string(role)).
		Int64("by", actor.UserID).
		Msg("User role changed")
	return s.users.GetUserByID(ctx, id)
}

// SetActive activates or deactivates an account. Deactivation also revokes
// the user's refresh tokens.
func (s *userServiceImpl) SetActive(ctx context.Context, actor appauth.Actor, id int64, active bool) (*models.User, error) {
	if err := s.authz.Authorize(actor, appauth.PermUsersManage); err != nil {
		return nil, err
	}
	if actor.UserID == id && !active {
		return nil, apperrors.NewConflictError("you cannot deactivate your own account").WithCode("SELF_MODIFICATION")
	}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.SetActive(ctx, id, active); err != nil {
			return err
		}
		if active {
			return nil
		}
		return s.refresh.RevokeAllUserTokens(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("userID", id).Bool("active", active).Int64("by", actor.UserID).Msg("User status changed")
	return s.users.GetUserByID(ctx, id)
}

// ListRoles returns the seeded roles
func (s *userServiceImpl) ListRoles(ctx context.Context, actor appauth.Actor) ([]*models.Role, error) {
	if err := s.authz.Authorize(actor, appauth.PermUsersManage); err != nil {
		return nil, err
	}
	return s.roles.List(ctx)
}
