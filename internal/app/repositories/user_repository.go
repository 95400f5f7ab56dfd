package repositories

import (
	"context"
	"time"

	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/app/repositories/user"
	"github.com/yigit/scholarhub/internal/db"
)

// UserRepository combines all user-related repositories
type UserRepository struct {
	common  *user.CommonRepository
	student *user.StudentRepository
}

var _ IUserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository
func NewUserRepository(database *db.PostgresDB) *UserRepository {
	return &UserRepository{
		common:  user.NewRepository(database),
		student: user.NewStudentRepository(database),
	}
}

// CreateUser creates a new user
func (r *UserRepository) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	return r.common.CreateUser(ctx, u)
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.common.GetUserByEmail(ctx, email)
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.common.GetUserByID(ctx, id)
}

// EmailExists checks if an email already exists
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.common.EmailExists(ctx, email)
}

// ListUsers returns a filtered page of users
func (r *UserRepository) ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, int64, error) {
	return r.common.ListUsers(ctx, filter)
}

// ListActiveByRoles returns active users in any of roles
func (r *UserRepository) ListActiveByRoles(ctx context.Context, roles []models.RoleName) ([]*models.User, error) {
	return r.common.ListActiveByRoles(ctx, roles)
}

// ListActiveByIDs returns the active users among ids
func (r *UserRepository) ListActiveByIDs(ctx context.Context, ids []int64) ([]*models.User, error) {
	return r.common.ListActiveByIDs(ctx, ids)
}

// UpdateRole assigns a role to a user
func (r *UserRepository) UpdateRole(ctx context.Context, userID, roleID int64) error {
	return r.common.UpdateRole(ctx, userID, roleID)
}

// SetActive activates or deactivates a user
func (r *UserRepository) SetActive(ctx context.Context, userID int64, active bool) error {
	return r.common.SetActive(ctx, userID, active)
}

// UpdateProfile updates user profile information
func (r *UserRepository) UpdateProfile(ctx context.Context, userID int64, firstName, lastName string, phone *string) error {
	return r.common.UpdateProfile(ctx, userID, firstName, lastName, phone)
}

// UpdatePassword stores a new password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, hashedPassword string) error {
	return r.common.UpdatePassword(ctx, userID, hashedPassword)
}

// MarkEmailVerified marks the user's email as verified
func (r *UserRepository) MarkEmailVerified(ctx context.Context, userID int64) error {
	return r.common.MarkEmailVerified(ctx, userID)
}

// UpdateLastLogin updates the last login time of the user
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	return r.common.UpdateLastLogin(ctx, userID, at)
}

// CreateStudent creates a new student
func (r *UserRepository) CreateStudent(ctx context.Context, student *models.Student) error {
	return r.student.CreateStudent(ctx, student)
}

// UpdateStudentProfile rewrites a student's academic profile
func (r *UserRepository) UpdateStudentProfile(ctx context.Context, student *models.Student) error {
	return r.student.UpdateStudent(ctx, student)
}

// StudentIDExists checks if a student identifier already exists
func (r *UserRepository) StudentIDExists(ctx context.Context, studentID string) (bool, error) {
	return r.student.StudentIDExists(ctx, studentID)
}
