package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/db"
	"github.com/yigit/scholarhub/internal/domain"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
	"github.com/yigit/scholarhub/internal/pkg/dberrors"
	"github.com/yigit/scholarhub/internal/pkg/helpers"
	"github.com/yigit/scholarhub/internal/pkg/logger"
)

// CommonRepository handles the users table
type CommonRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewRepository creates a new CommonRepository
func NewRepository(database *db.PostgresDB) *CommonRepository {
	return &CommonRepository{
		db: database,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// selectUserQuery joins the role slug and, when present, the student profile.
func (r *CommonRepository) selectUserQuery() squirrel.SelectBuilder {
	return r.sb.Select(
		"u.id", "u.email", "u.password", "u.first_name", "u.last_name", "u.phone",
		"u.role_id", "ro.name", "u.is_active", "u.email_verified", "u.last_login_at",
		"u.created_at", "u.updated_at",
		"s.id", "s.student_id", "s.department", "s.major", "s.year_of_study", "s.gpa", "s.enrollment_date",
	).
		From("users u").
		Join("roles ro ON ro.id = u.role_id").
		LeftJoin("students s ON s.user_id = u.id")
}

// ScanUser maps a row produced by selectUserQuery.
func ScanUser(row pgx.Row) (*models.User, error) {
	var (
		u           models.User
		studentPK   *int64
		studentID   *string
		department  *string
		major       *string
		yearOfStudy *string
		gpa         *float64
		enrolled    *time.Time
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.Phone,
		&u.RoleID, &u.Role, &u.IsActive, &u.EmailVerified, &u.LastLoginAt,
		&u.CreatedAt, &u.UpdatedAt,
		&studentPK, &studentID, &department, &major, &yearOfStudy, &gpa, &enrolled,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}

	if studentPK != nil {
		u.Student = &models.Student{
			ID:             *studentPK,
			UserID:         u.ID,
			StudentID:      deref(studentID),
			Department:     deref(department),
			Major:          deref(major),
			YearOfStudy:    domain.YearOfStudy(deref(yearOfStudy)),
			EnrollmentDate: enrolled,
		}
		if gpa != nil {
			u.Student.GPA = *gpa
		}
	}
	return &u, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CreateUser creates a new user. Email uniqueness is enforced by users_email_key.
func (r *CommonRepository) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	sql, args, err := r.sb.Insert("users").
		Columns("email", "password", "first_name", "last_name", "phone", "role_id", "is_active", "email_verified").
		Values(strings.ToLower(user.Email), user.Password, user.FirstName, user.LastName, user.Phone,
			user.RoleID, user.IsActive, user.EmailVerified).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create user SQL")
		return 0, fmt.Errorf("failed to build create user query: %w", err)
	}

	var id int64
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_email_key") {
			return 0, apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Str("email", user.Email).Msg("Error executing create user query")
		return 0, fmt.Errorf("error creating user: %w", err)
	}

	return id, nil
}

// GetUserByEmail retrieves a user by email
func (r *CommonRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	sql, args, err := r.selectUserQuery().Where(squirrel.Eq{"u.email": strings.ToLower(email)}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get user by email SQL")
		return nil, err
	}
	return ScanUser(r.db.Conn(ctx).QueryRow(ctx, sql, args...))
}

// GetUserByID retrieves a user by ID
func (r *CommonRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	sql, args, err := r.selectUserQuery().Where(squirrel.Eq{"u.id": id}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get user by ID SQL")
		return nil, err
	}
	return ScanUser(r.db.Conn(ctx).QueryRow(ctx, sql, args...))
}

// EmailExists checks if an email already exists
func (r *CommonRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	sql, args, err := r.sb.Select("1").
		From("users").
		Where(squirrel.Eq{"email": strings.ToLower(email)}).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
	if err != nil {
		return false, err
	}

	var exists bool
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking email: %w", err)
	}
	return exists, nil
}

// ListUsers returns a filtered page of users and the total match count.
func (r *CommonRepository) ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, int64, error) {
	where := squirrel.And{}
	if filter.Role != nil {
		where = append(where, squirrel.Eq{"ro.name": string(*filter.Role)})
	}
	if filter.IsActive != nil {
		where = append(where, squirrel.Eq{"u.is_active": *filter.IsActive})
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		p := "%" + s + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"u.email": p},
			squirrel.ILike{"u.first_name": p},
			squirrel.ILike{"u.last_name": p},
		})
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").
		From("users u").
		Join("roles ro ON ro.id = u.role_id").
		Where(where).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building count users SQL")
		return nil, 0, err
	}
	var total int64
	if err := r.db.Conn(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count users query")
		return nil, 0, err
	}

	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.Size)
	sql, args, err := r.selectUserQuery().
		Where(where).
		OrderBy("u.created_at DESC", "u.id DESC").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list users SQL")
		return nil, 0, err
	}

	users, err := r.queryUsers(ctx, sql, args...)
	return users, total, err
}

// ListActiveByRoles returns active users holding any of roles.
func (r *CommonRepository) ListActiveByRoles(ctx context.Context, roles []models.RoleName) ([]*models.User, error) {
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	sql, args, err := r.selectUserQuery().
		Where(squirrel.Eq{"ro.name": names, "u.is_active": true}).
		OrderBy("u.id").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryUsers(ctx, sql, args...)
}

// ListActiveByIDs returns the active users among ids.
func (r *CommonRepository) ListActiveByIDs(ctx context.Context, ids []int64) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}
	sql, args, err := r.selectUserQuery().
		Where(squirrel.Eq{"u.id": ids, "u.is_active": true}).
		OrderBy("u.id").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryUsers(ctx, sql, args...)
}

func (r *CommonRepository) queryUsers(ctx context.Context, sql string, args ...interface{}) ([]*models.User, error) {
	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing users query")
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u, err := ScanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// update runs a single-row UPDATE on users and maps zero rows to ErrUserNotFound.
func (r *CommonRepository) update(ctx context.Context, userID int64, set map[string]interface{}) error {
	set["updated_at"] = squirrel.Expr("NOW()")
	sql, args, err := r.sb.Update("users").
		SetMap(set).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update user SQL")
		return err
	}

	tag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing update user query")
		return fmt.Errorf("error updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// UpdateRole assigns a role.
func (r *CommonRepository) UpdateRole(ctx context.Context, userID, roleID int64) error {
	return r.update(ctx, userID, map[string]interface{}{"role_id": roleID})
}

// SetActive enables or disables sign-in.
func (r *CommonRepository) SetActive(ctx context.Context, userID int64, active bool) error {
	return r.update(ctx, userID, map[string]interface{}{"is_active": active})
}

// UpdateProfile changes the display fields of a user.
func (r *CommonRepository) UpdateProfile(ctx context.Context, userID int64, firstName, lastName string, phone *string) error {
	return r.update(ctx, userID, map[string]interface{}{
		"first_name": firstName,
		"last_name":  lastName,
		"phone":      phone,
	})
}

// UpdatePassword stores a new bcrypt hash.
func (r *CommonRepository) UpdatePassword(ctx context.Context, userID int64, hashedPassword string) error {
	return r.update(ctx, userID, map[string]interface{}{"password": hashedPassword})
}

// MarkEmailVerified flags the address as confirmed.
func (r *CommonRepository) MarkEmailVerified(ctx context.Context, userID int64) error {
	return r.update(ctx, userID, map[string]interface{}{"email_verified": true})
}

// UpdateLastLogin updates the last login time of the user
func (r *CommonRepository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	return r.update(ctx, userID, map[string]interface{}{"last_login_at": at})
}
