package repositories

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
	"github.com/yigit/scholarhub/internal/pkg/logger"
)

// ScholarshipRepository handles scholarship database operations
type ScholarshipRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

var _ IScholarshipRepository = (*ScholarshipRepository)(nil)

// NewScholarshipRepository creates a new ScholarshipRepository
func NewScholarshipRepository(database *db.PostgresDB) *ScholarshipRepository {
	return &ScholarshipRepository{db: database, sb: statementBuilder()}
}

var scholarshipColumns = []string{
	"id", "name", "description", "amount", "total_funding", "max_recipients",
	"current_recipients", "application_deadline", "award_date", "academic_year",
	"department", "min_gpa", "year_of_study", "requirements", "is_renewable",
	"status", "created_by", "created_at", "updated_at",
}

func (r *ScholarshipRepository) selectScholarshipQuery() squirrel.SelectBuilder {
	return r.sb.Select(scholarshipColumns...).From("scholarships")
}

// ScanScholarship maps a scholarships row.
func ScanScholarship(row pgx.Row) (*models.Scholarship, error) {
	var (
		s     models.Scholarship
		years []string
	)
	err := row.Scan(
		&s.ID, &s.Name, &s.Description, &s.Amount, &s.TotalFunding, &s.MaxRecipients,
		&s.CurrentRecipients, &s.ApplicationDeadline, &s.AwardDate, &s.AcademicYear,
		&s.Department, &s.MinGPA, &years, &s.Requirements, &s.IsRenewable,
		&s.Status, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrScholarshipNotFound
		}
		return nil, err
	}
	s.YearOfStudy = make([]domain.YearOfStudy, 0, len(years))
	for _, y := range years {
		s.YearOfStudy = append(s.YearOfStudy, domain.YearOfStudy(y))
	}
	if s.Requirements == nil {
		s.Requirements = []string{}
	}
	return &s, nil
}

func yearsToStrings(years []domain.YearOfStudy) []string {
	out := make([]string, 0, len(years))
	for _, y := range years {
		out = append(out, string(y))
	}
	return out
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Create inserts a scholarship and returns its id.
func (r *ScholarshipRepository) Create(ctx context.Context, s *models.Scholarship) (int64, error) {
	sql, args, err := r.sb.Insert("scholarships").
		Columns("name", "description", "amount", "total_funding", "max_recipients",
			"application_deadline", "award_date", "academic_year", "department", "min_gpa",
			"year_of_study", "requirements", "is_renewable", "status", "created_by").
		Values(s.Name, s.Description, s.Amount, s.TotalFunding, s.MaxRecipients,
			s.ApplicationDeadline, s.AwardDate, s.AcademicYear, s.Department, s.MinGPA,
			yearsToStrings(s.YearOfStudy), nonNilStrings(s.Requirements), s.IsRenewable,
			string(s.Status), s.CreatedBy).
		Suffix("RETURNING id, current_recipients, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create scholarship SQL")
		return 0, err
	}

	err = r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&s.ID, &s.CurrentRecipients, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if dberrors.IsCheckViolation(err) {
			return 0, apperrors.NewValidationError("scholarship violates a database constraint")
		}
		logger.Error().Err(err).Str("name", s.Name).Msg("Error executing create scholarship query")
		return 0, fmt.Errorf("error creating scholarship: %w", err)
	}
	return s.ID, nil
}

// GetByID retrieves a scholarship by id.
func (r *ScholarshipRepository) GetByID(ctx context.Context, id int64) (*models.Scholarship, error) {
	sql, args, err := r.selectScholarshipQuery().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get scholarship SQL")
		return nil, err
	}
	return ScanScholarship(r.db.Conn(ctx).QueryRow(ctx, sql, args...))
}

// LockByID reads a scholarship with a row lock. Callers must be inside a transaction.
func (r *ScholarshipRepository) LockByID(ctx context.Context, id int64) (*models.Scholarship, error) {
	sql, args, err := r.selectScholarshipQuery().Where(squirrel.Eq{"id": id}).Suffix("FOR UPDATE").ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building lock scholarship SQL")
		return nil, err
	}
	return ScanScholarship(r.db.Conn(ctx).QueryRow(ctx, sql, args...))
}

// Update rewrites the editable terms of a scholarship. Status and the
// recipient counter have their own writers.
func (r *ScholarshipRepository) Update(ctx context.Context, s *models.Scholarship) error {
	sql, args, err := r.sb.Update("scholarships").
		Set("name", s.Name).
		Set("description", s.Description).
		Set("amount", s.Amount).
		Set("total_funding", s.TotalFunding).
		Set("max_recipients", s.MaxRecipients).
		Set("application_deadline", s.ApplicationDeadline).
		Set("award_date", s.AwardDate).
		Set("academic_year", s.AcademicYear).
		Set("department", s.Department).
		Set("min_gpa", s.MinGPA).
		Set("year_of_study", yearsToStrings(s.YearOfStudy)).
		Set("requirements", nonNilStrings(s.Requirements)).
		Set("is_renewable", s.IsRenewable).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": s.ID}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update scholarship SQL")
		return err
	}

	tag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsCheckViolation(err) {
			return apperrors.NewValidationError("scholarship violates a database constraint")
		}
		logger.Error().Err(err).Int64("scholarshipID", s.ID).Msg("Error executing update scholarship query")
		return fmt.Errorf("error updating scholarship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrScholarshipNotFound
	}
	return nil
}

// UpdateStatus writes a status already validated by domain.TransitionScholarship.
func (r *ScholarshipRepository) UpdateStatus(ctx context.Context, id int64, status domain.ScholarshipStatus) error {
	sql, args, err := r.sb.Update("scholarships").
		Set("status", string(status)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("scholarshipID", id).Msg("Error executing update scholarship status query")
		return fmt.Errorf("error updating scholarship status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrScholarshipNotFound
	}
	return nil
}

// Delete removes a scholarship. Referenced rows make this a conflict.
func (r *ScholarshipRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("scholarships").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.NewConflictError("scholarship has applications and cannot be deleted")
		}
		logger.Error().Err(err).Int64("scholarshipID", id).Msg("Error executing delete scholarship query")
		return fmt.Errorf("error deleting scholarship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrScholarshipNotFound
	}
	return nil
}

// List returns a filtered page of scholarships and the total match count.
func (r *ScholarshipRepository) List(ctx context.Context, filter models.ScholarshipFilter) ([]*models.Scholarship, int64, error) {
	where := squirrel.And{}
	if filter.Status != nil {
		where = append(where, squirrel.Eq{"status": string(*filter.Status)})
	}
	if d := strings.TrimSpace(filter.Department); d != "" {
		where = append(where, squirrel.Or{
			squirrel.Expr("LOWER(department) = LOWER(?)", d),
			squirrel.Eq{"department": domain.DepartmentAll},
		})
	}
	if y := strings.TrimSpace(filter.AcademicYear); y != "" {
		where = append(where, squirrel.Eq{"academic_year": y})
	}
	if strings.TrimSpace(filter.Search) != "" {
		p := likePattern(filter.Search)
		where = append(where, squirrel.Or{
			squirrel.ILike{"name": p},
			squirrel.ILike{"description": p},
		})
	}

	total, err := r.count(ctx, where)
	if err != nil {
		return nil, 0, err
	}

	allowedSorts := map[string]string{
		"deadline":  "application_deadline",
		"amount":    "amount",
		"name":      "name",
		"createdAt": "created_at",
	}
	q := r.selectScholarshipQuery().
		Where(where).
		OrderBy(orderBy(allowedSorts, filter.SortBy, filter.SortOrder, "created_at"), "id DESC")
	sql, args, err := paginate(q, filter.Page, filter.Size).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list scholarships SQL")
		return nil, 0, err
	}

	items, err := r.query(ctx, sql, args...)
	return items, total, err
}

func (r *ScholarshipRepository) count(ctx context.Context, where squirrel.Sqlizer) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").From("scholarships").Where(where).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building count scholarships SQL")
		return 0, err
	}
	var total int64
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count scholarships query")
		return 0, err
	}
	return total, nil
}

func (r *ScholarshipRepository) query(ctx context.Context, sql string, args ...interface{}) ([]*models.Scholarship, error) {
	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing scholarships query")
		return nil, err
	}
	defer rows.Close()

	items := make([]*models.Scholarship, 0)
	for rows.Next() {
		s, err := ScanScholarship(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scholarship: %w", err)
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// IncrementRecipients claims one recipient slot. The WHERE clause keeps the
// counter from passing max_recipients under concurrent approvals.
func (r *ScholarshipRepository) IncrementRecipients(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Update("scholarships").
		Set("current_recipients", squirrel.Expr("current_recipients + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where("current_recipients < max_recipients").
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("scholarshipID", id).Msg("Error incrementing recipients")
		return fmt.Errorf("error incrementing recipients: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrRecipientCapReached
	}
	return nil
}

// CountApplications counts applications of any status for a scholarship.
func (r *ScholarshipRepository) CountApplications(ctx context.Context, id int64) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").From("applications").Where(squirrel.Eq{"scholarship_id": id}).ToSql()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting applications: %w", err)
	}
	return n, nil
}

// CloseExpired moves active scholarships whose deadline has passed to closed
// and returns them.
func (r *ScholarshipRepository) CloseExpired(ctx context.Context, now time.Time) ([]*models.Scholarship, error) {
	sql, args, err := r.sb.Update("scholarships").
		Set("status", string(domain.ScholarshipClosed)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"status": string(domain.ScholarshipActive)}).
		Where(squirrel.LtOrEq{"application_deadline": now}).
		Suffix("RETURNING " + strings.Join(scholarshipColumns, ", ")).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building close expired scholarships SQL")
		return nil, err
	}
	return r.query(ctx, sql, args...)
}

// ListClosingBetween returns active scholarships with a deadline in [from, to).
func (r *ScholarshipRepository) ListClosingBetween(ctx context.Context, from, to time.Time) ([]*models.Scholarship, error) {
	sql, args, err := r.selectScholarshipQuery().
		Where(squirrel.Eq{"status": string(domain.ScholarshipActive)}).
		Where(squirrel.GtOrEq{"application_deadline": from}).
		Where(squirrel.Lt{"application_deadline": to}).
		OrderBy("application_deadline").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.query(ctx, sql, args...)
}
