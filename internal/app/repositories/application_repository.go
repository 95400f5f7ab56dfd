package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/db"
	"github.com/yigit/scholarhub/internal/domain"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
	"github.com/yigit/scholarhub/internal/pkg/dberrors"
	"github.com/yigit/scholarhub/internal/pkg/logger"
)

// activeApplicationIndex is the partial unique index over
// (student_id, scholarship_id) WHERE status <> 'withdrawn'.
const activeApplicationIndex = "applications_active_unique"

// ApplicationRepository handles application database operations
type ApplicationRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

var _ IApplicationRepository = (*ApplicationRepository)(nil)

// NewApplicationRepository creates a new ApplicationRepository
func NewApplicationRepository(database *db.PostgresDB) *ApplicationRepository {
	return &ApplicationRepository{db: database, sb: statementBuilder()}
}

// selectApplicationQuery joins owner and scholarship display fields.
func (r *ApplicationRepository) selectApplicationQuery() squirrel.SelectBuilder {
	return r.sb.Select(
		"a.id", "a.student_id", "a.scholarship_id", "a.status",
		"a.personal_info", "a.academic_info", "a.essays", "a.financial_info", "a.documents",
		"a.score", "a.criteria_scores", "a.comments", "a.rejection_reason",
		"a.reviewed_by", "a.reviewed_at", "a.submitted_at", "a.version",
		"a.created_at", "a.updated_at",
		"TRIM(u.first_name || ' ' || u.last_name)", "u.email",
		"s.name", "s.application_deadline",
	).
		From("applications a").
		Join("users u ON u.id = a.student_id").
		Join("scholarships s ON s.id = a.scholarship_id")
}

// ScanApplication maps a row produced by selectApplicationQuery.
func ScanApplication(row pgx.Row) (*models.Application, error) {
	var a models.Application
	err := row.Scan(
		&a.ID, &a.StudentID, &a.ScholarshipID, &a.Status,
		&a.PersonalInfo, &a.AcademicInfo, &a.Essays, &a.FinancialInfo, &a.Documents,
		&a.Score, &a.CriteriaScores, &a.Comments, &a.RejectionReason,
		&a.ReviewedBy, &a.ReviewedAt, &a.SubmittedAt, &a.Version,
		&a.CreatedAt, &a.UpdatedAt,
		&a.StudentName, &a.StudentEmail,
		&a.ScholarshipName, &a.ScholarshipDeadline,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, err
	}
	if a.Documents == nil {
		a.Documents = []models.Document{}
	}
	return &a, nil
}

// jsonObject encodes a section for a JSONB column; nil becomes {}.
func jsonObject(m models.JSONMap) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func jsonDocuments(docs []models.Document) ([]byte, error) {
	if docs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(docs)
}

// jsonCriteria encodes criteria scores; nil becomes {}.
func jsonCriteria(c map[string]float64) ([]byte, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c)
}

// applicationValues encodes the JSON-bearing columns in column order.
func applicationValues(a *models.Application) (personal, academic, essays, financial, docs, criteria []byte, err error) {
	if personal, err = jsonObject(a.PersonalInfo); err != nil {
		return
	}
	if academic, err = jsonObject(a.AcademicInfo); err != nil {
		return
	}
	if essays, err = jsonObject(a.Essays); err != nil {
		return
	}
	if financial, err = jsonObject(a.FinancialInfo); err != nil {
		return
	}
	if docs, err = jsonDocuments(a.Documents); err != nil {
		return
	}
	criteria, err = jsonCriteria(a.CriteriaScores)
	return
}

// Create inserts a draft application. A second non-withdrawn application for
// the same student and scholarship is rejected by activeApplicationIndex.
func (r *ApplicationRepository) Create(ctx context.Context, a *models.Application) (int64, error) {
	personal, academic, essays, financial, docs, criteria, err := applicationValues(a)
	if err != nil {
		return 0, fmt.Errorf("encode application: %w", err)
	}

	sql, args, err := r.sb.Insert("applications").
		Columns("student_id", "scholarship_id", "status", "personal_info", "academic_info",
			"essays", "financial_info", "documents", "criteria_scores", "version").
		Values(a.StudentID, a.ScholarshipID, string(a.Status), personal, academic,
			essays, financial, docs, criteria, 1).
		Suffix("RETURNING id, version, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create application SQL")
		return 0, err
	}

	err = r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&a.ID, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, activeApplicationIndex) {
			return 0, apperrors.ErrDuplicateApplication
		}
		if dberrors.IsForeignKeyViolation(err) {
			return 0, apperrors.ErrScholarshipNotFound
		}
		logger.Error().Err(err).Int64("studentID", a.StudentID).Int64("scholarshipID", a.ScholarshipID).Msg("Error executing create application query")
		return 0, fmt.Errorf("error creating application: %w", err)
	}
	return a.ID, nil
}

// GetByID retrieves an application with its joined display fields.
func (r *ApplicationRepository) GetByID(ctx context.Context, id int64) (*models.Application, error) {
	sql, args, err := r.selectApplicationQuery().Where(squirrel.Eq{"a.id": id}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get application SQL")
		return nil, err
	}
	return ScanApplication(r.db.Conn(ctx).QueryRow(ctx, sql, args...))
}

// LockByID reads an application and locks its row until the surrounding
// transaction ends.
func (r *ApplicationRepository) LockByID(ctx context.Context, id int64) (*models.Application, error) {
	sql, args, err := r.selectApplicationQuery().
		Where(squirrel.Eq{"a.id": id}).
		Suffix("FOR UPDATE OF a").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building lock application SQL")
		return nil, err
	}
	return ScanApplication(r.db.Conn(ctx).QueryRow(ctx, sql, args...))
}

// Update writes every mutable column and bumps version. The write only lands
// if the stored version still equals a.Version; otherwise ErrStaleVersion.
// On success a.Version holds the new version.
func (r *ApplicationRepository) Update(ctx context.Context, a *models.Application) error {
	personal, academic, essays, financial, docs, criteria, err := applicationValues(a)
	if err != nil {
		return fmt.Errorf("encode application: %w", err)
	}

	sql, args, err := r.sb.Update("applications").
		Set("status", string(a.Status)).
		Set("personal_info", personal).
		Set("academic_info", academic).
		Set("essays", essays).
		Set("financial_info", financial).
		Set("documents", docs).
		Set("score", a.Score).
		Set("criteria_scores", criteria).
		Set("comments", a.Comments).
		Set("rejection_reason", a.RejectionReason).
		Set("reviewed_by", a.ReviewedBy).
		Set("reviewed_at", a.ReviewedAt).
		Set("submitted_at", a.SubmittedAt).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": a.ID, "version": a.Version}).
		Suffix("RETURNING version, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update application SQL")
		return err
	}

	err = r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&a.Version, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.missingOrStale(ctx, a.ID)
		}
		if dberrors.IsDuplicateConstraintError(err, activeApplicationIndex) {
			return apperrors.ErrDuplicateApplication
		}
		logger.Error().Err(err).Int64("applicationID", a.ID).Msg("Error executing update application query")
		return fmt.Errorf("error updating application: %w", err)
	}
	return nil
}

func (r *ApplicationRepository) missingOrStale(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Select("1").From("applications").Where(squirrel.Eq{"id": id}).
		Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return err
	}
	var exists bool
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return fmt.Errorf("error checking application: %w", err)
	}
	if !exists {
		return apperrors.ErrApplicationNotFound
	}
	return apperrors.ErrStaleVersion
}

// Delete removes an application row.
func (r *ApplicationRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("applications").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("applicationID", id).Msg("Error executing delete application query")
		return fmt.Errorf("error deleting application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrApplicationNotFound
	}
	return nil
}

// List returns a filtered page of applications and the total match count.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]*models.Application, int64, error) {
	where := squirrel.And{}
	if filter.StudentID != nil {
		where = append(where, squirrel.Eq{"a.student_id": *filter.StudentID})
	}
	if filter.ScholarshipID != nil {
		where = append(where, squirrel.Eq{"a.scholarship_id": *filter.ScholarshipID})
	}
	if filter.Status != nil {
		where = append(where, squirrel.Eq{"a.status": string(*filter.Status)})
	}
	if strings.TrimSpace(filter.Search) != "" {
		p := likePattern(filter.Search)
		where = append(where, squirrel.Or{
			squirrel.ILike{"u.first_name": p},
			squirrel.ILike{"u.last_name": p},
			squirrel.ILike{"u.email": p},
			squirrel.ILike{"s.name": p},
		})
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").
		From("applications a").
		Join("users u ON u.id = a.student_id").
		Join("scholarships s ON s.id = a.scholarship_id").
		Where(where).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building count applications SQL")
		return nil, 0, err
	}
	var total int64
	if err := r.db.Conn(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count applications query")
		return nil, 0, err
	}

	allowedSorts := map[string]string{
		"createdAt":   "a.created_at",
		"updatedAt":   "a.updated_at",
		"submittedAt": "a.submitted_at",
		"score":       "a.score",
		"status":      "a.status",
		"deadline":    "s.application_deadline",
	}
	q := r.selectApplicationQuery().
		Where(where).
		OrderBy(orderBy(allowedSorts, filter.SortBy, filter.SortOrder, "a.created_at"), "a.id DESC")
	sql, args, err := paginate(q, filter.Page, filter.Size).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list applications SQL")
		return nil, 0, err
	}

	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list applications query")
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*models.Application, 0)
	for rows.Next() {
		a, err := ScanApplication(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan application: %w", err)
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

// ExistsActive reports whether the student already holds a non-withdrawn
// application for the scholarship.
func (r *ApplicationRepository) ExistsActive(ctx context.Context, studentID, scholarshipID int64) (bool, error) {
	sql, args, err := r.sb.Select("1").
		From("applications").
		Where(squirrel.Eq{"student_id": studentID, "scholarship_id": scholarshipID}).
		Where(squirrel.NotEq{"status": string(domain.StatusWithdrawn)}).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
	if err != nil {
		return false, err
	}
	var exists bool
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking existing application: %w", err)
	}
	return exists, nil
}
