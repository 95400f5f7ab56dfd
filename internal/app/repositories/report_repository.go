package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/db"
	"github.com/yigit/scholarhub/internal/pkg/logger"
)

// ReportRepository runs dashboard aggregates
type ReportRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

var _ IReportRepository = (*ReportRepository)(nil)

// NewReportRepository creates a new ReportRepository
func NewReportRepository(database *db.PostgresDB) *ReportRepository {
	return &ReportRepository{db: database, sb: statementBuilder()}
}

func (r *ReportRepository) aggregate(ctx context.Context, q squirrel.SelectBuilder) ([]models.StatusAggregate, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building aggregate SQL")
		return nil, err
	}
	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing aggregate query")
		return nil, err
	}
	defer rows.Close()

	out := make([]models.StatusAggregate, 0)
	for rows.Next() {
		var a models.StatusAggregate
		if err := rows.Scan(&a.Status, &a.Count, &a.Amount); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ApplicationsByStatus counts applications per status.
func (r *ReportRepository) ApplicationsByStatus(ctx context.Context) ([]models.StatusAggregate, error) {
	return r.aggregate(ctx, r.sb.Select("status", "COUNT(*)", "0::float8").
		From("applications").GroupBy("status").OrderBy("status"))
}

// ScholarshipsByStatus counts scholarships per status and sums their funding.
func (r *ReportRepository) ScholarshipsByStatus(ctx context.Context) ([]models.StatusAggregate, error) {
	return r.aggregate(ctx, r.sb.Select("status", "COUNT(*)", "COALESCE(SUM(total_funding), 0)::float8").
		From("scholarships").GroupBy("status").OrderBy("status"))
}

// UsersByRole counts users per role slug.
func (r *ReportRepository) UsersByRole(ctx context.Context) ([]models.StatusAggregate, error) {
	return r.aggregate(ctx, r.sb.Select("ro.name", "COUNT(u.id)", "0::float8").
		From("roles ro").
		LeftJoin("users u ON u.role_id = ro.id").
		Where(squirrel.Eq{"ro.deleted_at": nil}).
		GroupBy("ro.name").OrderBy("ro.name"))
}

// PaymentsByStatus counts payments per status and sums their amounts.
func (r *ReportRepository) PaymentsByStatus(ctx context.Context) ([]models.StatusAggregate, error) {
	return r.aggregate(ctx, r.sb.Select("status", "COUNT(*)", "COALESCE(SUM(amount), 0)::float8").
		From("payments").GroupBy("status").OrderBy("status"))
}

// PayoutsByScholarship sums completed and outstanding money per scholarship.
// Cancelled payments count toward neither.
func (r *ReportRepository) PayoutsByScholarship(ctx context.Context) ([]models.ScholarshipPayout, error) {
	sql, args, err := r.sb.Select(
		"s.id", "s.name",
		"COALESCE(SUM(p.amount) FILTER (WHERE p.status = 'completed'), 0)::float8",
		"COALESCE(SUM(p.amount) FILTER (WHERE p.status IN ('pending', 'processing', 'failed')), 0)::float8",
		"COUNT(p.id) FILTER (WHERE p.status <> 'cancelled')",
	).
		From("scholarships s").
		Join("payments p ON p.scholarship_id = s.id").
		GroupBy("s.id", "s.name").
		OrderBy("s.name").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing payouts by scholarship query")
		return nil, err
	}
	defer rows.Close()

	out := make([]models.ScholarshipPayout, 0)
	for rows.Next() {
		var p models.ScholarshipPayout
		if err := rows.Scan(&p.ScholarshipID, &p.Name, &p.Disbursed, &p.Outstanding, &p.Recipients); err != nil {
			return nil, fmt.Errorf("scan payout: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
