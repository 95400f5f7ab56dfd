package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/db"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
	"github.com/yigit/scholarhub/internal/pkg/dberrors"
	"github.com/yigit/scholarhub/internal/pkg/logger"
)

// PaymentRepository handles payment database operations
type PaymentRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

var _ IPaymentRepository = (*PaymentRepository)(nil)

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(database *db.PostgresDB) *PaymentRepository {
	return &PaymentRepository{db: database, sb: statementBuilder()}
}

func (r *PaymentRepository) selectPaymentQuery() squirrel.SelectBuilder {
	return r.sb.Select(
		"p.id", "p.application_id", "p.scholarship_id", "p.student_id", "p.amount",
		"p.status", "p.payment_method", "p.reference_number", "p.scheduled_date",
		"p.processed_at", "p.processed_by", "p.failure_reason", "p.notes", "p.attempts",
		"p.created_at", "p.updated_at",
		"TRIM(u.first_name || ' ' || u.last_name)", "s.name",
	).
		From("payments p").
		Join("users u ON u.id = p.student_id").
		Join("scholarships s ON s.id = p.scholarship_id")
}

// ScanPayment maps a row produced by selectPaymentQuery.
func ScanPayment(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.ID, &p.ApplicationID, &p.ScholarshipID, &p.StudentID, &p.Amount,
		&p.Status, &p.PaymentMethod, &p.ReferenceNumber, &p.ScheduledDate,
		&p.ProcessedAt, &p.ProcessedBy, &p.FailureReason, &p.Notes, &p.Attempts,
		&p.CreatedAt, &p.UpdatedAt,
		&p.StudentName, &p.ScholarshipName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a payment. One payment per application is enforced by
// payments_application_id_key.
func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) (int64, error) {
	sql, args, err := r.sb.Insert("payments").
		Columns("application_id", "scholarship_id", "student_id", "amount", "status",
			"payment_method", "reference_number", "scheduled_date", "notes", "attempts").
		Values(p.ApplicationID, p.ScholarshipID, p.StudentID, p.Amount, string(p.Status),
			string(p.PaymentMethod), p.ReferenceNumber, p.ScheduledDate, p.Notes, p.Attempts).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create payment SQL")
		return 0, err
	}

	err = r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "payments_application_id_key") {
			return 0, apperrors.NewConflictError("a payment already exists for this application")
		}
		if dberrors.IsDuplicateConstraintError(err, "payments_reference_number_key") {
			return 0, apperrors.NewConflictError("payment reference collision")
		}
		logger.Error().Err(err).Int64("applicationID", p.ApplicationID).Msg("Error executing create payment query")
		return 0, fmt.Errorf("error creating payment: %w", err)
	}
	return p.ID, nil
}

// GetByID retrieves a payment by id.
func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	sql, args, err := r.selectPaymentQuery().Where(squirrel.Eq{"p.id": id}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get payment SQL")
		return nil, err
	}
	return ScanPayment(r.db.Conn(ctx).QueryRow(ctx, sql, args...))
}

// LockByID reads a payment and locks its row.
func (r *PaymentRepository) LockByID(ctx context.Context, id int64) (*models.Payment, error) {
	sql, args, err := r.selectPaymentQuery().Where(squirrel.Eq{"p.id": id}).Suffix("FOR UPDATE OF p").ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building lock payment SQL")
		return nil, err
	}
	return ScanPayment(r.db.Conn(ctx).QueryRow(ctx, sql, args...))
}

// GetByApplicationID returns the payment derived from an application.
func (r *PaymentRepository) GetByApplicationID(ctx context.Context, applicationID int64) (*models.Payment, error) {
	sql, args, err := r.selectPaymentQuery().Where(squirrel.Eq{"p.application_id": applicationID}).ToSql()
	if err != nil {
		return nil, err
	}
	return ScanPayment(r.db.Conn(ctx).QueryRow(ctx, sql, args...))
}

// Update writes the processing fields of a payment.
func (r *PaymentRepository) Update(ctx context.Context, p *models.Payment) error {
	sql, args, err := r.sb.Update("payments").
		Set("status", string(p.Status)).
		Set("payment_method", string(p.PaymentMethod)).
		Set("scheduled_date", p.ScheduledDate).
		Set("processed_at", p.ProcessedAt).
		Set("processed_by", p.ProcessedBy).
		Set("failure_reason", p.FailureReason).
		Set("notes", p.Notes).
		Set("attempts", p.Attempts).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": p.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update payment SQL")
		return err
	}

	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrPaymentNotFound
		}
		logger.Error().Err(err).Int64("paymentID", p.ID).Msg("Error executing update payment query")
		return fmt.Errorf("error updating payment: %w", err)
	}
	return nil
}

// List returns a filtered page of payments and the total match count.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]*models.Payment, int64, error) {
	where := squirrel.And{}
	if filter.Status != nil {
		where = append(where, squirrel.Eq{"p.status": string(*filter.Status)})
	}
	if filter.ScholarshipID != nil {
		where = append(where, squirrel.Eq{"p.scholarship_id": *filter.ScholarshipID})
	}
	if filter.StudentID != nil {
		where = append(where, squirrel.Eq{"p.student_id": *filter.StudentID})
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("payments p").Where(where).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building count payments SQL")
		return nil, 0, err
	}
	var total int64
	if err := r.db.Conn(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count payments query")
		return nil, 0, err
	}

	q := r.selectPaymentQuery().Where(where).OrderBy("p.created_at DESC", "p.id DESC")
	sql, args, err := paginate(q, filter.Page, filter.Size).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list payments SQL")
		return nil, 0, err
	}

	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list payments query")
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*models.Payment, 0)
	for rows.Next() {
		p, err := ScanPayment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan payment: %w", err)
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
