package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/db"
	"github.com/yigit/scholarhub/internal/pkg/logger"
)

// EmailDeliveryRepository is the email outbox
type EmailDeliveryRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

var _ IEmailDeliveryRepository = (*EmailDeliveryRepository)(nil)

// NewEmailDeliveryRepository creates a new EmailDeliveryRepository
func NewEmailDeliveryRepository(database *db.PostgresDB) *EmailDeliveryRepository {
	return &EmailDeliveryRepository{db: database, sb: statementBuilder()}
}

func (r *EmailDeliveryRepository) selectDeliveryQuery() squirrel.SelectBuilder {
	return r.sb.Select("id", "notification_id", "user_id", "recipient", "subject", "body",
		"status", "attempts", "last_error", "next_attempt_at", "sent_at", "created_at").
		From("email_deliveries")
}

func scanDelivery(row pgx.Row) (*models.EmailDelivery, error) {
	var d models.EmailDelivery
	err := row.Scan(&d.ID, &d.NotificationID, &d.UserID, &d.Recipient, &d.Subject, &d.Body,
		&d.Status, &d.Attempts, &d.LastError, &d.NextAttemptAt, &d.SentAt, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Enqueue writes a pending delivery. Call it inside the transaction of the
// change that triggers the email.
func (r *EmailDeliveryRepository) Enqueue(ctx context.Context, d *models.EmailDelivery) (int64, error) {
	if d.Status == "" {
		d.Status = models.EmailPending
	}
	sql, args, err := r.sb.Insert("email_deliveries").
		Columns("notification_id", "user_id", "recipient", "subject", "body", "status", "attempts", "next_attempt_at").
		Values(d.NotificationID, d.UserID, d.Recipient, d.Subject, d.Body, string(d.Status), d.Attempts, d.NextAttemptAt).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building enqueue email SQL")
		return 0, err
	}
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&d.ID, &d.CreatedAt); err != nil {
		logger.Error().Err(err).Str("recipient", d.Recipient).Msg("Error executing enqueue email query")
		return 0, fmt.Errorf("error enqueuing email: %w", err)
	}
	return d.ID, nil
}

// ListByIDs loads specific outbox rows.
func (r *EmailDeliveryRepository) ListByIDs(ctx context.Context, ids []int64) ([]*models.EmailDelivery, error) {
	if len(ids) == 0 {
		return []*models.EmailDelivery{}, nil
	}
	sql, args, err := r.selectDeliveryQuery().Where(squirrel.Eq{"id": ids}).OrderBy("id").ToSql()
	if err != nil {
		return nil, err
	}
	return r.query(ctx, sql, args...)
}

// ListDue returns unsent rows whose next attempt is due and whose attempts
// are below maxAttempts, oldest first.
func (r *EmailDeliveryRepository) ListDue(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*models.EmailDelivery, error) {
	sql, args, err := r.selectDeliveryQuery().
		Where(squirrel.Eq{"status": []string{string(models.EmailPending), string(models.EmailFailed)}}).
		Where(squirrel.Lt{"attempts": maxAttempts}).
		Where(squirrel.LtOrEq{"next_attempt_at": now}).
		OrderBy("next_attempt_at", "id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.query(ctx, sql, args...)
}

func (r *EmailDeliveryRepository) query(ctx context.Context, sql string, args ...interface{}) ([]*models.EmailDelivery, error) {
	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing email deliveries query")
		return nil, err
	}
	defer rows.Close()

	items := make([]*models.EmailDelivery, 0)
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan email delivery: %w", err)
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// MarkSent records a successful send.
func (r *EmailDeliveryRepository) MarkSent(ctx context.Context, id int64, at time.Time) error {
	sql, args, err := r.sb.Update("email_deliveries").
		Set("status", string(models.EmailSent)).
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("sent_at", at).
		Set("last_error", nil).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.Conn(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error marking email sent: %w", err)
	}
	return nil
}

// MarkFailed records a failed attempt and when to try again.
func (r *EmailDeliveryRepository) MarkFailed(ctx context.Context, id int64, reason string, nextAttempt time.Time) error {
	sql, args, err := r.sb.Update("email_deliveries").
		Set("status", string(models.EmailFailed)).
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("last_error", reason).
		Set("next_attempt_at", nextAttempt).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.Conn(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error marking email failed: %w", err)
	}
	return nil
}
