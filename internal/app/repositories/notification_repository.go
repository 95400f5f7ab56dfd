package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/db"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
	"github.com/yigit/scholarhub/internal/pkg/logger"
)

// NotificationRepository handles notifications and their per-user read state
type NotificationRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

var _ INotificationRepository = (*NotificationRepository)(nil)

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(database *db.PostgresDB) *NotificationRepository {
	return &NotificationRepository{db: database, sb: statementBuilder()}
}

var notificationColumns = []string{
	"n.id", "n.type", "n.title", "n.message", "n.priority", "n.target_roles",
	"n.user_ids", "n.expires_at", "n.action_url", "n.sent_count", "n.created_by", "n.created_at",
}

func scanNotification(row pgx.Row, extra ...interface{}) (*models.Notification, error) {
	var n models.Notification
	dest := []interface{}{
		&n.ID, &n.Type, &n.Title, &n.Message, &n.Priority, &n.TargetRoles,
		&n.UserIDs, &n.ExpiresAt, &n.ActionURL, &n.SentCount, &n.CreatedBy, &n.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, err
	}
	return &n, nil
}

// Create inserts a notification and returns its id.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) (int64, error) {
	roles := n.TargetRoles
	if roles == nil {
		roles = []string{}
	}
	userIDs := n.UserIDs
	if userIDs == nil {
		userIDs = []int64{}
	}

	sql, args, err := r.sb.Insert("notifications").
		Columns("type", "title", "message", "priority", "target_roles", "user_ids",
			"expires_at", "action_url", "sent_count", "created_by").
		Values(string(n.Type), n.Title, n.Message, string(n.Priority), roles, userIDs,
			n.ExpiresAt, n.ActionURL, n.SentCount, n.CreatedBy).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create notification SQL")
		return 0, err
	}

	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&n.ID, &n.CreatedAt); err != nil {
		logger.Error().Err(err).Msg("Error executing create notification query")
		return 0, fmt.Errorf("error creating notification: %w", err)
	}
	return n.ID, nil
}

// AddRecipients records userIDs as recipients. Repeated ids are ignored; the
// number of new rows is returned.
func (r *NotificationRepository) AddRecipients(ctx context.Context, notificationID int64, userIDs []int64) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	q := r.sb.Insert("notification_recipients").Columns("notification_id", "user_id")
	for _, id := range userIDs {
		q = q.Values(notificationID, id)
	}
	sql, args, err := q.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building add recipients SQL")
		return 0, err
	}

	tag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("notificationID", notificationID).Msg("Error executing add recipients query")
		return 0, fmt.Errorf("error adding recipients: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SetSentCount stores how many users received the notification.
func (r *NotificationRepository) SetSentCount(ctx context.Context, notificationID int64, count int) error {
	sql, args, err := r.sb.Update("notifications").
		Set("sent_count", count).
		Where(squirrel.Eq{"id": notificationID}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.Conn(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error updating sent count: %w", err)
	}
	return nil
}

// GetByID retrieves a notification without per-user state.
func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	sql, args, err := r.sb.Select(notificationColumns...).
		From("notifications n").
		Where(squirrel.Eq{"n.id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanNotification(r.db.Conn(ctx).QueryRow(ctx, sql, args...))
}

func unexpired(now time.Time) squirrel.Sqlizer {
	return squirrel.Or{
		squirrel.Eq{"n.expires_at": nil},
		squirrel.Gt{"n.expires_at": now},
	}
}

// ListForUser returns the user's unexpired notifications, newest first.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID int64, now time.Time, page, size int) ([]*models.Notification, int64, error) {
	where := squirrel.And{squirrel.Eq{"nr.user_id": userID}, unexpired(now)}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").
		From("notification_recipients nr").
		Join("notifications n ON n.id = nr.notification_id").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := r.db.Conn(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error counting user notifications")
		return nil, 0, err
	}

	q := r.sb.Select(append(notificationColumns, "nr.read_at")...).
		From("notification_recipients nr").
		Join("notifications n ON n.id = nr.notification_id").
		Where(where).
		OrderBy("n.created_at DESC", "n.id DESC")
	sql, args, err := paginate(q, page, size).ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error listing user notifications")
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*models.Notification, 0)
	for rows.Next() {
		var readAt *time.Time
		n, err := scanNotification(rows, &readAt)
		if err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		n.ReadAt = readAt
		items = append(items, n)
	}
	return items, total, rows.Err()
}

// CountUnread counts the user's unread, unexpired notifications.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64, now time.Time) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("notification_recipients nr").
		Join("notifications n ON n.id = nr.notification_id").
		Where(squirrel.Eq{"nr.user_id": userID, "nr.read_at": nil}).
		Where(unexpired(now)).
		ToSql()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting unread notifications: %w", err)
	}
	return n, nil
}

// MarkRead marks one notification read for userID. A notification the user
// never received is reported as not found.
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID, userID int64, at time.Time) error {
	sql, args, err := r.sb.Update("notification_recipients").
		Set("read_at", squirrel.Expr("COALESCE(read_at, ?)", at)).
		Where(squirrel.Eq{"notification_id": notificationID, "user_id": userID}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error marking notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of userID read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64, at time.Time) (int64, error) {
	sql, args, err := r.sb.Update("notification_recipients").
		Set("read_at", at).
		Where(squirrel.Eq{"user_id": userID, "read_at": nil}).
		ToSql()
	if err != nil {
		return 0, err
	}
	tag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error marking notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// List returns every notification, newest first, for administration.
func (r *NotificationRepository) List(ctx context.Context, page, size int) ([]*models.Notification, int64, error) {
	var total int64
	if err := r.db.Conn(ctx).QueryRow(ctx, "SELECT COUNT(*) FROM notifications").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting notifications: %w", err)
	}

	q := r.sb.Select(notificationColumns...).From("notifications n").OrderBy("n.created_at DESC", "n.id DESC")
	sql, args, err := paginate(q, page, size).ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing notifications")
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*models.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		items = append(items, n)
	}
	return items, total, rows.Err()
}

// Delete removes a notification; recipient rows cascade.
func (r *NotificationRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("notifications").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error deleting notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotificationNotFound
	}
	return nil
}
