package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/yigit/scholarhub/internal/db"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
	"github.com/yigit/scholarhub/internal/pkg/logger"
)

// OneTimeTokenRepository manages single-use link tokens. The same shape backs
// email verification and password reset; only the table differs.
type OneTimeTokenRepository struct {
	db    *db.PostgresDB
	sb    squirrel.StatementBuilderType
	table string
}

var _ IOneTimeTokenRepository = (*OneTimeTokenRepository)(nil)

// NewVerificationTokenRepository backs email verification links.
func NewVerificationTokenRepository(database *db.PostgresDB) *OneTimeTokenRepository {
	return &OneTimeTokenRepository{db: database, sb: statementBuilder(), table: "email_verification_tokens"}
}

// NewPasswordResetRepository backs password reset links.
func NewPasswordResetRepository(database *db.PostgresDB) *OneTimeTokenRepository {
	return &OneTimeTokenRepository{db: database, sb: statementBuilder(), table: "password_reset_tokens"}
}

// CreateToken stores a new token for userID.
func (r *OneTimeTokenRepository) CreateToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	sql, args, err := r.sb.Insert(r.table).
		Columns("user_id", "token", "expires_at").
		Values(userID, token, expiresAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if _, err = r.db.Conn(ctx).Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("table", r.table).Int64("userID", userID).Msg("Error creating one-time token")
		return fmt.Errorf("error creating token: %w", err)
	}
	return nil
}

// ConsumeToken marks an unused, unexpired token as used and returns its owner.
// Unknown, used and expired tokens are indistinguishable to the caller.
func (r *OneTimeTokenRepository) ConsumeToken(ctx context.Context, token string, now time.Time) (int64, error) {
	sql, args, err := r.sb.Update(r.table).
		Set("used_at", now).
		Where(squirrel.Eq{"token": token, "used_at": nil}).
		Where(squirrel.Gt{"expires_at": now}).
		Suffix("RETURNING user_id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var userID int64
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrTokenInvalid
		}
		logger.Error().Err(err).Str("table", r.table).Msg("Error consuming one-time token")
		return 0, fmt.Errorf("error consuming token: %w", err)
	}
	return userID, nil
}

// InvalidateUserTokens marks every outstanding token of userID as used.
func (r *OneTimeTokenRepository) InvalidateUserTokens(ctx context.Context, userID int64) error {
	sql, args, err := r.sb.Update(r.table).
		Set("used_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"user_id": userID, "used_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if _, err = r.db.Conn(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error invalidating tokens: %w", err)
	}
	return nil
}
