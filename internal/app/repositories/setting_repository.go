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
)

// SettingRepository stores system settings
type SettingRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

var _ ISettingRepository = (*SettingRepository)(nil)

// NewSettingRepository creates a new SettingRepository
func NewSettingRepository(database *db.PostgresDB) *SettingRepository {
	return &SettingRepository{db: database, sb: statementBuilder()}
}

func scanSetting(row pgx.Row) (*models.SystemSetting, error) {
	var (
		s   models.SystemSetting
		raw []byte
	)
	if err := row.Scan(&s.Key, &raw, &s.Description, &s.UpdatedBy, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSettingNotFound
		}
		return nil, err
	}
	s.Value = raw
	return &s, nil
}

func (r *SettingRepository) selectSettingQuery() squirrel.SelectBuilder {
	return r.sb.Select("key", "value", "description", "updated_by", "updated_at").From("system_settings")
}

// List returns every setting ordered by key.
func (r *SettingRepository) List(ctx context.Context) ([]*models.SystemSetting, error) {
	sql, args, err := r.selectSettingQuery().OrderBy("key").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing settings: %w", err)
	}
	defer rows.Close()

	items := make([]*models.SystemSetting, 0)
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// Get returns one setting.
func (r *SettingRepository) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	sql, args, err := r.selectSettingQuery().Where(squirrel.Eq{"key": key}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanSetting(r.db.Conn(ctx).QueryRow(ctx, sql, args...))
}

// Upsert inserts or replaces a setting. A nil description keeps the stored one.
func (r *SettingRepository) Upsert(ctx context.Context, s *models.SystemSetting) error {
	sql, args, err := r.sb.Insert("system_settings").
		Columns("key", "value", "description", "updated_by").
		Values(s.Key, []byte(s.Value), s.Description, s.UpdatedBy).
		Suffix(`ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			description = COALESCE(EXCLUDED.description, system_settings.description),
			updated_by = EXCLUDED.updated_by,
			updated_at = NOW()
			RETURNING description, updated_at`).
		ToSql()
	if err != nil {
		return err
	}
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&s.Description, &s.UpdatedAt); err != nil {
		return fmt.Errorf("error saving setting: %w", err)
	}
	return nil
}
