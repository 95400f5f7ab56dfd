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
	"github.com/yigit/scholarhub/internal/pkg/logger"
)

// RoleRepository handles role database operations
type RoleRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewRoleRepository creates a new RoleRepository
func NewRoleRepository(database *db.PostgresDB) *RoleRepository {
	return &RoleRepository{db: database, sb: statementBuilder()}
}

func (r *RoleRepository) selectRoleQuery() squirrel.SelectBuilder {
	return r.sb.Select("id", "name", "display_name", "description", "permissions", "is_active", "created_at", "deleted_at").
		From("roles").
		Where(squirrel.Eq{"deleted_at": nil})
}

// ScanRole maps a roles row.
func ScanRole(row pgx.Row) (*models.Role, error) {
	var role models.Role
	err := row.Scan(&role.ID, &role.Name, &role.DisplayName, &role.Description,
		&role.Permissions, &role.IsActive, &role.CreatedAt, &role.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

// List returns every non-deleted role ordered by id.
func (r *RoleRepository) List(ctx context.Context) ([]*models.Role, error) {
	sql, args, err := r.selectRoleQuery().OrderBy("id").ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list roles SQL")
		return nil, err
	}

	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list roles query")
		return nil, err
	}
	defer rows.Close()

	roles := make([]*models.Role, 0, 5)
	for rows.Next() {
		role, err := ScanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetByName looks a role up by slug.
func (r *RoleRepository) GetByName(ctx context.Context, name models.RoleName) (*models.Role, error) {
	sql, args, err := r.selectRoleQuery().Where(squirrel.Eq{"name": string(name)}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get role SQL")
		return nil, err
	}
	return ScanRole(r.db.Conn(ctx).QueryRow(ctx, sql, args...))
}
