package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rede-abrigo/admin-backend/models"
	"github.com/rede-abrigo/admin-backend/repositories"
	"go.uber.org/zap"
)

const permissionColumns = `id, role, table_name, field_name, permission_type, created_at, updated_at`

// PermissionRepository implements repositories.PermissionRepository
type PermissionRepository struct {
	db     *DB
	tx     repositories.Transaction
	logger *zap.Logger
}

// NewPermissionRepository creates a new permission repository
func NewPermissionRepository(db *DB, logger *zap.Logger) repositories.PermissionRepository {
	return &PermissionRepository{
		db:     db,
		logger: logger,
	}
}

// Exists is the point lookup behind every permission check
func (r *PermissionRepository) Exists(ctx context.Context, role models.UserRole, table, field string, kind models.PermissionKind) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM permissions
			WHERE role = $1 AND table_name = $2 AND field_name = $3 AND permission_type = $4
		)
	`

	var exists bool
	executor := GetExecutor(ctx, r.db, r.tx)
	if err := executor.QueryRowContext(ctx, query, role, table, field, kind).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to look up permission: %w", err)
	}

	return exists, nil
}

// List returns every well-formed record ordered by role, table, field
func (r *PermissionRepository) List(ctx context.Context) ([]*models.Permission, error) {
	query := `SELECT ` + permissionColumns + `
		FROM permissions
		ORDER BY role, table_name, field_name, permission_type
	`
	return r.queryPermissions(ctx, query)
}

// ListByRoleAndTable returns the records of one role on one table
func (r *PermissionRepository) ListByRoleAndTable(ctx context.Context, role models.UserRole, table string) ([]*models.Permission, error) {
	query := `SELECT ` + permissionColumns + `
		FROM permissions
		WHERE role = $1 AND table_name = $2
		ORDER BY field_name, permission_type
	`
	return r.queryPermissions(ctx, query, role, table)
}

// Create inserts a permission record
func (r *PermissionRepository) Create(ctx context.Context, p *models.Permission) error {
	query := `
		INSERT INTO permissions (` + permissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	executor := GetExecutor(ctx, r.db, r.tx)
	_, err := executor.ExecContext(ctx, query,
		p.ID,
		p.Role,
		p.Table,
		p.Field,
		p.PermissionType,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return mapWriteError("failed to create permission", err)
	}

	r.logger.Debug("permission created",
		zap.String("id", p.ID.String()),
		zap.String("role", string(p.Role)),
		zap.String("table", p.Table),
		zap.String("field", p.Field),
		zap.String("kind", string(p.PermissionType)),
	)
	return nil
}

// GetByID retrieves a permission by ID
func (r *PermissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE id = $1`

	executor := GetExecutor(ctx, r.db, r.tx)
	row := permissionRow{}
	err := executor.QueryRowContext(ctx, query, id).Scan(row.targets()...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("permission %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get permission: %w", err)
	}

	p := row.permission()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("permission %s: %w: %w", id, repositories.ErrMalformed, err)
	}
	return p, nil
}

// Delete deletes a permission
func (r *PermissionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	executor := GetExecutor(ctx, r.db, r.tx)
	result, err := executor.ExecContext(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete permission: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("permission %s: %w", id, repositories.ErrNotFound)
	}

	r.logger.Debug("permission deleted", zap.String("id", id.String()))
	return nil
}

// DeleteByRoleAndTable removes every record of role on table
func (r *PermissionRepository) DeleteByRoleAndTable(ctx context.Context, role models.UserRole, table string) (int64, error) {
	executor := GetExecutor(ctx, r.db, r.tx)
	result, err := executor.ExecContext(ctx,
		`DELETE FROM permissions WHERE role = $1 AND table_name = $2`, role, table)
	if err != nil {
		return 0, fmt.Errorf("failed to delete permissions: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *PermissionRepository) WithTx(tx repositories.Transaction) repositories.PermissionRepository {
	return &PermissionRepository{
		db:     r.db,
		tx:     tx,
		logger: r.logger,
	}
}

// permissionRow scans with nullable columns so a damaged row can be reported instead of failing the listing
type permissionRow struct {
	id        uuid.NullUUID
	role      sql.NullString
	table     sql.NullString
	field     sql.NullString
	kind      sql.NullString
	createdAt sql.NullTime
	updatedAt sql.NullTime
}

func (row *permissionRow) targets() []interface{} {
	return []interface{}{&row.id, &row.role, &row.table, &row.field, &row.kind, &row.createdAt, &row.updatedAt}
}

func (row *permissionRow) permission() *models.Permission {
	return &models.Permission{
		ID:             row.id.UUID,
		Role:           models.UserRole(row.role.String),
		Table:          row.table.String,
		Field:          row.field.String,
		PermissionType: models.PermissionKind(row.kind.String),
		CreatedAt:      row.createdAt.Time,
		UpdatedAt:      row.updatedAt.Time,
	}
}

func (r *PermissionRepository) queryPermissions(ctx context.Context, query string, args ...interface{}) ([]*models.Permission, error) {
	executor := GetExecutor(ctx, r.db, r.tx)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query permissions: %w", err)
	}
	defer rows.Close()

	permissions := make([]*models.Permission, 0)
	for rows.Next() {
		row := permissionRow{}
		if err := rows.Scan(row.targets()...); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}

		p := row.permission()
		if err := p.Validate(); err != nil {
			r.logger.Warn("skipping malformed permission record",
				zap.String("id", row.id.UUID.String()),
				zap.Error(fmt.Errorf("%w: %w", repositories.ErrMalformed, err)),
			)
			continue
		}
		permissions = append(permissions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating permission rows: %w", err)
	}

	return permissions, nil
}
